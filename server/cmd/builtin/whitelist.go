package builtin

import (
	"errors"
	"strings"

	"github.com/artedaguerra/eralobby/server/permission"
	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/world"
)

type whitelistAddCommand struct {
	consoleOnly
	wl   whitelistAdapter
	Add  cmd.SubCommand `cmd:"add"`
	Name string         `cmd:"player"`
}

type whitelistRemoveCommand struct {
	consoleOnly
	wl     whitelistAdapter
	Remove cmd.SubCommand `cmd:"remove"`
	Name   string         `cmd:"player"`
}

type whitelistListCommand struct {
	consoleOnly
	wl   whitelistAdapter
	List cmd.SubCommand `cmd:"list"`
}

type whitelistToggleCommand struct {
	consoleOnly
	wl    whitelistAdapter
	State whitelistState `cmd:"state"`
}

type whitelistState string

func (whitelistState) Type() string { return "WhitelistState" }

func (whitelistState) Options(cmd.Source) []string { return []string{"on", "off"} }

func newWhitelistCommand(wl whitelistAdapter) cmd.Command {
	return cmd.New(
		"whitelist",
		"Manages the whitelist.",
		nil,
		whitelistAddCommand{wl: wl},
		whitelistRemoveCommand{wl: wl},
		whitelistListCommand{wl: wl},
		whitelistToggleCommand{wl: wl},
	)
}

func (c whitelistAddCommand) Run(_ cmd.Source, o *cmd.Output, _ *world.Tx) {
	name := strings.TrimSpace(c.Name)
	added, err := c.wl.Add(name)
	if err != nil {
		if errors.Is(err, permission.ErrInvalidName) {
			o.Errort(cmd.MessageParameterInvalid, c.Name)
			return
		}
		o.Error(err)
		return
	}
	if added {
		o.Printf("Added %s to the whitelist.", name)
		return
	}
	o.Printf("%s is already on the whitelist.", name)
}

func (c whitelistRemoveCommand) Run(_ cmd.Source, o *cmd.Output, _ *world.Tx) {
	name := strings.TrimSpace(c.Name)
	removed, err := c.wl.Remove(name)
	if err != nil {
		if errors.Is(err, permission.ErrInvalidName) {
			o.Errort(cmd.MessageParameterInvalid, c.Name)
			return
		}
		o.Error(err)
		return
	}
	if removed {
		o.Printf("Removed %s from the whitelist.", name)
		return
	}
	o.Printf("%s is not on the whitelist.", name)
}

func (c whitelistListCommand) Run(_ cmd.Source, o *cmd.Output, _ *world.Tx) {
	entries := c.wl.Entries()
	status := "enabled"
	if !c.wl.Enabled() {
		status = "disabled"
	}
	o.Printf("Whitelist (%s): %d player(s).", status, len(entries))
	if len(entries) != 0 {
		o.Print(strings.Join(entries, ", "))
	}
}

func (c whitelistToggleCommand) Run(_ cmd.Source, o *cmd.Output, _ *world.Tx) {
	switch strings.ToLower(string(c.State)) {
	case "on":
		c.wl.SetEnabled(true)
		o.Print("Whitelist enabled.")
	case "off":
		c.wl.SetEnabled(false)
		o.Print("Whitelist disabled.")
	default:
		o.Errort(cmd.MessageParameterInvalid, string(c.State))
	}
}
