package builtin

import (
	"errors"
	"strings"

	"github.com/artedaguerra/eralobby/server/permission"
	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/world"
)

type opAddCommand struct {
	consoleOnly
	ops  operatorAdapter
	Add  cmd.SubCommand `cmd:"add"`
	Name string         `cmd:"player"`
}

type opRemoveCommand struct {
	consoleOnly
	ops    operatorAdapter
	Remove cmd.SubCommand `cmd:"remove"`
	Name   string         `cmd:"player"`
}

type opListCommand struct {
	consoleOnly
	ops  operatorAdapter
	List cmd.SubCommand `cmd:"list"`
}

func newOpCommand(ops operatorAdapter) cmd.Command {
	return cmd.New(
		"op",
		"Manages the players holding every permission.",
		nil,
		opAddCommand{ops: ops},
		opRemoveCommand{ops: ops},
		opListCommand{ops: ops},
	)
}

func (c opAddCommand) Run(_ cmd.Source, o *cmd.Output, _ *world.Tx) {
	name := strings.TrimSpace(c.Name)
	added, err := c.ops.Add(name)
	if err != nil {
		if errors.Is(err, permission.ErrInvalidName) {
			o.Errorf("Invalid player name: %q.", c.Name)
			return
		}
		o.Error(err)
		return
	}
	if added {
		o.Printf("Made %s an operator.", name)
		return
	}
	o.Printf("%s is already an operator.", name)
}

func (c opRemoveCommand) Run(_ cmd.Source, o *cmd.Output, _ *world.Tx) {
	name := strings.TrimSpace(c.Name)
	removed, err := c.ops.Remove(name)
	if err != nil {
		if errors.Is(err, permission.ErrInvalidName) {
			o.Errorf("Invalid player name: %q.", c.Name)
			return
		}
		o.Error(err)
		return
	}
	if removed {
		o.Printf("%s is no longer an operator.", name)
		return
	}
	o.Printf("%s is not an operator.", name)
}

func (c opListCommand) Run(_ cmd.Source, o *cmd.Output, _ *world.Tx) {
	entries := c.ops.Operators()
	o.Printf("Operators: %d player(s).", len(entries))
	if len(entries) != 0 {
		o.Print(strings.Join(entries, ", "))
	}
}
