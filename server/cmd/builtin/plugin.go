package builtin

import (
	"sort"
	"strings"

	"github.com/artedaguerra/eralobby/server/plugin"
	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/world"
)

type pluginListCommand struct {
	consoleOnly
	List    cmd.SubCommand `cmd:"list"`
	plugins pluginAdapter
}

type pluginReloadCommand struct {
	consoleOnly
	Reload  cmd.SubCommand `cmd:"reload"`
	Name    string         `cmd:"name"`
	plugins pluginAdapter
}

func newPluginCommand(plugins pluginAdapter) cmd.Command {
	return cmd.New(
		"plugin",
		"Lists and reloads plugins.",
		[]string{"pl"},
		pluginListCommand{plugins: plugins},
		pluginReloadCommand{plugins: plugins},
	)
}

func (p pluginListCommand) Run(_ cmd.Source, o *cmd.Output, _ *world.Tx) {
	if !p.plugins.Enabled() {
		o.Print("Plugin subsystem disabled.")
		return
	}
	plugins := append([]plugin.Info(nil), p.plugins.Infos()...)
	if len(plugins) == 0 {
		o.Print("No plugins loaded.")
		return
	}
	sort.SliceStable(plugins, func(i, j int) bool {
		return strings.ToLower(plugins[i].Name) < strings.ToLower(plugins[j].Name)
	})
	for _, info := range plugins {
		if info.Version != "" {
			o.Printf("%s v%s", info.Name, info.Version)
			continue
		}
		o.Print(info.Name)
	}
}

func (p pluginReloadCommand) Run(_ cmd.Source, o *cmd.Output, _ *world.Tx) {
	if !p.plugins.Enabled() {
		o.Error("Plugin subsystem disabled.")
		return
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		o.Error("Plugin name is required.")
		return
	}
	info, err := p.plugins.Reload(name)
	if err != nil {
		o.Error(err)
		return
	}
	if info.Version != "" {
		o.Printf("Reloaded %s v%s.", info.Name, info.Version)
		return
	}
	o.Printf("Reloaded %s.", info.Name)
}
