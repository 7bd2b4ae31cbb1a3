package plugin

import (
	"strings"

	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/world"
)

// ExecuteLine executes a command line on behalf of the Source passed. The leading
// slash is optional. If the command cannot be found, an error is sent back to
// the Source.
func ExecuteLine(source cmd.Source, commandLine string, tx *world.Tx) {
	if source == nil {
		panic("plugin.ExecuteLine: source must not be nil")
	}
	commandLine = strings.TrimSpace(commandLine)
	if commandLine == "" {
		return
	}
	name, args, _ := strings.Cut(strings.TrimPrefix(commandLine, "/"), " ")
	if name == "" {
		return
	}
	command, ok := cmd.ByAlias(name)
	if !ok {
		output := &cmd.Output{}
		output.Errorf("Unknown command: %s. Please check that the command exists and that you have permission to use it.", name)
		source.SendCommandOutput(output)
		return
	}
	command.Execute(strings.TrimSpace(args), source, tx)
}
