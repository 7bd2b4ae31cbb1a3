package builtin

import (
	"github.com/df-mc/dragonfly/server/cmd"
)

// Register registers the built-in command set. ops and wl may be nil, in
// which case the op and whitelist commands are left out and operator-only
// commands are restricted to the console.
func Register(srv serverAdapter, plugins pluginAdapter, ops operatorAdapter, wl whitelistAdapter) {
	cmd.Register(newHelpCommand())
	cmd.Register(newListCommand(srv))
	cmd.Register(newAboutCommand(srv, plugins))
	cmd.Register(newStatusCommand(srv, plugins))
	cmd.Register(newSayCommand(ops))
	cmd.Register(newMeCommand())
	cmd.Register(newStopCommand(srv))
	cmd.Register(newGCCommand())
	cmd.Register(newKickCommand(ops))
	cmd.Register(newGamemodeCommand(ops))
	cmd.Register(newClearCommand(ops))
	cmd.Register(newTimeCommand(ops))
	cmd.Register(newPluginCommand(plugins))
	if ops != nil {
		cmd.Register(newOpCommand(ops))
	}
	if wl != nil {
		cmd.Register(newWhitelistCommand(wl))
	}
}
