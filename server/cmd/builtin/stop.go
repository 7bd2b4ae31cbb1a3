package builtin

import (
	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/world"
)

type stopCommand struct {
	consoleOnly
	srv serverAdapter
}

func newStopCommand(srv serverAdapter) cmd.Command {
	return cmd.New("stop", "Stops the server.", nil, stopCommand{srv: srv})
}

func (s stopCommand) Run(src cmd.Source, o *cmd.Output, _ *world.Tx) {
	o.Printf("Stopping server (requested by %s)...", sourceName(src))
	// Closing waits for world transactions, so it cannot run inside this one.
	go func() {
		_ = s.srv.Close()
	}()
}
