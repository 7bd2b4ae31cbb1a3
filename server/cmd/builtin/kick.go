package builtin

import (
	"strings"

	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/world"
)

const defaultKickReason = "Kicked by an operator."

type kickCommand struct {
	operatorOnly
	Targets []cmd.Target              `cmd:"target"`
	Reason  cmd.Optional[cmd.Varargs] `cmd:"reason"`
}

func newKickCommand(ops operatorAdapter) cmd.Command {
	return cmd.New("kick", "Removes one or more players from the server.", nil, kickCommand{operatorOnly: operatorOnly{ops: ops}})
}

func (k kickCommand) Run(_ cmd.Source, o *cmd.Output, _ *world.Tx) {
	players := playersFromTargets(k.Targets)
	if len(players) == 0 {
		o.Errort(cmd.MessageNoTargets)
		return
	}
	reason := kickReason(k.Reason)
	for _, p := range players {
		p.Disconnect(reason)
	}
	o.Printf("Kicked %s", joinNames(players))
}

func kickReason(r cmd.Optional[cmd.Varargs]) string {
	if v, ok := r.Load(); ok {
		if t := strings.TrimSpace(string(v)); t != "" {
			return t
		}
	}
	return defaultKickReason
}
