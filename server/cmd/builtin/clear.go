package builtin

import (
	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/item"
	"github.com/df-mc/dragonfly/server/world"
)

type clearCommand struct {
	operatorOnly
	Targets cmd.Optional[[]cmd.Target] `cmd:"target"`
}

func newClearCommand(ops operatorAdapter) cmd.Command {
	return cmd.New("clear", "Clears items from a player's inventory.", nil, clearCommand{operatorOnly: operatorOnly{ops: ops}})
}

func (c clearCommand) Run(src cmd.Source, o *cmd.Output, _ *world.Tx) {
	players := targetsOrSelf(src, c.Targets)
	if len(players) == 0 {
		o.Errort(cmd.MessageNoTargets)
		return
	}
	for _, p := range players {
		_ = p.Inventory().Clear()
		_ = p.Armour().Clear()
		p.SetHeldItems(item.Stack{}, item.Stack{})
	}
	o.Printf("Cleared inventory of %s.", joinNames(players))
}
