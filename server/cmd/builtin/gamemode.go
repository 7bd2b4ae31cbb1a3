package builtin

import (
	"strings"

	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/world"
)

type gamemodeCommand struct {
	operatorOnly
	Mode    gameModeValue              `cmd:"mode"`
	Targets cmd.Optional[[]cmd.Target] `cmd:"target"`
}

func newGamemodeCommand(ops operatorAdapter) cmd.Command {
	return cmd.New("gamemode", "Changes a player's game mode.", []string{"gm"}, gamemodeCommand{operatorOnly: operatorOnly{ops: ops}})
}

func (g gamemodeCommand) Run(src cmd.Source, o *cmd.Output, _ *world.Tx) {
	mode, alias, ok := parseGameMode(string(g.Mode))
	if !ok {
		o.Errort(cmd.MessageParameterInvalid, g.Mode)
		return
	}
	players := targetsOrSelf(src, g.Targets)
	if len(players) == 0 {
		o.Errort(cmd.MessageNoTargets)
		return
	}
	for _, p := range players {
		p.SetGameMode(mode)
	}
	o.Printf("Set %s to %s mode.", joinNames(players), alias)
}

// targetsOrSelf resolves the optional targets of a command, falling back to
// the source when it is a player.
func targetsOrSelf(src cmd.Source, targets cmd.Optional[[]cmd.Target]) []*player.Player {
	t, ok := targets.Load()
	if !ok {
		if p, ok := src.(*player.Player); ok {
			return []*player.Player{p}
		}
		return nil
	}
	return playersFromTargets(t)
}

func parseGameMode(value string) (world.GameMode, string, bool) {
	switch strings.ToLower(value) {
	case "0", "s", "survival":
		return world.GameModeSurvival, "survival", true
	case "1", "c", "creative":
		return world.GameModeCreative, "creative", true
	case "2", "a", "adventure":
		return world.GameModeAdventure, "adventure", true
	case "3", "sp", "spectator", "spectate":
		return world.GameModeSpectator, "spectator", true
	}
	return nil, "", false
}
