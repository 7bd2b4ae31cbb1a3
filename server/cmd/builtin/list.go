package builtin

import (
	"fmt"
	"slices"
	"strings"

	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/world"
)

type listCommand struct {
	srv serverAdapter
}

func newListCommand(srv serverAdapter) cmd.Command {
	return cmd.New("list", "Lists players currently online.", []string{"players"}, listCommand{srv: srv})
}

func (l listCommand) Run(_ cmd.Source, o *cmd.Output, _ *world.Tx) {
	for _, line := range l.lines() {
		o.Print(line)
	}
}

func (l listCommand) lines() []string {
	summaries := l.srv.PlayerSummaries()
	names := make([]string, 0, len(summaries))
	for _, s := range summaries {
		if !s.Connected {
			continue
		}
		if s.World != "" {
			names = append(names, s.Name+" ("+s.World+")")
			continue
		}
		names = append(names, s.Name)
	}
	slices.Sort(names)

	lines := []string{fmt.Sprintf("There are %d/%d players online.", len(names), l.srv.MaxPlayerCount())}
	if len(names) != 0 {
		lines = append(lines, strings.Join(names, ", "))
	}
	return lines
}
