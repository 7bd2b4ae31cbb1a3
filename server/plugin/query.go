package plugin

import (
	"slices"
	"strings"

	"github.com/artedaguerra/eralobby/server/query"
	"github.com/df-mc/dragonfly/server/world"
)

// QuerySource returns a query.Source describing the host and the enabled
// plugins. name and motd are the server names shown by server lists.
func (m *Manager) QuerySource(name, motd string, whitelisted func() bool) query.Source {
	return func() query.Data {
		d := query.Data{
			HostName:    name,
			MOTD:        motd,
			PlayerCount: m.host.PlayerCount(),
			MaxPlayers:  m.host.MaxPlayerCount(),
		}
		if w := m.host.World(); w != nil {
			d.WorldName = w.Name()
			d.GameMode = gameModeName(w.DefaultGameMode())
		}
		for _, info := range m.Infos() {
			d.Plugins = append(d.Plugins, strings.TrimSpace(info.Name+" "+info.Version))
		}
		for _, s := range m.host.PlayerSummaries() {
			d.PlayerNames = append(d.PlayerNames, s.Name)
		}
		slices.Sort(d.PlayerNames)
		if whitelisted != nil {
			d.Whitelist = whitelisted()
		}
		return d
	}
}

func gameModeName(mode world.GameMode) string {
	id, _ := world.GameModeID(mode)
	switch id {
	case 1:
		return "CREATIVE"
	case 2:
		return "ADVENTURE"
	case 3:
		return "SPECTATOR"
	}
	return "SURVIVAL"
}
