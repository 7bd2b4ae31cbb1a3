package query

import (
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/sandertv/gophertunnel/minecraft/protocol"
)

// Data is the server status reported to query clients.
type Data struct {
	HostName string
	// MOTD is shown as the secondary server name by some clients.
	MOTD     string
	GameMode string
	// WorldName is reported as the map.
	WorldName   string
	Engine      string
	Version     string
	PlayerCount int
	MaxPlayers  int
	// HostIP and HostPort are set by the Responder from the listener address.
	HostIP   string
	HostPort int
	// Plugins lists the enabled plugins as "name version".
	Plugins     []string
	PlayerNames []string
	// Whitelist reports whether joining is restricted.
	Whitelist bool
	GameType  string
	GameID    string
}

var engine = engineLabel()

func engineLabel() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return "eralobby"
	}
	return "eralobby " + info.Main.Version
}

func (d *Data) fill() {
	if d.Engine == "" {
		d.Engine = engine
	}
	if d.Version == "" {
		d.Version = protocol.CurrentVersion
	}
	if d.GameType == "" {
		d.GameType = "SMP"
	}
	if d.GameID == "" {
		d.GameID = "MINECRAFT"
	}
	d.HostPort = int(uint16(d.HostPort))
}

// pairs returns the key/value section of an information response in the
// order vanilla servers send it.
func (d Data) pairs() [][2]string {
	kv := [][2]string{
		{"hostname", d.HostName},
		{"gametype", d.GameType},
		{"game_id", d.GameID},
		{"version", d.Version},
		{"server_engine", d.Engine},
		{"plugins", strings.Join(d.Plugins, "; ")},
	}
	if d.WorldName != "" {
		kv = append(kv, [2]string{"map", d.WorldName})
	}
	kv = append(kv,
		[2]string{"numplayers", strconv.Itoa(d.PlayerCount)},
		[2]string{"maxplayers", strconv.Itoa(d.MaxPlayers)},
		[2]string{"whitelist", onOff(d.Whitelist)},
		[2]string{"hostip", d.HostIP},
		[2]string{"hostport", strconv.Itoa(d.HostPort)},
	)
	if d.GameMode != "" {
		kv = append(kv, [2]string{"gamemode", d.GameMode})
	}
	if d.MOTD != "" {
		kv = append(kv, [2]string{"motd", d.MOTD})
	}
	return kv
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
