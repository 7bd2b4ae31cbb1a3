package builtin

import (
	"runtime"
	"runtime/debug"
	"time"

	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
)

type aboutCommand struct {
	srv     serverAdapter
	plugins pluginAdapter
}

func newAboutCommand(srv serverAdapter, plugins pluginAdapter) cmd.Command {
	return cmd.New("about", "Displays server and build information.", []string{"version", "ver"}, aboutCommand{srv: srv, plugins: plugins})
}

func (a aboutCommand) Run(_ cmd.Source, o *cmd.Output, _ *world.Tx) {
	info, _ := debug.ReadBuildInfo()
	for _, line := range a.lines(info, time.Now()) {
		o.Print(line)
	}
}

func (a aboutCommand) lines(info *debug.BuildInfo, now time.Time) []string {
	lines := []string{"eralobby (Dragonfly server)"}
	goVersion := runtime.Version()
	if info != nil && info.GoVersion != "" {
		goVersion = info.GoVersion
	}
	lines = append(lines, "Minecraft protocol: "+protocol.CurrentVersion, "Go runtime: "+goVersion)

	if info != nil {
		for _, dep := range info.Deps {
			if dep.Path == "github.com/df-mc/dragonfly" {
				lines = append(lines, "Dragonfly: "+dep.Version)
				break
			}
		}
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && setting.Value != "" {
				lines = append(lines, "Commit: "+setting.Value)
				break
			}
		}
	}
	if a.plugins != nil && a.plugins.Enabled() {
		lines = append(lines, "Plugins: "+pluginNames(a.plugins.Infos()))
	}
	if started := a.srv.StartTime(); !started.IsZero() {
		lines = append(lines, "Uptime: "+now.Sub(started).Round(time.Second).String())
	}
	return lines
}
