// Command eralobby runs a Dragonfly server hosting the Arte da Guerra lobby.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/artedaguerra/eralobby/plugins/lobby"
	"github.com/artedaguerra/eralobby/server"
	"github.com/artedaguerra/eralobby/server/cmd/builtin"
	"github.com/artedaguerra/eralobby/server/console"
	"github.com/artedaguerra/eralobby/server/permission"
	"github.com/artedaguerra/eralobby/server/plugin"
	"github.com/artedaguerra/eralobby/server/query"
	"github.com/artedaguerra/eralobby/server/worlds"
	"github.com/df-mc/dragonfly/server/player/chat"
)

func main() {
	e, err := server.ParseEnv()
	if err != nil {
		slog.Error("Read environment.", "error", err)
		os.Exit(1)
	}
	conf, err := server.LoadConfig(e.ConfigFile)
	if err != nil {
		slog.Error("Read config.", "file", e.ConfigFile, "error", err)
		os.Exit(1)
	}
	conf.Apply(e)

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: conf.LogLevel()}))
	slog.SetDefault(log)
	chat.Global.Subscribe(chat.StdoutSubscriber{})

	srvConf, err := conf.ServerConfig(log)
	if err != nil {
		log.Error("Create server config.", "error", err)
		os.Exit(1)
	}
	ops, err := permission.LoadOperators(conf.Lobby.OperatorsFile)
	if err != nil {
		log.Error("Load operators.", "file", conf.Lobby.OperatorsFile, "error", err)
		os.Exit(1)
	}

	wl, err := permission.LoadWhitelist(conf.Whitelist.File, conf.Whitelist.Enabled)
	if err != nil {
		log.Error("Load whitelist.", "file", conf.Whitelist.File, "error", err)
		os.Exit(1)
	}
	srvConf.Allower = wl

	srv := srvConf.New()
	reg := worlds.NewRegistry(worlds.Config{Log: log, Dir: conf.Lobby.WorldsFolder})
	host := plugin.NewServerHost(srv, log, reg, ops)

	plugins := plugin.NewManager(host, plugin.Config{
		Enabled:       conf.Plugins.Enabled,
		DataDirectory: conf.Plugins.Directory,
	})
	if err := plugins.Register(lobby.Name, lobby.New); err != nil {
		log.Error("Register plugin.", "name", lobby.Name, "error", err)
		os.Exit(1)
	}
	plugins.LoadConfigured()
	builtin.Register(host, plugins, ops, wl)
	if conf.Query.Enabled {
		query.Install(query.NewResponder(log, plugins.QuerySource(conf.Dragonfly.Server.Name, conf.Query.MOTD, wl.Enabled)))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go console.New(host, log).Run(ctx)

	host.CloseOnProgramEnd()
	host.Listen()
	for p := range host.Accept() {
		plugins.Join(p)
	}

	plugins.Shutdown()
	if err := reg.Close(); err != nil {
		log.Error("Close worlds.", "error", err)
	}
}
