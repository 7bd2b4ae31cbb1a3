package lobby

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/artedaguerra/eralobby/server/lang"
	"github.com/artedaguerra/eralobby/server/permission"
	"github.com/artedaguerra/eralobby/server/plugin"
	"github.com/artedaguerra/eralobby/server/store"
	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/google/uuid"
	"golang.org/x/text/language"
)

const storeTimeout = 3 * time.Second

// commands renders command replies in the locale of the source.
type commands struct {
	pl *lobbyPlugin
}

func (c commands) locale(src cmd.Source) language.Tag {
	if p, ok := src.(*player.Player); ok {
		return c.pl.manager.Locale(p)
	}
	return c.pl.manager.DefaultLocale()
}

func (c commands) print(src cmd.Source, o *cmd.Output, key string, args ...any) {
	o.Print(lang.Translate(c.locale(src), key, args...))
}

func (c commands) fail(src cmd.Source, o *cmd.Output, key string, args ...any) {
	o.Error(lang.Translate(c.locale(src), key, args...))
}

// playerWith returns src as a player holding node, replying otherwise.
func (c commands) playerWith(src cmd.Source, o *cmd.Output, node string) (*player.Player, bool) {
	p, ok := src.(*player.Player)
	if !ok {
		c.fail(src, o, "lobby.players_only")
		return nil, false
	}
	if !c.pl.manager.HasNode(p, node) {
		c.fail(src, o, "lobby.no_permission")
		return nil, false
	}
	return p, true
}

type lobbyCommand struct {
	commands
}

func (c lobbyCommand) Run(src cmd.Source, o *cmd.Output, tx *world.Tx) {
	if p, ok := c.playerWith(src, o, permission.Lobby); ok {
		c.pl.manager.TeleportToLobby(p, tx)
	}
}

type eraCommand struct {
	commands
	Number cmd.Optional[string] `cmd:"numero"`
}

func (c eraCommand) Run(src cmd.Source, o *cmd.Output, tx *world.Tx) {
	p, ok := c.playerWith(src, o, permission.Era)
	if !ok {
		return
	}
	arg, _ := c.Number.Load()
	n, replies := parseEra(arg)
	if len(replies) > 0 {
		c.fail(src, o, replies[0])
		for _, key := range replies[1:] {
			c.print(src, o, key)
		}
		return
	}
	c.pl.manager.TeleportToEra(p, tx, n)
}

// parseEra reads an era number. When arg is not a usable era it returns the
// keys of the replies to send instead, the first of which is the error.
func parseEra(arg string) (int, []string) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return 0, []string{"era.usage", "era.example"}
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, []string{"era.invalid_number", "era.example"}
	}
	if n < 1 || n > EraCount {
		return 0, []string{"era.out_of_range"}
	}
	return n, nil
}

type erasCommand struct {
	commands
}

func (c erasCommand) Run(src cmd.Source, o *cmd.Output, _ *world.Tx) {
	if p, ok := c.playerWith(src, o, permission.Eras); ok {
		c.pl.manager.ListEras(p)
	}
}

// EraLines returns the /eras listing as seen by p.
func (m *Manager) EraLines(p *player.Player) []string {
	tag := m.Locale(p)
	lines := []string{lang.Translate(tag, "eras.header")}
	for n := 1; n <= EraCount; n++ {
		status := lang.Translate(tag, "eras.locked")
		if m.HasEraAccess(p, n) {
			status = lang.Translate(tag, "eras.unlocked")
		}
		lines = append(lines, lang.Translate(tag, "eras.line", status, n, m.EraName(tag, n), m.EraPeriod(tag, n)))
	}
	return append(lines, lang.Translate(tag, "eras.footer"))
}

// ListEras sends the era listing to p.
func (m *Manager) ListEras(p *player.Player) {
	for _, line := range m.EraLines(p) {
		p.Message(line)
	}
}

type coreCommand struct {
	commands
	Action cmd.Optional[string] `cmd:"acao"`
}

func (c coreCommand) Run(src cmd.Source, o *cmd.Output, _ *world.Tx) {
	action, _ := c.Action.Load()
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "":
		c.print(src, o, "core.banner", Version)
		c.print(src, o, "core.description")
		c.print(src, o, "core.commands")
		c.print(src, o, "core.cmd_lobby")
		c.print(src, o, "core.cmd_eras")
		c.print(src, o, "core.cmd_era")
	case "reload":
		if !c.admin(src, o) {
			return
		}
		if err := c.pl.Reload(); err != nil {
			c.fail(src, o, "core.reload_failed", err.Error())
			return
		}
		c.print(src, o, "core.reloaded")
	case "info":
		c.print(src, o, "core.info_header")
		c.print(src, o, "core.info_name", Name)
		c.print(src, o, "core.info_version", Version)
		c.print(src, o, "core.info_author", Author)
		c.print(src, o, "core.info_website", Website)
	case "status":
		if !c.admin(src, o) {
			return
		}
		ctx, cancel := context.WithTimeout(c.pl.api.Context(), storeTimeout)
		defer cancel()
		st := c.pl.manager.Status(ctx)
		state := lang.Translate(c.locale(src), "core.inactive")
		if st.Active {
			state = lang.Translate(c.locale(src), "core.active")
		}
		c.print(src, o, "core.status_header")
		c.print(src, o, "core.status_manager", state)
		c.print(src, o, "core.status_uptime", uptime(c.pl.api.StartTime(), time.Now()))
		c.print(src, o, "core.status_players", c.pl.api.PlayerCount(), c.pl.api.MaxPlayerCount())
		c.print(src, o, "core.status_plugins", pluginList(c.pl.api.Plugins()))
		c.print(src, o, "core.status_cooldowns", st.Cooldowns)
		for n := 1; n <= EraCount; n++ {
			if visits := st.Visits[n]; visits > 0 {
				c.print(src, o, "core.status_visits", n, visits)
			}
		}
	case "config":
		p, ok := src.(*player.Player)
		if !ok {
			c.fail(src, o, "lobby.players_only")
			return
		}
		if f, ok := c.pl.manager.SettingsMenu(p); ok {
			p.SendForm(f)
		}
	default:
		c.fail(src, o, "core.unknown_sub")
	}
}

func uptime(start, now time.Time) string {
	if start.IsZero() || now.Before(start) {
		return "0s"
	}
	return now.Sub(start).Truncate(time.Second).String()
}

func pluginList(infos []plugin.Info) string {
	if len(infos) == 0 {
		return "-"
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name+" v"+info.Version)
	}
	slices.Sort(names)
	return strings.Join(names, ", ")
}

func (c commands) admin(src cmd.Source, o *cmd.Output) bool {
	if !c.pl.manager.HasNode(src, permission.Admin) {
		c.fail(src, o, "lobby.no_permission")
		return false
	}
	return true
}

type permAction string

func (permAction) Type() string { return "PermAction" }

func (permAction) Options(cmd.Source) []string { return []string{"add", "deny", "remove"} }

// adminCommands are hidden from sources without the admin node.
type adminCommands struct {
	commands
}

func (c adminCommands) Allow(src cmd.Source) bool {
	return c.pl.manager.HasNode(src, permission.Admin)
}

type permChangeCommand struct {
	adminCommands
	Action permAction `cmd:"acao"`
	Player string     `cmd:"jogador"`
	Node   string     `cmd:"permissao"`
}

type permListCommand struct {
	adminCommands
	List   cmd.SubCommand `cmd:"list"`
	Player string         `cmd:"jogador"`
}

// subject resolves name to an online player or a player with stored grants.
func (c commands) subject(ctx context.Context, name string) (uuid.UUID, string, bool) {
	if h, ok := c.pl.api.PlayerByName(name); ok {
		return h.UUID(), name, true
	}
	id, ok, err := c.pl.manager.Permissions().Resolve(ctx, name)
	if err != nil {
		c.pl.log.Warn("Resolve player.", "name", name, "error", err)
	}
	return id, name, ok
}

func (c permChangeCommand) Run(src cmd.Source, o *cmd.Output, _ *world.Tx) {
	ctx, cancel := context.WithTimeout(c.pl.api.Context(), storeTimeout)
	defer cancel()
	id, name, ok := c.subject(ctx, c.Player)
	if !ok {
		c.fail(src, o, "perm.unknown_player", c.Player)
		return
	}
	perms := c.pl.manager.Permissions()
	node := strings.ToLower(strings.TrimSpace(c.Node))
	var (
		err    error
		notice string
	)
	switch c.Action {
	case "add":
		if err = perms.Grant(ctx, id, name, node); err == nil {
			c.print(src, o, "perm.granted", node, name)
			notice = "perm.notify_granted"
		}
	case "deny":
		if err = perms.Deny(ctx, id, name, node); err == nil {
			c.print(src, o, "perm.denied", node, name)
			notice = "perm.notify_denied"
		}
	case "remove":
		var removed bool
		if removed, err = perms.Revoke(ctx, id, node); err == nil {
			if removed {
				c.print(src, o, "perm.removed", node, name)
				notice = "perm.notify_removed"
			} else {
				c.fail(src, o, "perm.not_set", name, node)
			}
		}
	default:
		c.fail(src, o, "perm.usage")
		return
	}
	if err != nil {
		c.fail(src, o, "perm.failed", err.Error())
		return
	}
	c.pl.log.Info("Permission changed.", "by", sourceName(src), "player", name, "action", string(c.Action), "node", node)
	if notice != "" {
		c.pl.notify(id, notice, node)
	}
}

// notify messages the player with id if they are online. The command runs
// inside a world transaction, so the message is delivered from a goroutine.
func (pl *lobbyPlugin) notify(id uuid.UUID, key string, args ...any) {
	if _, online := pl.api.PlayerSummary(id); !online {
		return
	}
	msg := lang.Translate(pl.manager.DefaultLocale(), key, args...)
	pl.api.Go(func(context.Context) {
		pl.api.MessagePlayer(id, msg)
	})
}

func (c permListCommand) Run(src cmd.Source, o *cmd.Output, _ *world.Tx) {
	ctx, cancel := context.WithTimeout(c.pl.api.Context(), storeTimeout)
	defer cancel()
	id, name, ok := c.subject(ctx, c.Player)
	if !ok {
		c.fail(src, o, "perm.unknown_player", c.Player)
		return
	}
	grants, err := c.pl.manager.Permissions().Grants(ctx, id)
	if err != nil {
		c.fail(src, o, "perm.failed", err.Error())
		return
	}
	c.print(src, o, "perm.list_header", name)
	if summary, online := c.pl.api.PlayerSummary(id); online {
		c.print(src, o, "perm.list_online", summary.World)
	} else {
		c.print(src, o, "perm.list_offline")
	}
	if len(grants) == 0 {
		c.print(src, o, "perm.list_empty")
		return
	}
	for _, line := range grantLines(c.locale(src), grants) {
		o.Print(line)
	}
}

func grantLines(tag language.Tag, grants []store.Grant) []string {
	lines := make([]string, 0, len(grants))
	for _, g := range grants {
		key := "perm.list_deny"
		if g.Allow {
			key = "perm.list_allow"
		}
		lines = append(lines, lang.Translate(tag, key, g.Node))
	}
	return lines
}

func sourceName(src cmd.Source) string {
	if n, ok := src.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "Server"
}

func (pl *lobbyPlugin) registerCommands() {
	c := commands{pl: pl}
	pl.api.RegisterCommand(cmd.New("lobby", "Ir para o lobby das eras.", []string{"hub"}, lobbyCommand{c}))
	pl.api.RegisterCommand(cmd.New("era", "Ir para uma era específica.", nil, eraCommand{commands: c}))
	pl.api.RegisterCommand(cmd.New("eras", "Listar todas as eras.", nil, erasCommand{c}))
	pl.api.RegisterCommand(cmd.New("artedaguerra", "Comando principal do Arte da Guerra.", []string{"adg"}, coreCommand{commands: c}))
	pl.api.RegisterCommand(cmd.New("lobbyperm", "Gerenciar permissões do lobby.", nil,
		permChangeCommand{adminCommands: adminCommands{c}},
		permListCommand{adminCommands: adminCommands{c}},
	))
}
