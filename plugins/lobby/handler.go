package lobby

import (
	"time"

	"github.com/artedaguerra/eralobby/server/lang"
	"github.com/artedaguerra/eralobby/server/worlds"
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/item"
	"github.com/df-mc/dragonfly/server/item/inventory"
	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/go-gl/mathgl/mgl64"
)

const maxFood = 20

// rules decides which actions the lobby cancels for a player.
type rules struct {
	inLobby    bool
	protection bool
	admin      bool
}

// shielded reports whether damage and hunger are suppressed.
func (r rules) shielded() bool { return r.protection && r.inLobby }

// restricted reports whether building and dropping items are cancelled.
func (r rules) restricted() bool { return r.shielded() && !r.admin }

// itemsLocked reports whether the navigation items are held in place.
func (r rules) itemsLocked() bool { return r.inLobby && !r.admin }

// playerHandler applies the lobby rules to players standing in the lobby.
type playerHandler struct {
	player.NopHandler
	m *Manager
}

func (h playerHandler) inLobby(p *player.Player) bool {
	return h.m.InLobby(p.Tx())
}

func (h playerHandler) rules(p *player.Player) rules {
	r := rules{inLobby: h.inLobby(p), protection: h.m.Config().Lobby.Protection}
	if r.inLobby {
		r.admin = h.m.IsAdmin(p)
	}
	return r
}

func (h playerHandler) HandleMove(ctx *player.Context, newPos mgl64.Vec3, _ cube.Rotation) {
	p := ctx.Val()
	if !h.inLobby(p) {
		return
	}
	if newPos.Y() < h.m.VoidLevel() {
		ctx.Cancel()
		p.Teleport(worlds.SpawnPos(h.m.Lobby()))
		return
	}
	n := h.m.Near(newPos)
	if !h.m.enterPad(p.UUID(), n) || n == 0 {
		return
	}
	tag := h.m.Locale(p)
	status := lang.Translate(tag, "proximity.locked")
	if h.m.HasEraAccess(p, n) {
		status = lang.Translate(tag, "proximity.enter")
	}
	p.SendTip(lang.Translate(tag, "proximity.tip", n, h.m.EraName(tag, n), h.m.EraPeriod(tag, n), status))
}

func (h playerHandler) HandleChangeWorld(p *player.Player, _, after *world.World) {
	if after != h.m.Lobby() {
		h.m.forgetNear(p.UUID())
	}
}

func (h playerHandler) HandleItemUse(ctx *player.Context) {
	h.useNavigation(ctx)
}

func (h playerHandler) HandleItemUseOnBlock(ctx *player.Context, _ cube.Pos, _ cube.Face, _ mgl64.Vec3) {
	h.useNavigation(ctx)
}

func (h playerHandler) useNavigation(ctx *player.Context) {
	p := ctx.Val()
	if !h.inLobby(p) {
		return
	}
	held, _ := p.HeldItems()
	switch navigation(held) {
	case navMenu:
		ctx.Cancel()
		p.SendForm(h.m.EraMenu(p))
	case navInfo:
		ctx.Cancel()
		p.SendForm(h.m.InfoMenu(p))
	}
}

func (h playerHandler) HandleBlockBreak(ctx *player.Context, _ cube.Pos, _ *[]item.Stack, _ *int) {
	p := ctx.Val()
	if h.rules(p).restricted() {
		ctx.Cancel()
		h.m.Message(p, "lobby.break_denied")
	}
}

func (h playerHandler) HandleBlockPlace(ctx *player.Context, _ cube.Pos, _ world.Block) {
	p := ctx.Val()
	if h.rules(p).restricted() {
		ctx.Cancel()
		h.m.Message(p, "lobby.place_denied")
	}
}

func (h playerHandler) HandleHurt(ctx *player.Context, _ *float64, _ bool, _ *time.Duration, _ world.DamageSource) {
	if h.rules(ctx.Val()).shielded() {
		ctx.Cancel()
	}
}

func (h playerHandler) HandleFoodLoss(ctx *player.Context, _ int, to *int) {
	if h.rules(ctx.Val()).shielded() {
		ctx.Cancel()
		*to = maxFood
	}
}

func (h playerHandler) HandleItemDrop(ctx *player.Context, _ item.Stack) {
	if h.rules(ctx.Val()).restricted() {
		ctx.Cancel()
	}
}

func (h playerHandler) HandleQuit(p *player.Player) {
	h.m.forgetNear(p.UUID())
	h.m.perms.Forget(p.UUID())
}

// inventoryHandler keeps the navigation items in place for non-admins.
type inventoryHandler struct {
	inventory.NopHandler
	m *Manager
}

func (h inventoryHandler) locked(ctx *inventory.Context) bool {
	p, ok := ctx.Val().(*player.Player)
	if !ok {
		return false
	}
	r := rules{inLobby: h.m.InLobby(p.Tx())}
	if r.inLobby {
		r.admin = h.m.IsAdmin(p)
	}
	return r.itemsLocked()
}

func (h inventoryHandler) HandleTake(ctx *inventory.Context, _ int, _ item.Stack) {
	if h.locked(ctx) {
		ctx.Cancel()
	}
}

func (h inventoryHandler) HandlePlace(ctx *inventory.Context, _ int, _ item.Stack) {
	if h.locked(ctx) {
		ctx.Cancel()
	}
}

func (h inventoryHandler) HandleDrop(ctx *inventory.Context, _ int, _ item.Stack) {
	if h.locked(ctx) {
		ctx.Cancel()
	}
}

// worldHandler stops the lobby from changing on its own.
type worldHandler struct {
	world.NopHandler
	m *Manager
}

func (h worldHandler) protected() bool { return h.m.Config().Lobby.Protection }

func (h worldHandler) HandleFireSpread(ctx *world.Context, _, _ cube.Pos) {
	if h.protected() {
		ctx.Cancel()
	}
}

func (h worldHandler) HandleBlockBurn(ctx *world.Context, _ cube.Pos) {
	if h.protected() {
		ctx.Cancel()
	}
}

func (h worldHandler) HandleCropTrample(ctx *world.Context, _ cube.Pos) {
	if h.protected() {
		ctx.Cancel()
	}
}

func (h worldHandler) HandleLeavesDecay(ctx *world.Context, _ cube.Pos) {
	if h.protected() {
		ctx.Cancel()
	}
}

// join moves players who connect outside the lobby to its spawn and hands
// out the navigation items to those already there.
func (m *Manager) join(p *player.Player) {
	lobby := m.Lobby()
	if lobby == nil {
		return
	}
	m.GiveNavigationItemsIfEnabled(p)
	if tx := p.Tx(); tx.World() != lobby {
		worlds.Transfer(tx, p, lobby, worlds.SpawnPos(lobby))
	}
}

// GiveNavigationItemsIfEnabled gives p the navigation items when the
// configuration asks for them.
func (m *Manager) GiveNavigationItemsIfEnabled(p *player.Player) {
	if m.Config().Lobby.NavigationItems {
		m.GiveNavigationItems(p)
	}
}

var (
	_ player.Handler    = playerHandler{}
	_ inventory.Handler = inventoryHandler{}
	_ world.Handler     = worldHandler{}
)
