package plugin

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/item"
	"github.com/df-mc/dragonfly/server/item/inventory"
	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/go-gl/mathgl/mgl64"
)

type eventRegistration[T any] struct {
	plugin  string
	handler T
	id      uint64
}

type eventList[T any] struct {
	regs []eventRegistration[T]
	next uint64
}

func (l *eventList[T]) add(plugin string, handler T) uint64 {
	id := l.next
	l.next++
	l.regs = append(l.regs, eventRegistration[T]{plugin: plugin, handler: handler, id: id})
	return id
}

func (l *eventList[T]) removeByID(id uint64) {
	if len(l.regs) == 0 {
		return
	}
	regs := l.regs[:0]
	for _, reg := range l.regs {
		if reg.id == id {
			continue
		}
		regs = append(regs, reg)
	}
	l.regs = regs
}

func (l *eventList[T]) removePlugin(plugin string) {
	if len(l.regs) == 0 {
		return
	}
	regs := l.regs[:0]
	for _, reg := range l.regs {
		if reg.plugin == plugin {
			continue
		}
		regs = append(regs, reg)
	}
	l.regs = regs
}

func (l *eventList[T]) snapshot() []eventRegistration[T] {
	if len(l.regs) == 0 {
		return nil
	}
	out := make([]eventRegistration[T], len(l.regs))
	copy(out, l.regs)
	return out
}

// worldHandler pairs a world handler with the world it observes.
type worldHandler struct {
	w *world.World
	h world.Handler
}

type eventHub struct {
	mu             sync.Mutex
	log            *slog.Logger
	manager        *Manager
	player         eventList[player.Handler]
	inventory      eventList[inventory.Handler]
	join           eventList[func(*player.Player)]
	world          eventList[worldHandler]
	playerChain    atomic.Value // []eventRegistration[player.Handler]
	inventoryChain atomic.Value // []eventRegistration[inventory.Handler]
	joinChain      atomic.Value // []eventRegistration[func(*player.Player)]
	worldChain     atomic.Value // []eventRegistration[worldHandler]
	attached       map[*world.World]struct{}
}

func newEventHub(manager *Manager, log *slog.Logger) *eventHub {
	if log == nil {
		log = slog.Default()
	}
	hub := &eventHub{manager: manager, log: log.With("subsystem", "plugin.events"), attached: map[*world.World]struct{}{}}
	hub.playerChain.Store([]eventRegistration[player.Handler]{})
	hub.inventoryChain.Store([]eventRegistration[inventory.Handler]{})
	hub.joinChain.Store([]eventRegistration[func(*player.Player)]{})
	hub.worldChain.Store([]eventRegistration[worldHandler]{})
	return hub
}

func (pe *eventHub) addPlayer(plugin string, handler player.Handler) func() {
	if handler == nil {
		return func() {}
	}
	pe.mu.Lock()
	id := pe.player.add(plugin, handler)
	pe.playerChain.Store(pe.player.snapshot())
	pe.mu.Unlock()
	return pe.remover(func() {
		pe.player.removeByID(id)
		pe.playerChain.Store(pe.player.snapshot())
	})
}

func (pe *eventHub) addInventory(plugin string, handler inventory.Handler) func() {
	if handler == nil {
		return func() {}
	}
	pe.mu.Lock()
	id := pe.inventory.add(plugin, handler)
	pe.inventoryChain.Store(pe.inventory.snapshot())
	pe.mu.Unlock()
	return pe.remover(func() {
		pe.inventory.removeByID(id)
		pe.inventoryChain.Store(pe.inventory.snapshot())
	})
}

func (pe *eventHub) addJoin(plugin string, fn func(*player.Player)) func() {
	if fn == nil {
		return func() {}
	}
	pe.mu.Lock()
	id := pe.join.add(plugin, fn)
	pe.joinChain.Store(pe.join.snapshot())
	pe.mu.Unlock()
	return pe.remover(func() {
		pe.join.removeByID(id)
		pe.joinChain.Store(pe.join.snapshot())
	})
}

// addWorld registers handler for w. The first registration for a world
// installs the fan-out chain as the world's handler.
func (pe *eventHub) addWorld(plugin string, w *world.World, handler world.Handler) func() {
	if w == nil || handler == nil {
		return func() {}
	}
	pe.mu.Lock()
	id := pe.world.add(plugin, worldHandler{w: w, h: handler})
	pe.worldChain.Store(pe.world.snapshot())
	_, attached := pe.attached[w]
	pe.attached[w] = struct{}{}
	pe.mu.Unlock()
	if !attached {
		w.Handle(&worldHandlerChain{manager: pe, w: w})
	}
	return pe.remover(func() {
		pe.world.removeByID(id)
		pe.worldChain.Store(pe.world.snapshot())
	})
}

func (pe *eventHub) remover(f func()) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			pe.mu.Lock()
			f()
			pe.mu.Unlock()
		})
	}
}

func (pe *eventHub) clear(plugin string) {
	pe.mu.Lock()
	pe.player.removePlugin(plugin)
	pe.inventory.removePlugin(plugin)
	pe.join.removePlugin(plugin)
	pe.world.removePlugin(plugin)
	pe.playerChain.Store(pe.player.snapshot())
	pe.inventoryChain.Store(pe.inventory.snapshot())
	pe.joinChain.Store(pe.join.snapshot())
	pe.worldChain.Store(pe.world.snapshot())
	pe.mu.Unlock()
}

func (pe *eventHub) loadPlayerChain() []eventRegistration[player.Handler] {
	if v := pe.playerChain.Load(); v != nil {
		return v.([]eventRegistration[player.Handler])
	}
	return nil
}

func (pe *eventHub) loadInventoryChain() []eventRegistration[inventory.Handler] {
	if v := pe.inventoryChain.Load(); v != nil {
		return v.([]eventRegistration[inventory.Handler])
	}
	return nil
}

func (pe *eventHub) loadJoinChain() []eventRegistration[func(*player.Player)] {
	if v := pe.joinChain.Load(); v != nil {
		return v.([]eventRegistration[func(*player.Player)])
	}
	return nil
}

func (pe *eventHub) loadWorldChain() []eventRegistration[worldHandler] {
	if v := pe.worldChain.Load(); v != nil {
		return v.([]eventRegistration[worldHandler])
	}
	return nil
}

func (pe *eventHub) wrapPlayer(base player.Handler) player.Handler {
	if chain, ok := base.(*playerHandlerChain); ok {
		base = chain.base
	}
	if base == nil {
		base = player.NopHandler{}
	}
	return &playerHandlerChain{manager: pe, base: base}
}

func (pe *eventHub) wrapInventory(base inventory.Handler) inventory.Handler {
	if chain, ok := base.(*inventoryHandlerChain); ok {
		base = chain.base
	}
	if base == nil {
		base = inventory.NopHandler{}
	}
	return &inventoryHandlerChain{manager: pe, base: base}
}

func (pe *eventHub) joined(p *player.Player) {
	for _, reg := range pe.loadJoinChain() {
		fn := reg.handler
		pe.invoke(reg.plugin, func() { fn(p) })
	}
}

type cancellable interface {
	Cancelled() bool
}

// playerHandlerChain fans player events out to every registered plugin
// handler before the base handler. Events not overridden here fall through to
// the embedded NopHandler.
type playerHandlerChain struct {
	player.NopHandler
	manager *eventHub
	base    player.Handler
}

func (c *playerHandlerChain) callCtx(ctx cancellable, fn func(player.Handler)) {
	for _, reg := range c.manager.loadPlayerChain() {
		handler := reg.handler
		c.manager.invoke(reg.plugin, func() {
			fn(handler)
		})
		if ctx.Cancelled() {
			return
		}
	}
	fn(c.base)
}

func (c *playerHandlerChain) call(fn func(player.Handler)) {
	for _, reg := range c.manager.loadPlayerChain() {
		handler := reg.handler
		c.manager.invoke(reg.plugin, func() {
			fn(handler)
		})
	}
	fn(c.base)
}

func (c *playerHandlerChain) HandleMove(ctx *player.Context, newPos mgl64.Vec3, newRot cube.Rotation) {
	c.callCtx(ctx, func(h player.Handler) { h.HandleMove(ctx, newPos, newRot) })
}

func (c *playerHandlerChain) HandleChangeWorld(p *player.Player, before, after *world.World) {
	c.call(func(h player.Handler) { h.HandleChangeWorld(p, before, after) })
	c.manager.manager.moved(p, after)
}

func (c *playerHandlerChain) HandleFoodLoss(ctx *player.Context, from int, to *int) {
	c.callCtx(ctx, func(h player.Handler) { h.HandleFoodLoss(ctx, from, to) })
}

func (c *playerHandlerChain) HandleHurt(ctx *player.Context, damage *float64, immune bool, attackImmunity *time.Duration, src world.DamageSource) {
	c.callCtx(ctx, func(h player.Handler) { h.HandleHurt(ctx, damage, immune, attackImmunity, src) })
}

func (c *playerHandlerChain) HandleBlockBreak(ctx *player.Context, pos cube.Pos, drops *[]item.Stack, xp *int) {
	c.callCtx(ctx, func(h player.Handler) { h.HandleBlockBreak(ctx, pos, drops, xp) })
}

func (c *playerHandlerChain) HandleBlockPlace(ctx *player.Context, pos cube.Pos, b world.Block) {
	c.callCtx(ctx, func(h player.Handler) { h.HandleBlockPlace(ctx, pos, b) })
}

func (c *playerHandlerChain) HandleItemUse(ctx *player.Context) {
	c.callCtx(ctx, func(h player.Handler) { h.HandleItemUse(ctx) })
}

func (c *playerHandlerChain) HandleItemUseOnBlock(ctx *player.Context, pos cube.Pos, face cube.Face, clickPos mgl64.Vec3) {
	c.callCtx(ctx, func(h player.Handler) { h.HandleItemUseOnBlock(ctx, pos, face, clickPos) })
}

func (c *playerHandlerChain) HandleItemDrop(ctx *player.Context, it item.Stack) {
	c.callCtx(ctx, func(h player.Handler) { h.HandleItemDrop(ctx, it) })
}

func (c *playerHandlerChain) HandleQuit(p *player.Player) {
	c.call(func(h player.Handler) { h.HandleQuit(p) })
	c.manager.manager.untrack(p)
}

type worldHandlerChain struct {
	world.NopHandler
	manager *eventHub
	w       *world.World
}

func (c *worldHandlerChain) callCtx(ctx cancellable, fn func(world.Handler)) {
	for _, reg := range c.manager.loadWorldChain() {
		if reg.handler.w != c.w {
			continue
		}
		handler := reg.handler.h
		c.manager.invoke(reg.plugin, func() {
			fn(handler)
		})
		if ctx.Cancelled() {
			return
		}
	}
}

func (c *worldHandlerChain) HandleFireSpread(ctx *world.Context, from, to cube.Pos) {
	c.callCtx(ctx, func(h world.Handler) { h.HandleFireSpread(ctx, from, to) })
}

func (c *worldHandlerChain) HandleBlockBurn(ctx *world.Context, pos cube.Pos) {
	c.callCtx(ctx, func(h world.Handler) { h.HandleBlockBurn(ctx, pos) })
}

func (c *worldHandlerChain) HandleCropTrample(ctx *world.Context, pos cube.Pos) {
	c.callCtx(ctx, func(h world.Handler) { h.HandleCropTrample(ctx, pos) })
}

func (c *worldHandlerChain) HandleLeavesDecay(ctx *world.Context, pos cube.Pos) {
	c.callCtx(ctx, func(h world.Handler) { h.HandleLeavesDecay(ctx, pos) })
}

type inventoryHandlerChain struct {
	manager *eventHub
	base    inventory.Handler
}

func (c *inventoryHandlerChain) callCtx(ctx cancellable, fn func(inventory.Handler)) {
	for _, reg := range c.manager.loadInventoryChain() {
		handler := reg.handler
		c.manager.invoke(reg.plugin, func() {
			fn(handler)
		})
		if ctx.Cancelled() {
			return
		}
	}
	fn(c.base)
}

func (c *inventoryHandlerChain) HandleTake(ctx *inventory.Context, slot int, it item.Stack) {
	c.callCtx(ctx, func(h inventory.Handler) { h.HandleTake(ctx, slot, it) })
}

func (c *inventoryHandlerChain) HandlePlace(ctx *inventory.Context, slot int, it item.Stack) {
	c.callCtx(ctx, func(h inventory.Handler) { h.HandlePlace(ctx, slot, it) })
}

func (c *inventoryHandlerChain) HandleDrop(ctx *inventory.Context, slot int, it item.Stack) {
	c.callCtx(ctx, func(h inventory.Handler) { h.HandleDrop(ctx, slot, it) })
}

func (pe *eventHub) invoke(plugin string, call func()) {
	if call == nil {
		return
	}
	if plugin == "" {
		call()
		return
	}
	defer func() {
		if r := recover(); r != nil {
			pe.manager.handlePluginPanic(plugin, r)
		}
	}()
	call()
}
