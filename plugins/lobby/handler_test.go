package lobby

import (
	"testing"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/event"
	"github.com/df-mc/dragonfly/server/item"
	"github.com/df-mc/dragonfly/server/item/inventory"
	"github.com/df-mc/dragonfly/server/world"
)

func TestRules(t *testing.T) {
	t.Parallel()

	cases := []struct {
		r                                 rules
		shielded, restricted, itemsLocked bool
	}{
		{rules{}, false, false, false},
		{rules{inLobby: true}, false, false, true},
		{rules{inLobby: true, admin: true}, false, false, false},
		{rules{inLobby: true, protection: true}, true, true, true},
		{rules{inLobby: true, protection: true, admin: true}, true, false, false},
		{rules{protection: true}, false, false, false},
		{rules{protection: true, admin: true}, false, false, false},
	}
	for _, c := range cases {
		if got := c.r.shielded(); got != c.shielded {
			t.Errorf("%+v shielded() = %v, want %v", c.r, got, c.shielded)
		}
		if got := c.r.restricted(); got != c.restricted {
			t.Errorf("%+v restricted() = %v, want %v", c.r, got, c.restricted)
		}
		if got := c.r.itemsLocked(); got != c.itemsLocked {
			t.Errorf("%+v itemsLocked() = %v, want %v", c.r, got, c.itemsLocked)
		}
	}
}

func TestWorldHandlerFollowsProtection(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, DefaultConfig())
	h := worldHandler{m: m}
	fire := func(h worldHandler) []*world.Context {
		ctxs := make([]*world.Context, 4)
		for i := range ctxs {
			ctxs[i] = event.C[*world.Tx](nil)
		}
		h.HandleFireSpread(ctxs[0], cube.Pos{}, cube.Pos{1, 0, 0})
		h.HandleBlockBurn(ctxs[1], cube.Pos{})
		h.HandleCropTrample(ctxs[2], cube.Pos{})
		h.HandleLeavesDecay(ctxs[3], cube.Pos{})
		return ctxs
	}
	for i, ctx := range fire(h) {
		if !ctx.Cancelled() {
			t.Fatalf("event %d not cancelled with protection on", i)
		}
	}

	conf := m.Config()
	conf.Lobby.Protection = false
	m.Apply(conf)
	for i, ctx := range fire(h) {
		if ctx.Cancelled() {
			t.Fatalf("event %d cancelled with protection off", i)
		}
	}
}

func TestInventoryHandlerIgnoresOtherHolders(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, DefaultConfig())
	h := inventoryHandler{m: m}
	ctx := event.C[inventory.Holder](nil)
	h.HandleTake(ctx, 0, item.Stack{})
	h.HandlePlace(ctx, 0, item.Stack{})
	h.HandleDrop(ctx, 0, item.Stack{})
	if ctx.Cancelled() {
		t.Fatalf("inventory change cancelled for a holder that is not a player")
	}
}
