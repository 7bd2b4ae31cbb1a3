package lobby

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/artedaguerra/eralobby/server/permission"
	"github.com/artedaguerra/eralobby/server/store"
	"github.com/artedaguerra/eralobby/server/worlds"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/google/uuid"
	"golang.org/x/text/language"
)

type noWorlds struct {
	lookups []string
}

func (*noWorlds) Open(name string, _ worlds.Options) (*world.World, error) {
	return nil, fmt.Errorf("%w: %s", worlds.ErrNotFound, name)
}

func (n *noWorlds) Lookup(name string) (*world.World, error) {
	n.lookups = append(n.lookups, name)
	return nil, fmt.Errorf("%w: %s", worlds.ErrNotFound, name)
}

type countingVisits struct {
	recorded []store.Visit
	counts   map[int]int
}

func (c *countingVisits) RecordVisit(v store.Visit) { c.recorded = append(c.recorded, v) }

func (c *countingVisits) VisitCounts(context.Context) (map[int]int, error) {
	return c.counts, nil
}

type subject struct {
	id   uuid.UUID
	name string
}

func (s subject) UUID() uuid.UUID { return s.id }
func (s subject) Name() string    { return s.name }

func newTestManager(t *testing.T, conf Config) (*Manager, *noWorlds) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	src := &noWorlds{}
	return NewManager(conf, src, permission.NewChecker(nil, nil, log), &countingVisits{}, log), src
}

func refusalKey(t *testing.T, err error) string {
	t.Helper()
	var r *refusal
	if !errors.As(err, &r) {
		t.Fatalf("error %v is not a refusal", err)
	}
	return r.key
}

func TestEraDestinationOrder(t *testing.T) {
	t.Parallel()

	conf := DefaultConfig()
	era2 := conf.Eras["era_2"]
	era2.World = ""
	conf.Eras["era_2"] = era2
	conf.Permissions.Defaults = []string{"artedaguerra.era.*"}
	m, src := newTestManager(t, conf)
	s := subject{id: uuid.New(), name: "Steve"}

	cases := []struct {
		era  int
		want string
	}{
		{0, "era.invalid"},
		{8, "era.invalid"},
		{4, "era.no_access"},
		{2, "era.world_not_configured"},
		{1, "era.world_not_found"},
	}
	for _, c := range cases {
		_, _, err := m.eraDestination(s, c.era)
		if got := refusalKey(t, err); got != c.want {
			t.Fatalf("eraDestination(%d) = %q, want %q", c.era, got, c.want)
		}
	}
	if len(src.lookups) != 1 || src.lookups[0] != "era_prehistoria" {
		t.Fatalf("world lookups = %v, want [era_prehistoria]", src.lookups)
	}

	m.cool.Start(s.id)
	if got := refusalKey(t, mustFail(m.eraDestination(s, 1))); got != "lobby.cooldown" {
		t.Fatalf("eraDestination() while cooling down = %q, want lobby.cooldown", got)
	}
	if got := refusalKey(t, mustFail(m.eraDestination(s, 4))); got != "era.no_access" {
		t.Fatalf("access is checked before the cooldown, got %q", got)
	}
}

func mustFail(_ *world.World, _ any, err error) error { return err }

func TestLobbyDestination(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, DefaultConfig())
	s := subject{id: uuid.New(), name: "Alex"}
	if got := refusalKey(t, mustFail(m.lobbyDestination(s))); got != "lobby.not_configured" {
		t.Fatalf("lobbyDestination() before setup = %q", got)
	}
}

func TestHasEraAccess(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, DefaultConfig())
	s := subject{id: uuid.New(), name: "Steve"}

	if !m.HasEraAccess(s, 1) {
		t.Fatalf("default permissions should grant era 1")
	}
	if m.HasEraAccess(s, 2) {
		t.Fatalf("era 2 is unlocked but not granted by default")
	}
	if m.HasEraAccess(s, 0) || m.HasEraAccess(s, 8) {
		t.Fatalf("eras outside 1..7 must never be accessible")
	}

	conf := m.Config()
	conf.Permissions.Defaults = []string{"artedaguerra.*"}
	m.Apply(conf)
	if !m.HasEraAccess(s, 3) {
		t.Fatalf("wildcard should grant unlocked era 3")
	}
	if m.HasEraAccess(s, 5) {
		t.Fatalf("era 5 is locked in the configuration")
	}
}

func TestEraNameDefaults(t *testing.T) {
	t.Parallel()

	conf := DefaultConfig()
	delete(conf.Eras, "era_6")
	m, _ := newTestManager(t, conf)
	pt := language.MustParse("pt-BR")

	if got := m.EraName(pt, 1); got != "Pré-História" {
		t.Fatalf("EraName(1) = %q", got)
	}
	if got := m.EraName(pt, 6); !strings.Contains(got, "Era 6") {
		t.Fatalf("EraName(6) = %q, want default", got)
	}
	if got := m.EraPeriod(pt, 6); !strings.Contains(got, "Período não definido") {
		t.Fatalf("EraPeriod(6) = %q, want default", got)
	}
	if got := m.EraPeriod(language.MustParse("en-US"), 6); strings.Contains(got, "Período") {
		t.Fatalf("EraPeriod(6) in en-US should not use the pt-BR text")
	}
}

func TestApplyUpdatesCooldown(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, DefaultConfig())
	conf := m.Config()
	conf.Lobby.TeleportCooldown = 0
	m.Apply(conf)

	id := uuid.New()
	m.cool.Start(id)
	if !m.cool.Ready(id) {
		t.Fatalf("a zero cooldown should never block teleports")
	}
}

func TestEnterPad(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, DefaultConfig())
	id := uuid.New()
	steps := []struct {
		era     int
		changed bool
	}{
		{0, false},
		{2, true},
		{2, false},
		{3, true},
		{0, true},
		{0, false},
	}
	for i, s := range steps {
		if got := m.enterPad(id, s.era); got != s.changed {
			t.Fatalf("step %d: enterPad(%d) = %v, want %v", i, s.era, got, s.changed)
		}
	}
	m.enterPad(id, 5)
	m.forgetNear(id)
	if !m.enterPad(id, 5) {
		t.Fatalf("forgetNear() should reset the pad state")
	}
}

func TestStatus(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	visits := &countingVisits{counts: map[int]int{1: 4}}
	m := NewManager(DefaultConfig(), &noWorlds{}, permission.NewChecker(nil, nil, log), visits, log)
	m.cool.Start(uuid.New())

	st := m.Status(context.Background())
	if st.Active {
		t.Fatalf("Status().Active before setup")
	}
	if st.Cooldowns != 1 || st.Visits[1] != 4 {
		t.Fatalf("Status() = %+v", st)
	}
	m.Close()
	if m.Status(context.Background()).Cooldowns != 0 {
		t.Fatalf("Close() should clear the cooldowns")
	}
}

func TestSetupFailsWithoutWorld(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, DefaultConfig())
	if err := m.Setup(); !errors.Is(err, worlds.ErrNotFound) {
		t.Fatalf("Setup() error = %v, want ErrNotFound", err)
	}
	if m.Lobby() != nil {
		t.Fatalf("Lobby() set after failed setup")
	}
}
