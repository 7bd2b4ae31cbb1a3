package lobby

import (
	"testing"

	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/player/form"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/google/uuid"
	"golang.org/x/text/language"
)

func TestEraButtons(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, DefaultConfig())
	s := subject{id: uuid.New(), name: "Steve"}
	menu := m.eraButtons(s, language.MustParse("en-US"))

	if got, want := len(menu.buttons), EraCount+3; got != want {
		t.Fatalf("eraButtons() has %d buttons, want %d", got, want)
	}
	if got := menu.buttons[0].Image; got != eraIcons[1] {
		t.Fatalf("era 1 icon = %q, want %q", got, eraIcons[1])
	}
	for n := 2; n <= EraCount; n++ {
		if got := menu.buttons[n-1].Image; got != lockedIcon {
			t.Fatalf("locked era %d icon = %q, want %q", n, got, lockedIcon)
		}
	}
	tail := menu.buttons[EraCount:]
	for i, want := range []string{lobbyIcon, infoIcon, closeIcon} {
		if tail[i].Image != want {
			t.Fatalf("button %d icon = %q, want %q", EraCount+i, tail[i].Image, want)
		}
	}
	for i, b := range menu.buttons[:EraCount+2] {
		if menu.action(b) == nil {
			t.Fatalf("button %d (%q) has no action", i, b.Text)
		}
	}
	if menu.action(tail[2]) != nil {
		t.Fatalf("close button has an action")
	}
	if menu.action(form.NewButton("elsewhere", "")) != nil {
		t.Fatalf("a foreign button matched an action")
	}

	conf := m.Config()
	conf.Permissions.Defaults = []string{"artedaguerra.*"}
	m.Apply(conf)
	unlocked := m.eraButtons(s, language.MustParse("en-US"))
	for n := 1; n <= EraCount; n++ {
		era, _ := conf.Era(n)
		want := lockedIcon
		if era.Unlocked {
			want = eraIcons[n]
		}
		if got := unlocked.buttons[n-1].Image; got != want {
			t.Fatalf("era %d icon with wildcard = %q, want %q", n, got, want)
		}
	}
}

func TestEraIconsComplete(t *testing.T) {
	t.Parallel()

	for n := 1; n <= EraCount; n++ {
		if eraIcons[n] == "" {
			t.Fatalf("era %d has no icon", n)
		}
	}
}

type formSink struct {
	sent []form.Form
}

func (f *formSink) SendForm(fm form.Form) { f.sent = append(f.sent, fm) }
func (*formSink) CloseForm()              {}

func TestActionMenuIgnoresNonPlayers(t *testing.T) {
	t.Parallel()

	ran := false
	menu := &actionMenu{}
	b := form.NewButton("go", "")
	menu.add(b, func(*player.Player, *world.Tx) { ran = true })

	menu.Submit(&formSink{}, b, nil)
	if ran {
		t.Fatalf("action ran for a submitter that is not a player")
	}
	if menu.action(b) == nil {
		t.Fatalf("action() did not find the added button")
	}
}
