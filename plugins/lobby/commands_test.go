package lobby

import (
	"strings"
	"testing"
	"time"

	"github.com/artedaguerra/eralobby/server/plugin"
	"github.com/artedaguerra/eralobby/server/store"
	"github.com/google/uuid"
	"golang.org/x/text/language"
)

func TestGrantLines(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	lines := grantLines(language.MustParse("en-US"), []store.Grant{
		{Subject: id, Node: "artedaguerra.era.2", Allow: true},
		{Subject: id, Node: "artedaguerra.era.3", Allow: false},
	})
	if len(lines) != 2 {
		t.Fatalf("grantLines() returned %d lines, want 2", len(lines))
	}
	if !strings.Contains(lines[0], "+ artedaguerra.era.2") {
		t.Fatalf("grant line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "- artedaguerra.era.3") {
		t.Fatalf("deny line = %q", lines[1])
	}
}

func TestPermActionOptions(t *testing.T) {
	t.Parallel()

	opts := permAction("").Options(nil)
	if strings.Join(opts, ",") != "add,deny,remove" {
		t.Fatalf("Options() = %v", opts)
	}
}

func TestParseEra(t *testing.T) {
	t.Parallel()

	cases := []struct {
		arg     string
		want    int
		replies string
	}{
		{"", 0, "era.usage,era.example"},
		{"   ", 0, "era.usage,era.example"},
		{"dois", 0, "era.invalid_number,era.example"},
		{"2.5", 0, "era.invalid_number,era.example"},
		{"0", 0, "era.out_of_range"},
		{"8", 0, "era.out_of_range"},
		{"-1", 0, "era.out_of_range"},
		{"1", 1, ""},
		{" 7 ", 7, ""},
	}
	for _, c := range cases {
		n, replies := parseEra(c.arg)
		if n != c.want || strings.Join(replies, ",") != c.replies {
			t.Errorf("parseEra(%q) = %d, %v; want %d, %s", c.arg, n, replies, c.want, c.replies)
		}
	}
}

func TestStatusHelpers(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if got := uptime(now.Add(-90*time.Minute-1500*time.Millisecond), now); got != "1h30m1s" {
		t.Fatalf("uptime() = %q, want 1h30m1s", got)
	}
	if got := uptime(time.Time{}, now); got != "0s" {
		t.Fatalf("uptime() before start = %q, want 0s", got)
	}
	got := pluginList([]plugin.Info{{Name: "Zoo", Version: "2"}, {Name: "ArteDaGuerra", Version: "1.0.0"}})
	if got != "ArteDaGuerra v1.0.0, Zoo v2" {
		t.Fatalf("pluginList() = %q", got)
	}
	if got := pluginList(nil); got != "-" {
		t.Fatalf("pluginList(nil) = %q, want -", got)
	}
}
