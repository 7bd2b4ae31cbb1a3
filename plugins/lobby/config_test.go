package lobby

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	c := DefaultConfig()
	if c.Lobby.World != "lobby" || c.Cooldown() != 3*time.Second {
		t.Fatalf("DefaultConfig() lobby = %+v", c.Lobby)
	}
	if !c.Lobby.Protection || !c.Lobby.NavigationItems {
		t.Fatalf("DefaultConfig() should enable protection and navigation items")
	}
	if got := len(c.Eras); got != EraCount {
		t.Fatalf("DefaultConfig() has %d eras, want %d", got, EraCount)
	}
	era, ok := c.Era(1)
	if !ok || !era.Unlocked || era.World == "" {
		t.Fatalf("Era(1) = %+v, %v", era, ok)
	}
	if _, ok := c.Era(8); ok {
		t.Fatalf("Era(8) should not exist")
	}
}

func TestParseConfigIncomplete(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"missing eras":  "geral: {}\nlobby: {mundo_nome: lobby}\n",
		"missing lobby": "geral: {}\neras: {}\n",
		"missing geral": "lobby: {mundo_nome: lobby}\neras: {}\n",
		"empty world":   "geral: {}\nlobby: {mundo_nome: \"\"}\neras: {}\n",
	}
	for name, doc := range cases {
		if _, err := ParseConfig([]byte(doc)); !errors.Is(err, ErrIncompleteConfig) {
			t.Fatalf("%s: ParseConfig() error = %v, want ErrIncompleteConfig", name, err)
		}
	}
}

func TestParseConfigDefaults(t *testing.T) {
	t.Parallel()

	c, err := ParseConfig([]byte("geral: {}\nlobby: {}\neras:\n  era_2: {nome: Antiguidade}\n"))
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if c.Lobby.World != "lobby" || c.Lobby.SpawnY != 100 || c.Lobby.EraRadius != 20 || c.Lobby.ProximityDistance != 3 {
		t.Fatalf("ParseConfig() did not keep defaults: %+v", c.Lobby)
	}
	if era, _ := c.Era(2); era.Unlocked {
		t.Fatalf("eras should default to locked")
	}
	if _, err := ParseConfig([]byte("geral: {}\nlobby: {teleport_cooldown: -1}\neras: {}\n")); err == nil {
		t.Fatalf("ParseConfig() accepted a negative cooldown")
	}
}

func TestLoadConfigWritesDefault(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.yml")
	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if c.Lobby.World != "lobby" {
		t.Fatalf("LoadConfig() world = %q", c.Lobby.World)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if string(data) != string(defaultConfig) {
		t.Fatalf("written config differs from the embedded default")
	}
}

func TestSaveConfigKeepsComments(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yml")
	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	c.Lobby.Protection = false
	c.Lobby.NavigationItems = false
	c.Lobby.TeleportCooldown = 10
	if err := SaveConfig(path, c); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(data), "# Pasta onde ficam os mundos") {
		t.Fatalf("SaveConfig() dropped comments:\n%s", data)
	}
	got, err := ParseConfig(data)
	if err != nil {
		t.Fatalf("ParseConfig() after save error = %v", err)
	}
	if got.Lobby.Protection || got.Lobby.NavigationItems || got.Lobby.TeleportCooldown != 10 {
		t.Fatalf("saved lobby = %+v", got.Lobby)
	}
	if era, _ := got.Era(3); era.Name != "Idade Média" {
		t.Fatalf("SaveConfig() changed eras: %+v", era)
	}
}
