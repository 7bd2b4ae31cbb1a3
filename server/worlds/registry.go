// Package worlds keeps track of the named worlds a server runs besides its
// default world and moves entities between them.
package worlds

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/df-mc/dragonfly/server/block"
	"github.com/df-mc/dragonfly/server/entity"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/df-mc/dragonfly/server/world/biome"
	"github.com/df-mc/dragonfly/server/world/generator"
	"github.com/df-mc/dragonfly/server/world/mcdb"
)

var (
	// ErrNotFound is returned when a world is neither registered nor present on disk.
	ErrNotFound = errors.New("world not found")
	// ErrInvalidName is returned for names that are empty or would leave the world folder.
	ErrInvalidName = errors.New("invalid world name")
)

// Config holds the settings of a Registry.
type Config struct {
	// Log is used for diagnostics of the worlds opened. Defaults to slog.Default().
	Log *slog.Logger
	// Dir is the folder holding one sub folder per named world. Defaults to
	// `worlds`.
	Dir string
}

// Options controls how Open treats a world.
type Options struct {
	// Create makes a new flat world when no world folder exists yet.
	Create bool
	// Lobby applies hub settings: peaceful difficulty, time frozen at noon and
	// adventure as default game mode.
	Lobby bool
}

// Registry maps world names to worlds. It is safe for concurrent use.
type Registry struct {
	conf Config
	log  *slog.Logger

	mu     sync.RWMutex
	worlds map[string]*world.World
	opened []string
}

// NewRegistry returns an empty Registry.
func NewRegistry(conf Config) *Registry {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.Dir == "" {
		conf.Dir = "worlds"
	}
	return &Registry{conf: conf, log: conf.Log.With("component", "worlds"), worlds: make(map[string]*world.World)}
}

// Dir returns the folder worlds are opened from.
func (r *Registry) Dir() string {
	return r.conf.Dir
}

// Register makes w available under name. Worlds registered this way are owned
// by the caller and are not closed by Close.
func (r *Registry) Register(name string, w *world.World) {
	if w == nil || name == "" {
		return
	}
	r.mu.Lock()
	r.worlds[name] = w
	r.mu.Unlock()
}

// Get returns the world registered or opened under name.
func (r *Registry) Get(name string) (*world.World, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.worlds[name]
	return w, ok
}

// Names returns the sorted names of all known worlds.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.worlds))
	for name := range r.worlds {
		names = append(names, name)
	}
	r.mu.RUnlock()
	slices.Sort(names)
	return names
}

// Lookup returns the world known under name, opening it from disk when a world
// folder by that name exists.
func (r *Registry) Lookup(name string) (*world.World, error) {
	return r.Open(name, Options{})
}

// Open returns the world known under name. If it is not loaded yet it is opened
// from Dir, or created as a flat world when opts.Create is set.
func (r *Registry) Open(name string, opts Options) (*world.World, error) {
	if w, ok := r.Get(name); ok {
		if opts.Lobby {
			applyLobby(w)
		}
		return w, nil
	}
	if err := validName(name); err != nil {
		return nil, err
	}
	dir := filepath.Join(r.conf.Dir, name)
	if _, err := os.Stat(dir); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat world folder: %w", err)
		}
		if !opts.Create {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.worlds[name]; ok {
		return w, nil
	}
	prov, err := mcdb.Config{Log: r.log}.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("open world provider %s: %w", name, err)
	}
	w := world.Config{
		Log:       r.log.With("world", name),
		Dim:       world.Overworld,
		Provider:  prov,
		Generator: flatGenerator(),
		Entities:  entity.DefaultRegistry,
	}.New()
	if opts.Lobby {
		applyLobby(w)
	}
	r.worlds[name] = w
	r.opened = append(r.opened, name)
	r.log.Info("World opened.", "name", name, "dir", dir)
	return w, nil
}

// Close closes every world opened by the registry, leaving registered worlds
// untouched.
func (r *Registry) Close() error {
	r.mu.Lock()
	opened := r.opened
	r.opened = nil
	worlds := make([]*world.World, 0, len(opened))
	for _, name := range opened {
		worlds = append(worlds, r.worlds[name])
		delete(r.worlds, name)
	}
	r.mu.Unlock()

	var errs []error
	for i, w := range worlds {
		if err := w.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close world %s: %w", opened[i], err))
		}
	}
	return errors.Join(errs...)
}

func flatGenerator() world.Generator {
	return generator.NewFlat(biome.Plains{}, []world.Block{block.Grass{}, block.Dirt{}, block.Dirt{}, block.Bedrock{}})
}

func applyLobby(w *world.World) {
	w.SetDifficulty(world.DifficultyPeaceful)
	w.SetTime(6000)
	w.StopTime()
	w.SetDefaultGameMode(world.GameModeAdventure)
}

func validName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || trimmed != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
