package permission

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/pelletier/go-toml"
)

// ErrInvalidName is returned when an invalid player name is provided.
var ErrInvalidName = errors.New("invalid player name")

type namesFile struct {
	Players []string `toml:"players"`
}

// nameList is a case-insensitive set of player names persisted in a TOML
// file. The original spelling of each name is kept for display.
type nameList struct {
	kind string

	mu       sync.RWMutex
	players  map[string]string
	filePath string
}

func loadNameList(kind, path string) (*nameList, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%s path must not be empty", kind)
	}
	l := &nameList{kind: kind, players: make(map[string]string), filePath: path}
	if err := l.reload(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *nameList) contains(name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.players[normalise(name)]
	return ok
}

func (l *nameList) add(name string) (bool, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return false, ErrInvalidName
	}
	key := normalise(trimmed)

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.players[key]; exists {
		return false, nil
	}
	l.players[key] = trimmed
	if err := l.writeLocked(); err != nil {
		delete(l.players, key)
		return false, err
	}
	return true, nil
}

func (l *nameList) remove(name string) (bool, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return false, ErrInvalidName
	}
	key := normalise(trimmed)

	l.mu.Lock()
	defer l.mu.Unlock()
	original, exists := l.players[key]
	if !exists {
		return false, nil
	}
	delete(l.players, key)
	if err := l.writeLocked(); err != nil {
		l.players[key] = original
		return false, err
	}
	return true, nil
}

func (l *nameList) names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sortedLocked()
}

func (l *nameList) reload() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data := namesFile{}
	contents, err := os.ReadFile(l.filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.players = make(map[string]string)
			return l.writeLocked()
		}
		return fmt.Errorf("read %s: %w", l.kind, err)
	}
	if len(contents) != 0 {
		if err := toml.Unmarshal(contents, &data); err != nil {
			return fmt.Errorf("decode %s: %w", l.kind, err)
		}
	}
	l.players = make(map[string]string, len(data.Players))
	for _, name := range data.Players {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		l.players[normalise(trimmed)] = trimmed
	}
	return nil
}

// writeLocked replaces the file through a rename so a crash never leaves a
// truncated list behind.
func (l *nameList) writeLocked() error {
	dir := filepath.Dir(l.filePath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s directory: %w", l.kind, err)
		}
	}
	encoded, err := toml.Marshal(namesFile{Players: l.sortedLocked()})
	if err != nil {
		return fmt.Errorf("encode %s: %w", l.kind, err)
	}
	tmp := l.filePath + ".tmp"
	if err := os.WriteFile(tmp, encoded, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", l.kind, err)
	}
	if err := os.Rename(tmp, l.filePath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", l.kind, err)
	}
	return nil
}

func (l *nameList) sortedLocked() []string {
	names := make([]string, 0, len(l.players))
	for _, name := range l.players {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		lowerA, lowerB := strings.ToLower(a), strings.ToLower(b)
		if lowerA == lowerB {
			return strings.Compare(a, b)
		}
		return strings.Compare(lowerA, lowerB)
	})
	return names
}
