package permission

import (
	"errors"
	"net"
	"strings"
	"sync/atomic"

	"github.com/sandertv/gophertunnel/minecraft/protocol/login"
)

// ErrWhitelistUnavailable is returned when no whitelist is configured.
var ErrWhitelistUnavailable = errors.New("whitelist is not configured")

// Whitelist controls which players may join while it is enabled. Entries are
// persisted in a TOML file.
type Whitelist struct {
	list    *nameList
	enabled atomic.Bool
}

// LoadWhitelist loads the whitelist stored at path, creating an empty file if
// none exists yet.
func LoadWhitelist(path string, enabled bool) (*Whitelist, error) {
	l, err := loadNameList("whitelist", path)
	if err != nil {
		return nil, err
	}
	w := &Whitelist{list: l}
	w.enabled.Store(enabled)
	return w, nil
}

// Enabled reports if the whitelist is currently enforced.
func (w *Whitelist) Enabled() bool {
	return w != nil && w.enabled.Load()
}

// SetEnabled updates whether the whitelist is enforced.
func (w *Whitelist) SetEnabled(enabled bool) {
	if w != nil {
		w.enabled.Store(enabled)
	}
}

// Allow implements server.Allower. Every player is admitted while the
// whitelist is disabled.
func (w *Whitelist) Allow(_ net.Addr, d login.IdentityData, _ login.ClientData) (string, bool) {
	if !w.Enabled() {
		return "", true
	}
	name := strings.TrimSpace(d.DisplayName)
	if name != "" && w.list.contains(name) {
		return "", true
	}
	return "You are not whitelisted on this server.", false
}

// Add puts name on the whitelist. The returned bool indicates if it was newly
// added.
func (w *Whitelist) Add(name string) (bool, error) {
	if w == nil {
		return false, ErrWhitelistUnavailable
	}
	return w.list.add(name)
}

// Remove takes name off the whitelist. The returned bool indicates if it was
// present.
func (w *Whitelist) Remove(name string) (bool, error) {
	if w == nil {
		return false, ErrWhitelistUnavailable
	}
	return w.list.remove(name)
}

// Entries returns the whitelisted names, sorted case-insensitively.
func (w *Whitelist) Entries() []string {
	if w == nil {
		return nil
	}
	return w.list.names()
}

// Reload re-reads the file from disk.
func (w *Whitelist) Reload() error {
	if w == nil {
		return ErrWhitelistUnavailable
	}
	return w.list.reload()
}
