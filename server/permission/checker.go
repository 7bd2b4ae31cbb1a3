package permission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/artedaguerra/eralobby/server/store"
	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/google/uuid"
)

// ErrInvalidNode is returned when granting a malformed node.
var ErrInvalidNode = errors.New("invalid permission node")

// GrantStore persists explicit per-player entries.
type GrantStore interface {
	Grants(ctx context.Context, subject uuid.UUID) ([]store.Grant, error)
	SetGrant(ctx context.Context, g store.Grant) error
	DeleteGrant(ctx context.Context, subject uuid.UUID, node string) (bool, error)
	SubjectByName(ctx context.Context, name string) (uuid.UUID, bool, error)
}

// Subject is a command source with a player identity. Sources that are not
// subjects, such as the console, hold every node.
type Subject interface {
	UUID() uuid.UUID
	Name() string
}

// Checker resolves nodes for players in the following order: operators hold
// every node, then explicit entries from the GrantStore apply with denials
// taking precedence over grants, and finally the default nodes apply.
type Checker struct {
	ops   *Operators
	store GrantStore
	log   *slog.Logger

	mu       sync.RWMutex
	defaults []string
	cache    map[uuid.UUID][]store.Grant
	// epoch is bumped by Forget. A load that started in an older epoch is
	// not cached.
	epoch uint64
}

// NewChecker returns a Checker. Both ops and st may be nil.
func NewChecker(ops *Operators, st GrantStore, log *slog.Logger) *Checker {
	if log == nil {
		log = slog.Default()
	}
	return &Checker{ops: ops, store: st, log: log, cache: make(map[uuid.UUID][]store.Grant)}
}

// Operators returns the operator list of the Checker.
func (c *Checker) Operators() *Operators {
	return c.ops
}

// SetDefaults replaces the nodes every player holds unless denied.
func (c *Checker) SetDefaults(nodes []string) {
	valid := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if Valid(n) {
			valid = append(valid, normalise(n))
		} else {
			c.log.Warn("Ignoring invalid default permission.", "node", n)
		}
	}
	c.mu.Lock()
	c.defaults = valid
	c.mu.Unlock()
}

// Defaults returns the default nodes.
func (c *Checker) Defaults() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.defaults)
}

// Has reports whether src holds node.
func (c *Checker) Has(src cmd.Source, node string) bool {
	s, ok := src.(Subject)
	if !ok {
		return true
	}
	return c.HasPlayer(s.UUID(), s.Name(), node)
}

// HasPlayer reports whether the player identified by id and name holds node.
func (c *Checker) HasPlayer(id uuid.UUID, name, node string) bool {
	if c.ops.IsOperator(name) {
		return true
	}
	granted := false
	for _, g := range c.grants(id) {
		if !Match(g.Node, node) {
			continue
		}
		if !g.Allow {
			return false
		}
		granted = true
	}
	if granted {
		return true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, d := range c.defaults {
		if Match(d, node) {
			return true
		}
	}
	return false
}

// Grant stores an explicit grant of node for the player.
func (c *Checker) Grant(ctx context.Context, id uuid.UUID, name, node string) error {
	return c.set(ctx, store.Grant{Subject: id, Name: name, Node: node, Allow: true})
}

// Deny stores an explicit denial of node for the player.
func (c *Checker) Deny(ctx context.Context, id uuid.UUID, name, node string) error {
	return c.set(ctx, store.Grant{Subject: id, Name: name, Node: node, Allow: false})
}

// Revoke removes the explicit entry for node. It reports whether one existed.
func (c *Checker) Revoke(ctx context.Context, id uuid.UUID, node string) (bool, error) {
	if c.store == nil {
		return false, errors.New("revoke permission: no grant store")
	}
	defer c.Forget(id)
	return c.store.DeleteGrant(ctx, id, node)
}

// Grants returns the explicit entries of the player.
func (c *Checker) Grants(ctx context.Context, id uuid.UUID) ([]store.Grant, error) {
	if c.store == nil {
		return nil, nil
	}
	return c.store.Grants(ctx, id)
}

// Resolve returns the UUID last stored for the player name, which allows
// managing entries of offline players.
func (c *Checker) Resolve(ctx context.Context, name string) (uuid.UUID, bool, error) {
	if c.store == nil {
		return uuid.Nil, false, nil
	}
	return c.store.SubjectByName(ctx, name)
}

// Forget drops the cached entries of a player.
func (c *Checker) Forget(id uuid.UUID) {
	c.mu.Lock()
	delete(c.cache, id)
	c.epoch++
	c.mu.Unlock()
}

func (c *Checker) set(ctx context.Context, g store.Grant) error {
	if !Valid(g.Node) {
		return fmt.Errorf("%w: %q", ErrInvalidNode, g.Node)
	}
	if c.store == nil {
		return errors.New("set permission: no grant store")
	}
	defer c.Forget(g.Subject)
	return c.store.SetGrant(ctx, g)
}

func (c *Checker) grants(id uuid.UUID) []store.Grant {
	c.mu.RLock()
	grants, ok := c.cache[id]
	epoch := c.epoch
	c.mu.RUnlock()
	if ok || c.store == nil {
		return grants
	}
	grants, err := c.store.Grants(context.Background(), id)
	if err != nil {
		c.log.Error("Load permission grants.", "error", err, "player", id)
		return nil
	}
	c.mu.Lock()
	if c.epoch == epoch {
		c.cache[id] = grants
	}
	c.mu.Unlock()
	return grants
}
