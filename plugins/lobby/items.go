package lobby

import (
	"github.com/artedaguerra/eralobby/server/lang"
	"github.com/df-mc/dragonfly/server/item"
	"github.com/df-mc/dragonfly/server/player"
)

const (
	navKey      = "eralobby:navigation"
	navMenu     = "menu"
	navInfo     = "info"
	compassSlot = 4
	bookSlot    = 8
)

// GiveNavigationItems replaces the inventory of p with the era menu compass
// and the project info book.
func (m *Manager) GiveNavigationItems(p *player.Player) {
	tag := m.Locale(p)
	inv := p.Inventory()
	inv.Clear()

	compass := item.NewStack(item.Compass{}, 1).
		WithCustomName(lang.Translate(tag, "item.compass.name")).
		WithLore(lang.Translate(tag, "item.compass.lore1"), lang.Translate(tag, "item.compass.lore2")).
		WithValue(navKey, navMenu)
	book := item.NewStack(item.Book{}, 1).
		WithCustomName(lang.Translate(tag, "item.book.name")).
		WithLore(lang.Translate(tag, "item.book.lore1"), lang.Translate(tag, "item.book.lore2")).
		WithValue(navKey, navInfo)

	if err := inv.SetItem(compassSlot, compass); err != nil {
		m.log.Warn("Give navigation item.", "player", p.Name(), "error", err)
	}
	if err := inv.SetItem(bookSlot, book); err != nil {
		m.log.Warn("Give navigation item.", "player", p.Name(), "error", err)
	}
}

// navigation returns the navigation role of s, or "" for other stacks.
func navigation(s item.Stack) string {
	if s.Empty() {
		return ""
	}
	v, ok := s.Value(navKey)
	if !ok {
		return ""
	}
	role, _ := v.(string)
	return role
}
