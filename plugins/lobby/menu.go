package lobby

import (
	"fmt"
	"math"

	"github.com/artedaguerra/eralobby/server/lang"
	"github.com/artedaguerra/eralobby/server/permission"
	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/player/form"
	"github.com/df-mc/dragonfly/server/world"
	"golang.org/x/text/language"
)

const maxCooldownSeconds = 60

// eraIcons are the textures shown on the era menu buttons.
var eraIcons = [EraCount + 1]string{
	1: "textures/items/wood_pickaxe",
	2: "textures/items/stone_pickaxe",
	3: "textures/items/iron_sword",
	4: "textures/items/iron_ingot",
	5: "textures/items/diamond",
	6: "textures/blocks/redstone_block",
	7: "textures/items/nether_star",
}

const (
	lobbyIcon  = "textures/items/emerald"
	infoIcon   = "textures/items/paper"
	closeIcon  = "textures/blocks/barrier"
	lockedIcon = "textures/blocks/barrier"
)

type menuAction func(p *player.Player, tx *world.Tx)

// actionMenu is a menu form running the action paired with the pressed button.
type actionMenu struct {
	buttons []form.Button
	actions []menuAction
}

func (a *actionMenu) add(b form.Button, fn menuAction) {
	a.buttons = append(a.buttons, b)
	a.actions = append(a.actions, fn)
}

func (a actionMenu) Submit(submitter form.Submitter, pressed form.Button, tx *world.Tx) {
	p, ok := submitter.(*player.Player)
	if !ok {
		return
	}
	if fn := a.action(pressed); fn != nil {
		fn(p, tx)
	}
}

// action returns the action paired with pressed, or nil if the button closes
// the menu or is not part of it.
func (a actionMenu) action(pressed form.Button) menuAction {
	for i, b := range a.buttons {
		if b == pressed {
			return a.actions[i]
		}
	}
	return nil
}

// EraMenu returns the era selection menu as seen by p.
func (m *Manager) EraMenu(p *player.Player) form.Menu {
	tag := m.Locale(p)
	menu := m.eraButtons(p, tag)
	return form.NewMenu(*menu, lang.Translate(tag, "menu.title")).
		WithBody(lang.Translate(tag, "menu.body")).
		WithButtons(menu.buttons...)
}

func (m *Manager) eraButtons(s permission.Subject, tag language.Tag) *actionMenu {
	menu := &actionMenu{}
	for n := 1; n <= EraCount; n++ {
		name := m.EraName(tag, n)
		if m.HasEraAccess(s, n) {
			label := lang.Translate(tag, "menu.era_open", n, name, m.EraPeriod(tag, n))
			menu.add(form.NewButton(label, eraIcons[n]), func(p *player.Player, tx *world.Tx) {
				m.TeleportToEra(p, tx, n)
			})
			continue
		}
		label := lang.Translate(tag, "menu.era_locked", n, name)
		menu.add(form.NewButton(label, lockedIcon), func(p *player.Player, _ *world.Tx) {
			m.Message(p, "era.no_access")
		})
	}
	menu.add(form.NewButton(lang.Translate(tag, "menu.lobby"), lobbyIcon), func(p *player.Player, tx *world.Tx) {
		m.TeleportToLobby(p, tx)
	})
	menu.add(form.NewButton(lang.Translate(tag, "menu.info"), infoIcon), func(p *player.Player, _ *world.Tx) {
		p.SendForm(m.InfoMenu(p))
	})
	menu.add(form.NewButton(lang.Translate(tag, "menu.close"), closeIcon), nil)
	return menu
}

// infoModal describes the project and leads back to the era menu.
type infoModal struct {
	m    *Manager
	Back form.Button
	Exit form.Button
}

func (f infoModal) Submit(submitter form.Submitter, pressed form.Button, _ *world.Tx) {
	p, ok := submitter.(*player.Player)
	if !ok || pressed != f.Back {
		return
	}
	p.SendForm(f.m.EraMenu(p))
}

// InfoMenu returns the project information form.
func (m *Manager) InfoMenu(p *player.Player) form.Modal {
	tag := m.Locale(p)
	f := infoModal{
		m:    m,
		Back: form.NewButton(lang.Translate(tag, "info.back"), ""),
		Exit: form.NewButton(lang.Translate(tag, "menu.close"), ""),
	}
	return form.NewModal(f, lang.Translate(tag, "info.title")).
		WithBody(lang.Translate(tag, "info.body", Version, Author))
}

// settingsForm edits the runtime lobby settings.
type settingsForm struct {
	m          *Manager
	Protection form.Toggle
	Items      form.Toggle
	Cooldown   form.Slider
}

func (f settingsForm) Submit(submitter form.Submitter, _ *world.Tx) {
	p, ok := submitter.(*player.Player)
	if !ok {
		return
	}
	if !f.m.IsAdmin(p) {
		f.m.Message(p, "settings.no_permission")
		return
	}
	conf := f.m.Config()
	conf.Lobby.Protection = f.Protection.Value()
	conf.Lobby.NavigationItems = f.Items.Value()
	conf.Lobby.TeleportCooldown = int(math.Round(f.Cooldown.Value()))
	f.m.Apply(conf)
	if err := f.m.SaveConfig(conf); err != nil {
		f.m.log.Error("Save settings.", "player", p.Name(), "error", err)
		f.m.Message(p, "settings.save_failed", err.Error())
		return
	}
	f.m.log.Info("Settings changed.", "player", p.Name(),
		"protection", conf.Lobby.Protection,
		"items", conf.Lobby.NavigationItems,
		"cooldown", conf.Lobby.TeleportCooldown,
	)
	f.m.Message(p, "settings.saved")
}

// SettingsMenu returns the settings form for p, or false with a message when
// p is not an admin.
func (m *Manager) SettingsMenu(p *player.Player) (form.Custom, bool) {
	if !m.IsAdmin(p) {
		m.Message(p, "settings.no_permission")
		return form.Custom{}, false
	}
	tag := m.Locale(p)
	conf := m.Config().Lobby
	f := settingsForm{
		m:          m,
		Protection: form.NewToggle(lang.Translate(tag, "settings.protection"), conf.Protection),
		Items:      form.NewToggle(lang.Translate(tag, "settings.items"), conf.NavigationItems),
		Cooldown: form.NewSlider(lang.Translate(tag, "settings.cooldown"),
			0, maxCooldownSeconds, 1, float64(min(conf.TeleportCooldown, maxCooldownSeconds))),
	}
	return form.New(f, lang.Translate(tag, "settings.title")), true
}

// SaveConfig persists conf to the configuration file of the lobby.
func (m *Manager) SaveConfig(conf Config) error {
	m.mu.RLock()
	path := m.path
	m.mu.RUnlock()
	if path == "" {
		return fmt.Errorf("save config: no configuration file")
	}
	return SaveConfig(path, conf)
}

var (
	_ form.MenuSubmittable  = actionMenu{}
	_ form.ModalSubmittable = infoModal{}
	_ form.Submittable      = settingsForm{}
)
