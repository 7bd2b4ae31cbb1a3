package builtin

import (
	"time"

	"github.com/artedaguerra/eralobby/server/plugin"
)

type serverAdapter interface {
	PlayerSummaries() []plugin.PlayerSummary
	MaxPlayerCount() int
	StartTime() time.Time
	Close() error
}

type pluginAdapter interface {
	Enabled() bool
	Infos() []plugin.Info
	Reload(name string) (plugin.Info, error)
}

type operatorAdapter interface {
	IsOperator(name string) bool
	Add(name string) (bool, error)
	Remove(name string) (bool, error)
	Operators() []string
}

type whitelistAdapter interface {
	Enabled() bool
	SetEnabled(enabled bool)
	Add(name string) (bool, error)
	Remove(name string) (bool, error)
	Entries() []string
}
