package builtin

import (
	"strings"

	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/world"
)

const ticksPerDay = 24000

type timeSetValueCommand struct {
	operatorOnly
	Set   cmd.SubCommand `cmd:"set"`
	Value int            `cmd:"value"`
}

type timeSetPresetCommand struct {
	operatorOnly
	Set   cmd.SubCommand `cmd:"set"`
	Value timeSetPreset  `cmd:"value"`
}

type timeAddCommand struct {
	operatorOnly
	Add   cmd.SubCommand `cmd:"add"`
	Value int            `cmd:"value"`
}

type timeQueryCommand struct {
	Query cmd.SubCommand `cmd:"query"`
	Type  timeQueryType  `cmd:"type"`
}

type timeQueryType string

func (timeQueryType) Type() string { return "timequery" }

func (timeQueryType) Options(cmd.Source) []string {
	return []string{"daytime", "gametime", "day"}
}

func newTimeCommand(ops operatorAdapter) cmd.Command {
	only := operatorOnly{ops: ops}
	return cmd.New(
		"time",
		"Adjusts or queries the time of the current world.",
		nil,
		timeSetValueCommand{operatorOnly: only},
		timeSetPresetCommand{operatorOnly: only},
		timeAddCommand{operatorOnly: only},
		timeQueryCommand{},
	)
}

func (t timeSetValueCommand) Run(_ cmd.Source, o *cmd.Output, tx *world.Tx) {
	w := tx.World()
	val := wrapTime(t.Value)
	w.SetTime(val)
	o.Printf("Set time of %s to %d.", w.Name(), val)
}

func (t timeSetPresetCommand) Run(_ cmd.Source, o *cmd.Output, tx *world.Tx) {
	ticks, ok := presetTimeTicks[timeSetPreset(strings.ToLower(string(t.Value)))]
	if !ok {
		o.Errort(cmd.MessageParameterInvalid, string(t.Value))
		return
	}
	w := tx.World()
	w.SetTime(ticks)
	o.Printf("Set time of %s to %d.", w.Name(), ticks)
}

func (t timeAddCommand) Run(_ cmd.Source, o *cmd.Output, tx *world.Tx) {
	w := tx.World()
	next := wrapTime(w.Time() + t.Value)
	w.SetTime(next)
	o.Printf("Set time of %s to %d.", w.Name(), next)
}

func (t timeQueryCommand) Run(_ cmd.Source, o *cmd.Output, tx *world.Tx) {
	v, ok := queryTime(tx.World().Time(), string(t.Type))
	if !ok {
		o.Errort(cmd.MessageParameterInvalid, string(t.Type))
		return
	}
	o.Printf("%d", v)
}

// wrapTime folds ticks into a single day.
func wrapTime(ticks int) int {
	v := ticks % ticksPerDay
	if v < 0 {
		v += ticksPerDay
	}
	return v
}

func queryTime(ticks int, kind string) (int, bool) {
	switch strings.ToLower(kind) {
	case "daytime", "gametime":
		return ticks % ticksPerDay, true
	case "day":
		return ticks / ticksPerDay, true
	}
	return 0, false
}

var presetTimeTicks = map[timeSetPreset]int{
	"day":      1000,
	"noon":     6000,
	"night":    13000,
	"midnight": 18000,
}
