package builtin

import (
	"runtime"
	"runtime/debug"

	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/world"
)

type gcCommand struct {
	consoleOnly
}

func newGCCommand() cmd.Command {
	return cmd.New("gc", "Triggers a Go garbage collection cycle and returns freed memory to the OS.", nil, gcCommand{})
}

func (gcCommand) Run(_ cmd.Source, o *cmd.Output, _ *world.Tx) {
	var before runtime.MemStats
	runtime.ReadMemStats(&before)

	debug.FreeOSMemory()

	var after runtime.MemStats
	runtime.ReadMemStats(&after)

	freedBytes := uint64(0)
	if before.HeapAlloc > after.HeapAlloc {
		freedBytes = before.HeapAlloc - after.HeapAlloc
	}
	released := uint64(0)
	if after.HeapReleased > before.HeapReleased {
		released = after.HeapReleased - before.HeapReleased
	}
	o.Print("---- Garbage collection result ----")
	o.Printf("Heap memory freed: %.2f MiB (current heap %.2f MiB)", bytesToMiB(freedBytes), bytesToMiB(after.HeapAlloc))
	o.Printf("Returned to the OS: %.2f MiB", bytesToMiB(released))
}
