package builtin

import (
	"fmt"
	"runtime"
	"runtime/metrics"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/artedaguerra/eralobby/server/plugin"
	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/world"
)

type statusCommand struct {
	srv     serverAdapter
	plugins pluginAdapter
}

func newStatusCommand(srv serverAdapter, plugins pluginAdapter) cmd.Command {
	return cmd.New("status", "Displays server performance statistics.", nil, statusCommand{srv: srv, plugins: plugins})
}

func (s statusCommand) Run(_ cmd.Source, o *cmd.Output, tx *world.Tx) {
	for _, line := range s.summary(time.Now()) {
		o.Print(line)
	}
	if tx != nil {
		o.Printf("World: %s | Time: %d", tx.World().Name(), tx.World().Time()%ticksPerDay)
	}

	if cpuLoad, ready := sampleAverageCPULoad(); ready {
		o.Printf("CPU load (per core): %.2f%% across %d cores", cpuLoad, runtime.NumCPU())
	} else {
		o.Print("CPU load: collecting baseline, try again shortly.")
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	lastGC := "never"
	if mem.LastGC != 0 {
		lastGC = fmt.Sprintf("%s ago", time.Since(time.Unix(0, int64(mem.LastGC))).Round(time.Second))
	}
	o.Printf("Memory: %.2f MiB heap used / %.2f MiB reserved", bytesToMiB(mem.HeapAlloc), bytesToMiB(mem.HeapSys))
	o.Printf("Goroutines: %d | GOMAXPROCS: %d | GC cycles: %d | Last GC: %s", runtime.NumGoroutine(), runtime.GOMAXPROCS(0), mem.NumGC, lastGC)
}

// summary returns the uptime, player and plugin lines of the status report.
func (s statusCommand) summary(now time.Time) []string {
	var lines []string
	if start := s.srv.StartTime(); !start.IsZero() {
		lines = append(lines, "Uptime: "+now.Sub(start).Round(time.Second).String())
	}

	online := 0
	worlds := map[string]int{}
	for _, p := range s.srv.PlayerSummaries() {
		if !p.Connected {
			continue
		}
		online++
		if p.World != "" {
			worlds[p.World]++
		}
	}
	lines = append(lines, fmt.Sprintf("Players: %d/%d", online, s.srv.MaxPlayerCount()))
	if len(worlds) != 0 {
		names := make([]string, 0, len(worlds))
		for name, n := range worlds {
			names = append(names, fmt.Sprintf("%s: %d", name, n))
		}
		lines = append(lines, "Worlds: "+joinSorted(names))
	}

	switch {
	case s.plugins == nil || !s.plugins.Enabled():
		lines = append(lines, "Plugins: disabled")
	default:
		lines = append(lines, fmt.Sprintf("Plugins (%d): %s", len(s.plugins.Infos()), pluginNames(s.plugins.Infos())))
	}
	return lines
}

// pluginNames formats plugin infos as a sorted, comma separated list.
func pluginNames(infos []plugin.Info) string {
	if len(infos) == 0 {
		return "none"
	}
	sorted := append([]plugin.Info(nil), infos...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})
	names := make([]string, 0, len(sorted))
	for _, info := range sorted {
		if info.Version != "" {
			names = append(names, info.Name+" v"+info.Version)
			continue
		}
		names = append(names, info.Name)
	}
	return strings.Join(names, ", ")
}

var (
	cpuSampleMu       sync.Mutex
	cpuSampleLastTime time.Time
	cpuSampleLastUsed float64
)

func sampleAverageCPULoad() (float64, bool) {
	samples := []metrics.Sample{
		{Name: "/cpu/classes/total:cpu-seconds"},
	}
	metrics.Read(samples)
	if samples[0].Value.Kind() != metrics.KindFloat64 {
		return 0, false
	}
	total := samples[0].Value.Float64()
	now := time.Now()

	cpuSampleMu.Lock()
	defer cpuSampleMu.Unlock()

	ready := !cpuSampleLastTime.IsZero()
	deltaTime := now.Sub(cpuSampleLastTime).Seconds()
	deltaUsed := total - cpuSampleLastUsed

	cpuSampleLastTime = now
	cpuSampleLastUsed = total

	if !ready || deltaTime <= 0 || deltaUsed < 0 {
		return 0, false
	}
	usage := (deltaUsed / deltaTime / float64(runtime.NumCPU())) * 100
	return min(max(usage, 0), 100), true
}

func bytesToMiB(v uint64) float64 {
	return float64(v) / (1024 * 1024)
}
