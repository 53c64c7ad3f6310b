package core

import (
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// ComponentStats is the resource usage of one group of processes.
type ComponentStats struct {
	Name        string  `json:"name"`
	Processes   int     `json:"processes"`
	MemoryMB    uint64  `json:"memory_mb"`
	MemoryMaxMB uint64  `json:"memory_max_mb"`
	CPUSec      float64 `json:"cpu_sec"`     // Seconds per second
	CPUMaxSec   float64 `json:"cpu_max_sec"` // Peak
	Threads     int32   `json:"threads"`
}

// ResourceSample is one measurement of the whole application.
type ResourceSample struct {
	Components []ComponentStats `json:"components"`
	Goroutines int              `json:"goroutines"`
	HeapMB     uint64           `json:"heap_mb"`
	SampledAt  time.Time        `json:"sampled_at"`
}

type componentState struct {
	lastCPU  float64
	lastTime time.Time
	maxMem   uint64
	maxCPU   float64
}

// ResourceMonitor samples this process and its child players.
// Leaked player processes or a growing heap across sequence changes show up here first.
type ResourceMonitor struct {
	mu     sync.Mutex
	pid    int32
	states map[string]*componentState
	last   *ResourceSample
}

// NewResourceMonitor creates a monitor for the current process.
func NewResourceMonitor() *ResourceMonitor {
	return &ResourceMonitor{
		pid:    int32(os.Getpid()),
		states: make(map[string]*componentState),
	}
}

// Sample measures now and remembers the result.
func (m *ResourceMonitor) Sample() ResourceSample {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var components []ComponentStats

	self, err := process.NewProcess(m.pid)
	if err == nil {
		components = append(components, m.measure("Server", []*process.Process{self}, now))

		// ffplay windows are children of this process
		if children, err := self.Children(); err == nil && len(children) > 0 {
			components = append(components, m.measure("Players", children, now))
		} else {
			components = append(components, ComponentStats{Name: "Players"})
		}
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	s := &ResourceSample{
		Components: components,
		Goroutines: runtime.NumGoroutine(),
		HeapMB:     bToMb(ms.HeapAlloc),
		SampledAt:  now,
	}
	m.last = s
	return *s
}

// Last returns the most recent sample, or false before the first one.
func (m *ResourceMonitor) Last() (ResourceSample, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return ResourceSample{}, false
	}
	return *m.last, true
}

func (m *ResourceMonitor) measure(name string, procs []*process.Process, now time.Time) ComponentStats {
	var totalCPU float64
	var totalMem uint64
	var threads int32

	for _, p := range procs {
		if t, err := p.Times(); err == nil {
			totalCPU += t.User + t.System
		}
		if mem, err := p.MemoryInfo(); err == nil {
			totalMem += mem.RSS
		}
		if n, err := p.NumThreads(); err == nil {
			threads += n
		}
	}

	state, ok := m.states[name]
	if !ok {
		state = &componentState{lastTime: now, lastCPU: totalCPU}
		m.states[name] = state
	}

	// CPU delta in seconds per second
	cpuSec := 0.0
	if d := now.Sub(state.lastTime).Seconds(); d > 0 {
		delta := totalCPU - state.lastCPU
		if delta < 0 {
			delta = 0 // A child exited between samples
		}
		cpuSec = delta / d
	}

	state.lastCPU = totalCPU
	state.lastTime = now
	if totalMem > state.maxMem {
		state.maxMem = totalMem
	}
	if cpuSec > state.maxCPU {
		state.maxCPU = cpuSec
	}

	return ComponentStats{
		Name:        name,
		Processes:   len(procs),
		MemoryMB:    bToMb(totalMem),
		MemoryMaxMB: bToMb(state.maxMem),
		CPUSec:      cpuSec,
		CPUMaxSec:   state.maxCPU,
		Threads:     threads,
	}
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
