package ylscene

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Profiler accumulates wall time per named build phase. Scopes may be entered
// many times; their durations add up.
type Profiler struct {
	Scopes     map[string]time.Duration
	StartTimes map[string]time.Time
	Counts     map[string]int
	Order      []string
}

func NewProfiler() *Profiler {
	return &Profiler{
		Scopes:     make(map[string]time.Duration),
		StartTimes: make(map[string]time.Time),
		Counts:     make(map[string]int),
	}
}

func (p *Profiler) BeginScope(name string) {
	p.StartTimes[name] = time.Now()
	if _, seen := p.Scopes[name]; !seen {
		p.Order = append(p.Order, name)
		p.Scopes[name] = 0
	}
}

func (p *Profiler) EndScope(name string) {
	if start, ok := p.StartTimes[name]; ok {
		p.Scopes[name] += time.Since(start)
		delete(p.StartTimes, name)
	}
}

// Count adds n to a named counter.
func (p *Profiler) Count(name string, n int) {
	p.Counts[name] += n
}

func (p *Profiler) Reset() {
	for k := range p.Scopes {
		p.Scopes[k] = 0
	}
	clear(p.Counts)
}

func (p *Profiler) String() string {
	var sb strings.Builder

	sb.WriteString("Timings:\n")
	for _, name := range p.Order {
		ms := float64(p.Scopes[name].Microseconds()) / 1000.0
		sb.WriteString(fmt.Sprintf("  %-15s: %.2f ms\n", name, ms))
	}

	if len(p.Counts) > 0 {
		sb.WriteString("Counts:\n")
		keys := make([]string, 0, len(p.Counts))
		for k := range p.Counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("  %-15s: %d\n", k, p.Counts[k]))
		}
	}
	return sb.String()
}
