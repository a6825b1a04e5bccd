package surface

import (
	"sync"

	"github.com/chrissnell/startracker/internal/graph"
)

// Memory is a graph.Surface that keeps the latest chart and counts redraws.
// The command-line tools render through it.
type Memory struct {
	mu      sync.Mutex
	chart   graph.Chart
	updates int
}

func (m *Memory) Update(c graph.Chart) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chart = c
	m.updates++
}

// Chart returns the latest chart and how many redraws produced it.
func (m *Memory) Chart() (graph.Chart, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chart, m.updates
}

// Multi forwards every redraw to each surface in order.
func Multi(surfaces ...graph.Surface) graph.Surface {
	return graph.SurfaceFunc(func(c graph.Chart) {
		for _, s := range surfaces {
			s.Update(c)
		}
	})
}
