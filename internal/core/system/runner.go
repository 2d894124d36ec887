package system

import (
	"fmt"
	"sort"

	"github.com/tilecentric/tilecentric/internal/core/ecs"
)

// Runner executes systems in phase order each tick.
type Runner struct {
	systems []System
	sorted  bool
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]System, 0, 4),
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// Tick runs every system over entities. The first failing system aborts the tick.
func (r *Runner) Tick(entities []*ecs.Entity) error {
	r.ensureSorted()
	for _, s := range r.systems {
		if err := s.Update(entities); err != nil {
			return fmt.Errorf("%s system: %w", s.Name(), err)
		}
	}
	return nil
}

// Systems returns the registered systems in execution order.
func (r *Runner) Systems() []System {
	r.ensureSorted()
	out := make([]System, len(r.systems))
	copy(out, r.systems)
	return out
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
}
