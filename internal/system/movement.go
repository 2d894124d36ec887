package system

import (
	"fmt"

	"github.com/tilecentric/tilecentric/internal/component"
	"github.com/tilecentric/tilecentric/internal/core/ecs"
	"github.com/tilecentric/tilecentric/internal/core/event"
	coresys "github.com/tilecentric/tilecentric/internal/core/system"
)

// MovementSystem advances every entity whose walk flag is exactly true by one
// cell along its facing direction. Phase 1 (Update).
type MovementSystem struct {
	bus *event.Bus
}

// NewMovementSystem creates the system. bus may be nil.
func NewMovementSystem(bus *event.Bus) *MovementSystem {
	return &MovementSystem{bus: bus}
}

func (s *MovementSystem) Name() string         { return "movement" }
func (s *MovementSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *MovementSystem) Reads() []string {
	return []string{component.Walk.Name(), component.Pos.Name(), component.Dir.Name()}
}

func (s *MovementSystem) Writes() []string {
	return []string{component.Pos.Name()}
}

func (s *MovementSystem) Update(entities []*ecs.Entity) error {
	return ecs.Each(entities, s.move, ecs.Where(component.Walk, true))
}

func (s *MovementSystem) move(e *ecs.Entity) error {
	pos, err := component.Pos.Read(e)
	if err != nil {
		return fmt.Errorf("entity %d: %w", e.ID(), err)
	}
	dir, _ := component.Dir.Read(e)
	next := pos.Add(dir.Delta())
	component.Pos.Set(e, next)

	if s.bus != nil {
		event.Emit(s.bus, event.EntityMoved{
			EntityID: e.ID(),
			From:     pos,
			To:       next,
			Dir:      dir,
		})
	}
	return nil
}
