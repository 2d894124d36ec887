package system

import "github.com/tilecentric/tilecentric/internal/core/ecs"

// Phase defines execution ordering within a single tick.
// Systems sharing a phase run in registration order.
type Phase int

const (
	PhasePreUpdate  Phase = iota // 0: derive inputs for this tick
	PhaseUpdate                  // 1: world transitions (movement)
	PhasePostUpdate              // 2: reactions to this tick's transitions
)

func (p Phase) String() string {
	switch p {
	case PhasePreUpdate:
		return "pre-update"
	case PhaseUpdate:
		return "update"
	case PhasePostUpdate:
		return "post-update"
	}
	return "unknown"
}

// System is the interface every transition system implements. Update mutates
// the tick's private working copy in place and must not depend on the order
// of unrelated entities.
type System interface {
	Name() string
	Phase() Phase
	Update(entities []*ecs.Entity) error
}

// Declarer is implemented by systems that declare the components they touch.
type Declarer interface {
	Reads() []string
	Writes() []string
}
