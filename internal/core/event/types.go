package event

import (
	"github.com/tilecentric/tilecentric/internal/component"
	"github.com/tilecentric/tilecentric/internal/core/ecs"
)

// EntityMoved is emitted by the movement system for every entity it advances.
type EntityMoved struct {
	EntityID ecs.EntityID
	From     component.Vec2
	To       component.Vec2
	Dir      component.Direction
}
