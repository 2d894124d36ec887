package ecs

import (
	"math"
	"sort"
)

// EntityID is a non-negative integer assigned once at creation and never
// reassigned. Clones share the ID of their source.
type EntityID uint64

// MaxEntityID is the largest id accepted from storage. It keeps Observe's
// id+1 from wrapping.
const MaxEntityID = math.MaxInt64

// Allocator hands out sequential entity IDs starting at 0.
// Owned by whichever context constructs entities; not safe for concurrent use.
type Allocator struct {
	next EntityID
}

func NewAllocator() *Allocator {
	return &Allocator{}
}

// Next returns the next unused ID and advances the counter.
func (a *Allocator) Next() EntityID {
	id := a.next
	a.next++
	return id
}

// Observe re-seeds the counter so that subsequently created entities never
// collide with id. After Observe(n) the next ID is at least n+1.
// Ids above MaxEntityID are clamped to it.
func (a *Allocator) Observe(id EntityID) {
	id = min(id, MaxEntityID)
	if id >= a.next {
		a.next = id + 1
	}
}

// Peek returns the ID the next call to Next will return.
func (a *Allocator) Peek() EntityID { return a.next }

// Create allocates a new entity with no components.
func (a *Allocator) Create() *Entity {
	return &Entity{
		id:         a.Next(),
		components: make(map[string]Value, 4),
	}
}

// Restore rebuilds an entity loaded from storage and re-seeds the allocator.
// The components map is copied.
func (a *Allocator) Restore(id EntityID, components map[string]Value) *Entity {
	a.Observe(id)
	e := &Entity{
		id:         id,
		components: make(map[string]Value, len(components)),
	}
	for k, v := range components {
		e.components[k] = v.clone()
	}
	return e
}

// Reader is the read-only view of an entity handed to renderers and codecs.
type Reader interface {
	ID() EntityID
	Get(name string) (Value, bool)
	Has(name string) bool
	Names() []string
}

// Entity is an ID plus an open-ended bag of named components.
// Absence of a key means the entity does not have that component.
type Entity struct {
	id         EntityID
	components map[string]Value
}

func (e *Entity) ID() EntityID { return e.id }

func (e *Entity) Set(name string, v Value) {
	e.components[name] = v
}

// Unset removes a component. Missing names are a no-op.
func (e *Entity) Unset(name string) {
	delete(e.components, name)
}

func (e *Entity) Get(name string) (Value, bool) {
	v, ok := e.components[name]
	return v, ok
}

func (e *Entity) Has(name string) bool {
	_, ok := e.components[name]
	return ok
}

func (e *Entity) Len() int { return len(e.components) }

// Names returns the component names in sorted order.
func (e *Entity) Names() []string {
	names := make([]string, 0, len(e.components))
	for k := range e.components {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Clone returns an entity with the same ID and an independent components map.
func (e *Entity) Clone() *Entity {
	c := &Entity{
		id:         e.id,
		components: make(map[string]Value, len(e.components)),
	}
	for k, v := range e.components {
		c.components[k] = v.clone()
	}
	return c
}

// Equal reports whether both entities carry the same ID and components.
func (e *Entity) Equal(o *Entity) bool {
	if e.id != o.id || len(e.components) != len(o.components) {
		return false
	}
	for k, v := range e.components {
		ov, ok := o.components[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}
