package world

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/tilecentric/tilecentric/internal/core/ecs"
	"github.com/tilecentric/tilecentric/internal/lineage"
)

// Info is the lineage header of a state. ParentID is empty for the root.
type Info struct {
	ID       lineage.ID
	ParentID lineage.ID
}

func (i Info) IsRoot() bool { return i.ParentID == "" }

// State is an immutable snapshot of the world at one tick. Entities keep
// insertion order. Nothing outside this package can mutate a State.
type State struct {
	info     Info
	entities []*ecs.Entity
}

// NewState builds a state that takes ownership of entities. Callers must not
// retain or mutate the slice or its entities afterwards.
func NewState(info Info, entities []*ecs.Entity) *State {
	return &State{info: info, entities: entities}
}

func (s *State) Info() Info { return s.info }
func (s *State) Len() int   { return len(s.entities) }

// Entity returns the i-th entity as a read-only view.
func (s *State) Entity(i int) ecs.Reader { return s.entities[i] }

// Each visits entities in order until fn returns false.
func (s *State) Each(fn func(ecs.Reader) bool) {
	for _, e := range s.entities {
		if !fn(e) {
			return
		}
	}
}

// Equal reports whether both states have the same info and entities in the same order.
func (s *State) Equal(o *State) bool {
	if s.info != o.info || len(s.entities) != len(o.entities) {
		return false
	}
	for i, e := range s.entities {
		if !e.Equal(o.entities[i]) {
			return false
		}
	}
	return true
}

// cloneEntities deep-copies the entity list for the next tick's working set.
func (s *State) cloneEntities() []*ecs.Entity {
	out := make([]*ecs.Entity, len(s.entities))
	for i, e := range s.entities {
		out[i] = e.Clone()
	}
	return out
}

// Fingerprint hashes info and entities. Equal states share a fingerprint;
// any component change alters it.
func (s *State) Fingerprint() uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(string(s.info.ID))
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(string(s.info.ParentID))
	buf := make([]byte, 0, 64)
	for _, e := range s.entities {
		buf = append(buf[:0], '\x01')
		buf = strconv.AppendUint(buf, uint64(e.ID()), 10)
		_, _ = d.Write(buf)
		for _, name := range e.Names() {
			v, _ := e.Get(name)
			_, _ = d.WriteString("\x02" + name + "=" + v.String())
		}
	}
	return d.Sum64()
}
