package ecs

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocatorSequential(t *testing.T) {
	a := NewAllocator()
	seen := make(map[EntityID]bool)
	for i := 0; i < 100; i++ {
		e := a.Create()
		assert.Equal(t, EntityID(i), e.ID())
		assert.False(t, seen[e.ID()], "duplicate id %d", e.ID())
		seen[e.ID()] = true
	}
}

func TestAllocatorObserveReseeds(t *testing.T) {
	a := NewAllocator()
	a.Restore(41, nil)
	assert.Equal(t, EntityID(42), a.Create().ID())

	// Observing a lower id never moves the counter backwards.
	a.Observe(3)
	assert.Equal(t, EntityID(43), a.Next())
}

func TestAllocatorObserveNeverWraps(t *testing.T) {
	a := NewAllocator()
	a.Observe(EntityID(math.MaxUint64))
	assert.Equal(t, EntityID(MaxEntityID+1), a.Peek())
	assert.NotZero(t, a.Create().ID())
}

func TestEntitySetUnsetGet(t *testing.T) {
	e := NewAllocator().Create()
	_, ok := e.Get("pos")
	assert.False(t, ok)

	e.Set("pos", PairValue(1, 2))
	v, ok := e.Get("pos")
	require.True(t, ok)
	x, y, isPair := v.AsPair()
	assert.True(t, isPair)
	assert.Equal(t, 1, x)
	assert.Equal(t, 2, y)

	e.Unset("pos")
	e.Unset("missing")
	assert.False(t, e.Has("pos"))
	assert.Equal(t, 0, e.Len())
}

func TestCloneIsIndependent(t *testing.T) {
	e := NewAllocator().Create()
	e.Set("type", StringValue("char"))
	e.Set("raw", RawValue([]byte(`{"a":1}`)))

	c := e.Clone()
	assert.Equal(t, e.ID(), c.ID())
	assert.True(t, e.Equal(c))

	c.Set("type", StringValue("tile"))
	c.Set("walk", BoolValue(true))
	c.Unset("raw")

	typ, _ := e.Get("type")
	s, _ := typ.AsString()
	assert.Equal(t, "char", s)
	assert.False(t, e.Has("walk"))
	assert.True(t, e.Has("raw"))
	assert.False(t, e.Equal(c))
}

func TestNamesSorted(t *testing.T) {
	e := NewAllocator().Create()
	e.Set("walk", BoolValue(true))
	e.Set("dir", IntValue(2))
	e.Set("pos", PairValue(0, 0))
	assert.Equal(t, []string{"dir", "pos", "walk"}, e.Names())
}

func TestQueryEach(t *testing.T) {
	a := NewAllocator()
	var ents []*Entity
	for i := 0; i < 4; i++ {
		e := a.Create()
		if i%2 == 0 {
			e.Set("walk", BoolValue(true))
		} else {
			e.Set("walk", IntValue(1))
		}
		ents = append(ents, e)
	}
	walk := NewComponent("walk", func(v Value) (bool, error) {
		b, _ := v.AsBool()
		return b, nil
	}, BoolValue)

	var got []EntityID
	err := Each(ents, func(e *Entity) error {
		got = append(got, e.ID())
		return nil
	}, Where(walk, true))
	require.NoError(t, err)
	assert.Equal(t, []EntityID{0, 2}, got)
	assert.Equal(t, 4, Count(ents, With("walk")))
}
