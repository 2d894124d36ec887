package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilecentric/tilecentric/internal/component"
	"github.com/tilecentric/tilecentric/internal/core/ecs"
	"github.com/tilecentric/tilecentric/internal/core/event"
)

func walker(a *ecs.Allocator, pos component.Vec2, dir ecs.Value) *ecs.Entity {
	e := a.Create()
	component.Pos.Set(e, pos)
	e.Set("dir", dir)
	component.Walk.Set(e, true)
	return e
}

func TestMovementAllDirections(t *testing.T) {
	want := []component.Vec2{
		{X: 0, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 0}, {X: 1, Y: 1},
		{X: 0, Y: 1}, {X: -1, Y: 1}, {X: -1, Y: 0}, {X: -1, Y: -1},
	}
	a := ecs.NewAllocator()
	for d, w := range want {
		start := component.Vec2{X: 5, Y: -5}
		e := walker(a, start, ecs.IntValue(d+8))
		require.NoError(t, NewMovementSystem(nil).Update([]*ecs.Entity{e}))
		got, err := component.Pos.Read(e)
		require.NoError(t, err)
		assert.Equal(t, start.Add(w), got, "dir %d", d)
	}
}

func TestMovementNormalizesDir(t *testing.T) {
	a := ecs.NewAllocator()
	ents := []*ecs.Entity{
		walker(a, component.Vec2{}, ecs.IntValue(-1)),
		walker(a, component.Vec2{}, ecs.StringValue("3")),
		walker(a, component.Vec2{}, ecs.StringValue("x")),
	}
	require.NoError(t, NewMovementSystem(nil).Update(ents))

	want := []component.Vec2{{X: -1, Y: -1}, {X: 1, Y: 1}, {X: 0, Y: -1}}
	for i, e := range ents {
		got, _ := component.Pos.Read(e)
		assert.Equal(t, want[i], got)
	}
}

func TestMovementSkipsNonWalkers(t *testing.T) {
	a := ecs.NewAllocator()
	still := a.Create()
	component.Pos.Set(still, component.Vec2{X: 2, Y: 2})
	component.Dir.Set(still, component.DirRight)

	off := walker(a, component.Vec2{X: 1, Y: 1}, ecs.IntValue(2))
	component.Walk.Set(off, false)

	truthy := walker(a, component.Vec2{X: 1, Y: 1}, ecs.IntValue(2))
	truthy.Set("walk", ecs.IntValue(1))

	tile := a.Create()
	component.Type.Set(tile, component.TypeTile)

	before := []*ecs.Entity{still.Clone(), off.Clone(), truthy.Clone(), tile.Clone()}
	ents := []*ecs.Entity{still, off, truthy, tile}
	require.NoError(t, NewMovementSystem(nil).Update(ents))
	for i := range ents {
		assert.True(t, before[i].Equal(ents[i]), "entity %d changed", i)
	}
}

func TestMovementRejectsBadPos(t *testing.T) {
	a := ecs.NewAllocator()
	e := walker(a, component.Vec2{}, ecs.IntValue(0))
	e.Set("pos", ecs.RawValue([]byte(`[true, 1]`)))

	err := NewMovementSystem(nil).Update([]*ecs.Entity{e})
	require.Error(t, err)
	assert.True(t, ecs.IsValidation(err))
	assert.Contains(t, err.Error(), "pos must contain two ints")

	e.Unset("pos")
	err = NewMovementSystem(nil).Update([]*ecs.Entity{e})
	assert.Contains(t, err.Error(), "pos must be [x, y]")
}

func TestMovementEmitsEvents(t *testing.T) {
	bus := event.NewBus()
	var moves []event.EntityMoved
	event.Subscribe(bus, func(ev event.EntityMoved) { moves = append(moves, ev) })

	e := walker(ecs.NewAllocator(), component.Vec2{}, ecs.IntValue(2))
	require.NoError(t, NewMovementSystem(bus).Update([]*ecs.Entity{e}))
	assert.Empty(t, moves)

	bus.Flush()
	require.Len(t, moves, 1)
	assert.Equal(t, component.Vec2{X: 1}, moves[0].To)
	assert.Equal(t, component.DirRight, moves[0].Dir)
}

func TestMovementDeclaresComponents(t *testing.T) {
	s := NewMovementSystem(nil)
	assert.ElementsMatch(t, []string{"walk", "pos", "dir"}, s.Reads())
	assert.Equal(t, []string{"pos"}, s.Writes())
}
