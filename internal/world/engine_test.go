package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilecentric/tilecentric/internal/component"
	"github.com/tilecentric/tilecentric/internal/core/ecs"
	"github.com/tilecentric/tilecentric/internal/core/event"
	"github.com/tilecentric/tilecentric/internal/data"
	"github.com/tilecentric/tilecentric/internal/lineage"
)

func counter() lineage.TokenSource {
	var n int64
	return lineage.TokenFunc(func() int64 {
		n++
		return n
	})
}

func newTestEngine(opts ...Option) *Engine {
	return NewEngine(append([]Option{WithTokens(counter())}, opts...)...)
}

func TestInitialGrid(t *testing.T) {
	for _, size := range []int{1, 3, 5, 9} {
		s, err := newTestEngine().Initial(size, nil)
		require.NoError(t, err)

		half := size / 2
		seen := make(map[component.Vec2]bool)
		tiles, chars := 0, 0
		s.Each(func(e ecs.Reader) bool {
			typ, err := component.Type.Read(e)
			require.NoError(t, err)
			pos, err := component.Pos.Read(e)
			require.NoError(t, err)
			switch typ {
			case component.TypeTile:
				tiles++
				assert.False(t, seen[pos], "duplicate tile at %v", pos)
				seen[pos] = true
				assert.True(t, pos.X >= -half && pos.X <= half && pos.Y >= -half && pos.Y <= half)
				m, _ := component.Material.Read(e)
				assert.Contains(t, []int{0, 1}, m)
			case component.TypeChar:
				chars++
				assert.Equal(t, component.Vec2{}, pos)
				dir, _ := component.Dir.Read(e)
				assert.Equal(t, component.DirRight, dir)
				walk, _, _ := component.Walk.Get(e)
				assert.True(t, walk)
				user, _, _ := component.User.Get(e)
				assert.True(t, user)
			}
			return true
		})
		assert.Equal(t, size*size, tiles)
		assert.Equal(t, 1, chars)

		info := s.Info()
		assert.True(t, info.IsRoot())
		idx, err := info.ID.Index()
		require.NoError(t, err)
		assert.Equal(t, 0, idx)
	}
}

func TestInitialRejectsBadSize(t *testing.T) {
	for _, size := range []int{0, -1, -3, 2, 4} {
		_, err := newTestEngine().Initial(size, nil)
		require.Error(t, err, size)
		assert.True(t, ecs.IsValidation(err))
		assert.EqualError(t, err, "size must be a positive odd integer")
	}
}

func TestInitialMaterialDraw(t *testing.T) {
	flip := false
	e := newTestEngine(WithMaterialDraw(func() bool {
		flip = !flip
		return flip
	}))
	s, err := e.Initial(3, nil)
	require.NoError(t, err)
	for i := 0; i < 9; i++ {
		m, _ := component.Material.Read(s.Entity(i))
		assert.Equal(t, (i+1)%2, m, "tile %d", i)
	}
}

func TestInitialScenario(t *testing.T) {
	no := false
	sc := &data.Scenario{Characters: []data.CharacterSpawn{
		{Pos: [2]int{1, 1}, Dir: -1, User: true},
		{Pos: [2]int{-1, 0}, Dir: 4, Walk: &no},
	}}
	s, err := newTestEngine().Initial(3, sc)
	require.NoError(t, err)
	require.Equal(t, 11, s.Len())

	first := s.Entity(9)
	dir, _ := component.Dir.Read(first)
	assert.Equal(t, component.DirUpLeft, dir)

	second := s.Entity(10)
	walk, ok, _ := component.Walk.Get(second)
	assert.True(t, ok)
	assert.False(t, walk)
	assert.False(t, component.User.Has(second))
}

func TestEntityIDsUniqueAcrossInitials(t *testing.T) {
	e := newTestEngine()
	a, err := e.Initial(3, nil)
	require.NoError(t, err)
	b, err := e.Initial(3, nil)
	require.NoError(t, err)

	seen := make(map[ecs.EntityID]bool)
	for _, s := range []*State{a, b} {
		s.Each(func(r ecs.Reader) bool {
			assert.False(t, seen[r.ID()])
			seen[r.ID()] = true
			return true
		})
	}
	assert.Len(t, seen, 20)
}

func TestStepLineage(t *testing.T) {
	e := newTestEngine()
	s, err := e.Initial(3, nil)
	require.NoError(t, err)

	cur := s
	for i := 1; i <= 5; i++ {
		next, err := e.Step(cur)
		require.NoError(t, err)
		idx, err := next.Info().ID.Index()
		require.NoError(t, err)
		assert.Equal(t, i, idx)
		assert.Equal(t, cur.Info().ID, next.Info().ParentID)
		assert.NotEqual(t, cur.Info().ID, next.Info().ID)
		cur = next
	}
}

func TestStepDoesNotMutateInput(t *testing.T) {
	e := newTestEngine()
	s, err := e.Initial(5, nil)
	require.NoError(t, err)
	before := s.Fingerprint()
	snapshot := NewState(s.Info(), s.cloneEntities())

	next, err := e.Step(s)
	require.NoError(t, err)
	assert.Equal(t, before, s.Fingerprint())
	assert.True(t, snapshot.Equal(s))
	assert.NotEqual(t, before, next.Fingerprint())
}

func TestStepMovesWalkersOnly(t *testing.T) {
	e := newTestEngine()
	s, err := e.Initial(3, nil)
	require.NoError(t, err)

	next, err := e.Step(s)
	require.NoError(t, err)
	require.Equal(t, s.Len(), next.Len())

	for i := 0; i < s.Len(); i++ {
		prev, cur := s.entities[i], next.entities[i]
		assert.Equal(t, prev.ID(), cur.ID())
		if walk, _, _ := component.Walk.Get(prev); walk {
			p0, _ := component.Pos.Read(prev)
			p1, _ := component.Pos.Read(cur)
			assert.Equal(t, p0.Add(component.DirRight.Delta()), p1)
			continue
		}
		assert.True(t, prev.Equal(cur), "entity %d changed", prev.ID())
	}
}

func TestStepDispatchesMoves(t *testing.T) {
	e := newTestEngine()
	var moves []event.EntityMoved
	event.Subscribe(e.Bus(), func(ev event.EntityMoved) { moves = append(moves, ev) })

	s, err := e.Initial(3, nil)
	require.NoError(t, err)
	_, err = e.Step(s)
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, component.Vec2{X: 1}, moves[0].To)
}

func TestStepFailureLeavesNoEvents(t *testing.T) {
	a := ecs.NewAllocator()
	good := a.Create()
	component.Pos.Set(good, component.Vec2{})
	component.Walk.Set(good, true)
	bad := a.Create()
	component.Walk.Set(bad, true)
	bad.Set("pos", ecs.StringValue("0,0"))

	e := newTestEngine(WithAllocator(a))
	calls := 0
	event.Subscribe(e.Bus(), func(event.EntityMoved) { calls++ })

	s := NewState(Info{ID: "0_1"}, []*ecs.Entity{good, bad})
	_, err := e.Step(s)
	require.Error(t, err)
	assert.True(t, ecs.IsValidation(err))
	assert.Equal(t, 0, e.Bus().Pending())
	assert.Equal(t, 0, calls)

	// Input untouched even though the first entity was moved in the working copy.
	pos, _ := component.Pos.Read(s.Entity(0))
	assert.Equal(t, component.Vec2{}, pos)
}

func TestStepRejectsBadID(t *testing.T) {
	e := newTestEngine()
	for _, id := range []lineage.ID{"", "x_1", "-2_1"} {
		_, err := e.Step(NewState(Info{ID: id}, nil))
		assert.True(t, ecs.IsValidation(err), id)
	}
}

func TestFingerprintSensitivity(t *testing.T) {
	a := ecs.NewAllocator()
	mk := func(material int) *State {
		ent := a.Restore(1, nil)
		component.Material.Set(ent, material)
		return NewState(Info{ID: "0_1"}, []*ecs.Entity{ent})
	}
	assert.Equal(t, mk(1).Fingerprint(), mk(1).Fingerprint())
	assert.NotEqual(t, mk(1).Fingerprint(), mk(0).Fingerprint())
}
