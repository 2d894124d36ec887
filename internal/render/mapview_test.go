package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tilecentric/tilecentric/internal/component"
	"github.com/tilecentric/tilecentric/internal/core/ecs"
	"github.com/tilecentric/tilecentric/internal/lineage"
	"github.com/tilecentric/tilecentric/internal/world"
)

func tile(a *ecs.Allocator, x, y, material int) *ecs.Entity {
	e := a.Create()
	component.Type.Set(e, component.TypeTile)
	component.Pos.Set(e, component.Vec2{X: x, Y: y})
	component.Material.Set(e, material)
	return e
}

func char(a *ecs.Allocator, x, y int, d component.Direction) *ecs.Entity {
	e := a.Create()
	component.Type.Set(e, component.TypeChar)
	component.Pos.Set(e, component.Vec2{X: x, Y: y})
	component.Dir.Set(e, d)
	return e
}

func state(ents ...*ecs.Entity) *world.State {
	return world.NewState(world.Info{ID: "0_1"}, ents)
}

func TestMapGrid(t *testing.T) {
	a := ecs.NewAllocator()
	s := state(
		tile(a, -1, 0, 1), tile(a, 0, 0, 0), tile(a, 1, 0, 1),
		tile(a, -1, 1, 1), tile(a, 1, 1, 1),
		char(a, 0, 0, component.DirRight),
	)

	out, err := Map(s, false)
	require.NoError(t, err)
	assert.Equal(t, "[   ][ → ][   ]\n[   ]     [   ]", out)
}

func TestMapColorsHollowTiles(t *testing.T) {
	a := ecs.NewAllocator()
	s := state(tile(a, 0, 0, 0), tile(a, 1, 0, 1))

	out, err := Map(s, true)
	require.NoError(t, err)
	assert.Equal(t, "\x1b[90m[   ]\x1b[0m[   ]", out)

	out, err = Map(s, false)
	require.NoError(t, err)
	assert.Equal(t, "[   ][   ]", out)
}

func TestMapGlyphs(t *testing.T) {
	want := []string{"↑", "↗", "→", "↘", "↓", "↙", "←", "↖"}
	for i, g := range want {
		assert.Equal(t, g, Glyph(component.Direction(i)))
	}
	assert.Equal(t, "↗", Glyph(component.Direction(9)))
	assert.Equal(t, "↖", Glyph(component.Direction(-1)))
}

func TestMapNoTiles(t *testing.T) {
	a := ecs.NewAllocator()
	out, err := Map(state(char(a, 0, 0, component.DirUp)), false)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestMapSkipsOtherTypes(t *testing.T) {
	a := ecs.NewAllocator()
	rock := a.Create()
	component.Type.Set(rock, "rock")
	untyped := a.Create()
	untyped.Set("pos", ecs.StringValue("junk"))

	out, err := Map(state(tile(a, 0, 0, 1), rock, untyped), false)
	require.NoError(t, err)
	assert.Equal(t, "[   ]", out)
}

func TestMapLenientMaterial(t *testing.T) {
	a := ecs.NewAllocator()
	flag := tile(a, 0, 0, 0)
	flag.Set("material", ecs.BoolValue(false))
	missing := tile(a, 1, 0, 0)
	missing.Unset("material")

	out, err := Map(state(flag, missing), true)
	require.NoError(t, err)
	assert.False(t, strings.Contains(out, "\x1b[90m"))
}

func TestMapBadPos(t *testing.T) {
	a := ecs.NewAllocator()
	bad := tile(a, 0, 0, 1)
	bad.Set("pos", ecs.StringValue("0,0"))

	_, err := Map(state(bad), false)
	require.Error(t, err)
	assert.True(t, ecs.IsValidation(err))
	assert.EqualError(t, err, "pos must be [x, y]")
}

func TestMapInitialState(t *testing.T) {
	eng := world.NewEngine(
		world.WithTokens(lineage.TokenFunc(func() int64 { return 7 })),
		world.WithMaterialDraw(func() bool { return true }),
	)
	s, err := eng.Initial(3, nil)
	require.NoError(t, err)

	out, err := Map(s, false)
	require.NoError(t, err)
	assert.Equal(t, "[   ][   ][   ]\n[   ][ → ][   ]\n[   ][   ][   ]", out)
}
