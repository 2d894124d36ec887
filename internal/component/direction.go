package component

import (
	"strconv"
	"strings"

	"github.com/tilecentric/tilecentric/internal/core/ecs"
)

// Direction is one of 8 compass directions, clockwise from up.
type Direction int

const (
	DirUp Direction = iota
	DirUpRight
	DirRight
	DirDownRight
	DirDown
	DirDownLeft
	DirLeft
	DirUpLeft

	numDirections = 8
)

// deltas is the canonical direction table shared by movement and rendering.
// y grows downward.
var deltas = [numDirections]Vec2{
	DirUp:        {0, -1},
	DirUpRight:   {1, -1},
	DirRight:     {1, 0},
	DirDownRight: {1, 1},
	DirDown:      {0, 1},
	DirDownLeft:  {-1, 1},
	DirLeft:      {-1, 0},
	DirUpLeft:    {-1, -1},
}

// Delta returns the unit offset for the normalized direction.
func (d Direction) Delta() Vec2 {
	return deltas[NormalizeInt(int(d))]
}

// NormalizeInt wraps any integer into [0, 8).
func NormalizeInt(n int) Direction {
	return Direction(((n % numDirections) + numDirections) % numDirections)
}

// NormalizeDir applies the direction rule: integers wrap modulo 8, numeric
// strings are parsed then wrapped, everything else (bools included) is 0.
func NormalizeDir(v ecs.Value) Direction {
	switch v.Kind() {
	case ecs.KindInt:
		n, _ := v.AsInt()
		return NormalizeInt(n)
	case ecs.KindString:
		s, _ := v.AsString()
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return DirUp
		}
		return NormalizeInt(n)
	}
	return DirUp
}
