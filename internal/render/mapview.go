// Package render draws a state as a terminal grid.
package render

import (
	"strings"

	"github.com/tilecentric/tilecentric/internal/component"
	"github.com/tilecentric/tilecentric/internal/core/ecs"
	"github.com/tilecentric/tilecentric/internal/world"
)

const (
	tileCell  = "[   ]"
	emptyCell = "     "

	grayOn  = "\x1b[90m"
	grayOff = "\x1b[0m"
)

var arrows = [...]string{
	component.DirUp:        "↑",
	component.DirUpRight:   "↗",
	component.DirRight:     "→",
	component.DirDownRight: "↘",
	component.DirDown:      "↓",
	component.DirDownLeft:  "↙",
	component.DirLeft:      "←",
	component.DirUpLeft:    "↖",
}

// Glyph returns the arrow for a direction.
func Glyph(d component.Direction) string {
	return arrows[component.NormalizeInt(int(d))]
}

// Map renders the tile bounding box row by row. Characters draw over tiles;
// cells with neither are blank. Hollow tiles are gray when color is set.
// An empty string is returned when the state has no tiles.
func Map(s *world.State, color bool) (string, error) {
	tiles := make(map[component.Vec2]bool) // pos -> solid
	chars := make(map[component.Vec2]component.Direction)

	var err error
	s.Each(func(e ecs.Reader) bool {
		typ, ok, terr := component.Type.Get(e)
		if !ok || terr != nil || (typ != component.TypeTile && typ != component.TypeChar) {
			return true
		}
		var pos component.Vec2
		if pos, err = component.Pos.Read(e); err != nil {
			return false
		}
		if typ == component.TypeTile {
			m, _ := component.Material.Read(e)
			tiles[pos] = component.Solid(m)
			return true
		}
		d, _ := component.Dir.Read(e)
		chars[pos] = d
		return true
	})
	if err != nil {
		return "", err
	}
	if len(tiles) == 0 {
		return "", nil
	}

	minP, maxP := bounds(tiles)
	rows := make([]string, 0, maxP.Y-minP.Y+1)
	var b strings.Builder
	for y := minP.Y; y <= maxP.Y; y++ {
		b.Reset()
		for x := minP.X; x <= maxP.X; x++ {
			p := component.Vec2{X: x, Y: y}
			if d, ok := chars[p]; ok {
				b.WriteString("[ " + Glyph(d) + " ]")
				continue
			}
			solid, ok := tiles[p]
			switch {
			case !ok:
				b.WriteString(emptyCell)
			case !solid && color:
				b.WriteString(grayOn + tileCell + grayOff)
			default:
				b.WriteString(tileCell)
			}
		}
		rows = append(rows, b.String())
	}
	return strings.Join(rows, "\n"), nil
}

func bounds(tiles map[component.Vec2]bool) (minP, maxP component.Vec2) {
	first := true
	for p := range tiles {
		if first {
			minP, maxP = p, p
			first = false
			continue
		}
		minP.X = min(minP.X, p.X)
		minP.Y = min(minP.Y, p.Y)
		maxP.X = max(maxP.X, p.X)
		maxP.Y = max(maxP.Y, p.Y)
	}
	return minP, maxP
}
