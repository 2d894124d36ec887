// Package component declares the concrete component shapes read by systems
// and renderers. The container itself is tag-agnostic; validation happens on read.
package component

import (
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/tilecentric/tilecentric/internal/core/ecs"
)

// Entity type tags in current use.
const (
	TypeTile = "tile"
	TypeChar = "char"
)

var (
	// Type is the entity's string tag.
	Type = ecs.NewComponent("type", decodeType, ecs.StringValue)

	// Pos is the grid cell, exactly two integers [x, y].
	Pos = ecs.NewComponent("pos", decodePos, func(p Vec2) ecs.Value { return ecs.PairValue(p.X, p.Y) })

	// Dir is the facing direction. Decoding never fails: see NormalizeDir.
	Dir = ecs.NewComponent("dir", decodeDir, func(d Direction) ecs.Value { return ecs.IntValue(int(d)) })

	// Material governs tile rendering; 0 is hollow, anything else solid.
	Material = ecs.NewComponent("material", decodeMaterial, ecs.IntValue)

	// Walk gates the movement system. Only a boolean true counts.
	Walk = ecs.NewComponent("walk", decodeFlag, ecs.BoolValue)

	// User marks the player-controlled entity. Reserved; no system reads it yet.
	User = ecs.NewComponent("user", decodeFlag, ecs.BoolValue)
)

// Vec2 is an integer grid coordinate.
type Vec2 struct {
	X, Y int
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{X: v.X + o.X, Y: v.Y + o.Y} }

func decodeType(v ecs.Value) (string, error) {
	s, ok := v.AsString()
	if !ok {
		return "", ecs.Invalid("type", "type must be a string")
	}
	return s, nil
}

func decodePos(v ecs.Value) (Vec2, error) {
	if x, y, ok := v.AsPair(); ok {
		return Vec2{X: x, Y: y}, nil
	}
	if v.Kind() == ecs.KindRaw && isTwoElementArray(v.Raw()) {
		return Vec2{}, ecs.Invalid("pos", "pos must contain two ints")
	}
	return Vec2{}, ecs.Invalid("pos", "pos must be [x, y]")
}

func decodeDir(v ecs.Value) (Direction, error) {
	return NormalizeDir(v), nil
}

// decodeMaterial is lenient: bools, junk and absence all read as 1.
func decodeMaterial(v ecs.Value) (int, error) {
	switch v.Kind() {
	case ecs.KindInt:
		n, _ := v.AsInt()
		return n, nil
	case ecs.KindString:
		s, _ := v.AsString()
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n, nil
		}
	}
	return 1, nil
}

func decodeFlag(v ecs.Value) (bool, error) {
	b, ok := v.AsBool()
	return ok && b, nil
}

// Solid reports whether a material value renders as a filled tile.
func Solid(material int) bool { return material != 0 }

func isTwoElementArray(raw []byte) bool {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return false
	}
	return len(items) == 2
}
