package persist

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tilecentric/tilecentric/internal/core/ecs"
	"github.com/tilecentric/tilecentric/internal/lineage"
	"github.com/tilecentric/tilecentric/internal/world"
)

// ErrStateNotFound is returned when a snapshot file does not exist.
var ErrStateNotFound = errors.New("file not found")

// Document is the on-disk shape of one snapshot.
type Document struct {
	Info     InfoDocument     `json:"info" jsonschema:"required"`
	Entities []EntityDocument `json:"entities" jsonschema:"required"`
}

type InfoDocument struct {
	ID       string  `json:"id" jsonschema:"required,minLength=1,description=<tick>_<token> lineage id"`
	ParentID *string `json:"parent_id" jsonschema:"description=id of the state this one was derived from; null for the root"`
}

type EntityDocument struct {
	ID         ecs.EntityID         `json:"id" jsonschema:"required,minimum=0"`
	Components map[string]ecs.Value `json:"components" jsonschema:"required"`
}

// Encode renders state as indented JSON with a trailing newline.
func Encode(s *world.State) ([]byte, error) {
	doc := toDocument(s)
	b, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encode state %s: %w", s.Info().ID, err)
	}
	return append(b, '\n'), nil
}

func toDocument(s *world.State) Document {
	info := s.Info()
	doc := Document{
		Info:     InfoDocument{ID: info.ID.String()},
		Entities: make([]EntityDocument, 0, s.Len()),
	}
	if !info.IsRoot() {
		p := info.ParentID.String()
		doc.Info.ParentID = &p
	}
	s.Each(func(e ecs.Reader) bool {
		comps := make(map[string]ecs.Value, len(e.Names()))
		for _, name := range e.Names() {
			v, _ := e.Get(name)
			comps[name] = v
		}
		doc.Entities = append(doc.Entities, EntityDocument{ID: e.ID(), Components: comps})
		return true
	})
	return doc
}

// Decode validates and parses a snapshot. Every loaded entity id re-seeds alloc.
func Decode(data []byte, alloc *ecs.Allocator) (*world.State, error) {
	top, err := object(data, "game_state")
	if err != nil {
		return nil, err
	}
	info, err := decodeInfo(top["info"])
	if err != nil {
		return nil, err
	}

	rawEntities, ok := top["entities"]
	if !ok || leading(rawEntities) != '[' {
		return nil, ecs.Invalid("entities", "game_state.entities must be a list")
	}
	var items []json.RawMessage
	if err := json.Unmarshal(rawEntities, &items); err != nil {
		return nil, fmt.Errorf("decode entities: %w", err)
	}

	entities := make([]*ecs.Entity, 0, len(items))
	for i, item := range items {
		e, err := decodeEntity(item, alloc)
		if err != nil {
			return nil, fmt.Errorf("entities[%d]: %w", i, err)
		}
		entities = append(entities, e)
	}
	return world.NewState(info, entities), nil
}

// DecodeInfo parses only the lineage header of a snapshot.
func DecodeInfo(data []byte) (world.Info, error) {
	top, err := object(data, "game_state")
	if err != nil {
		return world.Info{}, err
	}
	return decodeInfo(top["info"])
}

func decodeInfo(raw json.RawMessage) (world.Info, error) {
	fields, err := object(raw, "game_state.info")
	if err != nil {
		return world.Info{}, err
	}

	var id string
	if r, ok := fields["id"]; !ok || leading(r) != '"' || json.Unmarshal(r, &id) != nil || strings.TrimSpace(id) == "" {
		return world.Info{}, ecs.Invalid("info.id", "info.id must be a non-empty string")
	}

	var parent string
	if r, ok := fields["parent_id"]; ok && leading(r) != 'n' {
		if leading(r) != '"' || json.Unmarshal(r, &parent) != nil || parent == "" {
			return world.Info{}, ecs.Invalid("info.parent_id", "info.parent_id must be a string or null")
		}
	}
	return world.Info{ID: lineage.ID(id), ParentID: lineage.ID(parent)}, nil
}

func decodeEntity(raw json.RawMessage, alloc *ecs.Allocator) (*ecs.Entity, error) {
	if leading(raw) != '{' {
		return nil, ecs.Invalid("entities", "entities must contain JSON objects")
	}
	fields, err := object(raw, "entity")
	if err != nil {
		return nil, err
	}

	rawID, ok := fields["id"]
	if !ok {
		return nil, ecs.Invalid("Entity.id", "Entity.id must be a non-negative int")
	}
	id, err := strconv.ParseUint(string(bytes.TrimSpace(rawID)), 10, 64)
	if err != nil || id > ecs.MaxEntityID {
		return nil, ecs.Invalid("Entity.id", "Entity.id must be a non-negative int")
	}

	comps := map[string]ecs.Value{}
	if rawComps, ok := fields["components"]; ok {
		if leading(rawComps) != '{' {
			return nil, ecs.Invalid("Entity.components", "Entity.components must be an object")
		}
		if err := json.Unmarshal(rawComps, &comps); err != nil {
			return nil, fmt.Errorf("entity %d components: %w", id, err)
		}
	}
	return alloc.Restore(ecs.EntityID(id), comps), nil
}

func object(data []byte, what string) (map[string]json.RawMessage, error) {
	if leading(data) != '{' {
		return nil, ecs.Invalid(what, "%s must be a JSON object", what)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", what, err)
	}
	return m, nil
}

func leading(b []byte) byte {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return 0
	}
	return b[0]
}

// Read loads and validates the snapshot at path.
func Read(path string, alloc *ecs.Allocator) (*world.State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrStateNotFound, path)
		}
		return nil, fmt.Errorf("read state %s: %w", path, err)
	}
	s, err := Decode(data, alloc)
	if err != nil {
		return nil, fmt.Errorf("load state %s: %w", path, err)
	}
	return s, nil
}

// Write encodes state to path, creating or overwriting it.
func Write(s *world.State, path string) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write state %s: %w", path, err)
	}
	return nil
}
