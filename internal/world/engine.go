package world

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/tilecentric/tilecentric/internal/component"
	"github.com/tilecentric/tilecentric/internal/core/ecs"
	"github.com/tilecentric/tilecentric/internal/core/event"
	coresys "github.com/tilecentric/tilecentric/internal/core/system"
	"github.com/tilecentric/tilecentric/internal/data"
	"github.com/tilecentric/tilecentric/internal/lineage"
	"github.com/tilecentric/tilecentric/internal/system"
)

// Engine builds initial worlds and computes the next state of a world.
// Single-goroutine use only.
type Engine struct {
	alloc  *ecs.Allocator
	tokens lineage.TokenSource
	draw   func() bool
	runner *coresys.Runner
	bus    *event.Bus
	log    *zap.Logger
}

type Option func(*Engine)

// WithAllocator shares an allocator, e.g. the one a snapshot loader re-seeded.
func WithAllocator(a *ecs.Allocator) Option { return func(e *Engine) { e.alloc = a } }

// WithTokens replaces the clock-based uniqueness tokens.
func WithTokens(t lineage.TokenSource) Option { return func(e *Engine) { e.tokens = t } }

// WithMaterialDraw replaces the unpredictable binary draw used for tile material.
func WithMaterialDraw(f func() bool) Option { return func(e *Engine) { e.draw = f } }

func WithLogger(l *zap.Logger) Option { return func(e *Engine) { e.log = l } }

// NewEngine creates an engine with the movement system registered.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		bus:    event.NewBus(),
		runner: coresys.NewRunner(),
	}
	for _, o := range opts {
		o(e)
	}
	if e.alloc == nil {
		e.alloc = ecs.NewAllocator()
	}
	if e.tokens == nil {
		e.tokens = lineage.NewClockTokens()
	}
	if e.draw == nil {
		e.draw = func() bool { return rand.Intn(2) == 1 }
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}

	// Systems, in tick order.
	e.runner.Register(system.NewMovementSystem(e.bus))

	names := make([]string, 0, 1)
	for _, s := range e.runner.Systems() {
		names = append(names, s.Phase().String()+"/"+s.Name())
	}
	e.log.Debug("systems registered", zap.Strings("systems", names))
	return e
}

func (e *Engine) Allocator() *ecs.Allocator { return e.alloc }
func (e *Engine) Bus() *event.Bus           { return e.bus }
func (e *Engine) Runner() *coresys.Runner   { return e.runner }

// Initial synthesizes the root state: a size×size tile grid centred on the
// origin plus the scenario's characters. size must be a positive odd integer.
// A nil scenario means data.DefaultScenario.
func (e *Engine) Initial(size int, sc *data.Scenario) (*State, error) {
	if size <= 0 || size%2 == 0 {
		return nil, ecs.Invalid("size", "size must be a positive odd integer")
	}
	if sc == nil {
		sc = data.DefaultScenario()
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	half := size / 2
	entities := make([]*ecs.Entity, 0, size*size+sc.Count())
	for y := -half; y <= half; y++ {
		for x := -half; x <= half; x++ {
			t := e.alloc.Create()
			component.Type.Set(t, component.TypeTile)
			component.Pos.Set(t, component.Vec2{X: x, Y: y})
			material := 0
			if e.draw() {
				material = 1
			}
			component.Material.Set(t, material)
			entities = append(entities, t)
		}
	}

	for _, c := range sc.Characters {
		ch := e.alloc.Create()
		component.Type.Set(ch, component.TypeChar)
		component.Pos.Set(ch, component.Vec2{X: c.Pos[0], Y: c.Pos[1]})
		component.Dir.Set(ch, component.NormalizeInt(c.Dir))
		component.Walk.Set(ch, c.Walking())
		if c.User {
			component.User.Set(ch, true)
		}
		entities = append(entities, ch)
	}

	s := NewState(Info{ID: lineage.Make(0, e.tokens.Next())}, entities)
	e.log.Debug("initial state",
		zap.String("id", s.info.ID.String()),
		zap.Int("size", size),
		zap.Int("entities", len(entities)),
	)
	return s, nil
}

// Step clones every entity of s, runs the systems over the clones and
// returns the child state. s is never mutated.
func (e *Engine) Step(s *State) (*State, error) {
	idx, err := s.info.ID.Index()
	if err != nil {
		return nil, err
	}

	entities := s.cloneEntities()
	if err := e.runner.Tick(entities); err != nil {
		e.bus.Discard()
		return nil, err
	}

	next := NewState(Info{
		ID:       lineage.Make(idx+1, e.tokens.Next()),
		ParentID: s.info.ID,
	}, entities)

	delivered := e.bus.Flush()
	e.log.Debug("stepped state",
		zap.String("id", next.info.ID.String()),
		zap.String("parent_id", next.info.ParentID.String()),
		zap.Int("events", delivered),
	)
	return next, nil
}
