package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CharacterSpawn places one character entity in the initial world.
type CharacterSpawn struct {
	Pos  [2]int `yaml:"pos"`
	Dir  int    `yaml:"dir"`
	Walk *bool  `yaml:"walk"` // nil means walking
	User bool   `yaml:"user"`
}

// Walking reports whether the spawned character carries walk=true.
func (c CharacterSpawn) Walking() bool {
	return c.Walk == nil || *c.Walk
}

// Scenario configures how the initial world is populated.
type Scenario struct {
	Name       string           `yaml:"name"`
	Size       int              `yaml:"size"` // 0 defers to the caller
	Characters []CharacterSpawn `yaml:"characters"`
}

// DefaultScenario is the canonical world: a single user-controlled character
// at the origin facing right.
func DefaultScenario() *Scenario {
	return &Scenario{
		Name: "default",
		Characters: []CharacterSpawn{
			{Pos: [2]int{0, 0}, Dir: 2, User: true},
		},
	}
}

// LoadScenario loads a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &s, nil
}

// Validate checks the scenario's structural rules.
func (s *Scenario) Validate() error {
	if s.Size < 0 || (s.Size > 0 && s.Size%2 == 0) {
		return fmt.Errorf("size must be a positive odd integer, got %d", s.Size)
	}
	if len(s.Characters) == 0 {
		return fmt.Errorf("at least one character is required")
	}
	users := 0
	for _, c := range s.Characters {
		if c.User {
			users++
		}
	}
	if users > 1 {
		return fmt.Errorf("at most one character may be the user, got %d", users)
	}
	return nil
}

// Count returns the number of characters spawned.
func (s *Scenario) Count() int {
	return len(s.Characters)
}
