// Package lineage implements the state identifier scheme: "<index>_<token>"
// ids, parent chaining and resolution of the latest persisted state.
package lineage

import (
	"strconv"
	"strings"

	"github.com/tilecentric/tilecentric/internal/core/ecs"
)

// ID identifies a persisted state. The numeric head is the tick index.
type ID string

// Make formats the id for tick index with the given uniqueness token.
func Make(index int, token int64) ID {
	return ID(strconv.Itoa(index) + "_" + strconv.FormatInt(token, 10))
}

func (id ID) String() string { return string(id) }

// Index parses the tick index from the id's head.
func (id ID) Index() (int, error) {
	if id == "" {
		return 0, ecs.Invalid("info.id", "info.id must be a non-empty string")
	}
	head, _, _ := strings.Cut(string(id), "_")
	idx, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil {
		return 0, ecs.Invalid("info.id", "info.id must start with an int index")
	}
	if idx < 0 {
		return 0, ecs.Invalid("info.id", "info.id index must be >= 0")
	}
	return idx, nil
}

// Child returns the id for the state following id, paired with token.
func (id ID) Child(token int64) (ID, error) {
	idx, err := id.Index()
	if err != nil {
		return "", err
	}
	return Make(idx+1, token), nil
}
