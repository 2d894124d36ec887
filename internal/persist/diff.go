package persist

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/wI2L/jsondiff"

	"github.com/tilecentric/tilecentric/internal/world"
)

// Diff returns the RFC 6902 patch that turns from into to.
func Diff(from, to *world.State) (jsondiff.Patch, error) {
	a, err := json.Marshal(toDocument(from))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", from.Info().ID, err)
	}
	b, err := json.Marshal(toDocument(to))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", to.Info().ID, err)
	}
	patch, err := jsondiff.CompareJSON(a, b)
	if err != nil {
		return nil, fmt.Errorf("diff %s -> %s: %w", from.Info().ID, to.Info().ID, err)
	}
	return patch, nil
}
