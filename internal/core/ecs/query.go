package ecs

// Predicate selects entities for a query.
type Predicate func(Reader) bool

// With matches entities that carry every named component.
func With(names ...string) Predicate {
	return func(e Reader) bool {
		for _, n := range names {
			if !e.Has(n) {
				return false
			}
		}
		return true
	}
}

// Where matches entities whose component decodes without error to want.
func Where[T comparable](c Component[T], want T) Predicate {
	return func(e Reader) bool {
		v, ok, err := c.Get(e)
		return ok && err == nil && v == want
	}
}

// Each calls fn for every entity matching all predicates, in slice order.
// Iteration stops at the first error.
func Each(entities []*Entity, fn func(*Entity) error, preds ...Predicate) error {
next:
	for _, e := range entities {
		for _, p := range preds {
			if !p(e) {
				continue next
			}
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

// Count returns how many entities match all predicates.
func Count(entities []*Entity, preds ...Predicate) int {
	n := 0
	_ = Each(entities, func(*Entity) error {
		n++
		return nil
	}, preds...)
	return n
}
