package ecs

// Component is a typed key over the untyped component bag. Each key owns the
// decode rule that validates the stored shape on read.
// No reflect; decode and encode are plain functions.
type Component[T any] struct {
	name   string
	decode func(Value) (T, error)
	encode func(T) Value
}

func NewComponent[T any](name string, decode func(Value) (T, error), encode func(T) Value) Component[T] {
	return Component[T]{name: name, decode: decode, encode: encode}
}

func (c Component[T]) Name() string { return c.name }

// Get decodes the component. ok is false when the entity lacks it.
func (c Component[T]) Get(e Reader) (v T, ok bool, err error) {
	raw, ok := e.Get(c.name)
	if !ok {
		return v, false, nil
	}
	v, err = c.decode(raw)
	return v, true, err
}

// Read decodes the component, passing the zero Value to the decoder when it
// is absent so that each key decides whether absence is an error.
func (c Component[T]) Read(e Reader) (T, error) {
	raw, _ := e.Get(c.name)
	return c.decode(raw)
}

func (c Component[T]) Set(e *Entity, v T) {
	e.Set(c.name, c.encode(v))
}

func (c Component[T]) Unset(e *Entity) {
	e.Unset(c.name)
}

func (c Component[T]) Has(e Reader) bool {
	return e.Has(c.name)
}
