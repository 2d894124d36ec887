package ecs

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/invopop/jsonschema"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNone   Kind = iota // zero Value; never stored on an entity
	KindInt                // integer
	KindBool               // boolean
	KindString             // string
	KindPair               // exactly two integers
	KindRaw                // any other JSON value, kept verbatim
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindPair:
		return "pair"
	case KindRaw:
		return "raw"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value is a component value. Bools are a distinct kind and never satisfy
// an integer read.
type Value struct {
	kind Kind
	i    int
	b    bool
	s    string
	p    [2]int
	raw  []byte
}

func IntValue(n int) Value       { return Value{kind: KindInt, i: n} }
func BoolValue(b bool) Value     { return Value{kind: KindBool, b: b} }
func StringValue(s string) Value { return Value{kind: KindString, s: s} }
func PairValue(x, y int) Value   { return Value{kind: KindPair, p: [2]int{x, y}} }

// RawValue wraps a JSON document that fits none of the typed kinds.
// Valid JSON is stored compacted so equal documents compare equal.
func RawValue(raw []byte) Value {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return Value{kind: KindRaw, raw: bytes.Clone(raw)}
	}
	return Value{kind: KindRaw, raw: buf.Bytes()}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsZero() bool { return v.kind == KindNone }

// Raw returns a copy of the verbatim JSON of a KindRaw value.
func (v Value) Raw() []byte { return bytes.Clone(v.raw) }

func (v Value) clone() Value {
	v.raw = bytes.Clone(v.raw)
	return v
}

func (v Value) AsInt() (int, bool) {
	return v.i, v.kind == KindInt
}

func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

func (v Value) AsPair() (int, int, bool) {
	return v.p[0], v.p[1], v.kind == KindPair
}

func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.i == o.i
	case KindBool:
		return v.b == o.b
	case KindString:
		return v.s == o.s
	case KindPair:
		return v.p == o.p
	case KindRaw:
		return bytes.Equal(v.raw, o.raw)
	}
	return true
}

// String renders the value in its JSON form.
func (v Value) String() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return "<" + v.kind.String() + ">"
	}
	return string(b)
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindInt:
		return strconv.AppendInt(nil, int64(v.i), 10), nil
	case KindBool:
		return strconv.AppendBool(nil, v.b), nil
	case KindString:
		return json.Marshal(v.s)
	case KindPair:
		return []byte(fmt.Sprintf("[%d,%d]", v.p[0], v.p[1])), nil
	case KindRaw:
		return bytes.Clone(v.raw), nil
	}
	return nil, fmt.Errorf("marshal value: empty component value")
}

// UnmarshalJSON maps true/false to Bool, strings to String, integer literals
// to Int, two-element integer arrays to Pair, and everything else to Raw.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("unmarshal value: empty input")
	}
	switch data[0] {
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("unmarshal value: %w", err)
		}
		*v = BoolValue(b)
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("unmarshal value: %w", err)
		}
		*v = StringValue(s)
		return nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("unmarshal value: %w", err)
		}
		if len(items) == 2 {
			x, okX := parseIntLiteral(items[0])
			y, okY := parseIntLiteral(items[1])
			if okX && okY {
				*v = PairValue(x, y)
				return nil
			}
		}
	default:
		if n, ok := parseIntLiteral(data); ok {
			*v = IntValue(n)
			return nil
		}
	}
	*v = RawValue(data)
	return nil
}

// JSONSchema describes the accepted shapes for schema reflection.
func (Value) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Description: "component value: integer, boolean, string or [x, y] integer pair",
		AnyOf: []*jsonschema.Schema{
			{Type: "integer"},
			{Type: "boolean"},
			{Type: "string"},
			{Type: "array", Items: &jsonschema.Schema{Type: "integer"}},
		},
	}
}

// parseIntLiteral accepts a JSON number token with no fraction or exponent.
func parseIntLiteral(tok []byte) (int, bool) {
	tok = bytes.TrimSpace(tok)
	if len(tok) == 0 || bytes.ContainsAny(tok, ".eE") {
		return 0, false
	}
	if tok[0] != '-' && (tok[0] < '0' || tok[0] > '9') {
		return 0, false
	}
	n, err := strconv.ParseInt(string(tok), 10, 0)
	if err != nil {
		return 0, false
	}
	return int(n), true
}
