package dupecodec

import (
	"fmt"
	"iter"
	"strconv"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindDouble
	KindVector
	KindAngle
	KindString
	KindTable
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindDouble:
		return "double"
	case KindVector:
		return "vector"
	case KindAngle:
		return "angle"
	case KindString:
		return "string"
	case KindTable:
		return "table"
	case KindList:
		return "list"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// Value is a decoded dupe value. The set of implementations is closed:
// Nil, Bool, Double, Vector, Angle, String, *Table and *List.
//
// Scalars are comparable by value and containers by identity, so every
// Value can be used as a Go map key.
type Value interface {
	Kind() Kind
	isValue()
}

// Nil is the explicit null introduced by revision 5.
type Nil struct{}

type Bool bool

type Double float64

// Vector is a positional 3-vector.
type Vector struct {
	X, Y, Z float64
}

// Angle is an orientation triple (pitch, yaw, roll). It shares the wire
// layout of Vector but is a distinct tag.
type Angle struct {
	P, Y, R float64
}

// String holds raw bytes interpreted as single-byte text.
type String string

func (Nil) Kind() Kind    { return KindNil }
func (Bool) Kind() Kind   { return KindBool }
func (Double) Kind() Kind { return KindDouble }
func (Vector) Kind() Kind { return KindVector }
func (Angle) Kind() Kind  { return KindAngle }
func (String) Kind() Kind { return KindString }
func (*Table) Kind() Kind { return KindTable }
func (*List) Kind() Kind  { return KindList }

func (Nil) isValue()    {}
func (Bool) isValue()   {}
func (Double) isValue() {}
func (Vector) isValue() {}
func (Angle) isValue()  {}
func (String) isValue() {}
func (*Table) isValue() {}
func (*List) isValue()  {}

func (Nil) String() string { return "nil" }

func (d Double) String() string {
	return strconv.FormatFloat(float64(d), 'g', -1, 64)
}

func (v Vector) String() string {
	return fmt.Sprintf("Vector(%g, %g, %g)", v.X, v.Y, v.Z)
}

func (a Angle) String() string {
	return fmt.Sprintf("Angle(%g, %g, %g)", a.P, a.Y, a.R)
}

// Table is an insertion-ordered mapping from Value to Value with unique keys.
type Table struct {
	keys  []Value
	vals  []Value
	index map[Value]int
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{index: make(map[Value]int)}
}

// Set stores v under k. An existing key keeps its original position.
func (t *Table) Set(k, v Value) {
	if t.index == nil {
		t.index = make(map[Value]int)
	}
	if i, ok := t.index[k]; ok {
		t.vals[i] = v
		return
	}
	t.index[k] = len(t.keys)
	t.keys = append(t.keys, k)
	t.vals = append(t.vals, v)
}

// Get returns the value stored under k.
func (t *Table) Get(k Value) (Value, bool) {
	if t == nil {
		return nil, false
	}
	i, ok := t.index[k]
	if !ok {
		return nil, false
	}
	return t.vals[i], true
}

// GetString is Get for a string key.
func (t *Table) GetString(k string) (Value, bool) {
	return t.Get(String(k))
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}

// Keys returns the keys in insertion order. The slice is a copy.
func (t *Table) Keys() []Value {
	if t == nil {
		return nil
	}
	out := make([]Value, len(t.keys))
	copy(out, t.keys)
	return out
}

// All iterates entries in insertion order.
func (t *Table) All() iter.Seq2[Value, Value] {
	return func(yield func(Value, Value) bool) {
		if t == nil {
			return
		}
		for i, k := range t.keys {
			if !yield(k, t.vals[i]) {
				return
			}
		}
	}
}

// List is an ordered sequence of values.
type List struct {
	items []Value
}

// NewList returns a list holding items.
func NewList(items ...Value) *List {
	return &List{items: items}
}

func (l *List) Append(v Value) {
	l.items = append(l.items, v)
}

func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

// At returns the element at the zero-based index i.
func (l *List) At(i int) (Value, bool) {
	if l == nil || i < 0 || i >= len(l.items) {
		return nil, false
	}
	return l.items[i], true
}

func (l *List) All() iter.Seq2[int, Value] {
	return func(yield func(int, Value) bool) {
		if l == nil {
			return
		}
		for i, v := range l.items {
			if !yield(i, v) {
				return
			}
		}
	}
}

// Truthy reports whether v is present and non-empty. Nil, the empty string
// and empty containers are empty; numbers, booleans and vectors always count
// as present.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case nil, Nil:
		return false
	case String:
		return x != ""
	case *Table:
		return x.Len() > 0
	case *List:
		return x.Len() > 0
	default:
		return true
	}
}
