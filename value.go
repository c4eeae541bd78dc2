package tauq

import "fmt"

// Kind represents the variant tag of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
)

// String returns the kind name, matching the scalar type names used in
// parse/schema error messages.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a Tauq/JSON-equivalent value: a tagged sum over the scalar and
// container variants in spec.md §3. Only the field matching Kind is valid.
type Value struct {
	kind Kind

	boolVal  bool
	intVal   int64
	floatVal float64
	strVal   string

	arrVal []Value
	objVal []Field

	pos Position
}

// Field is a name/value pair inside an Object, in insertion order.
type Field struct {
	Name  string
	Value Value
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, boolVal: b} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, intVal: i} }

// Float returns a float value.
func Float(f float64) Value { return Value{kind: KindFloat, floatVal: f} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, strVal: s} }

// Array returns an array value.
func Array(elems ...Value) Value { return Value{kind: KindArray, arrVal: elems} }

// Object returns an object value from ordered fields.
func Object(fields ...Field) Value { return Value{kind: KindObject, objVal: fields} }

// Kind returns the value's variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Pos returns the source position the value was parsed from, or the zero
// Position for values built programmatically.
func (v Value) Pos() Position { return v.pos }

func (v *Value) setPos(p Position) { v.pos = p }

// Bool returns the boolean payload; ok is false if v is not a bool.
func (v Value) Bool() (b bool, ok bool) { return v.boolVal, v.kind == KindBool }

// Int returns the integer payload; ok is false if v is not an integer.
func (v Value) Int() (i int64, ok bool) { return v.intVal, v.kind == KindInt }

// Float returns the float payload; ints coerce. ok is false otherwise.
func (v Value) Float() (f float64, ok bool) {
	switch v.kind {
	case KindFloat:
		return v.floatVal, true
	case KindInt:
		return float64(v.intVal), true
	default:
		return 0, false
	}
}

// Str returns the string payload; ok is false if v is not a string.
func (v Value) Str() (s string, ok bool) { return v.strVal, v.kind == KindString }

// Elems returns the array elements; nil if v is not an array.
func (v Value) Elems() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.arrVal
}

// Fields returns the object fields in insertion order; nil if v is not an
// object.
func (v Value) Fields() []Field {
	if v.kind != KindObject {
		return nil
	}
	return v.objVal
}

// Get returns the value of the named field, and whether it was present.
func (v Value) Get(name string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	for _, f := range v.objVal {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Len returns the number of elements or fields; 0 for scalars.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arrVal)
	case KindObject:
		return len(v.objVal)
	default:
		return 0
	}
}

// Equal reports structural equality, matching JSON-equivalence semantics:
// integer and float are distinct kinds (spec.md §3, §8 property 5), objects
// compare by field set regardless of order (spec.md §3: "insertion order
// preserved on emit but not semantically significant").
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.boolVal == b.boolVal
	case KindInt:
		return a.intVal == b.intVal
	case KindFloat:
		return a.floatVal == b.floatVal
	case KindString:
		return a.strVal == b.strVal
	case KindArray:
		if len(a.arrVal) != len(b.arrVal) {
			return false
		}
		for i := range a.arrVal {
			if !Equal(a.arrVal[i], b.arrVal[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(a.objVal) != len(b.objVal) {
			return false
		}
		for _, fa := range a.objVal {
			fb, ok := b.Get(fa.Name)
			if !ok || !Equal(fa.Value, fb) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Position identifies a location in Tauq source text.
type Position struct {
	Line   int // 1-based
	Column int // 1-based
	Offset int // 0-based byte offset
}

// String renders "line:column".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}
