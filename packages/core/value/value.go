package value

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindDouble
	KindString
	KindArray
	KindDictionary
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindDictionary:
		return "dictionary"
	default:
		return "unknown"
	}
}

// Value is a tagged union of null, bool, int, double, string, array and
// dictionary. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	d    float64
	s    string
	arr  []Value
	dict *Dictionary
}

func Null() Value { return Value{} }
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }
func Int(i int64) Value { return Value{kind: KindInt, i: i} }
func Double(d float64) Value { return Value{kind: KindDouble, d: d} }
func String(s string) Value { return Value{kind: KindString, s: s} }

func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, arr: items}
}

// Dict wraps a dictionary. A nil dictionary becomes an empty one.
func Dict(d *Dictionary) Value {
	if d == nil {
		d = NewDictionary()
	}
	return Value{kind: KindDictionary, dict: d}
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }
func (v Value) IsString() bool { return v.kind == KindString }

func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

func (v Value) AsInt() (int64, bool) {
	return v.i, v.kind == KindInt
}

func (v Value) AsDouble() (float64, bool) {
	return v.d, v.kind == KindDouble
}

func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

// AsArray returns the elements of an array value. The slice is shared with
// the value and must not be modified.
func (v Value) AsArray() ([]Value, bool) {
	return v.arr, v.kind == KindArray
}

func (v Value) AsDictionary() (*Dictionary, bool) {
	return v.dict, v.kind == KindDictionary
}

// AsNumber returns int and double values as float64.
func (v Value) AsNumber() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindDouble:
		return v.d, true
	default:
		return 0, false
	}
}

// Equal reports strict structural equality: no coercion between kinds,
// so Int(42), Double(42) and String("42") are all different.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt:
		return a.i == b.i
	case KindDouble:
		return a.d == b.d
	case KindString:
		return a.s == b.s
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindDictionary:
		if a.dict.Len() != b.dict.Len() {
			return false
		}
		for _, k := range a.dict.Keys() {
			bv, ok := b.dict.Get(k)
			if !ok {
				return false
			}
			av, _ := a.dict.Get(k)
			if !Equal(av, bv) {
				return false
			}
		}
		return true
	}
	return false
}

// Equal is shorthand for Equal(v, other).
func (v Value) Equal(other Value) bool {
	return Equal(v, other)
}

// String renders the value for display. Scalars render in their natural
// textual form and are what template substitution and regex matching
// see; arrays and dictionaries render as structured text meant for
// diagnostics.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindDouble:
		return formatDouble(v.d)
	case KindString:
		return v.s
	default:
		var sb strings.Builder
		v.writeStructured(&sb)
		return sb.String()
	}
}

func formatDouble(d float64) string {
	if math.IsInf(d, 0) || math.IsNaN(d) || math.Abs(d) >= 1e21 {
		return strconv.FormatFloat(d, 'g', -1, 64)
	}
	return strconv.FormatFloat(d, 'f', -1, 64)
}

func (v Value) writeStructured(sb *strings.Builder) {
	switch v.kind {
	case KindString:
		sb.WriteString(strconv.Quote(v.s))
	case KindArray:
		sb.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				sb.WriteString(", ")
			}
			item.writeStructured(sb)
		}
		sb.WriteByte(']')
	case KindDictionary:
		sb.WriteByte('{')
		for i, k := range v.dict.Keys() {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteString(": ")
			item, _ := v.dict.Get(k)
			item.writeStructured(sb)
		}
		sb.WriteByte('}')
	default:
		sb.WriteString(v.String())
	}
}

// Interface converts the value into plain Go values: nil, bool, int64,
// float64, string, []any and map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindDouble:
		return v.d
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Interface()
		}
		return out
	case KindDictionary:
		out := make(map[string]any, v.dict.Len())
		for _, k := range v.dict.Keys() {
			item, _ := v.dict.Get(k)
			out[k] = item.Interface()
		}
		return out
	default:
		return nil
	}
}
