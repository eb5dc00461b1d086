package mext

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind discriminates the variant a Value currently holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
	KindCallable
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindCallable:
		return "callable"
	default:
		return "unknown"
	}
}

// Callable is an opaque host function a Value can wrap. Per spec.md §4.3 /
// §9 ("Auto-invocation of callables"), the resolver never invokes these
// automatically; they are retrievable only through the formatter mechanism
// or by a caller holding a reference obtained outside the template.
type Callable func(args ...*Value) (*Value, error)

// Value is the tagged union described in spec.md §3: null, bool, int,
// float, string, an ordered list of Value, an ordered string-keyed mapping,
// or an opaque host-callable.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	list []*Value
	m    *OrderedMap
	fn   Callable
}

// Null is the singleton-shaped null value.
func Null() *Value { return &Value{kind: KindNull} }

// Bool wraps a boolean.
func Bool(b bool) *Value { return &Value{kind: KindBool, b: b} }

// Int wraps an integer.
func Int(i int64) *Value { return &Value{kind: KindInt, i: i} }

// Float wraps a floating-point number.
func Float(f float64) *Value { return &Value{kind: KindFloat, f: f} }

// String wraps a string.
func String(s string) *Value { return &Value{kind: KindString, s: s} }

// List wraps an ordered list of values.
func List(items ...*Value) *Value { return &Value{kind: KindList, list: items} }

// Map wraps an ordered mapping.
func Map(m *OrderedMap) *Value {
	if m == nil {
		m = NewOrderedMap()
	}
	return &Value{kind: KindMap, m: m}
}

// CallableValue wraps a host function.
func CallableValue(fn Callable) *Value { return &Value{kind: KindCallable, fn: fn} }

// FromAny converts a plain Go value (as produced by a config loader or
// passed in as a caller param) into a *Value. Supported inputs: nil, bool,
// the integer and float kinds, string, []*Value, []any, *OrderedMap,
// map[string]any (converted without any order guarantee — callers that
// need insertion order, such as a config loader, should build an
// *OrderedMap directly and pass it through Map instead).
func FromAny(v any) *Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case *Value:
		return x
	case bool:
		return Bool(x)
	case int:
		return Int(int64(x))
	case int32:
		return Int(int64(x))
	case int64:
		return Int(x)
	case float32:
		return Float(float64(x))
	case float64:
		return Float(x)
	case string:
		return String(x)
	case []*Value:
		return List(x...)
	case []any:
		items := make([]*Value, len(x))
		for i, e := range x {
			items[i] = FromAny(e)
		}
		return List(items...)
	case *OrderedMap:
		return Map(x)
	case map[string]any:
		om := NewOrderedMap()
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			om.Set(k, FromAny(x[k]))
		}
		return Map(om)
	case Callable:
		return CallableValue(x)
	default:
		return String(fmt.Sprintf("%v", x))
	}
}

func (v *Value) Kind() Kind { return v.kind }

func (v *Value) IsNull() bool { return v == nil || v.kind == KindNull }

// Len reports the length of a string, list, or map value. Other kinds
// report 0 (mirroring Python's lack of __len__ on them, which the
// "empty" test in spec.md §4.6 relies on to fall through to false).
func (v *Value) Len() int {
	if v == nil {
		return 0
	}
	switch v.kind {
	case KindString:
		return len(v.s)
	case KindList:
		return len(v.list)
	case KindMap:
		return v.m.Len()
	default:
		return 0
	}
}

// HasLen reports whether Len() is meaningful for this value's kind.
func (v *Value) HasLen() bool {
	if v == nil {
		return false
	}
	switch v.kind {
	case KindString, KindList, KindMap:
		return true
	default:
		return false
	}
}

// IsTrue implements the "standard truthiness" rule from spec.md §4.6: null,
// false, 0, and empty string/list/map are false; everything else is true.
func (v *Value) IsTrue() bool {
	if v == nil || v.kind == KindNull {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindString:
		return len(v.s) > 0
	case KindList:
		return len(v.list) > 0
	case KindMap:
		return v.m.Len() > 0
	case KindCallable:
		return true
	default:
		return false
	}
}

// AsInt returns v as an int64, adding 1 is only valid when this reports ok.
// Used by @count (spec.md: "if resolve(VAR) succeeds and result supports
// +1").
func (v *Value) AsInt() (int64, bool) {
	if v == nil {
		return 0, false
	}
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindFloat:
		return int64(v.f), true
	default:
		return 0, false
	}
}

// AsFloat returns v as a float64, for numeric format specs (spec.md §4.4's
// field-reference "standard string formatting").
func (v *Value) AsFloat() (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// String renders v the way the engine emits it as output text.
func (v *Value) String() string {
	if v == nil || v.kind == KindNull {
		return ""
	}
	switch v.kind {
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindString:
		return v.s
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.Repr()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		return v.mapString()
	case KindCallable:
		return "<callable>"
	default:
		return ""
	}
}

// Repr renders v similarly to Python's repr(): strings are quoted.
func (v *Value) Repr() string {
	if v == nil || v.kind == KindNull {
		return "None"
	}
	if v.kind == KindString {
		return strconv.Quote(v.s)
	}
	if v.kind == KindMap {
		return v.mapString()
	}
	return v.String()
}

// mapString renders a map's entries the way Python's str()/repr() both do
// for a dict: keys and values go through Repr() even when the outer call
// is String(), the same as KindList's String() case above.
func (v *Value) mapString() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range v.m.Keys() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Quote(k))
		b.WriteString(": ")
		val, _ := v.m.Get(k)
		b.WriteString(val.Repr())
	}
	b.WriteByte('}')
	return b.String()
}

// List returns the underlying slice, or nil if v is not a list.
func (v *Value) List() []*Value {
	if v == nil || v.kind != KindList {
		return nil
	}
	return v.list
}

// Map returns the underlying OrderedMap, or nil if v is not a map.
func (v *Value) Map() *OrderedMap {
	if v == nil || v.kind != KindMap {
		return nil
	}
	return v.m
}

// Callable returns the underlying function, or nil if v is not callable.
func (v *Value) Callable() Callable {
	if v == nil || v.kind != KindCallable {
		return nil
	}
	return v.fn
}

// Interface converts v back into a plain Go value, useful for handing data
// to formatters such as the json formatter.
func (v *Value) Interface() any {
	if v == nil || v.kind == KindNull {
		return nil
	}
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, v.m.Len())
		for _, k := range v.m.Keys() {
			val, _ := v.m.Get(k)
			out[k] = val.Interface()
		}
		return out
	default:
		return nil
	}
}

// IntPlusOne returns v+1 as an Int Value, used by @count.
func (v *Value) IntPlusOne() *Value {
	n, _ := v.AsInt()
	return Int(n + 1)
}
