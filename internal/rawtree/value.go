package rawtree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindNull
	KindObject
	KindArray
	KindString
	KindNumber
	KindBool
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindNull:
		return "null"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	}
	return "unknown"
}

// Value is an untyped record tree as it arrives from a document store or a
// generator. The zero Value is Absent.
type Value struct {
	kind Kind
	obj  map[string]Value
	arr  []Value
	str  string
	num  float64
	b    bool
	t    time.Time
}

func Absent() Value { return Value{} }
func Null() Value { return Value{kind: KindNull} }
func String(s string) Value { return Value{kind: KindString, str: s} }
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }
func Time(t time.Time) Value { return Value{kind: KindTime, t: t} }
func Array(items []Value) Value { return Value{kind: KindArray, arr: items} }

// Object builds an object node. The map is owned by the Value afterwards.
func Object(fields map[string]Value) Value {
	if fields == nil {
		fields = map[string]Value{}
	}
	return Value{kind: KindObject, obj: fields}
}

func (v Value) Kind() Kind { return v.kind }

// Missing reports whether v is Absent or Null.
func (v Value) Missing() bool { return v.kind == KindAbsent || v.kind == KindNull }

func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

func (v Value) AsNumber() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v Value) AsTime() (time.Time, bool) {
	if v.kind != KindTime {
		return time.Time{}, false
	}
	return v.t, true
}

// Field returns the named member of an object, or Absent.
func (v Value) Field(key string) Value {
	if v.kind != KindObject {
		return Value{}
	}
	return v.obj[key]
}

// Has reports whether an object carries key, even when it is null.
func (v Value) Has(key string) bool {
	if v.kind != KindObject {
		return false
	}
	_, ok := v.obj[key]
	return ok
}

// Index returns the i-th element of an array, or Absent.
func (v Value) Index(i int) Value {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return Value{}
	}
	return v.arr[i]
}

// Len is the element count of an array or the member count of an object.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return len(v.obj)
	}
	return 0
}

// Items returns a copy of the array elements.
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}
	out := make([]Value, len(v.arr))
	copy(out, v.arr)
	return out
}

// Keys returns object member names in sorted order.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	keys := make([]string, 0, len(v.obj))
	for k := range v.obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// With returns a shallow copy of an object with key set to val. Non-objects
// are returned unchanged.
func (v Value) With(key string, val Value) Value {
	if v.kind != KindObject {
		return v
	}
	fields := make(map[string]Value, len(v.obj)+1)
	for k, item := range v.obj {
		fields[k] = item
	}
	fields[key] = val
	return Object(fields)
}

// FromAny converts values produced by encoding/json, yaml decoders and
// database drivers. Types it does not know become Absent.
func FromAny(in any) Value {
	switch x := in.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case map[string]any:
		fields := make(map[string]Value, len(x))
		for k, item := range x {
			fields[k] = FromAny(item)
		}
		return Object(fields)
	case map[any]any:
		fields := make(map[string]Value, len(x))
		for k, item := range x {
			fields[fmt.Sprint(k)] = FromAny(item)
		}
		return Object(fields)
	case []any:
		items := make([]Value, 0, len(x))
		for _, item := range x {
			items = append(items, FromAny(item))
		}
		return Array(items)
	case []map[string]any:
		items := make([]Value, 0, len(x))
		for _, item := range x {
			items = append(items, FromAny(item))
		}
		return Array(items)
	case []string:
		items := make([]Value, 0, len(x))
		for _, item := range x {
			items = append(items, String(item))
		}
		return Array(items)
	case string:
		return String(x)
	case bool:
		return Bool(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return String(x.String())
		}
		return Number(f)
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int:
		return Number(float64(x))
	case int8:
		return Number(float64(x))
	case int16:
		return Number(float64(x))
	case int32:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case uint:
		return Number(float64(x))
	case uint8:
		return Number(float64(x))
	case uint16:
		return Number(float64(x))
	case uint32:
		return Number(float64(x))
	case uint64:
		return Number(float64(x))
	case time.Time:
		return Time(x)
	case *time.Time:
		if x == nil {
			return Null()
		}
		return Time(*x)
	}
	return Value{}
}

// ToAny converts back to plain Go values. Absent becomes nil and times are
// rendered as RFC 3339 strings.
func (v Value) ToAny() any {
	switch v.kind {
	case KindObject:
		out := make(map[string]any, len(v.obj))
		for k, item := range v.obj {
			if item.kind == KindAbsent {
				continue
			}
			out[k] = item.ToAny()
		}
		return out
	case KindArray:
		out := make([]any, 0, len(v.arr))
		for _, item := range v.arr {
			out = append(out, item.ToAny())
		}
		return out
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindTime:
		return v.t.UTC().Format(time.RFC3339)
	}
	return nil
}

// Parse decodes a JSON document into a Value.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Value{}, fmt.Errorf("decode record: %w", err)
	}
	return FromAny(raw), nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindNumber && (math.IsNaN(v.num) || math.IsInf(v.num, 0)) {
		return []byte("null"), nil
	}
	return json.Marshal(v.ToAny())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Text renders scalars as display strings. Integral numbers print without a
// fraction.
func (v Value) Text() (string, bool) {
	switch v.kind {
	case KindString:
		return v.str, true
	case KindNumber:
		if v.num == math.Trunc(v.num) && math.Abs(v.num) < 1e15 {
			return strconv.FormatInt(int64(v.num), 10), true
		}
		return strconv.FormatFloat(v.num, 'f', -1, 64), true
	case KindBool:
		return strconv.FormatBool(v.b), true
	case KindTime:
		return v.t.UTC().Format(time.RFC3339), true
	}
	return "", false
}
