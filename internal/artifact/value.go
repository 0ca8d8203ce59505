// internal/artifact/value.go
package artifact

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// ErrorMarkerKey is the JSON object key that marks a result value as an error marker,
// e.g. {"$error": "collection not found"}.
const ErrorMarkerKey = "$error"

// Kind enumerates the shapes a result value can take.
type Kind int

const (
	// KindInvalid marks a value of a type the evaluator cannot interpret.
	KindInvalid Kind = iota
	KindNull
	KindNumber
	KindText
	KindBool
	KindCollection
	KindError
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	case KindCollection:
		return "collection"
	case KindError:
		return "error"
	default:
		return "invalid"
	}
}

// Value is a single result value. The zero Value is KindInvalid.
type Value struct {
	kind   Kind
	num    float64
	text   string
	flag   bool
	items  []Value
	fields map[string]Value
	keyed  bool
}

// Null returns a null value.
func Null() Value { return Value{kind: KindNull} }

// Number returns a numeric value. NaN and infinities are preserved.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Text returns a string value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }

// ErrorMarker returns a value standing in for a failed computation.
func ErrorMarker(msg string) Value { return Value{kind: KindError, text: msg} }

// List returns an ordered collection.
func List(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindCollection, items: cp}
}

// Object returns a keyed collection.
func Object(fields map[string]Value) Value {
	cp := make(map[string]Value, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return Value{kind: KindCollection, fields: cp, keyed: true}
}

func invalid(desc string) Value { return Value{kind: KindInvalid, text: desc} }

// FromAny converts an arbitrary Go value into a Value. Types that cannot be
// interpreted become KindInvalid rather than failing the whole conversion.
func FromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		return x
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
	case json.Number:
		f, err := strconv.ParseFloat(x.String(), 64)
		if err != nil {
			return Text(x.String())
		}
		return Number(f)
	case string:
		return Text(x)
	case bool:
		return Bool(x)
	case error:
		if x == nil {
			return Null()
		}
		return ErrorMarker(x.Error())
	case []any:
		items := make([]Value, 0, len(x))
		for _, item := range x {
			items = append(items, FromAny(item))
		}
		return Value{kind: KindCollection, items: items}
	case map[string]any:
		if msg, ok := x[ErrorMarkerKey]; ok && len(x) == 1 {
			return ErrorMarker(fmt.Sprint(msg))
		}
		fields := make(map[string]Value, len(x))
		for k, item := range x {
			fields[k] = FromAny(item)
		}
		return Value{kind: KindCollection, fields: fields, keyed: true}
	}
	return fromReflect(reflect.ValueOf(v))
}

func fromReflect(rv reflect.Value) Value {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null()
		}
		return FromAny(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Value{kind: KindCollection}
		}
		items := make([]Value, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items = append(items, FromAny(rv.Index(i).Interface()))
		}
		return Value{kind: KindCollection, items: items}
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return invalid(rv.Type().String())
		}
		fields := make(map[string]Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			fields[iter.Key().String()] = FromAny(iter.Value().Interface())
		}
		return Value{kind: KindCollection, fields: fields, keyed: true}
	case reflect.String:
		return Text(rv.String())
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Number(float64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Number(float64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return Number(rv.Float())
	case reflect.Invalid:
		return Null()
	}
	return invalid(rv.Type().String())
}

// Kind reports the shape of the value.
func (v Value) Kind() Kind { return v.kind }

// Float returns the numeric payload and whether the value is a number.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// FiniteFloat returns the numeric payload when the value is a finite number.
func (v Value) FiniteFloat() (float64, bool) {
	f, ok := v.Float()
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Str returns the text payload and whether the value is text.
func (v Value) Str() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.text, true
}

// Boolean returns the boolean payload and whether the value is a bool.
func (v Value) Boolean() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.flag, true
}

// ErrorMessage returns the message carried by an error marker.
func (v Value) ErrorMessage() (string, bool) {
	if v.kind != KindError {
		return "", false
	}
	return v.text, true
}

// Len returns the number of elements of a collection, or 0 for any other kind.
func (v Value) Len() int {
	if v.kind != KindCollection {
		return 0
	}
	if v.keyed {
		return len(v.fields)
	}
	return len(v.items)
}

// Keyed reports whether the collection is an object rather than a list.
func (v Value) Keyed() bool { return v.kind == KindCollection && v.keyed }

// Items returns a copy of the elements of a list collection.
func (v Value) Items() []Value {
	if v.kind != KindCollection || v.keyed {
		return nil
	}
	cp := make([]Value, len(v.items))
	copy(cp, v.items)
	return cp
}

// Fields returns a copy of the members of an object collection.
func (v Value) Fields() map[string]Value {
	if v.kind != KindCollection || !v.keyed {
		return nil
	}
	cp := make(map[string]Value, len(v.fields))
	for k, f := range v.fields {
		cp[k] = f
	}
	return cp
}

// Interface converts the value back to plain Go data suitable for encoding/json.
// Non-finite numbers become their string form since JSON cannot carry them.
func (v Value) Interface() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return strconv.FormatFloat(v.num, 'g', -1, 64)
		}
		return v.num
	case KindText:
		return v.text
	case KindBool:
		return v.flag
	case KindError:
		return map[string]any{ErrorMarkerKey: v.text}
	case KindCollection:
		if v.keyed {
			out := make(map[string]any, len(v.fields))
			for k, f := range v.fields {
				out[k] = f.Interface()
			}
			return out
		}
		out := make([]any, 0, len(v.items))
		for _, item := range v.items {
			out = append(out, item.Interface())
		}
		return out
	default:
		return fmt.Sprintf("<invalid %s>", v.text)
	}
}

// MarshalJSON encodes the value as its plain Go form.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// String renders the value for humans. Object members are printed in key order.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindText:
		return v.text
	case KindBool:
		return strconv.FormatBool(v.flag)
	case KindError:
		return "error: " + v.text
	case KindCollection:
		if v.keyed {
			keys := make([]string, 0, len(v.fields))
			for k := range v.fields {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			parts := make([]string, 0, len(keys))
			for _, k := range keys {
				parts = append(parts, k+": "+v.fields[k].String())
			}
			return "{" + strings.Join(parts, ", ") + "}"
		}
		parts := make([]string, 0, len(v.items))
		for _, item := range v.items {
			parts = append(parts, item.String())
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprintf("<invalid %s>", v.text)
	}
}
