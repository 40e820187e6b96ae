package bridge

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/hostbridge/internal/fault"
	"github.com/roach88/hostbridge/internal/value"
)

// ToHost converts a dynamic value into its host form. Total and pure:
//
//	Null   -> nil
//	Bool   -> bool
//	Int    -> int64
//	Float  -> float64
//	String -> string
//	Array  -> []any
//	Object -> *Dict (insertion order kept)
//
// Containers are built bottom-up, so the result shares nothing with v.
func ToHost(v value.Value) any {
	switch val := v.(type) {
	case value.Null:
		return nil
	case value.Bool:
		return bool(val)
	case value.Int:
		return int64(val)
	case value.Float:
		return val.Float64()
	case value.String:
		return string(val)
	case value.Array:
		list := make([]any, len(val))
		for i, elem := range val {
			list[i] = ToHost(elem)
		}
		return list
	case *value.Object:
		dict := NewDict()
		for k, elem := range val.All() {
			dict.Set(k, ToHost(elem))
		}
		return dict
	default:
		// nil interface: the sealed set has no other members
		return nil
	}
}

// FromHost converts a host value into a dynamic value by inspecting its run
// time type. Unrecognized types fail with UNSUPPORTED_TYPE; NaN/Inf floats
// and integers beyond int64 fail with INVALID_NUMBER. Errors carry the path
// of the offending element ("$", "docs", "[2]", ...).
func FromHost(h any) (value.Value, error) {
	return fromHost(h, []string{"$"}, 0)
}

// MaxDepth bounds container nesting so self-referencing lists and dicts fail
// with UNSUPPORTED_TYPE instead of overflowing the stack.
const MaxDepth = 64

func fromHost(h any, path []string, depth int) (value.Value, error) {
	switch h.(type) {
	case []any, *Dict, map[string]any:
		if depth >= MaxDepth {
			return nil, fault.UnsupportedType(path, fmt.Sprintf("%T nested deeper than %d", h, MaxDepth))
		}
	}

	switch val := h.(type) {
	case nil:
		return value.Null{}, nil
	case value.Value:
		return val, nil
	case bool:
		return value.Bool(val), nil

	case int:
		return value.Int(val), nil
	case int8:
		return value.Int(val), nil
	case int16:
		return value.Int(val), nil
	case int32:
		return value.Int(val), nil
	case int64:
		return value.Int(val), nil
	case uint8:
		return value.Int(val), nil
	case uint16:
		return value.Int(val), nil
	case uint32:
		return value.Int(val), nil
	case uint:
		return fromUint(uint64(val), path)
	case uint64:
		return fromUint(val, path)
	case uintptr:
		return fromUint(uint64(val), path)

	case float32:
		return fromFloat(float64(val), path)
	case float64:
		return fromFloat(val, path)
	case json.Number:
		return fromJSONNumber(val, path)

	case string:
		return value.String(strings.Clone(val)), nil

	case []any:
		arr := make(value.Array, len(val))
		for i, elem := range val {
			v, err := fromHost(elem, append(path, "["+strconv.Itoa(i)+"]"), depth+1)
			if err != nil {
				return nil, err
			}
			arr[i] = v
		}
		return arr, nil

	case *Dict:
		obj := value.NewObject()
		for k, elem := range val.All() {
			v, err := fromHost(elem, append(path, k), depth+1)
			if err != nil {
				return nil, err
			}
			obj.Set(k, v)
		}
		return obj, nil

	case map[string]any:
		// Go maps are unordered; canonical key order keeps conversion deterministic.
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		slices.SortFunc(keys, value.CompareKeys)

		obj := value.NewObject()
		for _, k := range keys {
			v, err := fromHost(val[k], append(path, k), depth+1)
			if err != nil {
				return nil, err
			}
			obj.Set(k, v)
		}
		return obj, nil

	default:
		return nil, fault.UnsupportedType(path, fmt.Sprintf("%T", h))
	}
}

func fromUint(u uint64, path []string) (value.Value, error) {
	if u > math.MaxInt64 {
		return nil, fault.InvalidNumber(path, fmt.Sprintf("integer %d out of int64 range", u))
	}
	return value.Int(int64(u)), nil
}

func fromFloat(f float64, path []string) (value.Value, error) {
	fv, err := value.NewFloat(f)
	if err != nil {
		return nil, fault.InvalidNumber(path, fmt.Sprintf("%v is not representable", f))
	}
	return fv, nil
}

func fromJSONNumber(n json.Number, path []string) (value.Value, error) {
	v, err := value.ParseNumber(string(n))
	if err != nil {
		return nil, fault.InvalidNumber(path, fmt.Sprintf("number %s not representable", n))
	}
	return v, nil
}
