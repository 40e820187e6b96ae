package value

import (
	"fmt"
	"math"

	"github.com/roach88/hostbridge/internal/fault"
)

// Kind identifies the variant of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
)

// String returns the lower-case variant name.
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
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a sealed interface over the closed set of dynamic value variants.
// Only Null, Bool, Int, Float, String, Array, and *Object implement it.
type Value interface {
	isValue() // Sealed
	Kind() Kind
}

// Null is the absent value.
type Null struct{}

func (Null) isValue()   {}
func (Null) Kind() Kind { return KindNull }

// Bool is a boolean value.
type Bool bool

func (Bool) isValue()   {}
func (Bool) Kind() Kind { return KindBool }

// Int is an integer number. Int and Float are distinct tags: a value built
// as Int stays Int through every conversion.
type Int int64

func (Int) isValue()   {}
func (Int) Kind() Kind { return KindInt }

// Float is a finite floating-point number.
// The zero Float is 0.0; any other Float must come from NewFloat, which
// rejects NaN and infinities.
type Float struct {
	f float64
}

func (Float) isValue()   {}
func (Float) Kind() Kind { return KindFloat }

// Float64 returns the underlying float64.
func (f Float) Float64() float64 {
	return f.f
}

// NewFloat creates a Float, rejecting values that are not representable.
func NewFloat(f float64) (Float, error) {
	if math.IsNaN(f) {
		return Float{}, fault.InvalidNumber(nil, "NaN is not representable")
	}
	if math.IsInf(f, 0) {
		return Float{}, fault.InvalidNumber(nil, fmt.Sprintf("%v is not representable", f))
	}
	return Float{f: f}, nil
}

// MustFloat is like NewFloat but panics on error.
// Use only for literals known to be finite.
func MustFloat(f float64) Float {
	v, err := NewFloat(f)
	if err != nil {
		panic(err)
	}
	return v
}

// String is a string value.
type String string

func (String) isValue()   {}
func (String) Kind() Kind { return KindString }

// Array is an ordered sequence of values.
type Array []Value

func (Array) isValue()   {}
func (Array) Kind() Kind { return KindArray }

// NewArray creates an Array from values. Never returns nil.
func NewArray(vals ...Value) Array {
	arr := make(Array, len(vals))
	copy(arr, vals)
	return arr
}

// Equal reports whether a and b are structurally equal.
// Int and Float never compare equal to each other, and object key order matters.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}

	switch av := a.(type) {
	case Null:
		return true
	case Bool:
		return av == b.(Bool)
	case Int:
		return av == b.(Int)
	case Float:
		return av.f == b.(Float).f
	case String:
		return av == b.(String)
	case Array:
		bv := b.(Array)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case *Object:
		return av.equal(b.(*Object))
	default:
		return false
	}
}

// Clone returns a deep copy of v. Scalars are returned as-is.
func Clone(v Value) Value {
	switch val := v.(type) {
	case Array:
		out := make(Array, len(val))
		for i, elem := range val {
			out[i] = Clone(elem)
		}
		return out
	case *Object:
		return val.Clone()
	default:
		return v
	}
}
