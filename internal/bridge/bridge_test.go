package bridge

import (
	"encoding/json"
	"errors"
	"math"
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hostbridge/internal/fault"
	"github.com/roach88/hostbridge/internal/value"
)

func TestToHost_Scalars(t *testing.T) {
	assert.Nil(t, ToHost(value.Null{}))
	assert.Equal(t, true, ToHost(value.Bool(true)))
	assert.Equal(t, int64(-3), ToHost(value.Int(-3)))
	assert.Equal(t, 2.0, ToHost(value.MustFloat(2)))
	assert.Equal(t, "héllo", ToHost(value.String("héllo")))
	assert.Nil(t, ToHost(nil))
}

func TestToHost_IntegerTagPreserved(t *testing.T) {
	_, isInt := ToHost(value.Int(2)).(int64)
	_, isFloat := ToHost(value.MustFloat(2)).(float64)

	assert.True(t, isInt)
	assert.True(t, isFloat)
}

func TestToHost_ObjectOrder(t *testing.T) {
	obj := value.NewObject(value.O("a", value.Int(1)), value.O("b", value.Int(2)))

	dict, ok := ToHost(obj).(*Dict)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, dict.Keys())

	back, err := FromHost(dict)
	require.NoError(t, err)
	assert.True(t, value.Equal(obj, back))
	assert.Equal(t, []string{"a", "b"}, back.(*value.Object).Keys())
}

func TestToHost_NestedArray(t *testing.T) {
	v := value.Array{
		value.Int(1),
		value.Array{value.Int(2), value.Int(3)},
		value.NewObject(value.O("x", value.Int(4))),
	}

	host := ToHost(v)
	list, ok := host.([]any)
	require.True(t, ok)
	require.Len(t, list, 3)
	assert.Equal(t, []any{int64(2), int64(3)}, list[1])

	back, err := FromHost(host)
	require.NoError(t, err)
	assert.True(t, value.Equal(v, back))
}

func TestToHost_DoesNotAlias(t *testing.T) {
	obj := value.NewObject(value.O("k", value.Array{value.Int(1)}))

	dict := ToHost(obj).(*Dict)
	list, _ := dict.Get("k")
	list.([]any)[0] = "mutated"

	k, _ := obj.Get("k")
	assert.Equal(t, value.Int(1), k.(value.Array)[0])
}

func TestFromHost_IntegerTypes(t *testing.T) {
	tests := []struct {
		in   any
		want value.Value
	}{
		{int(7), value.Int(7)},
		{int8(-8), value.Int(-8)},
		{int16(16), value.Int(16)},
		{int32(-32), value.Int(-32)},
		{int64(math.MaxInt64), value.Int(math.MaxInt64)},
		{uint8(8), value.Int(8)},
		{uint16(16), value.Int(16)},
		{uint32(math.MaxUint32), value.Int(math.MaxUint32)},
		{uint(9), value.Int(9)},
		{uint64(math.MaxInt64), value.Int(math.MaxInt64)},
		{float32(0.5), value.MustFloat(0.5)},
		{json.Number("12"), value.Int(12)},
		{json.Number("1.5"), value.MustFloat(1.5)},
	}

	for _, tt := range tests {
		got, err := FromHost(tt.in)
		require.NoError(t, err, "input %T(%v)", tt.in, tt.in)
		assert.True(t, value.Equal(tt.want, got), "input %T(%v): got %#v", tt.in, tt.in, got)
	}
}

func TestFromHost_InvalidNumber(t *testing.T) {
	inputs := []any{
		math.NaN(),
		math.Inf(1),
		float32(math.Inf(-1)),
		uint64(math.MaxInt64) + 1,
		json.Number("18446744073709551616"),
	}

	for _, in := range inputs {
		_, err := FromHost(in)
		require.Error(t, err, "input %v", in)
		assert.True(t, errors.Is(err, fault.ErrInvalidNumber), "input %v: %v", in, err)
	}
}

func TestFromHost_UnsupportedType(t *testing.T) {
	type custom struct{ A int }

	inputs := []any{
		custom{A: 1},
		make(chan int),
		func() {},
		[]byte("raw"),
		[]string{"typed", "slice"},
		map[int]any{1: "x"},
		&struct{}{},
	}

	for _, in := range inputs {
		_, err := FromHost(in)
		require.Error(t, err, "input %T", in)
		assert.True(t, errors.Is(err, fault.ErrUnsupportedType), "input %T: %v", in, err)
	}
}

func TestFromHost_ErrorPath(t *testing.T) {
	d := NewDict()
	d.Set("docs", []any{"ok", "ok", map[string]any{"meta": make(chan int)}})

	_, err := FromHost(d)
	require.Error(t, err)

	var fe *fault.Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, fault.CodeUnsupportedType, fe.Code)
	assert.Equal(t, []string{"$", "docs", "[2]", "meta"}, fe.Path)
	assert.Equal(t, "chan int", fe.GoType)
	assert.Contains(t, err.Error(), "$.docs[2].meta")
}

func TestFromHost_CyclicContainers(t *testing.T) {
	d := NewDict()
	d.Set("self", d)

	list := make([]any, 1)
	list[0] = list

	m := map[string]any{}
	m["inner"] = map[string]any{"outer": m}

	for _, in := range []any{d, list, m} {
		_, err := FromHost(in)
		require.Error(t, err, "input %T", in)
		assert.True(t, errors.Is(err, fault.ErrUnsupportedType), "input %T: %v", in, err)
		assert.Contains(t, err.Error(), "nested deeper than 64")
	}
}

func TestFromHost_DepthLimit(t *testing.T) {
	nest := func(levels int) any {
		var h any = "leaf"
		for range levels {
			h = []any{h}
		}
		return h
	}

	_, err := FromHost(nest(MaxDepth))
	require.NoError(t, err)

	_, err = FromHost(nest(MaxDepth + 1))
	require.Error(t, err)

	var fe *fault.Error
	require.True(t, errors.As(err, &fe))
	assert.Len(t, fe.Path, MaxDepth+1)
	assert.Equal(t, "[0]", fe.Path[MaxDepth])
}

func TestFromHost_MapSortedKeys(t *testing.T) {
	got, err := FromHost(map[string]any{"zeta": 1, "alpha": 2.5, "mid": nil})
	require.NoError(t, err)

	obj := got.(*value.Object)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, obj.Keys())
	alpha, _ := obj.Get("alpha")
	assert.Equal(t, value.MustFloat(2.5), alpha)
}

func TestFromHost_ValuePassthrough(t *testing.T) {
	v := value.NewObject(value.O("x", value.Int(1)))
	got, err := FromHost([]any{v})
	require.NoError(t, err)
	assert.True(t, value.Equal(value.Array{v}, got))
}

func TestRoundTrip_Generated(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))

	for i := 0; i < 200; i++ {
		v := genValue(rng, 0)
		back, err := FromHost(ToHost(v))
		require.NoError(t, err)
		require.True(t, value.Equal(v, back), "iteration %d: round trip changed %#v", i, v)
	}
}

func TestDict_JSONOrder(t *testing.T) {
	d := NewDict()
	d.Set("z", int64(1))
	d.Set("a", []any{true, nil})
	d.Set("z", int64(2))

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `{"z":2,"a":[true,null]}`, string(data))
	assert.Equal(t, 2, d.Len())
}

func TestDict_NilReceiver(t *testing.T) {
	var d *Dict
	assert.Equal(t, 0, d.Len())
	assert.Nil(t, d.Keys())
	_, ok := d.Get("x")
	assert.False(t, ok)
}

// genValue builds a random dynamic value bounded in depth.
func genValue(rng *rand.Rand, depth int) value.Value {
	kinds := 7
	if depth >= 3 {
		kinds = 5 // scalars only
	}

	switch rng.IntN(kinds) {
	case 0:
		return value.Null{}
	case 1:
		return value.Bool(rng.IntN(2) == 0)
	case 2:
		return value.Int(rng.Int64() - rng.Int64())
	case 3:
		return value.MustFloat(rng.NormFloat64() * 1e6)
	case 4:
		return value.String("s" + strconv.Itoa(rng.IntN(1000)))
	case 5:
		n := rng.IntN(4)
		arr := make(value.Array, n)
		for i := range arr {
			arr[i] = genValue(rng, depth+1)
		}
		return arr
	default:
		obj := value.NewObject()
		for i := rng.IntN(4); i > 0; i-- {
			obj.Set("k"+strconv.Itoa(rng.IntN(10)), genValue(rng, depth+1))
		}
		return obj
	}
}
