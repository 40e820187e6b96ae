package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hostbridge/internal/bridge"
	"github.com/roach88/hostbridge/internal/fault"
	"github.com/roach88/hostbridge/internal/value"
)

func sample() *Config {
	return New(
		value.O("chunk_size", value.Int(100)),
		value.O("ratio", value.MustFloat(0.5)),
		value.O("name", value.String("recursive")),
		value.O("nested", value.NewObject(value.O("x", value.Array{value.Int(1), value.Null{}}))),
	)
}

func TestRoundTrip_Value(t *testing.T) {
	c := sample()

	back, err := FromValue(ToValue(c))
	require.NoError(t, err)
	assert.True(t, c.Equal(back))
	assert.Equal(t, c.Keys(), back.Keys())
}

func TestRoundTrip_Host(t *testing.T) {
	c := sample()

	host := ToHost(c)
	assert.Equal(t, []string{"chunk_size", "ratio", "name", "nested"}, host.Keys())

	back, err := FromHost(host)
	require.NoError(t, err)
	assert.True(t, c.Equal(back))
}

func TestRoundTrip_Empty(t *testing.T) {
	back, err := FromHost(ToHost(New()))
	require.NoError(t, err)
	assert.Equal(t, 0, back.Len())

	var nilCfg *Config
	assert.Equal(t, 0, ToValue(nilCfg).Len())
}

func TestFromValue_RejectsNonObject(t *testing.T) {
	inputs := []value.Value{
		value.Array{value.Int(1)},
		value.Int(3),
		value.String("x"),
		value.Null{},
	}

	for _, in := range inputs {
		_, err := FromValue(in)
		require.Error(t, err)
		assert.True(t, errors.Is(err, fault.ErrUnsupportedType), "input %s", in.Kind())
	}
}

func TestFromHost_PropagatesElementError(t *testing.T) {
	_, err := FromHost(map[string]any{"bad": []byte("x")})
	require.Error(t, err)
	assert.Equal(t, fault.CodeUnsupportedType, fault.CodeOf(err))
}

func TestFromHost_DoesNotRetainInput(t *testing.T) {
	d := bridge.NewDict()
	d.Set("list", []any{int64(1)})

	c, err := FromHost(d)
	require.NoError(t, err)

	list, _ := d.Get("list")
	list.([]any)[0] = int64(99)

	got, _ := c.Get("list")
	assert.Equal(t, value.Int(1), got.(value.Array)[0])
}

func TestToValue_DoesNotAlias(t *testing.T) {
	c := sample()
	obj := ToValue(c)
	obj.Set("chunk_size", value.Int(1))

	n, err := c.Int("chunk_size", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(100), n)
}

func TestAccessors(t *testing.T) {
	c := New(
		value.O("n", value.Int(7)),
		value.O("f", value.MustFloat(1.5)),
		value.O("s", value.String("x")),
		value.O("b", value.Bool(true)),
	)

	n, err := c.Int("n", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	f, err := c.Float("f", 0)
	require.NoError(t, err)
	assert.Equal(t, 1.5, f)

	widened, err := c.Float("n", 0)
	require.NoError(t, err)
	assert.Equal(t, 7.0, widened)

	s, err := c.String("s", "")
	require.NoError(t, err)
	assert.Equal(t, "x", s)

	b, err := c.Bool("b", false)
	require.NoError(t, err)
	assert.True(t, b)

	def, err := c.Int("missing", 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), def)

	_, err = c.Int("f", 0)
	assert.Error(t, err)
	_, err = c.String("n", "")
	assert.Error(t, err)
}

func TestNilConfig_Reads(t *testing.T) {
	var c *Config
	assert.Equal(t, 0, c.Len())
	assert.Nil(t, c.Keys())

	n, err := c.Int("x", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	count := 0
	for range c.All() {
		count++
	}
	assert.Zero(t, count)
	assert.Equal(t, 0, c.Clone().Len())
}

func TestClone_Independent(t *testing.T) {
	c := sample()
	cp := c.Clone()
	cp.Set("chunk_size", value.Int(1))
	cp.Set("extra", value.Bool(true))

	n, _ := c.Int("chunk_size", 0)
	assert.Equal(t, int64(100), n)
	assert.Equal(t, 4, c.Len())
	assert.False(t, c.Equal(cp))
}

func TestSet_ZeroConfig(t *testing.T) {
	var c Config
	c.Set("a", value.Int(1))
	assert.Equal(t, []string{"a"}, c.Keys())
}
