package luahost

import (
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/Shopify/go-lua"

	"github.com/roach88/hostbridge/internal/bridge"
	"github.com/roach88/hostbridge/internal/fault"
	"github.com/roach88/hostbridge/internal/value"
)

// maxDepth bounds table nesting so self-referencing tables fail instead of
// recursing forever. It matches the bridge limit on host containers.
const maxDepth = bridge.MaxDepth

// toValue converts the Lua value at index into a dynamic value. Numbers with
// an integral value in int64 range become Int; other numbers become Float.
func toValue(l *lua.State, index int) (value.Value, error) {
	h, err := toHost(l, l.AbsIndex(index), []string{"$"}, 0)
	if err != nil {
		return nil, err
	}
	return bridge.FromHost(h)
}

// toHost converts the Lua value at the absolute index into a host value
// accepted by bridge.FromHost.
func toHost(l *lua.State, index int, path []string, depth int) (any, error) {
	switch l.TypeOf(index) {
	case lua.TypeNil, lua.TypeNone:
		return nil, nil
	case lua.TypeBoolean:
		return l.ToBoolean(index), nil
	case lua.TypeNumber:
		f, _ := l.ToNumber(index)
		return number(f), nil
	case lua.TypeString:
		s, _ := l.ToString(index)
		return s, nil
	case lua.TypeTable:
		if depth >= maxDepth {
			return nil, fault.UnsupportedType(path, fmt.Sprintf("lua table nested deeper than %d", maxDepth))
		}
		return tableToHost(l, index, path, depth+1)
	default:
		return nil, fault.UnsupportedType(path, "lua "+typeName(l, index))
	}
}

// number keeps integral floats as int64. NaN and Inf stay float64 so the
// bridge reports them as invalid numbers.
func number(f float64) any {
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return int64(f)
	}
	return f
}

// tableToHost turns a table with keys 1..n into []any and a table with only
// string keys into a *bridge.Dict with sorted keys. An empty table is an
// empty list.
func tableToHost(l *lua.State, index int, path []string, depth int) (any, error) {
	var (
		strKeys []string
		intKeys int
		maxKey  int64
	)
	l.PushNil()
	for l.Next(index) {
		switch l.TypeOf(-2) {
		case lua.TypeString:
			k, _ := l.ToString(-2)
			strKeys = append(strKeys, k)
		case lua.TypeNumber:
			f, _ := l.ToNumber(-2)
			k, ok := number(f).(int64)
			if !ok || k < 1 {
				l.Pop(2)
				return nil, fault.UnsupportedType(path, "lua table with non-sequence number key")
			}
			intKeys++
			maxKey = max(maxKey, k)
		default:
			t := typeName(l, -2)
			l.Pop(2)
			return nil, fault.UnsupportedType(path, "lua table with "+t+" key")
		}
		l.Pop(1)
	}

	switch {
	case len(strKeys) > 0 && intKeys > 0:
		return nil, fault.UnsupportedType(path, "lua table with mixed keys")
	case intKeys > 0 && maxKey != int64(intKeys):
		return nil, fault.UnsupportedType(path, "lua sparse array")
	case len(strKeys) > 0:
		slices.Sort(strKeys)
		dict := bridge.NewDict()
		for _, k := range strKeys {
			l.Field(index, k)
			v, err := toHost(l, l.AbsIndex(-1), append(path, k), depth)
			l.Pop(1)
			if err != nil {
				return nil, err
			}
			dict.Set(k, v)
		}
		return dict, nil
	default:
		list := make([]any, intKeys)
		for i := range intKeys {
			l.RawGetInt(index, i+1)
			v, err := toHost(l, l.AbsIndex(-1), append(path, "["+strconv.Itoa(i)+"]"), depth)
			l.Pop(1)
			if err != nil {
				return nil, err
			}
			list[i] = v
		}
		return list, nil
	}
}

// pushValue pushes the Lua form of v.
func pushValue(l *lua.State, v value.Value) {
	pushHost(l, bridge.ToHost(v))
}

// pushHost pushes a host value produced by bridge.ToHost. Objects become
// tables with the same string keys; arrays become sequences.
func pushHost(l *lua.State, h any) {
	switch v := h.(type) {
	case nil:
		l.PushNil()
	case bool:
		l.PushBoolean(v)
	case int64:
		l.PushInteger(int(v))
	case float64:
		l.PushNumber(v)
	case string:
		l.PushString(v)
	case []any:
		l.CreateTable(len(v), 0)
		for i, elem := range v {
			pushHost(l, elem)
			l.RawSetInt(-2, i+1)
		}
	case *bridge.Dict:
		l.CreateTable(0, v.Len())
		for k, elem := range v.All() {
			pushHost(l, elem)
			l.SetField(-2, k)
		}
	default:
		l.PushNil()
	}
}

func typeName(l *lua.State, index int) string {
	switch l.TypeOf(index) {
	case lua.TypeNil:
		return "nil"
	case lua.TypeBoolean:
		return "boolean"
	case lua.TypeLightUserData, lua.TypeUserData:
		return "userdata"
	case lua.TypeNumber:
		return "number"
	case lua.TypeString:
		return "string"
	case lua.TypeTable:
		return "table"
	case lua.TypeFunction:
		return "function"
	case lua.TypeThread:
		return "thread"
	default:
		return "no value"
	}
}
