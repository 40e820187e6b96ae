package value

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/roach88/hostbridge/internal/fault"
)

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// MarshalJSON implements json.Marshaler for Float.
// The output always carries a fraction or exponent so the float tag
// survives a decode.
func (f Float) MarshalJSON() ([]byte, error) {
	return []byte(formatFloat(f.f)), nil
}

// MarshalJSON implements json.Marshaler for Array.
func (a Array) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')

	for i, elem := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		elemBytes, err := Marshal(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(elemBytes)
	}

	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// MarshalJSON implements json.Marshaler for Object in insertion order.
// Use MarshalCanonical for content-addressed hashing.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	i := 0
	for k, v := range o.All() {
		if i > 0 {
			buf.WriteByte(',')
		}
		i++

		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler for Object, keeping document order.
func (o *Object) UnmarshalJSON(data []byte) error {
	v, err := Decode(data)
	if err != nil {
		return err
	}
	obj, ok := v.(*Object)
	if !ok {
		return fmt.Errorf("expected JSON object, got %s", v.Kind())
	}
	*o = *obj
	return nil
}

// Marshal encodes v as JSON using type-switch dispatch.
func Marshal(v Value) ([]byte, error) {
	switch val := v.(type) {
	case Null:
		return []byte("null"), nil
	case Bool:
		return json.Marshal(bool(val))
	case Int:
		return []byte(strconv.FormatInt(int64(val), 10)), nil
	case Float:
		return val.MarshalJSON()
	case String:
		return json.Marshal(string(val))
	case Array:
		return val.MarshalJSON()
	case *Object:
		return val.MarshalJSON()
	default:
		return nil, fmt.Errorf("unknown Value type: %T", v)
	}
}

// Decode parses a single JSON document into a Value.
// Object key order follows the document; numbers written with a fraction or
// exponent become Float, all others Int. Out-of-range numbers fail with
// INVALID_NUMBER.
func Decode(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec, []string{"$"})
	if err != nil {
		return nil, err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode: trailing data after JSON value")
	}
	return v, nil
}

// decodeValue reads one value from the token stream.
func decodeValue(dec *json.Decoder, path []string) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	switch t := tok.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		return parseNumber(string(t), path)
	case json.Delim:
		switch t {
		case '[':
			arr := Array{}
			for i := 0; dec.More(); i++ {
				elem, err := decodeValue(dec, append(path, "["+strconv.Itoa(i)+"]"))
				if err != nil {
					return nil, err
				}
				arr = append(arr, elem)
			}
			if _, err := dec.Token(); err != nil {
				return nil, fmt.Errorf("decode: %w", err)
			}
			return arr, nil

		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, fmt.Errorf("decode: %w", err)
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("decode: object key is %T", keyTok)
				}
				val, err := decodeValue(dec, append(path, key))
				if err != nil {
					return nil, err
				}
				obj.Set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, fmt.Errorf("decode: %w", err)
			}
			return obj, nil
		}
	}

	return nil, fmt.Errorf("decode: unexpected token %v", tok)
}

// ParseNumber converts a JSON/YAML number literal to Int or Float.
// Literals with '.', 'e' or 'E' are floats; everything else must fit int64.
func ParseNumber(s string) (Value, error) {
	return parseNumber(s, nil)
}

func parseNumber(s string, path []string) (Value, error) {
	if strings.ContainsAny(s, ".eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fault.InvalidNumber(path, fmt.Sprintf("float %s out of range", s))
		}
		fv, err := NewFloat(f)
		if err != nil {
			return nil, fault.InvalidNumber(path, fmt.Sprintf("float %s not representable", s))
		}
		return fv, nil
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fault.InvalidNumber(path, fmt.Sprintf("integer %s out of int64 range", s))
	}
	return Int(n), nil
}

// formatFloat renders f in shortest form, forcing a fraction when the
// shortest form would read as an integer.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
