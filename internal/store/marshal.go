package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/roach88/hostbridge/internal/value"
)

// ErrInvalidVector is returned for a malformed stored vector.
var ErrInvalidVector = errors.New("invalid vector")

// marshalObject converts an Object to JSON TEXT keeping key order.
// Document bodies are returned to hosts as written, so order matters here.
func marshalObject(obj *value.Object) (string, error) {
	data, err := obj.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("marshal object: %w", err)
	}
	return string(data), nil
}

// marshalParams converts registration parameters to canonical JSON TEXT.
// Parameters are compared by fingerprint, so key order is irrelevant.
func marshalParams(params *value.Object) (string, error) {
	data, err := value.MarshalCanonical(params)
	if err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}
	return string(data), nil
}

// unmarshalObject parses JSON TEXT to an Object.
// Uses value.Decode, which keeps key order and Int/Float tags.
func unmarshalObject(data string) (*value.Object, error) {
	if data == "" || data == "{}" {
		return value.NewObject(), nil
	}
	v, err := value.Decode([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal object: %w", err)
	}
	obj, ok := v.(*value.Object)
	if !ok {
		return nil, fmt.Errorf("unmarshal object: stored %s, want object", v.Kind())
	}
	return obj, nil
}

// encodeVector packs a vector as a little-endian int32 length followed by
// little-endian float32 values.
func encodeVector(vector []float32) ([]byte, error) {
	if vector == nil {
		return nil, ErrInvalidVector
	}
	if len(vector) > math.MaxInt32 {
		return nil, fmt.Errorf("vector too large: %d elements", len(vector))
	}

	buf := make([]byte, 4+4*len(vector))
	binary.LittleEndian.PutUint32(buf, uint32(len(vector)))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[4+4*i:], math.Float32bits(v))
	}
	return buf, nil
}

// decodeVector reverses encodeVector.
func decodeVector(data []byte) ([]float32, error) {
	if len(data) < 4 {
		return nil, ErrInvalidVector
	}

	r := bytes.NewReader(data)
	var length int32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return nil, fmt.Errorf("decode vector length: %w", err)
	}
	if length < 0 || r.Len() != int(length)*4 {
		return nil, ErrInvalidVector
	}
	if length == 0 {
		return []float32{}, nil
	}

	vector := make([]float32, length)
	if err := binary.Read(r, binary.LittleEndian, vector); err != nil {
		return nil, fmt.Errorf("decode vector values: %w", err)
	}
	return vector, nil
}
