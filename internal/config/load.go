package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/hostbridge/internal/fault"
	"github.com/roach88/hostbridge/internal/value"
)

// Load reads a configuration map from a file. The format is chosen by
// extension: .json, .yaml/.yml or .cue. The top level must be a mapping.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return ParseJSON(data)
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".cue":
		return ParseCUE(data, filepath.Base(path))
	default:
		return nil, fmt.Errorf("config %s: unsupported extension %q", path, ext)
	}
}

// ParseJSON decodes a JSON object, keeping document key order.
func ParseJSON(data []byte) (*Config, error) {
	v, err := value.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("parse json config: %w", err)
	}
	return FromValue(v)
}

// ParseYAML decodes a YAML mapping. Key order follows the document and the
// resolved tag decides Int versus Float, so "2" stays an Int and "2.0" a Float.
func ParseYAML(data []byte) (*Config, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml config: %w", err)
	}

	// Empty document
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return New(), nil
	}

	v, err := yamlToValue(doc.Content[0], []string{"$"})
	if err != nil {
		return nil, err
	}
	return FromValue(v)
}

func yamlToValue(n *yaml.Node, path []string) (value.Value, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return yamlToValue(n.Alias, path)

	case yaml.MappingNode:
		obj := value.NewObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			if key.Kind != yaml.ScalarNode {
				return nil, fault.UnsupportedType(path, "yaml non-scalar key")
			}
			v, err := yamlToValue(val, append(path, key.Value))
			if err != nil {
				return nil, err
			}
			obj.Set(key.Value, v)
		}
		return obj, nil

	case yaml.SequenceNode:
		arr := make(value.Array, 0, len(n.Content))
		for i, elem := range n.Content {
			v, err := yamlToValue(elem, append(path, "["+strconv.Itoa(i)+"]"))
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil

	case yaml.ScalarNode:
		return yamlScalar(n, path)

	default:
		return nil, fault.UnsupportedType(path, fmt.Sprintf("yaml node kind %d", n.Kind))
	}
}

func yamlScalar(n *yaml.Node, path []string) (value.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return value.Null{}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, fmt.Errorf("yaml %s: %w", n.Value, err)
		}
		return value.Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, fault.InvalidNumber(path, fmt.Sprintf("integer %s out of int64 range", n.Value))
		}
		return value.Int(i), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, fault.InvalidNumber(path, fmt.Sprintf("float %s not parseable", n.Value))
		}
		fv, err := value.NewFloat(f)
		if err != nil {
			return nil, fault.InvalidNumber(path, fmt.Sprintf("float %s not representable", n.Value))
		}
		return fv, nil
	case "!!str", "!!timestamp":
		return value.String(n.Value), nil
	default:
		return nil, fault.UnsupportedType(path, "yaml "+n.ShortTag())
	}
}

// ParseCUE evaluates a CUE document. Fields come out in declaration order
// and every value must be concrete.
func ParseCUE(data []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile cue config: %w", err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("cue config not concrete: %w", err)
	}

	out, err := cueToValue(v, []string{"$"})
	if err != nil {
		return nil, err
	}
	return FromValue(out)
}

func cueToValue(v cue.Value, path []string) (value.Value, error) {
	switch v.Kind() {
	case cue.NullKind:
		return value.Null{}, nil

	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, fmt.Errorf("cue %s: %w", strings.Join(path, "."), err)
		}
		return value.Bool(b), nil

	case cue.IntKind:
		i, err := v.Int64()
		if err != nil {
			return nil, fault.InvalidNumber(path, fmt.Sprintf("integer %v out of int64 range", v))
		}
		return value.Int(i), nil

	case cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return nil, fault.InvalidNumber(path, fmt.Sprintf("float %v not representable", v))
		}
		fv, err := value.NewFloat(f)
		if err != nil {
			return nil, fault.InvalidNumber(path, fmt.Sprintf("float %v not representable", v))
		}
		return fv, nil

	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, fmt.Errorf("cue %s: %w", strings.Join(path, "."), err)
		}
		return value.String(s), nil

	case cue.ListKind:
		list, err := v.List()
		if err != nil {
			return nil, fmt.Errorf("cue %s: %w", strings.Join(path, "."), err)
		}
		arr := value.Array{}
		for i := 0; list.Next(); i++ {
			elem, err := cueToValue(list.Value(), append(path, "["+strconv.Itoa(i)+"]"))
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		return arr, nil

	case cue.StructKind:
		fields, err := v.Fields()
		if err != nil {
			return nil, fmt.Errorf("cue %s: %w", strings.Join(path, "."), err)
		}
		obj := value.NewObject()
		for fields.Next() {
			label := fields.Label()
			elem, err := cueToValue(fields.Value(), append(path, label))
			if err != nil {
				return nil, err
			}
			obj.Set(label, elem)
		}
		return obj, nil

	default:
		return nil, fault.UnsupportedType(path, "cue "+v.Kind().String())
	}
}
