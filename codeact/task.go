package codeact

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// FieldType is the declared value type of a task field.
type FieldType string

const (
	FieldString FieldType = "string"
	FieldInt    FieldType = "int"
	FieldFloat  FieldType = "float"
	FieldBool   FieldType = "bool"
	FieldList   FieldType = "list"
	FieldObject FieldType = "object"
	FieldAny    FieldType = "any"
)

// ParseFieldType maps a type name to a FieldType.
func ParseFieldType(s string) (FieldType, error) {
	switch FieldType(strings.ToLower(strings.TrimSpace(s))) {
	case FieldString:
		return FieldString, nil
	case FieldInt:
		return FieldInt, nil
	case FieldFloat:
		return FieldFloat, nil
	case FieldBool:
		return FieldBool, nil
	case FieldList:
		return FieldList, nil
	case FieldObject:
		return FieldObject, nil
	case FieldAny, "":
		return FieldAny, nil
	default:
		return "", fmt.Errorf("unknown field type %q", s)
	}
}

// Coerce converts a raw value to the declared type, accepting weakly typed
// input (e.g. the string "8" for an int field).
func (ft FieldType) Coerce(v any) (any, error) {
	switch ft {
	case FieldString:
		var out string
		if err := weakDecode(v, &out); err != nil {
			return nil, err
		}
		return out, nil
	case FieldInt:
		var out int
		if err := weakDecode(v, &out); err != nil {
			return nil, err
		}
		return out, nil
	case FieldFloat:
		var out float64
		if err := weakDecode(v, &out); err != nil {
			return nil, err
		}
		return out, nil
	case FieldBool:
		var out bool
		if err := weakDecode(v, &out); err != nil {
			return nil, err
		}
		return out, nil
	case FieldList:
		var out []any
		if err := weakDecode(v, &out); err != nil {
			return nil, err
		}
		return out, nil
	case FieldObject:
		var out map[string]any
		if err := weakDecode(v, &out); err != nil {
			return nil, err
		}
		return out, nil
	default:
		return v, nil
	}
}

func weakDecode(v any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(v)
}

// Field describes one declared task input or output value.
type Field struct {
	Name        string
	Type        FieldType
	Description string
}

// TaskSpec holds the ordered input and output field descriptors for a task.
// It is read-only for the lifetime of a run.
type TaskSpec struct {
	Inputs  []Field
	Outputs []Field
}

// OutputNames returns the declared output field names in order.
func (t TaskSpec) OutputNames() []string {
	names := make([]string, len(t.Outputs))
	for i, f := range t.Outputs {
		names[i] = f.Name
	}
	return names
}

// CallShape renders the expected submit call for a set of output fields,
// used in validation error messages.
func CallShape(outputs []Field) string {
	parts := make([]string, len(outputs))
	for i, f := range outputs {
		parts[i] = f.Name + "=..."
	}
	return "submit(" + strings.Join(parts, ", ") + ")"
}
