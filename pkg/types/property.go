package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ValueKind tags the variant held by a PropertyValue
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindObject
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	}
	return fmt.Sprintf("ValueKind(%d)", int(k))
}

// PropertyValue is a tagged variant over the values a node parameter can
// hold (defaults, option values). Only the field matching Kind is set.
type PropertyValue struct {
	Kind   ValueKind
	Str    string
	Num    float64
	Bool   bool
	List   []PropertyValue
	Object map[string]PropertyValue
}

// StringValue wraps s
func StringValue(s string) PropertyValue { return PropertyValue{Kind: KindString, Str: s} }

// NumberValue wraps f
func NumberValue(f float64) PropertyValue { return PropertyValue{Kind: KindNumber, Num: f} }

// BoolValue wraps b
func BoolValue(b bool) PropertyValue { return PropertyValue{Kind: KindBool, Bool: b} }

// IsNull reports whether the value is absent or JSON null
func (v PropertyValue) IsNull() bool { return v.Kind == KindNull }

// UnmarshalJSON decodes any JSON value into the matching variant.
func (v *PropertyValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = PropertyValue{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringValue(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = BoolValue(b)
	case '[':
		var items []PropertyValue
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*v = PropertyValue{Kind: KindList, List: items}
	case '{':
		var fields map[string]PropertyValue
		if err := json.Unmarshal(data, &fields); err != nil {
			return err
		}
		*v = PropertyValue{Kind: KindObject, Object: fields}
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("unsupported property value %q: %w", data, err)
		}
		*v = NumberValue(f)
	}
	return nil
}

// MarshalJSON encodes the active variant
func (v PropertyValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		return json.Marshal(v.Num)
	case KindBool:
		return json.Marshal(v.Bool)
	case KindList:
		if v.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.List)
	case KindObject:
		if v.Object == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.Object)
	default:
		return []byte("null"), nil
	}
}
