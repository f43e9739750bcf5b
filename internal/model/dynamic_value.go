package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the wire format of date-typed dynamic values
const DateLayout = "2006-01-02"

// ValueKind tags the variant held by a DynamicValue
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindDate
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindDate:
		return "date"
	default:
		return "null"
	}
}

// DynamicValue is a string, number, boolean or date. Dates travel as
// "2006-01-02" strings and come back from JSON as strings; validation against
// a date definition turns them into dates again.
type DynamicValue struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
	date time.Time
}

// DynamicFields maps a dynamic field name to its value
type DynamicFields map[string]DynamicValue

func StringValue(s string) DynamicValue  { return DynamicValue{kind: KindString, str: s} }
func NumberValue(f float64) DynamicValue { return DynamicValue{kind: KindNumber, num: f} }
func BoolValue(b bool) DynamicValue      { return DynamicValue{kind: KindBool, b: b} }
func DateValue(t time.Time) DynamicValue { return DynamicValue{kind: KindDate, date: truncateDay(t)} }

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (v DynamicValue) Kind() ValueKind { return v.kind }
func (v DynamicValue) IsNull() bool    { return v.kind == KindNull }

func (v DynamicValue) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

func (v DynamicValue) AsNumber() (float64, bool) {
	return v.num, v.kind == KindNumber
}

func (v DynamicValue) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

func (v DynamicValue) AsDate() (time.Time, bool) {
	return v.date, v.kind == KindDate
}

// Display renders the value for tabular exports
func (v DynamicValue) Display() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return fmt.Sprint(v.num)
	case KindBool:
		return fmt.Sprint(v.b)
	case KindDate:
		return v.date.Format(DateLayout)
	}
	return ""
}

func (v DynamicValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindDate:
		return json.Marshal(v.date.Format(DateLayout))
	}
	return []byte("null"), nil
}

func (v *DynamicValue) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	switch x := raw.(type) {
	case nil:
		*v = DynamicValue{}
	case string:
		*v = StringValue(x)
	case bool:
		*v = BoolValue(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return fmt.Errorf("dynamic value %s: %w", x, err)
		}
		*v = NumberValue(f)
	default:
		return fmt.Errorf("dynamic value must be a string, number, boolean or null, got %s", data)
	}
	return nil
}
