package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type valueKind uint8

const (
	kindText valueKind = iota
	kindFloat
	kindInt
)

// SensorValue holds exactly one of a float, an integer or pre-formatted text.
// The zero value is empty text.
type SensorValue struct {
	kind valueKind
	f    float64
	i    int64
	s    string
}

// FloatValue wraps a floating-point reading
func FloatValue(v float64) SensorValue {
	return SensorValue{kind: kindFloat, f: v}
}

// IntValue wraps an integral reading
func IntValue(v int64) SensorValue {
	return SensorValue{kind: kindInt, i: v}
}

// TextValue wraps a reading the provider already formatted
func TextValue(v string) SensorValue {
	return SensorValue{kind: kindText, s: v}
}

// Float returns the value and true when the reading is floating-point
func (v SensorValue) Float() (float64, bool) {
	return v.f, v.kind == kindFloat
}

// Int returns the value and true when the reading is integral
func (v SensorValue) Int() (int64, bool) {
	return v.i, v.kind == kindInt
}

// Text returns the value and true when the reading is pre-formatted text
func (v SensorValue) Text() (string, bool) {
	return v.s, v.kind == kindText
}

// Numeric returns the reading as a float64 for numeric kinds
func (v SensorValue) Numeric() (float64, bool) {
	switch v.kind {
	case kindFloat:
		return v.f, true
	case kindInt:
		return float64(v.i), true
	}
	return 0, false
}

// String prints the raw value without any display rounding
func (v SensorValue) String() string {
	switch v.kind {
	case kindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case kindInt:
		return strconv.FormatInt(v.i, 10)
	}
	return v.s
}

// MarshalJSON encodes numbers as JSON numbers and text as a JSON string
func (v SensorValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindFloat:
		return json.Marshal(v.f)
	case kindInt:
		return json.Marshal(v.i)
	}
	return json.Marshal(v.s)
}

// UnmarshalJSON accepts a JSON number or string. Numbers without a fraction
// or exponent decode as integers.
func (v *SensorValue) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = TextValue(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("sensor value: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*v = IntValue(i)
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("sensor value: %w", err)
	}
	*v = FloatValue(f)
	return nil
}
