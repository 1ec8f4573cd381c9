package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is a report token coerced by the decimal-point rule: tokens containing
// "." are floats, all others are integers.
type Value struct {
	IsFloat bool
	i       int64
	f       float64
}

// ParseValue coerces a raw token. Surrounding whitespace is ignored.
func ParseValue(token string) (Value, error) {
	t := strings.TrimSpace(token)
	if strings.Contains(t, ".") {
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid float %q", t)
		}
		return Value{IsFloat: true, f: f}, nil
	}
	i, err := strconv.ParseInt(t, 10, 64)
	if err != nil {
		return Value{}, fmt.Errorf("invalid integer %q", t)
	}
	return Value{i: i}, nil
}

// Int returns the value as an integer, truncating floats.
func (v Value) Int() int {
	if v.IsFloat {
		return int(v.f)
	}
	return int(v.i)
}

// Float returns the value as a float.
func (v Value) Float() float64 {
	if v.IsFloat {
		return v.f
	}
	return float64(v.i)
}

func (v Value) String() string {
	if v.IsFloat {
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	}
	return strconv.FormatInt(v.i, 10)
}

// MarshalJSON keeps integers integral in JSON output.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsFloat {
		s := strconv.FormatFloat(v.f, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return []byte(s), nil
	}
	return []byte(strconv.FormatInt(v.i, 10)), nil
}

// UnmarshalJSON restores a value written by MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := ParseValue(string(data))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
