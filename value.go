package flagd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/fieldday/flagd/kit/platform/errors"
)

// Kind distinguishes the two shapes a flag value can take.
type Kind int

const (
	// KindBool is an on/off flag.
	KindBool Kind = iota
	// KindPercent is a rollout percentage.
	KindPercent
)

func (k Kind) String() string {
	switch k {
	case KindPercent:
		return "percent"
	default:
		return "bool"
	}
}

// Value is either a boolean or a rollout percentage. The zero value is false.
//
// Percentages are kept as given; clamping to [0,100] happens at evaluation time.
type Value struct {
	kind Kind
	b    bool
	pct  int
}

// BoolValue returns a boolean Value.
func BoolValue(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// PercentValue returns a percentage Value.
func PercentValue(p int) Value {
	return Value{kind: KindPercent, pct: p}
}

// Kind returns the shape of v.
func (v Value) Kind() Kind { return v.kind }

// Bool reads v as a boolean. A percentage reads as true when above zero.
func (v Value) Bool() bool {
	if v.kind == KindPercent {
		return v.pct > 0
	}
	return v.b
}

// Percent reads v as a percentage. A boolean reads as 100 or 0.
func (v Value) Percent() int {
	if v.kind == KindBool {
		if v.b {
			return 100
		}
		return 0
	}
	return v.pct
}

// Interface returns v as a bool or an int, the form typed flags read.
func (v Value) Interface() interface{} {
	if v.kind == KindPercent {
		return v.pct
	}
	return v.b
}

func (v Value) String() string {
	if v.kind == KindPercent {
		return fmt.Sprintf("%d%%", v.pct)
	}
	return fmt.Sprintf("%t", v.b)
}

// MarshalJSON encodes v as a JSON boolean or number.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON accepts a JSON boolean or number. Fractional numbers are
// truncated toward zero.
func (v *Value) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return malformed(err.Error())
	}

	parsed, err := ValueOf(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ValueOf converts a decoded scalar into a Value. It accepts bool, the
// integer and float kinds, and json.Number.
func ValueOf(raw interface{}) (Value, error) {
	switch t := raw.(type) {
	case bool:
		return BoolValue(t), nil
	case int:
		return PercentValue(t), nil
	case int32:
		return PercentValue(int(t)), nil
	case int64:
		return percentFromFloat(float64(t))
	case float64:
		return percentFromFloat(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, malformed(err.Error())
		}
		return percentFromFloat(f)
	default:
		return Value{}, malformed(fmt.Sprintf("unsupported flag value type %T", raw))
	}
}

func percentFromFloat(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, malformed("percentage is not a finite number")
	}
	switch {
	case f > math.MaxInt32:
		f = math.MaxInt32
	case f < math.MinInt32:
		f = math.MinInt32
	}
	return PercentValue(int(math.Trunc(f))), nil
}

func malformed(msg string) error {
	return &errors.Error{
		Code: errors.EInvalid,
		Op:   "flagd.Value",
		Msg:  msg,
	}
}
