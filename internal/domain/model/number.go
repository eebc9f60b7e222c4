package model

import (
	"math"
	"strconv"
)

// Number is a float that may be undefined, e.g. the mean of no values.
// It encodes as JSON null when not Valid.
type Number struct {
	Float64 float64
	Valid   bool
}

// Some returns a defined Number.
func Some(f float64) Number { return Number{Float64: f, Valid: true} }

// None is the undefined Number.
var None = Number{}

// Mean averages the values; the result is undefined for an empty slice.
func Mean(values []float64) Number {
	if len(values) == 0 {
		return None
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return Some(sum / float64(len(values)))
}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid || math.IsNaN(n.Float64) || math.IsInf(n.Float64, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, n.Float64, 'f', -1, 64), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = None
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*n = Some(f)
	return nil
}

func (n Number) String() string {
	if !n.Valid {
		return "n/a"
	}
	return strconv.FormatFloat(n.Float64, 'f', 2, 64)
}
