package contracts

import (
	"database/sql"
	"encoding/json"
	"math"
)

// NullFloat is a float that may be missing
// null 과 0 은 절대 같은 의미가 아님 (비율 계산에서 null → 0 변환 금지)
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// Float returns a valid NullFloat
func Float(v float64) NullFloat {
	return NullFloat{Float64: v, Valid: true}
}

// Null returns a missing value
func Null() NullFloat {
	return NullFloat{}
}

// IsFinite reports whether the value is present and is neither NaN nor ±Inf
func (n NullFloat) IsFinite() bool {
	return n.Valid && !math.IsNaN(n.Float64) && !math.IsInf(n.Float64, 0)
}

// Scan implements sql.Scanner so repositories can scan nullable numeric columns directly
func (n *NullFloat) Scan(src any) error {
	var nf sql.NullFloat64
	if err := nf.Scan(src); err != nil {
		return err
	}
	n.Float64, n.Valid = nf.Float64, nf.Valid
	return nil
}

// MarshalJSON encodes missing values as null
func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.IsFinite() {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

// UnmarshalJSON decodes null as a missing value
func (n *NullFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NullFloat{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Float(v)
	return nil
}
