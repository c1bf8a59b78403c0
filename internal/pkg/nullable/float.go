package nullable

import (
	"encoding/json"
	"math"
)

// Float 是可缺失的浮点指标：NaN/Inf 语义为"未定义"，
// JSON 编码为 null 而不是让 Marshal 失败或悄悄传播 NaN。
type Float float64

// Undefined 返回未定义值。
func Undefined() Float { return Float(math.NaN()) }

// Of 包装一个普通 float64。
func Of(v float64) Float { return Float(v) }

// Defined 判断该值是否可用。
func (f Float) Defined() bool {
	v := float64(f)
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Value 返回底层 float64（未定义时为 NaN）。
func (f Float) Value() float64 { return float64(f) }

func (f Float) MarshalJSON() ([]byte, error) {
	if !f.Defined() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(f))
}

func (f *Float) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = Undefined()
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}
