package market

import (
	"fmt"
	"time"
)

// Day 表示一个自然日（UTC 零点的 Unix 秒），用于日线对齐与 map key。
type Day int64

// DayOf 把任意时间戳归一化到 loc 时区下的自然日。
func DayOf(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	y, m, d := local.Date()
	return Day(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix())
}

// ParseDay 解析 YYYY-MM-DD 格式的日期。
func ParseDay(s string) (Day, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return 0, fmt.Errorf("parsing day failed (%s): %w", s, err)
	}
	return Day(t.Unix()), nil
}

// Time 返回 UTC 零点时间。
func (d Day) Time() time.Time {
	return time.Unix(int64(d), 0).UTC()
}

func (d Day) String() string {
	return d.Time().Format("2006-01-02")
}

// Bar 是单根日线，载入后不可变。
type Bar struct {
	Instrument string  `json:"instrument"`
	Day        Day     `json:"day"`
	Open       float64 `json:"open"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Close      float64 `json:"close"`
	Volume     float64 `json:"volume"`
}

// ValidateBars 检查上游契约：同一 instrument、按日期升序且无重复。
// 违反契约视为致命错误，这里不做静默排序或去重。
func ValidateBars(bars []Bar) error {
	if len(bars) == 0 {
		return nil
	}
	instrument := bars[0].Instrument
	for i, b := range bars {
		if b.Instrument != instrument {
			return fmt.Errorf("bar %d: instrument 不一致 (%s != %s)", i, b.Instrument, instrument)
		}
		if i == 0 {
			continue
		}
		prev := bars[i-1].Day
		switch {
		case b.Day == prev:
			return fmt.Errorf("bar %d: 日期重复 %s", i, b.Day)
		case b.Day < prev:
			return fmt.Errorf("bar %d: 日期乱序 %s < %s", i, b.Day, prev)
		}
	}
	return nil
}

// Closes 抽取收盘价序列。
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
