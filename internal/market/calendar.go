package market

import "fmt"

// Calendar 是某个 instrument 的交易日历：有序的有效交易日集合。
// 所有滞后（lag）运算都按日历步进，自动跳过周末与休市日。
type Calendar struct {
	days  []Day
	index map[Day]int
}

// NewCalendar 由交易日序列构建日历，要求升序且无重复。
func NewCalendar(days []Day) (*Calendar, error) {
	index := make(map[Day]int, len(days))
	for i, d := range days {
		if i > 0 && d <= days[i-1] {
			return nil, fmt.Errorf("calendar: 交易日乱序或重复 (%s)", d)
		}
		index[d] = i
	}
	copied := append([]Day(nil), days...)
	return &Calendar{days: copied, index: index}, nil
}

// CalendarFromBars 从日线序列提取交易日历。
func CalendarFromBars(bars []Bar) (*Calendar, error) {
	days := make([]Day, len(bars))
	for i, b := range bars {
		days[i] = b.Day
	}
	return NewCalendar(days)
}

// Len 返回交易日数量。
func (c *Calendar) Len() int { return len(c.days) }

// Days 返回交易日副本。
func (c *Calendar) Days() []Day {
	return append([]Day(nil), c.days...)
}

// Index 返回交易日在日历中的位置。
func (c *Calendar) Index(d Day) (int, bool) {
	i, ok := c.index[d]
	return i, ok
}

// Contains 判断是否为有效交易日。
func (c *Calendar) Contains(d Day) bool {
	_, ok := c.index[d]
	return ok
}

// Shift 把交易日 d 沿日历前移 lag 步（lag=0 返回自身）。
// d 不是交易日、或移出日历范围时返回 false，调用方据此丢弃记录。
func (c *Calendar) Shift(d Day, lag int) (Day, bool) {
	i, ok := c.index[d]
	if !ok {
		return 0, false
	}
	j := i + lag
	if j < 0 || j >= len(c.days) {
		return 0, false
	}
	return c.days[j], true
}
