package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDay(t *testing.T, s string) Day {
	t.Helper()
	d, err := ParseDay(s)
	require.NoError(t, err)
	return d
}

func TestDayOf(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	t.Run("盘后新闻归属纽约当日", func(t *testing.T) {
		// UTC 的 1 月 16 日 01:30 在纽约还是 1 月 15 日晚间
		ts := time.Date(2024, 1, 16, 1, 30, 0, 0, time.UTC)
		assert.Equal(t, mustDay(t, "2024-01-15"), DayOf(ts, ny))
		assert.Equal(t, mustDay(t, "2024-01-16"), DayOf(ts, time.UTC))
	})
	t.Run("nil时区按UTC", func(t *testing.T) {
		ts := time.Date(2024, 3, 5, 23, 59, 0, 0, time.UTC)
		assert.Equal(t, mustDay(t, "2024-03-05"), DayOf(ts, nil))
	})
}

func TestDayRoundTrip(t *testing.T) {
	d := mustDay(t, "2024-06-28")
	assert.Equal(t, "2024-06-28", d.String())
	assert.Equal(t, time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC), d.Time())

	_, err := ParseDay("06/28/2024")
	assert.Error(t, err)
}

func TestValidateBars(t *testing.T) {
	mk := func(sym, day string) Bar {
		return Bar{Instrument: sym, Day: mustDay(t, day), Open: 1, High: 1, Low: 1, Close: 1}
	}
	t.Run("合法序列", func(t *testing.T) {
		bars := []Bar{mk("AAPL", "2024-01-02"), mk("AAPL", "2024-01-03")}
		assert.NoError(t, ValidateBars(bars))
		assert.NoError(t, ValidateBars(nil))
	})
	t.Run("instrument不一致", func(t *testing.T) {
		bars := []Bar{mk("AAPL", "2024-01-02"), mk("MSFT", "2024-01-03")}
		assert.Error(t, ValidateBars(bars))
	})
	t.Run("日期重复", func(t *testing.T) {
		bars := []Bar{mk("AAPL", "2024-01-02"), mk("AAPL", "2024-01-02")}
		assert.Error(t, ValidateBars(bars))
	})
	t.Run("日期乱序", func(t *testing.T) {
		bars := []Bar{mk("AAPL", "2024-01-03"), mk("AAPL", "2024-01-02")}
		assert.Error(t, ValidateBars(bars))
	})
}

func TestCalendarShift(t *testing.T) {
	days := []Day{
		mustDay(t, "2024-01-02"),
		mustDay(t, "2024-01-03"),
		mustDay(t, "2024-01-05"), // 跳过一个休市日
		mustDay(t, "2024-01-08"),
	}
	cal, err := NewCalendar(days)
	require.NoError(t, err)
	assert.Equal(t, 4, cal.Len())

	t.Run("按日历步进跳过休市日", func(t *testing.T) {
		got, ok := cal.Shift(mustDay(t, "2024-01-03"), 1)
		require.True(t, ok)
		assert.Equal(t, mustDay(t, "2024-01-05"), got)
	})
	t.Run("lag为0返回自身", func(t *testing.T) {
		got, ok := cal.Shift(days[0], 0)
		require.True(t, ok)
		assert.Equal(t, days[0], got)
	})
	t.Run("移出末尾返回false", func(t *testing.T) {
		_, ok := cal.Shift(days[3], 1)
		assert.False(t, ok)
	})
	t.Run("非交易日返回false", func(t *testing.T) {
		_, ok := cal.Shift(mustDay(t, "2024-01-04"), 1)
		assert.False(t, ok)
		assert.False(t, cal.Contains(mustDay(t, "2024-01-04")))
	})
}

func TestCalendarRejectsDisorder(t *testing.T) {
	_, err := NewCalendar([]Day{mustDay(t, "2024-01-03"), mustDay(t, "2024-01-02")})
	assert.Error(t, err)
	_, err = NewCalendar([]Day{mustDay(t, "2024-01-02"), mustDay(t, "2024-01-02")})
	assert.Error(t, err)
}
