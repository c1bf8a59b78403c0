package align

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsedge/internal/analysis/indicator"
	"newsedge/internal/market"
	"newsedge/internal/news"
)

func mustDay(t *testing.T, s string) market.Day {
	t.Helper()
	d, err := market.ParseDay(s)
	require.NoError(t, err)
	return d
}

func barsOn(t *testing.T, sym string, closes map[string]float64, order []string) []market.Bar {
	t.Helper()
	bars := make([]market.Bar, 0, len(order))
	for _, ds := range order {
		c := closes[ds]
		bars = append(bars, market.Bar{
			Instrument: sym,
			Day:        mustDay(t, ds),
			Open:       c, High: c + 1, Low: c - 1, Close: c,
			Volume: 1000,
		})
	}
	return bars
}

func sentimentOn(t *testing.T, sym string, days ...string) []news.DailySentiment {
	t.Helper()
	out := make([]news.DailySentiment, 0, len(days))
	for i, ds := range days {
		out = append(out, news.DailySentiment{
			Instrument:   sym,
			Day:          mustDay(t, ds),
			MeanPolarity: 0.1 * float64(i+1),
			ArticleCount: i + 1,
		})
	}
	return out
}

// 含休市日的小序列：1月4日与周末休市。
func gappedSeries(t *testing.T) (*indicator.Series, *market.Calendar) {
	t.Helper()
	order := []string{"2024-01-02", "2024-01-03", "2024-01-05", "2024-01-08"}
	closes := map[string]float64{
		"2024-01-02": 100, "2024-01-03": 102,
		"2024-01-05": 101, "2024-01-08": 105,
	}
	bars := barsOn(t, "AAPL", closes, order)
	series, err := indicator.Compute(bars)
	require.NoError(t, err)
	cal, err := market.CalendarFromBars(bars)
	require.NoError(t, err)
	return series, cal
}

func TestJoin(t *testing.T) {
	series, cal := gappedSeries(t)

	t.Run("lag0同日关联", func(t *testing.T) {
		res, err := Join(sentimentOn(t, "AAPL", "2024-01-03"), series, cal, 0)
		require.NoError(t, err)
		require.Len(t, res.Records, 1)
		r := res.Records[0]
		assert.Equal(t, mustDay(t, "2024-01-03"), r.SentimentDay)
		assert.Equal(t, mustDay(t, "2024-01-03"), r.ReturnDay)
		assert.InDelta(t, 0.02, r.DailyReturn, 1e-12)
		assert.Equal(t, 102.0, r.Close)
		assert.Equal(t, 0.1, r.MeanPolarity)
	})

	t.Run("滞后按交易日历跳过休市日", func(t *testing.T) {
		res, err := Join(sentimentOn(t, "AAPL", "2024-01-03"), series, cal, 1)
		require.NoError(t, err)
		require.Len(t, res.Records, 1)
		// 1月4日休市，前移一步落在1月5日
		assert.Equal(t, mustDay(t, "2024-01-05"), res.Records[0].ReturnDay)
		assert.InDelta(t, (101.0-102.0)/102.0, res.Records[0].DailyReturn, 1e-12)
	})

	t.Run("三类丢弃分别计数", func(t *testing.T) {
		sentiment := []news.DailySentiment{
			{Instrument: "AAPL", Day: mustDay(t, "2024-01-06")}, // 周六
			{Instrument: "AAPL", Day: mustDay(t, "2024-01-08")}, // 前移越界
			{Instrument: "AAPL", Day: mustDay(t, "2024-01-02")}, // 目标日
			{Instrument: "AAPL", Day: mustDay(t, "2024-01-05")},
		}
		res, err := Join(sentiment, series, cal, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, res.DroppedOffCalendar)
		assert.Equal(t, 1, res.DroppedOutOfRange)
		assert.Zero(t, res.DroppedNoReturn)
		assert.Len(t, res.Records, 2)
	})

	t.Run("首日无收益按NoReturn丢弃", func(t *testing.T) {
		res, err := Join(sentimentOn(t, "AAPL", "2024-01-02"), series, cal, 0)
		require.NoError(t, err)
		assert.Empty(t, res.Records)
		assert.Equal(t, 1, res.DroppedNoReturn)
	})

	t.Run("样本量随lag单调不增", func(t *testing.T) {
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		var bars []market.Bar
		var sentiment []news.DailySentiment
		for i := 0; i < 40; i++ {
			d := market.DayOf(base.AddDate(0, 0, i), time.UTC)
			c := 100 + float64(i%7)
			bars = append(bars, market.Bar{
				Instrument: "AAPL", Day: d,
				Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1,
			})
			sentiment = append(sentiment, news.DailySentiment{Instrument: "AAPL", Day: d})
		}
		series, err := indicator.Compute(bars)
		require.NoError(t, err)
		cal, err := market.CalendarFromBars(bars)
		require.NoError(t, err)

		prev := len(sentiment) + 1
		for _, lag := range []int{0, 1, 2, 3, 5} {
			res, err := Join(sentiment, series, cal, lag)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(res.Records), prev, "lag=%d", lag)
			prev = len(res.Records)
		}
		res, err := Join(sentiment, series, cal, 2)
		require.NoError(t, err)
		// 末尾2个情感日前移越界
		assert.Len(t, res.Records, 38)
		assert.Equal(t, 2, res.DroppedOutOfRange)
	})

	t.Run("参数错误", func(t *testing.T) {
		_, err := Join(nil, series, cal, -1)
		assert.Error(t, err)
		_, err = Join(nil, series, nil, 1)
		assert.Error(t, err)
		_, err = Join(sentimentOn(t, "MSFT", "2024-01-03"), series, cal, 1)
		assert.Error(t, err)
	})
}
