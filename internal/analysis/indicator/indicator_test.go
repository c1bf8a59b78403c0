package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsedge/internal/market"
)

func testDay(i int) market.Day {
	base, _ := market.ParseDay("2024-01-02")
	return base + market.Day(i*86400)
}

func barsFromCloses(instrument string, closes []float64) []market.Bar {
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{
			Instrument: instrument,
			Day:        testDay(i),
			Open:       c,
			High:       c * 1.01,
			Low:        c * 0.99,
			Close:      c,
			Volume:     1000,
		}
	}
	return bars
}

func TestSMA(t *testing.T) {
	t.Run("已知序列", func(t *testing.T) {
		got := SMA([]float64{100, 102, 101, 105, 110}, 3)
		assert.False(t, Defined(got[0]))
		assert.False(t, Defined(got[1]))
		assert.InDelta(t, 101.0, got[2], 1e-9)
		assert.InDelta(t, 102.666667, got[3], 1e-6)
		assert.InDelta(t, 105.333333, got[4], 1e-6)
	})
	t.Run("窗口未满全缺失", func(t *testing.T) {
		got := SMA([]float64{1, 2}, 3)
		for _, v := range got {
			assert.False(t, Defined(v))
		}
	})
}

func TestEMA(t *testing.T) {
	t.Run("种子是前N个的简单均值", func(t *testing.T) {
		got := EMA([]float64{10, 20, 30, 40}, 3)
		assert.False(t, Defined(got[0]))
		assert.False(t, Defined(got[1]))
		assert.InDelta(t, 20.0, got[2], 1e-9)
		// alpha = 0.5: 0.5*40 + 0.5*20
		assert.InDelta(t, 30.0, got[3], 1e-9)
	})
	t.Run("常数序列不漂移", func(t *testing.T) {
		values := make([]float64, 50)
		for i := range values {
			values[i] = 7.5
		}
		got := EMA(values, 12)
		for i := 11; i < len(got); i++ {
			assert.InDelta(t, 7.5, got[i], 1e-12)
		}
	})
}

func TestRSI(t *testing.T) {
	t.Run("全涨序列为100", func(t *testing.T) {
		closes := make([]float64, 20)
		for i := range closes {
			closes[i] = 100 + float64(i)
		}
		got := RSI(closes, 14)
		assert.False(t, Defined(got[13]))
		for i := 14; i < len(got); i++ {
			assert.Equal(t, 100.0, got[i])
		}
	})
	t.Run("值域在0到100之间", func(t *testing.T) {
		closes := []float64{44, 44.34, 44.09, 43.61, 44.33, 44.83, 45.1, 45.42,
			45.84, 46.08, 45.89, 46.03, 45.61, 46.28, 46.28, 46.0, 46.03, 46.41,
			46.22, 45.64, 46.21, 46.25, 45.71, 46.45, 45.78, 45.35, 44.03, 44.18}
		got := RSI(closes, 14)
		for i := 14; i < len(got); i++ {
			require.True(t, Defined(got[i]))
			assert.GreaterOrEqual(t, got[i], 0.0)
			assert.LessOrEqual(t, got[i], 100.0)
		}
	})
}

func TestMACD(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + 5*math.Sin(float64(i)/7)
	}
	macd, signal, hist := MACD(closes, 12, 26, 9)
	// macd 自慢线种子处有效，signal 再晚 signalPeriod-1 个点
	assert.False(t, Defined(macd[24]))
	assert.True(t, Defined(macd[25]))
	assert.False(t, Defined(signal[32]))
	assert.True(t, Defined(signal[33]))
	for i := 33; i < len(closes); i++ {
		assert.InDelta(t, macd[i]-signal[i], hist[i], 1e-12)
	}
}

func TestBollinger(t *testing.T) {
	closes := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	mid, upper, lower := Bollinger(closes, 8, 2)
	require.True(t, Defined(mid[7]))
	// mean=5，总体σ=2
	assert.InDelta(t, 5.0, mid[7], 1e-9)
	assert.InDelta(t, 9.0, upper[7], 1e-9)
	assert.InDelta(t, 1.0, lower[7], 1e-9)
	for i := 0; i < 7; i++ {
		assert.False(t, Defined(upper[i]))
	}
}

func TestATR(t *testing.T) {
	bars := []market.Bar{
		{Instrument: "X", Day: testDay(0), High: 12, Low: 10, Close: 11},
		{Instrument: "X", Day: testDay(1), High: 13, Low: 11, Close: 12},
		{Instrument: "X", Day: testDay(2), High: 14, Low: 11, Close: 13},
		{Instrument: "X", Day: testDay(3), High: 15, Low: 13, Close: 14},
	}
	got := ATR(bars, 2)
	assert.False(t, Defined(got[0]))
	assert.False(t, Defined(got[1]))
	// TR = [-, 2, 3, 2]，种子 (2+3)/2=2.5，再 Wilder: (2.5+2)/2=2.25
	assert.InDelta(t, 2.5, got[2], 1e-9)
	assert.InDelta(t, 2.25, got[3], 1e-9)
}

func TestCompute(t *testing.T) {
	t.Run("少于两根返回空派生序列", func(t *testing.T) {
		s, err := Compute(barsFromCloses("AAPL", []float64{100}))
		require.NoError(t, err)
		assert.Equal(t, 1, s.Len())
		assert.Nil(t, s.SMA20)
		assert.Nil(t, s.DailyReturn)
	})
	t.Run("非正收盘价报错", func(t *testing.T) {
		_, err := Compute(barsFromCloses("AAPL", []float64{100, -1, 102}))
		require.Error(t, err)
	})
	t.Run("乱序日线报错", func(t *testing.T) {
		bars := barsFromCloses("AAPL", []float64{100, 101, 102})
		bars[1], bars[2] = bars[2], bars[1]
		_, err := Compute(bars)
		require.Error(t, err)
	})
	t.Run("日收益与下标查询", func(t *testing.T) {
		s, err := Compute(barsFromCloses("AAPL", []float64{100, 110, 99}))
		require.NoError(t, err)
		assert.False(t, Defined(s.DailyReturn[0]))
		ret, ok := s.ReturnOn(testDay(1))
		require.True(t, ok)
		assert.InDelta(t, 0.10, ret, 1e-9)
		_, ok = s.ReturnOn(testDay(0))
		assert.False(t, ok)
		_, ok = s.ReturnOn(testDay(99))
		assert.False(t, ok)
	})
	t.Run("长窗口指标在短序列上全缺失", func(t *testing.T) {
		s, err := Compute(barsFromCloses("AAPL", mkRange(30)))
		require.NoError(t, err)
		for _, v := range s.SMA200 {
			assert.False(t, Defined(v))
		}
		assert.True(t, Defined(s.SMA20[19]))
		assert.False(t, Defined(s.SMA20[18]))
	})
}

func mkRange(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + float64(i)
	}
	return out
}
