package correlate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsedge/internal/analysis/align"
)

func alignedResult(sym string, lag int, polarity, returns []float64) align.Result {
	res := align.Result{Instrument: sym, Lag: lag}
	for i := range polarity {
		res.Records = append(res.Records, align.Record{
			Instrument:   sym,
			MeanPolarity: polarity[i],
			DailyReturn:  returns[i],
		})
	}
	return res
}

func TestAnalyze(t *testing.T) {
	t.Run("完全线性相关", func(t *testing.T) {
		x := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}
		y := make([]float64, len(x))
		for i, v := range x {
			y[i] = 3*v - 0.5
		}
		out := Analyze(alignedResult("AAPL", 1, x, y))
		assert.Equal(t, 10, out.Samples)
		assert.False(t, out.Unreliable)
		require.True(t, out.PearsonR.Defined())
		assert.InDelta(t, 1.0, out.PearsonR.Value(), 1e-9)
		assert.InDelta(t, 0.0, out.PearsonP.Value(), 1e-9)
		assert.InDelta(t, 1.0, out.SpearmanR.Value(), 1e-9)
	})

	t.Run("完全负相关", func(t *testing.T) {
		x := []float64{1, 2, 3, 4, 5}
		y := []float64{10, 8, 6, 4, 2}
		out := Analyze(alignedResult("AAPL", 0, x, y))
		assert.InDelta(t, -1.0, out.PearsonR.Value(), 1e-9)
		assert.InDelta(t, -1.0, out.SpearmanR.Value(), 1e-9)
	})

	t.Run("样本不足2时全部未定义", func(t *testing.T) {
		out := Analyze(alignedResult("AAPL", 1, []float64{0.5}, []float64{0.01}))
		assert.Equal(t, 1, out.Samples)
		assert.True(t, out.Unreliable)
		assert.False(t, out.PearsonR.Defined())
		assert.False(t, out.PearsonP.Defined())
		assert.False(t, out.SpearmanR.Defined())
		assert.False(t, out.SpearmanP.Defined())
	})

	t.Run("样本少于10打Unreliable标记但仍计算", func(t *testing.T) {
		x := []float64{1, 2, 3, 4}
		y := []float64{2, 3, 5, 4}
		out := Analyze(alignedResult("AAPL", 2, x, y))
		assert.True(t, out.Unreliable)
		assert.True(t, out.PearsonR.Defined())
	})

	t.Run("常数序列相关未定义", func(t *testing.T) {
		x := []float64{0.2, 0.2, 0.2, 0.2}
		y := []float64{0.01, -0.02, 0.03, 0.0}
		out := Analyze(alignedResult("AAPL", 1, x, y))
		assert.False(t, out.PearsonR.Defined())
		assert.False(t, out.PearsonP.Defined())
	})

	t.Run("Spearman对单调非线性不变", func(t *testing.T) {
		x := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
		y := make([]float64, len(x))
		for i, v := range x {
			y[i] = math.Exp(v)
		}
		out := Analyze(alignedResult("AAPL", 1, x, y))
		assert.InDelta(t, 1.0, out.SpearmanR.Value(), 1e-9)
		assert.Less(t, out.PearsonR.Value(), 1.0)
	})
}

func TestPValueMagnitude(t *testing.T) {
	// r=0.5, n=20: t≈2.449, df=18, 双侧 p≈0.0249
	p := pValue(0.5, 20)
	assert.InDelta(t, 0.0249, p, 5e-4)
	// 无相关时 p 接近 1
	assert.InDelta(t, 1.0, pValue(0.0, 20), 1e-9)
	assert.True(t, math.IsNaN(pValue(0.3, 2)))
}

func TestRanks(t *testing.T) {
	t.Run("并列取平均秩", func(t *testing.T) {
		got := ranks([]float64{10, 20, 20, 30})
		assert.Equal(t, []float64{1, 2.5, 2.5, 4}, got)
	})
	t.Run("逆序", func(t *testing.T) {
		got := ranks([]float64{3, 2, 1})
		assert.Equal(t, []float64{3, 2, 1}, got)
	})
}

func TestSweep(t *testing.T) {
	x := []float64{1, 2, 3}
	y := []float64{1, 2, 3}
	results := []align.Result{
		alignedResult("AAPL", 5, x, y),
		alignedResult("AAPL", 0, x, y),
		alignedResult("AAPL", 2, x, y),
	}
	out := Sweep(results)
	require.Len(t, out, 3)
	assert.Equal(t, []int{0, 2, 5}, []int{out[0].LagDays, out[1].LagDays, out[2].LagDays})
}

func TestByBucket(t *testing.T) {
	res := alignedResult("AAPL", 1,
		[]float64{0.5, 0.3, -0.4, 0.0, 0.05},
		[]float64{0.02, 0.01, -0.03, 0.005, -0.01})
	buckets := ByBucket(res, 0.1)
	require.Len(t, buckets, 3)

	byName := map[string]BucketStats{}
	for _, b := range buckets {
		byName[b.Bucket] = b
	}
	pos := byName["positive"]
	assert.Equal(t, 2, pos.Days)
	assert.InDelta(t, 0.015, pos.MeanReturn.Value(), 1e-12)
	assert.Equal(t, 2, pos.PositiveDays)

	neg := byName["negative"]
	assert.Equal(t, 1, neg.Days)
	assert.False(t, neg.StdReturn.Defined())
	assert.Equal(t, -0.03, neg.MedianReturn.Value())

	neu := byName["neutral"]
	assert.Equal(t, 2, neu.Days)
	assert.Equal(t, 1, neu.PositiveDays)
	assert.InDelta(t, 0.5, neu.PositiveDayRate.Value(), 1e-12)
}
