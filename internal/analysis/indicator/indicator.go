package indicator

import (
	"fmt"
	"math"

	"newsedge/internal/market"
)

// Series 保存单个 instrument 的派生指标序列，各切片与输入日线一一对齐。
// 窗口未满处的值为 NaN（语义为"缺失"），不会用短窗口或补零计算；
// 调用方用 Defined 判断后再消费。
type Series struct {
	Instrument string
	Days       []market.Day
	Close      []float64

	DailyReturn []float64
	SMA20       []float64
	SMA50       []float64
	SMA200      []float64
	EMA12       []float64
	EMA26       []float64
	RSI14       []float64
	MACD        []float64
	MACDSignal  []float64
	MACDHist    []float64
	BBUpper     []float64
	BBMid       []float64
	BBLower     []float64
	ATR14       []float64

	index map[market.Day]int
}

// Defined 判断指标值是否有效（NaN 为缺失哨兵）。
func Defined(v float64) bool { return !math.IsNaN(v) }

// Len 返回序列长度。
func (s *Series) Len() int { return len(s.Days) }

// IndexOf 返回交易日对应的下标。
func (s *Series) IndexOf(d market.Day) (int, bool) {
	i, ok := s.index[d]
	return i, ok
}

// ReturnOn 返回指定交易日的日收益率。
func (s *Series) ReturnOn(d market.Day) (float64, bool) {
	i, ok := s.index[d]
	if !ok || i >= len(s.DailyReturn) || !Defined(s.DailyReturn[i]) {
		return 0, false
	}
	return s.DailyReturn[i], true
}

// Compute 按固定公式集从日线序列派生指标。
// 公式约定（与 TALib 对应口径一致，便于交叉验证）：
//   - EMA_N 以前 N 个收盘价的简单均值为种子，α=2/(N+1)；
//   - RSI/ATR 使用 Wilder 平滑（α=1/period），均线种子为首个窗口的简单均值；
//   - 布林带使用总体标准差（分母 N），上下轨为 mid ± 2σ；
//   - MACD signal 是 MACD 有效段上的 EMA_9。
// 少于 2 根日线时返回只含 Days/Close 的空结果，不是错误。
func Compute(bars []market.Bar) (*Series, error) {
	if err := market.ValidateBars(bars); err != nil {
		return nil, err
	}
	s := &Series{
		Days:  make([]market.Day, len(bars)),
		Close: make([]float64, len(bars)),
		index: make(map[market.Day]int, len(bars)),
	}
	if len(bars) > 0 {
		s.Instrument = bars[0].Instrument
	}
	for i, b := range bars {
		s.Days[i] = b.Day
		s.Close[i] = b.Close
		s.index[b.Day] = i
	}
	if len(bars) < 2 {
		return s, nil
	}
	for i, c := range s.Close {
		if c <= 0 {
			return nil, fmt.Errorf("indicator: %s 第 %d 根收盘价非正 (%v)", s.Instrument, i, c)
		}
	}

	s.DailyReturn = dailyReturns(s.Close)
	s.SMA20 = SMA(s.Close, 20)
	s.SMA50 = SMA(s.Close, 50)
	s.SMA200 = SMA(s.Close, 200)
	s.EMA12 = EMA(s.Close, 12)
	s.EMA26 = EMA(s.Close, 26)
	s.RSI14 = RSI(s.Close, 14)
	s.MACD, s.MACDSignal, s.MACDHist = MACD(s.Close, 12, 26, 9)
	s.BBMid, s.BBUpper, s.BBLower = Bollinger(s.Close, 20, 2)
	s.ATR14 = ATR(bars, 14)
	return s, nil
}

func dailyReturns(closes []float64) []float64 {
	out := nanSlice(len(closes))
	for i := 1; i < len(closes); i++ {
		out[i] = (closes[i] - closes[i-1]) / closes[i-1]
	}
	return out
}

// SMA 计算简单移动平均，前 period-1 个值缺失。
func SMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA 计算指数移动平均：在第 period-1 个位置用简单均值做种子，
// 之后递推 out[t] = α·v[t] + (1-α)·out[t-1]，α = 2/(period+1)。
func EMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	alpha := 2.0 / float64(period+1)
	seed := 0.0
	for i := 0; i < period; i++ {
		seed += values[i]
	}
	out[period-1] = seed / float64(period)
	for i := period; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// RSI 计算相对强弱指数（Wilder 平滑）。
// avg_loss 为 0 时 RSI=100，除零在公式层面消解，不向上抛错。
func RSI(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if period <= 0 || len(closes) < period+1 {
		return out
	}
	avgGain, avgLoss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)
	for i := period + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACD 返回 macd/signal/histogram 三条线。
// signal 是 macd 有效段上的 EMA（signalPeriod），histogram = macd - signal。
func MACD(closes []float64, fast, slow, signalPeriod int) (macd, signal, hist []float64) {
	n := len(closes)
	macd = nanSlice(n)
	signal = nanSlice(n)
	hist = nanSlice(n)
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)
	firstDefined := -1
	for i := 0; i < n; i++ {
		if Defined(emaFast[i]) && Defined(emaSlow[i]) {
			macd[i] = emaFast[i] - emaSlow[i]
			if firstDefined < 0 {
				firstDefined = i
			}
		}
	}
	if firstDefined < 0 || n-firstDefined < signalPeriod {
		return macd, signal, hist
	}
	sigDense := EMA(macd[firstDefined:], signalPeriod)
	for i, v := range sigDense {
		if !Defined(v) {
			continue
		}
		signal[firstDefined+i] = v
		hist[firstDefined+i] = macd[firstDefined+i] - v
	}
	return macd, signal, hist
}

// Bollinger 返回中轨（SMA）与上下轨（mid ± width·σ，总体标准差）。
func Bollinger(closes []float64, period int, width float64) (mid, upper, lower []float64) {
	n := len(closes)
	mid = SMA(closes, period)
	upper = nanSlice(n)
	lower = nanSlice(n)
	if period <= 0 || n < period {
		return mid, upper, lower
	}
	for i := period - 1; i < n; i++ {
		mean := mid[i]
		sum2 := 0.0
		for j := i - period + 1; j <= i; j++ {
			d := closes[j] - mean
			sum2 += d * d
		}
		sigma := math.Sqrt(sum2 / float64(period))
		upper[i] = mean + width*sigma
		lower[i] = mean - width*sigma
	}
	return mid, upper, lower
}

// ATR 计算 Wilder 平滑的平均真实波幅。
func ATR(bars []market.Bar, period int) []float64 {
	out := nanSlice(len(bars))
	if period <= 0 || len(bars) < period+1 {
		return out
	}
	tr := make([]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		high, low, prevClose := bars[i].High, bars[i].Low, bars[i-1].Close
		tr[i] = math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
	}
	sum := 0.0
	for i := 1; i <= period; i++ {
		sum += tr[i]
	}
	atr := sum / float64(period)
	out[period] = atr
	for i := period + 1; i < len(bars); i++ {
		atr = (atr*float64(period-1) + tr[i]) / float64(period)
		out[i] = atr
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
