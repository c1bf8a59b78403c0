package correlate

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"newsedge/internal/analysis/align"
	"newsedge/internal/pkg/nullable"
)

// MinReliableSamples 是相关性结论可用的最低样本量。
// 低于它仍然计算，只是打上 Unreliable 标记，由调用方自行设门槛。
const MinReliableSamples = 10

// Result 是单个 (instrument, lag) 的相关性检验结果。
type Result struct {
	Instrument string         `json:"instrument"`
	LagDays    int            `json:"lag_days"`
	Samples    int            `json:"n_samples"`
	PearsonR   nullable.Float `json:"pearson_r"`
	PearsonP   nullable.Float `json:"pearson_p"`
	SpearmanR  nullable.Float `json:"spearman_r"`
	SpearmanP  nullable.Float `json:"spearman_p"`
	Unreliable bool           `json:"unreliable"`
}

// Analyze 计算情感均值与日收益之间的 Pearson/Spearman 相关及双侧 p 值。
// 样本不足 2 时系数与 p 值都未定义；不足 MinReliableSamples 时打标记，
// 绝不伪造显著性。
func Analyze(res align.Result) Result {
	out := Result{
		Instrument: res.Instrument,
		LagDays:    res.Lag,
		Samples:    len(res.Records),
		PearsonR:   nullable.Undefined(),
		PearsonP:   nullable.Undefined(),
		SpearmanR:  nullable.Undefined(),
		SpearmanP:  nullable.Undefined(),
		Unreliable: len(res.Records) < MinReliableSamples,
	}
	n := len(res.Records)
	if n < 2 {
		return out
	}
	x := make([]float64, n)
	y := make([]float64, n)
	for i, r := range res.Records {
		x[i] = r.MeanPolarity
		y[i] = r.DailyReturn
	}

	pr := stat.Correlation(x, y, nil)
	out.PearsonR = nullable.Of(pr)
	out.PearsonP = nullable.Float(pValue(pr, n))

	sr := stat.Correlation(ranks(x), ranks(y), nil)
	out.SpearmanR = nullable.Of(sr)
	out.SpearmanP = nullable.Float(pValue(sr, n))
	return out
}

// Sweep 对一组 lag 的对齐结果依次做相关性检验，输出按 lag 升序。
func Sweep(results []align.Result) []Result {
	out := make([]Result, 0, len(results))
	for _, r := range results {
		out = append(out, Analyze(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LagDays < out[j].LagDays })
	return out
}

// pValue 用 Student-t 近似计算双侧 p 值：t = r·sqrt((n-2)/(1-r²))，自由度 n-2。
// |r|=1 时 p=0；n<3 或 r 退化（如常数序列）时返回 NaN。
func pValue(r float64, n int) float64 {
	if n < 3 || math.IsNaN(r) {
		return math.NaN()
	}
	if math.Abs(r) >= 1 {
		return 0
	}
	t := r * math.Sqrt(float64(n-2)/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}
	return 2 * dist.Survival(math.Abs(t))
}

// ranks 返回平均秩（并列取平均），Spearman 的标准约定。
func ranks(values []float64) []float64 {
	n := len(values)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })
	out := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		// 并列区间 [i,j] 共享平均秩（秩从 1 开始）
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			out[idx[k]] = avg
		}
		i = j + 1
	}
	return out
}

// BucketStats 是按情感类别切分后的收益统计（正面/负面/中性日）。
type BucketStats struct {
	Bucket          string         `json:"bucket"`
	Days            int            `json:"days"`
	MeanReturn      nullable.Float `json:"mean_return"`
	MedianReturn    nullable.Float `json:"median_return"`
	StdReturn       nullable.Float `json:"std_return"`
	PositiveDays    int            `json:"positive_days"`
	PositiveDayRate nullable.Float `json:"positive_day_rate"`
}

// ByBucket 按情感极性把对齐样本切成 positive/negative/neutral 三组，
// 分别统计收益分布。阈值对称（±threshold）。
func ByBucket(res align.Result, threshold float64) []BucketStats {
	groups := map[string][]float64{}
	for _, r := range res.Records {
		bucket := "neutral"
		switch {
		case r.MeanPolarity > threshold:
			bucket = "positive"
		case r.MeanPolarity < -threshold:
			bucket = "negative"
		}
		groups[bucket] = append(groups[bucket], r.DailyReturn)
	}
	out := make([]BucketStats, 0, 3)
	for _, name := range []string{"positive", "negative", "neutral"} {
		returns, ok := groups[name]
		if !ok {
			continue
		}
		st := BucketStats{
			Bucket:       name,
			Days:         len(returns),
			MeanReturn:   nullable.Of(stat.Mean(returns, nil)),
			MedianReturn: nullable.Of(median(returns)),
			StdReturn:    nullable.Undefined(),
		}
		if len(returns) > 1 {
			st.StdReturn = nullable.Of(math.Sqrt(stat.Variance(returns, nil)))
		}
		for _, r := range returns {
			if r > 0 {
				st.PositiveDays++
			}
		}
		st.PositiveDayRate = nullable.Of(float64(st.PositiveDays) / float64(len(returns)))
		out = append(out, st)
	}
	return out
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
