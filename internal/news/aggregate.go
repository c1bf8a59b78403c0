package news

import (
	"math"
	"sort"
	"time"

	"newsedge/internal/market"
)

// DefaultPositiveThreshold 是判定"正面"新闻的默认极性阈值。
const DefaultPositiveThreshold = 0.1

// DailySentiment 是 (instrument, 自然日) 粒度的聚合情感记录。
// 没有新闻的日期不产生记录（稀疏，不补零）。
type DailySentiment struct {
	Instrument       string     `json:"instrument"`
	Day              market.Day `json:"day"`
	MeanPolarity     float64    `json:"mean_polarity"`
	StdPolarity      float64    `json:"std_polarity"`
	MinPolarity      float64    `json:"min_polarity"`
	MaxPolarity      float64    `json:"max_polarity"`
	MeanSubjectivity float64    `json:"mean_subjectivity"`
	ArticleCount     int        `json:"article_count"`
	PositiveCount    int        `json:"positive_count"`
	PositiveShare    float64    `json:"positive_share"`
}

// Aggregate 把打分后的新闻按 (instrument, 自然日) 聚合。
// 时间戳先统一转换到 loc 时区再落桶；盘后发布的新闻仍归属其自然日，
// 不顺延到下一交易日（固定策略）。
// StdPolarity 为样本标准差（n-1），单条新闻的日子记 0。
func Aggregate(headlines []Headline, loc *time.Location, positiveThreshold float64) []DailySentiment {
	if loc == nil {
		loc = time.UTC
	}
	type key struct {
		instrument string
		day        market.Day
	}
	buckets := make(map[key][]Headline)
	for _, h := range headlines {
		k := key{instrument: h.Instrument, day: market.DayOf(h.PublishedAt, loc)}
		buckets[k] = append(buckets[k], h)
	}

	out := make([]DailySentiment, 0, len(buckets))
	for k, items := range buckets {
		rec := DailySentiment{
			Instrument:   k.instrument,
			Day:          k.day,
			ArticleCount: len(items),
			MinPolarity:  math.Inf(1),
			MaxPolarity:  math.Inf(-1),
		}
		sumPol, sumSubj := 0.0, 0.0
		for _, h := range items {
			sumPol += h.Polarity
			sumSubj += h.Subjectivity
			rec.MinPolarity = math.Min(rec.MinPolarity, h.Polarity)
			rec.MaxPolarity = math.Max(rec.MaxPolarity, h.Polarity)
			if h.Polarity > positiveThreshold {
				rec.PositiveCount++
			}
		}
		n := float64(len(items))
		rec.MeanPolarity = sumPol / n
		rec.MeanSubjectivity = sumSubj / n
		rec.PositiveShare = float64(rec.PositiveCount) / n
		if len(items) > 1 {
			sum2 := 0.0
			for _, h := range items {
				d := h.Polarity - rec.MeanPolarity
				sum2 += d * d
			}
			rec.StdPolarity = math.Sqrt(sum2 / (n - 1))
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Instrument != out[j].Instrument {
			return out[i].Instrument < out[j].Instrument
		}
		return out[i].Day < out[j].Day
	})
	return out
}

// OffCalendarCount 统计落在非交易日上的聚合记录数。
// 这些记录会在对齐阶段被内连接丢弃，这里单独给出可上报的数量。
func OffCalendarCount(records []DailySentiment, cal *market.Calendar) int {
	if cal == nil {
		return 0
	}
	n := 0
	for _, r := range records {
		if !cal.Contains(r.Day) {
			n++
		}
	}
	return n
}

// Stats 是整个新闻语料的情感概览。
type Stats struct {
	TotalArticles    int     `json:"total_articles"`
	MeanPolarity     float64 `json:"mean_polarity"`
	StdPolarity      float64 `json:"std_polarity"`
	MeanSubjectivity float64 `json:"mean_subjectivity"`
	PositiveCount    int     `json:"positive_count"`
	NegativeCount    int     `json:"negative_count"`
	NeutralCount     int     `json:"neutral_count"`
}

// Summarize 计算语料级统计。正负判定阈值对称（±threshold）。
func Summarize(headlines []Headline, threshold float64) Stats {
	st := Stats{TotalArticles: len(headlines)}
	if len(headlines) == 0 {
		return st
	}
	sumPol, sumSubj := 0.0, 0.0
	for _, h := range headlines {
		sumPol += h.Polarity
		sumSubj += h.Subjectivity
		switch {
		case h.Polarity > threshold:
			st.PositiveCount++
		case h.Polarity < -threshold:
			st.NegativeCount++
		default:
			st.NeutralCount++
		}
	}
	n := float64(len(headlines))
	st.MeanPolarity = sumPol / n
	st.MeanSubjectivity = sumSubj / n
	if len(headlines) > 1 {
		sum2 := 0.0
		for _, h := range headlines {
			d := h.Polarity - st.MeanPolarity
			sum2 += d * d
		}
		st.StdPolarity = math.Sqrt(sum2 / (n - 1))
	}
	return st
}
