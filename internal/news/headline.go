package news

import (
	"context"
	"time"

	"newsedge/internal/market"
)

// RawHeadline 是 ingestion 侧提供的原始新闻条目（未打分）。
type RawHeadline struct {
	Instrument  string    `json:"instrument"`
	Headline    string    `json:"headline"`
	URL         string    `json:"url,omitempty"`
	Publisher   string    `json:"publisher,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Headline 是打分后的新闻条目：polarity ∈ [-1,1]，subjectivity ∈ [0,1]。
// 打分后不可变。
type Headline struct {
	Instrument   string    `json:"instrument"`
	PublishedAt  time.Time `json:"published_at"`
	Polarity     float64   `json:"polarity"`
	Subjectivity float64   `json:"subjectivity"`
}

// HeadlineSource 统一新闻来源（CSV 数据集、远端 API）的读取行为。
type HeadlineSource interface {
	Headlines(ctx context.Context, instrument string, from, to market.Day) ([]RawHeadline, error)
	Name() string
}

// Scorer 把一段文本映射为 (polarity, subjectivity)。
// 引擎只依赖这一签名，不关心打分算法本身。
type Scorer interface {
	Score(text string) (polarity, subjectivity float64)
}

// ScoreAll 用给定 Scorer 为原始条目批量打分。
func ScoreAll(raws []RawHeadline, scorer Scorer) []Headline {
	out := make([]Headline, 0, len(raws))
	for _, r := range raws {
		p, s := scorer.Score(r.Headline)
		out = append(out, Headline{
			Instrument:   r.Instrument,
			PublishedAt:  r.PublishedAt,
			Polarity:     clamp(p, -1, 1),
			Subjectivity: clamp(s, 0, 1),
		})
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
