package news

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsedge/internal/market"
)

func day(t *testing.T, s string) market.Day {
	t.Helper()
	d, err := market.ParseDay(s)
	require.NoError(t, err)
	return d
}

func headlineAt(sym string, ts time.Time, polarity float64) Headline {
	return Headline{Instrument: sym, PublishedAt: ts, Polarity: polarity, Subjectivity: 0.5}
}

func TestAggregate(t *testing.T) {
	noon := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	t.Run("单日多条的均值与计数", func(t *testing.T) {
		headlines := []Headline{
			headlineAt("AAPL", noon, 0.2),
			headlineAt("AAPL", noon.Add(time.Hour), 0.4),
			headlineAt("AAPL", noon.Add(2*time.Hour), -0.1),
		}
		recs := Aggregate(headlines, time.UTC, DefaultPositiveThreshold)
		require.Len(t, recs, 1)
		r := recs[0]
		assert.Equal(t, "AAPL", r.Instrument)
		assert.Equal(t, day(t, "2024-01-15"), r.Day)
		assert.Equal(t, 3, r.ArticleCount)
		assert.InDelta(t, 0.166667, r.MeanPolarity, 1e-6)
		assert.InDelta(t, 0.251661, r.StdPolarity, 1e-6)
		assert.Equal(t, -0.1, r.MinPolarity)
		assert.Equal(t, 0.4, r.MaxPolarity)
		assert.Equal(t, 2, r.PositiveCount)
		assert.InDelta(t, 2.0/3.0, r.PositiveShare, 1e-12)
	})

	t.Run("单条新闻标准差为零", func(t *testing.T) {
		recs := Aggregate([]Headline{headlineAt("AAPL", noon, 0.3)}, time.UTC, DefaultPositiveThreshold)
		require.Len(t, recs, 1)
		assert.Zero(t, recs[0].StdPolarity)
		assert.Equal(t, 0.3, recs[0].MinPolarity)
		assert.Equal(t, 0.3, recs[0].MaxPolarity)
	})

	t.Run("时区决定落桶日期", func(t *testing.T) {
		ny, err := time.LoadLocation("America/New_York")
		require.NoError(t, err)
		// UTC 01:00 是纽约前一天晚上
		evening := time.Date(2024, 1, 16, 1, 0, 0, 0, time.UTC)
		recs := Aggregate([]Headline{headlineAt("AAPL", evening, 0.2)}, ny, DefaultPositiveThreshold)
		require.Len(t, recs, 1)
		assert.Equal(t, day(t, "2024-01-15"), recs[0].Day)

		recs = Aggregate([]Headline{headlineAt("AAPL", evening, 0.2)}, time.UTC, DefaultPositiveThreshold)
		require.Len(t, recs, 1)
		assert.Equal(t, day(t, "2024-01-16"), recs[0].Day)
	})

	t.Run("按instrument和日期排序", func(t *testing.T) {
		headlines := []Headline{
			headlineAt("MSFT", noon, 0.1),
			headlineAt("AAPL", noon.Add(24*time.Hour), 0.1),
			headlineAt("AAPL", noon, 0.1),
		}
		recs := Aggregate(headlines, time.UTC, DefaultPositiveThreshold)
		require.Len(t, recs, 3)
		assert.Equal(t, "AAPL", recs[0].Instrument)
		assert.Equal(t, day(t, "2024-01-15"), recs[0].Day)
		assert.Equal(t, day(t, "2024-01-16"), recs[1].Day)
		assert.Equal(t, "MSFT", recs[2].Instrument)
	})

	t.Run("空输入返回空切片", func(t *testing.T) {
		assert.Empty(t, Aggregate(nil, time.UTC, DefaultPositiveThreshold))
	})
}

func TestOffCalendarCount(t *testing.T) {
	cal, err := market.NewCalendar([]market.Day{day(t, "2024-01-15"), day(t, "2024-01-16")})
	require.NoError(t, err)
	recs := []DailySentiment{
		{Instrument: "AAPL", Day: day(t, "2024-01-13")}, // 周六
		{Instrument: "AAPL", Day: day(t, "2024-01-15")},
		{Instrument: "AAPL", Day: day(t, "2024-01-16")},
	}
	assert.Equal(t, 1, OffCalendarCount(recs, cal))
	assert.Zero(t, OffCalendarCount(recs, nil))
}

func TestSummarize(t *testing.T) {
	noon := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	headlines := []Headline{
		headlineAt("AAPL", noon, 0.5),
		headlineAt("AAPL", noon, -0.3),
		headlineAt("AAPL", noon, 0.05),
		headlineAt("AAPL", noon, 0.0),
	}
	st := Summarize(headlines, DefaultPositiveThreshold)
	assert.Equal(t, 4, st.TotalArticles)
	assert.Equal(t, 1, st.PositiveCount)
	assert.Equal(t, 1, st.NegativeCount)
	assert.Equal(t, 2, st.NeutralCount)
	assert.InDelta(t, 0.0625, st.MeanPolarity, 1e-12)

	empty := Summarize(nil, DefaultPositiveThreshold)
	assert.Zero(t, empty.TotalArticles)
	assert.Zero(t, empty.MeanPolarity)
}

func TestScoreAll(t *testing.T) {
	noon := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	raws := []RawHeadline{
		{Instrument: "AAPL", Headline: "a", PublishedAt: noon},
		{Instrument: "AAPL", Headline: "b", PublishedAt: noon},
	}
	scored := ScoreAll(raws, scorerFunc(func(text string) (float64, float64) {
		if text == "a" {
			return 2.0, -0.5 // 超界，应被截断
		}
		return -0.4, 0.9
	}))
	require.Len(t, scored, 2)
	assert.Equal(t, 1.0, scored[0].Polarity)
	assert.Zero(t, scored[0].Subjectivity)
	assert.Equal(t, -0.4, scored[1].Polarity)
	assert.Equal(t, 0.9, scored[1].Subjectivity)
}

type scorerFunc func(text string) (float64, float64)

func (f scorerFunc) Score(text string) (float64, float64) { return f(text) }
