package align

import (
	"fmt"

	"newsedge/internal/analysis/indicator"
	"newsedge/internal/market"
	"newsedge/internal/news"
)

// Record 是一条对齐后的样本：日期 D 的情感对应 D+lag 交易日的收益。
type Record struct {
	Instrument   string     `json:"instrument"`
	SentimentDay market.Day `json:"sentiment_day"`
	ReturnDay    market.Day `json:"return_day"`
	Close        float64    `json:"close"`
	DailyReturn  float64    `json:"daily_return"`
	MeanPolarity float64    `json:"mean_polarity"`
	ArticleCount int        `json:"article_count"`
}

// Result 携带对齐样本与各类丢弃计数。丢弃是内连接的既定行为，
// 但数量必须可上报，供调用方核对有效样本量。
type Result struct {
	Instrument         string   `json:"instrument"`
	Lag                int      `json:"lag"`
	Records            []Record `json:"records"`
	DroppedOffCalendar int      `json:"dropped_off_calendar"`
	DroppedOutOfRange  int      `json:"dropped_out_of_range"`
	DroppedNoReturn    int      `json:"dropped_no_return"`
}

// Join 把日度情感与指标序列按 (instrument, 交易日) 内连接，
// 情感日 D 沿交易日历前移 lag 步后取收益。lag=0 表示同日关联。
// 三类丢弃：D 不是交易日、D+lag 越过序列末尾、目标日收益缺失。
func Join(sentiment []news.DailySentiment, series *indicator.Series, cal *market.Calendar, lag int) (Result, error) {
	res := Result{Instrument: series.Instrument, Lag: lag}
	if lag < 0 {
		return res, fmt.Errorf("align: lag 必须 >= 0，得到 %d", lag)
	}
	if cal == nil {
		return res, fmt.Errorf("align: calendar 不能为空")
	}
	for _, s := range sentiment {
		if s.Instrument != series.Instrument {
			return res, fmt.Errorf("align: instrument 不一致 (%s != %s)", s.Instrument, series.Instrument)
		}
		target, ok := cal.Shift(s.Day, lag)
		if !ok {
			if cal.Contains(s.Day) {
				res.DroppedOutOfRange++
			} else {
				res.DroppedOffCalendar++
			}
			continue
		}
		idx, ok := series.IndexOf(target)
		if !ok {
			res.DroppedOutOfRange++
			continue
		}
		ret, ok := series.ReturnOn(target)
		if !ok {
			res.DroppedNoReturn++
			continue
		}
		res.Records = append(res.Records, Record{
			Instrument:   s.Instrument,
			SentimentDay: s.Day,
			ReturnDay:    target,
			Close:        series.Close[idx],
			DailyReturn:  ret,
			MeanPolarity: s.MeanPolarity,
			ArticleCount: s.ArticleCount,
		})
	}
	return res, nil
}
