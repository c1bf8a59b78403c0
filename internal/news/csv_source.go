package news

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"newsedge/internal/market"
)

// 数据集里常见的几种时间格式，按顺序尝试。
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// CSVSource 读取 FNSPID 风格的新闻 CSV
// （headline,url,publisher,date,stock 五列，顺序不限）。
type CSVSource struct {
	path string
}

func NewCSVSource(path string) (*CSVSource, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("news csv source: 路径不能为空")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("news csv source: %w", err)
	}
	return &CSVSource{path: path}, nil
}

func (s *CSVSource) Name() string { return "csv" }

// Headlines 返回指定 instrument 在 [from,to] 区间内的原始新闻。
// instrument 为空表示不过滤；from/to 为 0 表示不限制。
func (s *CSVSource) Headlines(ctx context.Context, instrument string, from, to market.Day) ([]RawHeadline, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readHeadlines(f, strings.ToUpper(strings.TrimSpace(instrument)), from, to)
}

func readHeadlines(r io.Reader, instrument string, from, to market.Day) ([]RawHeadline, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, err
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"headline", "date", "stock"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("缺少必需列: %s", required)
		}
	}
	get := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var out []RawHeadline
	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		text := get(record, "headline")
		stock := strings.ToUpper(get(record, "stock"))
		if text == "" || stock == "" {
			continue // 缺字段的行直接跳过，与上游清洗策略一致
		}
		if instrument != "" && stock != instrument {
			continue
		}
		ts, err := parseTimestamp(get(record, "date"))
		if err != nil {
			return nil, fmt.Errorf("行 %d: %w", line, err)
		}
		day := market.DayOf(ts, time.UTC)
		if (from != 0 && day < from) || (to != 0 && day > to) {
			continue
		}
		out = append(out, RawHeadline{
			Instrument:  stock,
			Headline:    text,
			URL:         get(record, "url"),
			Publisher:   get(record, "publisher"),
			PublishedAt: ts,
		})
	}
	return out, nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("无法解析时间戳: %q", s)
}
