package market

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// CSVSource 从目录读取 <INSTRUMENT>.csv 格式的日线数据
// （yfinance 导出风格：Date,Open,High,Low,Close,Volume，可含 Adj Close）。
type CSVSource struct {
	root string
}

func NewCSVSource(root string) (*CSVSource, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("csv source: 数据目录不能为空")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("csv source: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("csv source: %s 不是目录", root)
	}
	return &CSVSource{root: root}, nil
}

func (s *CSVSource) Name() string { return "csv" }

// Bars 读取指定区间的日线。文件不存在或区间为空时返回 ErrDataUnavailable。
func (s *CSVSource) Bars(ctx context.Context, instrument string, from, to Day) ([]Bar, error) {
	instrument = strings.ToUpper(strings.TrimSpace(instrument))
	if instrument == "" {
		return nil, fmt.Errorf("csv source: instrument 不能为空")
	}
	path := filepath.Join(s.root, instrument+".csv")
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", instrument, ErrDataUnavailable)
		}
		return nil, err
	}
	defer f.Close()

	bars, err := readBars(f, instrument, from, to)
	if err != nil {
		return nil, fmt.Errorf("读取 %s 失败: %w", path, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s [%s,%s]: %w", instrument, from, to, ErrDataUnavailable)
	}
	if err := ValidateBars(bars); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bars, nil
}

func readBars(r io.Reader, instrument string, from, to Day) ([]Bar, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, err
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"date", "open", "high", "low", "close", "volume"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("缺少必需列: %s", required)
		}
	}

	var bars []Bar
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		day, err := ParseDay(record[col["date"]])
		if err != nil {
			return nil, err
		}
		if (from != 0 && day < from) || (to != 0 && day > to) {
			continue
		}
		bar := Bar{Instrument: instrument, Day: day}
		fields := []struct {
			name string
			dest *float64
		}{
			{"open", &bar.Open},
			{"high", &bar.High},
			{"low", &bar.Low},
			{"close", &bar.Close},
			{"volume", &bar.Volume},
		}
		for _, fld := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[col[fld.name]]), 64)
			if err != nil {
				return nil, fmt.Errorf("行 %s 列 %s: %w", day, fld.name, err)
			}
			*fld.dest = v
		}
		bars = append(bars, bar)
	}
	return bars, nil
}
