package news

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleNewsCSV = `headline,url,publisher,date,stock
"Apple unveils new chip",https://example.com/1,Reuters,2024-01-15 09:30:00,AAPL
"Apple misses estimates",https://example.com/2,Bloomberg,2024-01-16T08:00:00Z,aapl
"Microsoft wins contract",,WSJ,2024-01-15,MSFT
,,WSJ,2024-01-15,MSFT
"No ticker row",,WSJ,2024-01-15,
`

func writeNewsCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "news.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVSourceHeadlines(t *testing.T) {
	src, err := NewCSVSource(writeNewsCSV(t, sampleNewsCSV))
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("按instrument过滤并统一大写", func(t *testing.T) {
		raws, err := src.Headlines(ctx, "aapl", 0, 0)
		require.NoError(t, err)
		require.Len(t, raws, 2)
		assert.Equal(t, "AAPL", raws[0].Instrument)
		assert.Equal(t, "Apple unveils new chip", raws[0].Headline)
		assert.Equal(t, "Reuters", raws[0].Publisher)
		assert.Equal(t, "AAPL", raws[1].Instrument)
	})

	t.Run("不过滤时跳过缺字段行", func(t *testing.T) {
		raws, err := src.Headlines(ctx, "", 0, 0)
		require.NoError(t, err)
		assert.Len(t, raws, 3)
	})

	t.Run("按日期区间过滤", func(t *testing.T) {
		raws, err := src.Headlines(ctx, "AAPL", day(t, "2024-01-16"), 0)
		require.NoError(t, err)
		require.Len(t, raws, 1)
		assert.Equal(t, "Apple misses estimates", raws[0].Headline)
	})

	t.Run("缺少必需列报错", func(t *testing.T) {
		bad, err := NewCSVSource(writeNewsCSV(t, "headline,date\nfoo,2024-01-15\n"))
		require.NoError(t, err)
		_, err = bad.Headlines(ctx, "", 0, 0)
		assert.ErrorContains(t, err, "stock")
	})

	t.Run("无法解析的时间戳报错", func(t *testing.T) {
		bad, err := NewCSVSource(writeNewsCSV(t, "headline,date,stock\nfoo,yesterday,AAPL\n"))
		require.NoError(t, err)
		_, err = bad.Headlines(ctx, "", 0, 0)
		assert.ErrorContains(t, err, "行 2")
	})
}

func TestNewCSVSourceRejectsMissingFile(t *testing.T) {
	_, err := NewCSVSource(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
	_, err = NewCSVSource("  ")
	assert.Error(t, err)
}
