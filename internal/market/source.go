package market

import (
	"context"
	"errors"
)

// ErrDataUnavailable 表示请求的 instrument/区间没有任何数据。
// 调用方应将其视为"空序列"继续处理，而不是中断整条流水线。
var ErrDataUnavailable = errors.New("market data unavailable")

// BarSource 统一不同行情来源（CSV 文件、sqlite 缓存、远端 API）的读取行为。
type BarSource interface {
	Bars(ctx context.Context, instrument string, from, to Day) ([]Bar, error)
	Name() string
}
