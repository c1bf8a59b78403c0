package market

import (
	"context"
	"errors"

	"newsedge/internal/logger"
)

// CachedSource 先查 sqlite 缓存，未命中再回源并写缓存。
// 写缓存失败只降级为直读，不影响返回数据。
type CachedSource struct {
	primary BarSource
	store   *Store
}

func NewCachedSource(primary BarSource, store *Store) (*CachedSource, error) {
	if primary == nil {
		return nil, errors.New("cached source: primary 不能为空")
	}
	if store == nil {
		return nil, errors.New("cached source: store 不能为空")
	}
	return &CachedSource{primary: primary, store: store}, nil
}

func (s *CachedSource) Name() string { return s.primary.Name() + "+cache" }

func (s *CachedSource) Bars(ctx context.Context, instrument string, from, to Day) ([]Bar, error) {
	bars, err := s.store.Bars(ctx, instrument, from, to)
	if err == nil {
		return bars, nil
	}
	if !errors.Is(err, ErrDataUnavailable) {
		return nil, err
	}
	bars, err = s.primary.Bars(ctx, instrument, from, to)
	if err != nil {
		return nil, err
	}
	if n, err := s.store.InsertBars(ctx, bars); err != nil {
		logger.Warnf("market: %s 写缓存失败: %v", instrument, err)
	} else {
		logger.Debugf("market: %s 缓存 %d 根日线", instrument, n)
	}
	return bars, nil
}
