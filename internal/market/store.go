package market

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

// Store 是本地 sqlite 日线缓存：ingestion 侧写入，流水线侧只读。
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

func NewStore(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("bar store: data root 不能为空")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(root, "bars.db")
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := ensureBarSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) Name() string { return "sqlite" }

func ensureBarSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS bars (
		instrument TEXT NOT NULL,
		day INTEGER NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume REAL NOT NULL,
		PRIMARY KEY (instrument, day)
	);`)
	if err != nil {
		return fmt.Errorf("创建 bars 表失败: %w", err)
	}
	return nil
}

// InsertBars 批量写入日线（重复 (instrument, day) 将被覆盖）。
func (s *Store) InsertBars(ctx context.Context, bars []Bar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bars (instrument, day, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(instrument, day) DO UPDATE SET
		    open=excluded.open,
		    high=excluded.high,
		    low=excluded.low,
		    close=excluded.close,
		    volume=excluded.volume`)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	defer stmt.Close()
	written := 0
	for _, b := range bars {
		instrument := strings.ToUpper(strings.TrimSpace(b.Instrument))
		if instrument == "" {
			_ = tx.Rollback()
			return 0, fmt.Errorf("bar store: instrument 不能为空")
		}
		if _, err := stmt.ExecContext(ctx, instrument, int64(b.Day), b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			_ = tx.Rollback()
			return 0, err
		}
		written++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return written, nil
}

// Bars 读取 [from,to] 区间内的日线（from/to 为 0 表示不限制）。
// 无数据时返回 ErrDataUnavailable。
func (s *Store) Bars(ctx context.Context, instrument string, from, to Day) ([]Bar, error) {
	instrument = strings.ToUpper(strings.TrimSpace(instrument))
	query := `SELECT day, open, high, low, close, volume FROM bars WHERE instrument = ?`
	args := []any{instrument}
	if from != 0 {
		query += ` AND day >= ?`
		args = append(args, int64(from))
	}
	if to != 0 {
		query += ` AND day <= ?`
		args = append(args, int64(to))
	}
	query += ` ORDER BY day ASC`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []Bar
	for rows.Next() {
		var day int64
		b := Bar{Instrument: instrument}
		if err := rows.Scan(&day, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		b.Day = Day(day)
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", instrument, ErrDataUnavailable)
	}
	return bars, nil
}

// Instruments 返回缓存中的全部 instrument（升序）。
func (s *Store) Instruments(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT instrument FROM bars ORDER BY instrument ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
