package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"PriceScope/internal/logger"
	"PriceScope/internal/model"
)

// SQLiteStore persists price points and predictions to a SQLite database.
// Prices are stored as decimal text and parsed back to float64 on read.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets readers proceed while a refresh is writing.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.WithComponent("store").Infof("sqlite store opened: %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS stock_data (
			ticker     TEXT    NOT NULL,
			date       TEXT    NOT NULL,
			open       TEXT    NOT NULL,
			high       TEXT    NOT NULL,
			low        TEXT    NOT NULL,
			close      TEXT    NOT NULL,
			volume     TEXT    NOT NULL,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (ticker, date)
		)`,

		`CREATE TABLE IF NOT EXISTS predictions (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id           TEXT    NOT NULL,
			ticker           TEXT    NOT NULL,
			prediction_date  TEXT    NOT NULL,
			target_date      TEXT    NOT NULL,
			predicted_price  TEXT    NOT NULL,
			confidence_lower TEXT    NOT NULL,
			confidence_upper TEXT    NOT NULL,
			model_version    TEXT    NOT NULL,
			created_at       INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_ticker ON predictions(ticker, prediction_date)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) PointsSince(ctx context.Context, ticker, fromDate string) (model.Series, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT date, open, high, low, close, volume
		FROM stock_data WHERE ticker = ? AND date >= ? ORDER BY date ASC`, ticker, fromDate)
	if err != nil {
		return nil, fmt.Errorf("query points: %w", err)
	}
	return scanPoints(rows)
}

func (s *SQLiteStore) RecentPoints(ctx context.Context, ticker string, limit int) (model.Series, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT date, open, high, low, close, volume FROM (
			SELECT date, open, high, low, close, volume FROM stock_data
			WHERE ticker = ? ORDER BY date DESC LIMIT ?
		) ORDER BY date ASC`, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent points: %w", err)
	}
	return scanPoints(rows)
}

func scanPoints(rows *sql.Rows) (model.Series, error) {
	defer rows.Close()

	var out model.Series
	for rows.Next() {
		var p model.PricePoint
		var open, high, low, closing, volume string
		if err := rows.Scan(&p.Date, &open, &high, &low, &closing, &volume); err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		var err error
		if p.Open, err = parseDecimal(open); err != nil {
			return nil, err
		}
		if p.High, err = parseDecimal(high); err != nil {
			return nil, err
		}
		if p.Low, err = parseDecimal(low); err != nil {
			return nil, err
		}
		if p.Close, err = parseDecimal(closing); err != nil {
			return nil, err
		}
		if p.Volume, err = parseDecimal(volume); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpsertPoints(ctx context.Context, ticker string, points model.Series) error {
	if len(points) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO stock_data
		(ticker, date, open, high, low, close, volume, created_at)
		VALUES (?,?,?,?,?,?,?,?)
		ON CONFLICT(ticker, date) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, p := range points {
		if err := checkFinite(p.Open, p.High, p.Low, p.Close, p.Volume); err != nil {
			return fmt.Errorf("upsert %s %s: %w", ticker, p.Date, err)
		}
		if _, err := stmt.ExecContext(ctx, ticker, p.Date,
			formatDecimal(p.Open), formatDecimal(p.High), formatDecimal(p.Low),
			formatDecimal(p.Close), formatDecimal(p.Volume), now,
		); err != nil {
			return fmt.Errorf("upsert %s %s: %w", ticker, p.Date, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) SavePredictions(ctx context.Context, records []PredictionRecord) error {
	if len(records) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin predictions: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO predictions
		(run_id, ticker, prediction_date, target_date,
		 predicted_price, confidence_lower, confidence_upper, model_version, created_at)
		VALUES (?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare predictions: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, r := range records {
		if err := checkFinite(r.PredictedPrice, r.ConfidenceLower, r.ConfidenceUpper); err != nil {
			return fmt.Errorf("insert prediction %s %s: %w", r.Ticker, r.TargetDate, err)
		}
		if _, err := stmt.ExecContext(ctx, r.RunID, r.Ticker, r.PredictionDate, r.TargetDate,
			formatDecimal(r.PredictedPrice), formatDecimal(r.ConfidenceLower), formatDecimal(r.ConfidenceUpper),
			r.ModelVersion, now,
		); err != nil {
			return fmt.Errorf("insert prediction %s %s: %w", r.Ticker, r.TargetDate, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Predictions(ctx context.Context, ticker string, limit int) ([]PredictionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id, ticker, prediction_date, target_date,
		predicted_price, confidence_lower, confidence_upper, model_version
		FROM predictions WHERE ticker = ? ORDER BY id DESC LIMIT ?`, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	defer rows.Close()

	var out []PredictionRecord
	for rows.Next() {
		var r PredictionRecord
		var price, lower, upper string
		if err := rows.Scan(&r.RunID, &r.Ticker, &r.PredictionDate, &r.TargetDate,
			&price, &lower, &upper, &r.ModelVersion); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		if r.PredictedPrice, err = parseDecimal(price); err != nil {
			return nil, err
		}
		if r.ConfidenceLower, err = parseDecimal(lower); err != nil {
			return nil, err
		}
		if r.ConfidenceUpper, err = parseDecimal(upper); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	logger.WithComponent("store").Info("closing sqlite store")
	return s.db.Close()
}

// checkFinite rejects NaN and ±Inf, which have no decimal text form.
func checkFinite(vals ...float64) error {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite value %v", v)
		}
	}
	return nil
}

func formatDecimal(v float64) string {
	return decimal.NewFromFloat(v).String()
}

func parseDecimal(s string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return d.InexactFloat64(), nil
}
