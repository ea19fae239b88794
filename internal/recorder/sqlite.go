package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"MarketDashboard/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists dashboard history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS price_ticks (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			ticker    TEXT NOT NULL,
			old_price REAL,
			new_price REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ticks_ticker_ts ON price_ticks(ticker, timestamp)`,

		`CREATE TABLE IF NOT EXISTS panel_refreshes (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			panel       TEXT NOT NULL,
			ok          INTEGER NOT NULL,
			error       TEXT,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_panels_ts ON panel_refreshes(timestamp)`,

		`CREATE TABLE IF NOT EXISTS dataset_loads (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			ticker    TEXT NOT NULL,
			period    TEXT NOT NULL,
			outcome   TEXT NOT NULL,
			kinds     TEXT,
			error     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_loads_ts ON dataset_loads(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordPriceTick(tick *model.PriceTick) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	at := tick.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO price_ticks (timestamp, ticker, old_price, new_price) VALUES (?,?,?,?)`,
		at.Unix(), tick.Ticker, tick.OldPrice, tick.NewPrice,
	)
	return err
}

func (r *SQLiteRecorder) RecordPanelRefresh(evt *PanelRefresh) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO panel_refreshes (timestamp, panel, ok, error, duration_ms) VALUES (?,?,?,?,?)`,
		time.Now().Unix(), evt.Panel, evt.OK, evt.Err, evt.DurationMS,
	)
	return err
}

func (r *SQLiteRecorder) RecordDatasetLoad(evt *DatasetLoad) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO dataset_loads (timestamp, ticker, period, outcome, kinds, error) VALUES (?,?,?,?,?,?)`,
		time.Now().Unix(), evt.Ticker, evt.Period, evt.Outcome, evt.Kinds, evt.Err,
	)
	return err
}

// RecentTicks returns the latest price ticks of ticker, newest first.
func (r *SQLiteRecorder) RecentTicks(ticker string, limit int) ([]model.PriceTick, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT timestamp, ticker, old_price, new_price FROM price_ticks
		WHERE ticker = ? ORDER BY timestamp DESC, id DESC LIMIT ?`, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("query ticks: %w", err)
	}
	defer rows.Close()

	var out []model.PriceTick
	for rows.Next() {
		var ts int64
		var t model.PriceTick
		if err := rows.Scan(&ts, &t.Ticker, &t.OldPrice, &t.NewPrice); err != nil {
			return nil, fmt.Errorf("scan tick: %w", err)
		}
		t.At = time.Unix(ts, 0)
		out = append(out, t)
	}
	return out, rows.Err()
}

// LoadOutcomes counts dataset loads per outcome.
func (r *SQLiteRecorder) LoadOutcomes() (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT outcome, COUNT(*) FROM dataset_loads GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("query loads: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("scan load: %w", err)
		}
		out[outcome] = n
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
