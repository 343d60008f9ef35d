package recorder

import (
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"cryptodash/internal/model"
)

// MemoryPath opens a private in-memory journal.
const MemoryPath = ":memory:"

// SQLiteRecorder persists the journal to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	if dbPath == "" {
		dbPath = MemoryPath
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Every pooled connection to :memory: would see its own empty database.
	db.SetMaxOpenConns(1)

	if dbPath != MemoryPath {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set WAL mode: %w", err)
		}
	}

	r := &SQLiteRecorder{db: db, log: log.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite journal opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS dispatch_log (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			kind      TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_dispatch_kind ON dispatch_log(kind)`,

		`CREATE TABLE IF NOT EXISTS notifications (
			id        TEXT PRIMARY KEY,
			timestamp INTEGER NOT NULL,
			severity  TEXT,
			message   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_ts ON notifications(timestamp)`,

		`CREATE TABLE IF NOT EXISTS price_ticks (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			symbol     TEXT NOT NULL,
			price      REAL,
			change_24h REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ticks_symbol_ts ON price_ticks(symbol, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordDispatch(evt *DispatchEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO dispatch_log (timestamp, kind) VALUES (?, ?)`,
		evt.At.UnixMilli(), evt.Kind)
	if err != nil {
		return fmt.Errorf("insert dispatch: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) RecordNotification(n *model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT OR IGNORE INTO notifications (id, timestamp, severity, message) VALUES (?, ?, ?, ?)`,
		n.ID, n.CreatedAt.UnixMilli(), string(n.Severity), n.Message)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// RecordPrices stores one row per symbol of the quote in a single transaction.
func (r *SQLiteRecorder) RecordPrices(q model.PriceQuote, at time.Time) error {
	if len(q.Prices) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO price_ticks (timestamp, symbol, price, change_24h) VALUES (?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare tick: %w", err)
	}
	defer stmt.Close()

	syms := make([]string, 0, len(q.Prices))
	for s := range q.Prices {
		syms = append(syms, s)
	}
	sort.Strings(syms)
	for _, s := range syms {
		var change any
		if c, ok := q.Changes24[s]; ok {
			change = c
		}
		if _, err := stmt.Exec(at.UnixMilli(), s, q.Prices[s], change); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert tick %s: %w", s, err)
		}
	}
	return tx.Commit()
}

// Summary returns per-kind dispatch counts, the number of stored price ticks
// and the most recent notifications.
func (r *SQLiteRecorder) Summary(recent int) (*Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sum := &Summary{Counts: make(map[string]int)}
	rows, err := r.db.Query(`SELECT kind, COUNT(*) FROM dispatch_log GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("count dispatches: %w", err)
	}
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan dispatch count: %w", err)
		}
		sum.Counts[kind] = n
		sum.Dispatches += n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.db.QueryRow(`SELECT COUNT(*) FROM price_ticks`).Scan(&sum.PriceTicks); err != nil {
		return nil, fmt.Errorf("count ticks: %w", err)
	}

	if recent <= 0 {
		return sum, nil
	}
	rows, err = r.db.Query(`SELECT id, timestamp, severity, message FROM notifications ORDER BY timestamp DESC, rowid DESC LIMIT ?`, recent)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var n model.Notification
		var ts int64
		var sev string
		if err := rows.Scan(&n.ID, &ts, &sev, &n.Message); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Severity = model.Severity(sev)
		n.CreatedAt = time.UnixMilli(ts)
		sum.Notifications = append(sum.Notifications, n)
	}
	return sum, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
