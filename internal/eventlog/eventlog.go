// Package eventlog provides SQLite persistence for confirmed alerts.
package eventlog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/retailx/theft-monitor/pkg/types"
)

// Event is one confirmed alert as stored in the journal.
type Event struct {
	ID           string            `json:"id"`
	CreatedAt    time.Time         `json:"created_at"`
	SnapshotPath string            `json:"snapshot_path"`
	Caption      string            `json:"caption"`
	Detections   []types.Detection `json:"detections"`
	Dispatched   bool              `json:"dispatched"`
}

// Log handles SQLite persistence of alert events.
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type Log struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates a Log at the given database path, creating tables if
// they don't exist. Uses WAL mode for file-based databases so status
// readers don't block the alert path.
func Open(dbPath string) (*Log, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Shared cache so all pooled connections see the same database
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	l := &Log{db: db}
	if err := l.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return l, nil
}

func (l *Log) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS alerts (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		snapshot_path TEXT NOT NULL,
		caption TEXT NOT NULL,
		detections TEXT NOT NULL,
		dispatched INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_alerts_created ON alerts(created_at DESC);
	`
	if _, err := l.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Record inserts one alert event.
func (l *Log) Record(ev Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	detections, err := json.Marshal(ev.Detections)
	if err != nil {
		return fmt.Errorf("marshal detections: %w", err)
	}

	_, err = l.db.Exec(
		`INSERT INTO alerts (id, created_at, snapshot_path, caption, detections, dispatched)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.CreatedAt.UTC(), ev.SnapshotPath, ev.Caption, string(detections), boolToInt(ev.Dispatched),
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

// Recent returns up to limit alerts, newest first.
func (l *Log) Recent(limit int) ([]Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := l.db.Query(
		`SELECT id, created_at, snapshot_path, caption, detections, dispatched
		 FROM alerts ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var detections string
		var dispatched int
		if err := rows.Scan(&ev.ID, &ev.CreatedAt, &ev.SnapshotPath, &ev.Caption, &detections, &dispatched); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		if err := json.Unmarshal([]byte(detections), &ev.Detections); err != nil {
			return nil, fmt.Errorf("unmarshal detections: %w", err)
		}
		ev.Dispatched = dispatched != 0
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Count returns the total number of recorded alerts.
func (l *Log) Count() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var n int
	if err := l.db.QueryRow(`SELECT COUNT(*) FROM alerts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count alerts: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.db.Close()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
