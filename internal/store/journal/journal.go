package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"paperbroker/internal/logger"
	"paperbroker/internal/pkg/maputil"

	_ "modernc.org/sqlite"
)

// Journal is an append-only event log kept beside the main database.
// It records lifecycle events (placements, fills, cancellations) for
// inspection through the API; losing an event never fails a trade.
type Journal struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// Event is one journal row. Payload carries the full event fields as
// JSON; account/order/symbol are lifted out for filtering.
type Event struct {
	ID        int64           `json:"id"`
	Timestamp int64           `json:"ts"`
	Kind      string          `json:"kind"`
	AccountID string          `json:"account_id,omitempty"`
	OrderID   string          `json:"order_id,omitempty"`
	Symbol    string          `json:"symbol,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// EventQuery filters ListEvents. Zero values match everything.
type EventQuery struct {
	AccountID string
	OrderID   string
	Kind      string
	Limit     int
	Offset    int
}

func New(path string) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("journal path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)
	if err := ensureJournalSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Journal{db: db, path: path}, nil
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.db == nil {
		return nil
	}
	err := j.db.Close()
	j.db = nil
	return err
}

func ensureJournalSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS journal_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ts INTEGER NOT NULL,
			kind TEXT NOT NULL,
			account_id TEXT,
			order_id TEXT,
			symbol TEXT,
			payload TEXT,
			created_at INTEGER NOT NULL
		);
		`,
		`CREATE INDEX IF NOT EXISTS idx_journal_events_ts_id ON journal_events(ts DESC, id DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_journal_events_kind_ts ON journal_events(kind, ts DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_journal_events_account_ts ON journal_events(account_id, ts DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_journal_events_order ON journal_events(order_id);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Record satisfies broker.EventSink. Failures are logged and swallowed
// so a broken journal cannot take the engine down with it.
func (j *Journal) Record(ctx context.Context, kind string, fields map[string]any) {
	if j == nil {
		return
	}
	if err := j.insert(ctx, kind, fields); err != nil {
		logger.Warnf("journal: record %s failed: %v", kind, err)
	}
}

func (j *Journal) insert(ctx context.Context, kind string, fields map[string]any) error {
	j.mu.Lock()
	db := j.db
	j.mu.Unlock()
	if db == nil {
		return fmt.Errorf("journal is closed")
	}
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return fmt.Errorf("event kind is required")
	}
	payload := ""
	if len(fields) > 0 {
		b, err := json.Marshal(fields)
		if err != nil {
			return err
		}
		payload = string(b)
	}
	now := time.Now().UnixMilli()
	_, err := db.ExecContext(ctx, `
		INSERT INTO journal_events (ts, kind, account_id, order_id, symbol, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		now,
		kind,
		maputil.String(fields, "account_id"),
		maputil.String(fields, "order_id"),
		maputil.String(fields, "symbol"),
		payload,
		now,
	)
	return err
}

// ListEvents returns the newest matching events first.
func (j *Journal) ListEvents(ctx context.Context, q EventQuery) ([]Event, error) {
	j.mu.Lock()
	db := j.db
	j.mu.Unlock()
	if db == nil {
		return nil, fmt.Errorf("journal is closed")
	}
	limit := q.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	filterSQL, args := buildEventFilter(q)
	var sb strings.Builder
	sb.WriteString(`SELECT id, ts, kind, account_id, order_id, symbol, payload FROM journal_events`)
	sb.WriteString(filterSQL)
	sb.WriteString(" ORDER BY ts DESC, id DESC LIMIT ? OFFSET ?")
	args = append(args, limit, offset)
	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, ev)
	}
	return list, rows.Err()
}

// CountEvents reports how many events match the filter.
func (j *Journal) CountEvents(ctx context.Context, q EventQuery) (int, error) {
	j.mu.Lock()
	db := j.db
	j.mu.Unlock()
	if db == nil {
		return 0, fmt.Errorf("journal is closed")
	}
	filterSQL, args := buildEventFilter(q)
	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM journal_events`+filterSQL, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func buildEventFilter(q EventQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if v := strings.TrimSpace(q.AccountID); v != "" {
		conds = append(conds, "account_id = ?")
		args = append(args, v)
	}
	if v := strings.TrimSpace(q.OrderID); v != "" {
		conds = append(conds, "order_id = ?")
		args = append(args, v)
	}
	if v := strings.TrimSpace(q.Kind); v != "" {
		conds = append(conds, "kind = ?")
		args = append(args, v)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanEvent(rows *sql.Rows) (Event, error) {
	var (
		ev      Event
		account sql.NullString
		order   sql.NullString
		symbol  sql.NullString
		payload sql.NullString
	)
	if err := rows.Scan(&ev.ID, &ev.Timestamp, &ev.Kind, &account, &order, &symbol, &payload); err != nil {
		return ev, err
	}
	ev.AccountID = account.String
	ev.OrderID = order.String
	ev.Symbol = symbol.String
	if payload.Valid && payload.String != "" {
		ev.Payload = json.RawMessage(payload.String)
	}
	return ev, nil
}
