package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	contractx "github.com/tanpawarit/Chative-Order-Bot/bot/contract"

	// Pure-Go driver, registered as "sqlite".
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS orders (
    seq         INTEGER PRIMARY KEY AUTOINCREMENT,
    id          TEXT    NOT NULL UNIQUE,
    chat_id     TEXT    NOT NULL,
    items       TEXT    NOT NULL,
    total_cents INTEGER NOT NULL,
    status      TEXT    NOT NULL,
    created_at  TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_chat_id ON orders(chat_id, seq);
`

const sqliteTimeLayout = "2006-01-02T15:04:05.999999999Z07:00"

// SQLiteStore is an append-only orders table. Insertion order is kept by seq.
type SQLiteStore struct {
	db *sql.DB
}

var _ contractx.OrderStore = (*SQLiteStore)(nil)

func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Append(ctx context.Context, o contractx.ConfirmedOrder) error {
	if err := validateOrder(o); err != nil {
		return fmt.Errorf("%w: %v", contractx.ErrStorageWriteFailed, err)
	}

	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("%w: marshal items: %v", contractx.ErrStorageWriteFailed, err)
	}

	const q = `
		INSERT INTO orders (id, chat_id, items, total_cents, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, q,
		o.ID,
		o.CustomerID,
		string(items),
		int64(o.Total),
		string(o.Status),
		o.CreatedAt.UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("%w: sqlite insert order %q: %v", contractx.ErrStorageWriteFailed, o.ID, err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]contractx.ConfirmedOrder, error) {
	const q = `
		SELECT id, chat_id, items, total_cents, status, created_at
		FROM   orders
		ORDER  BY seq ASC`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]contractx.ConfirmedOrder, 0, 16)
	for rows.Next() {
		var (
			o         contractx.ConfirmedOrder
			items     string
			total     int64
			status    string
			createdAt string
		)
		if err := rows.Scan(&o.ID, &o.CustomerID, &items, &total, &status, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan order: %w", err)
		}
		if err := json.Unmarshal([]byte(items), &o.Items); err != nil {
			return nil, fmt.Errorf("%w: order %s items: %v", contractx.ErrStorageCorrupt, o.ID, err)
		}
		o.Total = contractx.Money(total)
		o.Status = contractx.OrderStatus(status)
		o.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("%w: order %s timestamp: %v", contractx.ErrStorageCorrupt, o.ID, err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate orders: %w", err)
	}
	return orders, nil
}
