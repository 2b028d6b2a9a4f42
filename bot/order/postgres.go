package order

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/tanpawarit/Chative-Order-Bot/bot/contract"
)

type orderRow struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	Seq        int64                `bun:"seq,pk,autoincrement"`
	ID         string               `bun:"id,notnull,unique"`
	CustomerID string               `bun:"chat_id,notnull"`
	Items      []contractx.MenuItem `bun:"items,type:jsonb,notnull"`
	TotalCents int64                `bun:"total_cents,notnull"`
	Status     string               `bun:"status,notnull"`
	CreatedAt  time.Time            `bun:"created_at,notnull"`
}

func (r orderRow) toOrder() contractx.ConfirmedOrder {
	return contractx.ConfirmedOrder{
		ID:         r.ID,
		CreatedAt:  r.CreatedAt.UTC(),
		CustomerID: r.CustomerID,
		Items:      r.Items,
		Total:      contractx.Money(r.TotalCents),
		Status:     contractx.OrderStatus(r.Status),
	}
}

// PostgresStore keeps confirmed orders in a postgres table through bun.
type PostgresStore struct {
	db *bun.DB
}

var _ contractx.OrderStore = (*PostgresStore)(nil)

func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres dsn is empty", contractx.ErrValidation)
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	_, err := db.NewCreateTable().
		Model((*orderRow)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: create orders table: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Append(ctx context.Context, o contractx.ConfirmedOrder) error {
	if err := validateOrder(o); err != nil {
		return fmt.Errorf("%w: %v", contractx.ErrStorageWriteFailed, err)
	}

	row := &orderRow{
		ID:         o.ID,
		CustomerID: o.CustomerID,
		Items:      o.Items,
		TotalCents: int64(o.Total),
		Status:     string(o.Status),
		CreatedAt:  o.CreatedAt.UTC(),
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("%w: postgres insert order %q: %v", contractx.ErrStorageWriteFailed, o.ID, err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]contractx.ConfirmedOrder, error) {
	var rows []orderRow
	if err := s.db.NewSelect().Model(&rows).Order("seq ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("postgres: list orders: %w", err)
	}

	orders := make([]contractx.ConfirmedOrder, 0, len(rows))
	for _, r := range rows {
		orders = append(orders, r.toOrder())
	}
	return orders, nil
}
