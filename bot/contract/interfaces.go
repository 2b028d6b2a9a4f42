package contract

import "context"

// MessageChannel delivers outbound text to a customer.
type MessageChannel interface {
	Send(ctx context.Context, recipient string, text string) error
}

// Reconnector is implemented by channels that can re-establish their transport.
type Reconnector interface {
	Reconnect(ctx context.Context) error
}

type CatalogStore interface {
	Load(ctx context.Context) ([]MenuItem, error)
	EnsureExists(ctx context.Context) error
}

// OrderStore is append-only: orders are never updated or deleted.
type OrderStore interface {
	Append(ctx context.Context, order ConfirmedOrder) error
	List(ctx context.Context) ([]ConfirmedOrder, error)
}
