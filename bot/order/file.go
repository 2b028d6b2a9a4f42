package order

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Order-Bot/bot/contract"
	"github.com/tanpawarit/Chative-Order-Bot/pkg/fsx"
	logx "github.com/tanpawarit/Chative-Order-Bot/pkg/logger"
)

const DefaultPath = "pedidos.json"

// FileStore appends orders to a JSON array file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

var _ contractx.OrderStore = (*FileStore)(nil)

func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultPath
	}
	return &FileStore{path: path}
}

// Append reads the current list, appends o and rewrites the file atomically.
// An unreadable existing file is left untouched and the append fails.
func (s *FileStore) Append(ctx context.Context, o contractx.ConfirmedOrder) error {
	if err := validateOrder(o); err != nil {
		return fmt.Errorf("%w: %v", contractx.ErrStorageWriteFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.read()
	if err != nil {
		return fmt.Errorf("%w: %v", contractx.ErrStorageWriteFailed, err)
	}
	orders = append(orders, o)

	payload, err := json.MarshalIndent(orders, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal orders: %v", contractx.ErrStorageWriteFailed, err)
	}
	if err := fsx.WriteFileAtomic(s.path, payload, 0o644); err != nil {
		return fmt.Errorf("%w: %v", contractx.ErrStorageWriteFailed, err)
	}

	log.Info().
		Str("acao", "pedido_salvo").
		Str("chatId", logx.MaskID(o.CustomerID)).
		Str("pedidoId", o.ID).
		Str("total", o.Total.String()).
		Msg("order persisted")
	return nil
}

// List returns all orders in append order.
func (s *FileStore) List(ctx context.Context) ([]contractx.ConfirmedOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *FileStore) read() ([]contractx.ConfirmedOrder, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []contractx.ConfirmedOrder{}, nil
		}
		return nil, fmt.Errorf("read orders: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return []contractx.ConfirmedOrder{}, nil
	}

	var orders []contractx.ConfirmedOrder
	if err := json.Unmarshal(raw, &orders); err != nil {
		return nil, fmt.Errorf("%w: decode orders: %v", contractx.ErrStorageCorrupt, err)
	}
	return orders, nil
}

func validateOrder(o contractx.ConfirmedOrder) error {
	if o.ID == "" {
		return fmt.Errorf("%w: order id is empty", contractx.ErrValidation)
	}
	if o.CustomerID == "" {
		return fmt.Errorf("%w: order %s has no customer", contractx.ErrValidation, o.ID)
	}
	if len(o.Items) == 0 {
		return fmt.Errorf("%w: order %s has no items", contractx.ErrValidation, o.ID)
	}
	var sum contractx.Money
	for _, it := range o.Items {
		sum += it.Price
	}
	if sum != o.Total {
		return fmt.Errorf("%w: order %s total %s does not match items %s", contractx.ErrValidation, o.ID, o.Total, sum)
	}
	return nil
}
