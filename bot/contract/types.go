package contract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// Money is an amount in cents. On the wire it is a JSON number with two decimals.
type Money int64

func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return errors.New("money: amount is null")
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("money: %w", err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("money: invalid amount %s", string(data))
	}
	// Cents must fit in an int64.
	if math.Abs(f*100) >= math.MaxInt64 {
		return fmt.Errorf("money: amount %s out of range", string(data))
	}
	*m = Money(math.Round(f * 100))
	return nil
}

// MenuItem is a purchasable catalog entry. Field names follow the catalog file schema.
type MenuItem struct {
	ID    int    `json:"id"`
	Name  string `json:"nome"`
	Price Money  `json:"preco"`
}

func (m MenuItem) Validate() error {
	if m.ID <= 0 {
		return fmt.Errorf("%w: item id must be positive, got %d", ErrValidation, m.ID)
	}
	if m.Name == "" {
		return fmt.Errorf("%w: item %d has empty name", ErrValidation, m.ID)
	}
	if m.Price < 0 {
		return fmt.Errorf("%w: item %d has negative price", ErrValidation, m.ID)
	}
	return nil
}

type OrderStatus string

const (
	OrderConfirmed OrderStatus = "confirmado"
)

// ConfirmedOrder is the immutable record appended once payment is acknowledged.
type ConfirmedOrder struct {
	ID         string      `json:"id"`
	CreatedAt  time.Time   `json:"timestamp"`
	CustomerID string      `json:"chatId"`
	Items      []MenuItem  `json:"itens"`
	Total      Money       `json:"total"`
	Status     OrderStatus `json:"status"`
}

// InboundEvent is a single text message delivered by the messaging channel.
type InboundEvent struct {
	SenderID           string
	Body               string
	IsGroupOrBroadcast bool
}
