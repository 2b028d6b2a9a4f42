package state

import (
	"errors"
	"fmt"
	"time"

	contractx "github.com/tanpawarit/Chative-Order-Bot/bot/contract"
)

type Stage string

const (
	StageMenu            Stage = "menu"
	StageCatalogBrowse   Stage = "catalog_browse"
	StageCartReview      Stage = "cart_review"
	StageAwaitingPayment Stage = "awaiting_payment"
)

func (s Stage) Valid() bool {
	switch s {
	case StageMenu, StageCatalogBrowse, StageCartReview, StageAwaitingPayment:
		return true
	default:
		return false
	}
}

// CartLine is a copy of the catalog item taken when it was added.
type CartLine = contractx.MenuItem

// Session is the per-customer conversation state.
// - Stage drives which handler receives the next message.
// - Closed overlays any stage; only the reset command reopens the session.
type Session struct {
	CustomerID string     `json:"customer_id"`
	Stage      Stage      `json:"stage"`
	Cart       []CartLine `json:"cart,omitempty"` // insertion order
	Closed     bool       `json:"closed"`

	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

var (
	ErrEmptyCustomer = errors.New("customer id is empty")
	ErrInvalidStage  = errors.New("invalid stage")
	ErrCartEmpty     = errors.New("cart is empty")
)

func NewSession(customerID string, now time.Time) *Session {
	return &Session{
		CustomerID:   customerID,
		Stage:        StageMenu,
		Cart:         make([]CartLine, 0, 4),
		CreatedAt:    now.UTC(),
		LastActivity: now.UTC(),
	}
}

func (s *Session) Touch(now time.Time) {
	s.LastActivity = now.UTC()
}

/* ------------------------------ Cart helpers ----------------------------- */

// Total is derived from the cart on every call; there is no cached total to drift.
func (s *Session) Total() contractx.Money {
	if s == nil {
		return 0
	}
	var total contractx.Money
	for _, line := range s.Cart {
		total += line.Price
	}
	return total
}

func (s *Session) AddLine(item contractx.MenuItem) {
	s.Cart = append(s.Cart, item)
}

// RemoveLast pops the most recently added line.
func (s *Session) RemoveLast() (CartLine, bool) {
	if s == nil || len(s.Cart) == 0 {
		return CartLine{}, false
	}
	last := s.Cart[len(s.Cart)-1]
	s.Cart = s.Cart[:len(s.Cart)-1]
	return last, true
}

func (s *Session) ClearCart() {
	s.Cart = s.Cart[:0]
}

// Snapshot returns a copy of the cart that later mutations cannot reach.
func (s *Session) Snapshot() []CartLine {
	if s == nil || len(s.Cart) == 0 {
		return nil
	}
	out := make([]CartLine, len(s.Cart))
	copy(out, s.Cart)
	return out
}

/* ---------------------------- Session helpers ---------------------------- */

func (s *Session) Close() {
	s.Closed = true
}

func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Cart = append([]CartLine(nil), s.Cart...)
	return &cp
}

func (s *Session) Validate() error {
	if s == nil {
		return errors.New("nil session")
	}
	if s.CustomerID == "" {
		return ErrEmptyCustomer
	}
	if !s.Stage.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStage, s.Stage)
	}
	if s.Stage == StageAwaitingPayment && len(s.Cart) == 0 {
		return fmt.Errorf("%w: awaiting payment with empty cart", ErrCartEmpty)
	}
	return nil
}
