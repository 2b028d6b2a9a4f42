package state

import (
	"strings"
	"sync"
	"time"
)

const (
	DefaultTTL           = 2 * time.Hour
	DefaultSweepInterval = 30 * time.Minute
)

// Store is the session table contract used by the engine.
type Store interface {
	Get(customerID string) (*Lease, error)
	Put(s *Session) error
	Sweep(now time.Time) int
	Len() int
}

// TableOption customizes Table.
type TableOption func(*Table)

func WithTTL(ttl time.Duration) TableOption {
	return func(t *Table) {
		if ttl > 0 {
			t.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) TableOption {
	return func(t *Table) {
		if now != nil {
			t.now = now
		}
	}
}

// OnCreate registers a hook called (outside the table lock) whenever a fresh session is created.
func OnCreate(fn func(customerID string)) TableOption {
	return func(t *Table) {
		t.onCreate = fn
	}
}

type entry struct {
	mu      sync.Mutex // held by the lease owner while the session is being handled
	session *Session
	leases  int // guarded by Table.mu
}

// Table is an in-memory session table with passive TTL expiry.
type Table struct {
	mu       sync.Mutex
	entries  map[string]*entry
	ttl      time.Duration
	now      func() time.Time
	onCreate func(customerID string)
}

var _ Store = (*Table)(nil)

func NewTable(opts ...TableOption) *Table {
	t := &Table{
		entries: make(map[string]*entry, 64),
		ttl:     DefaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

func (t *Table) TTL() time.Duration {
	return t.ttl
}

// Get returns a lease on the customer's session, creating a fresh MENU session
// on first contact. LastActivity is updated before the table lock is released,
// so a concurrent sweep can never treat a leased session as idle. The caller
// must Release the lease.
func (t *Table) Get(customerID string) (*Lease, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, ErrEmptyCustomer
	}

	now := t.now()
	created := false

	t.mu.Lock()
	e, ok := t.entries[customerID]
	if !ok {
		e = &entry{session: NewSession(customerID, now)}
		t.entries[customerID] = e
		created = true
	}
	e.leases++
	t.mu.Unlock()

	if created && t.onCreate != nil {
		t.onCreate(customerID)
	}

	e.mu.Lock()
	e.session.Touch(now)
	return &Lease{table: t, entry: e}, nil
}

// Put stores s, replacing any existing session for the same customer.
func (t *Table) Put(s *Session) error {
	if err := s.Validate(); err != nil {
		return err
	}

	t.mu.Lock()
	e, ok := t.entries[s.CustomerID]
	if !ok {
		t.entries[s.CustomerID] = &entry{session: s}
		t.mu.Unlock()
		return nil
	}
	e.leases++
	t.mu.Unlock()

	e.mu.Lock()
	e.session = s
	e.mu.Unlock()
	t.release(e)
	return nil
}

// Sweep removes every unleased session idle for longer than the TTL.
func (t *Table) Sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for id, e := range t.entries {
		if e.leases > 0 {
			continue
		}
		if now.Sub(e.session.LastActivity) > t.ttl {
			delete(t.entries, id)
			removed++
		}
	}
	return removed
}

func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Peek returns a copy of the stored session without touching it.
func (t *Table) Peek(customerID string) (*Session, bool) {
	t.mu.Lock()
	e, ok := t.entries[customerID]
	if !ok {
		t.mu.Unlock()
		return nil, false
	}
	e.leases++
	t.mu.Unlock()

	e.mu.Lock()
	cp := e.session.Clone()
	e.mu.Unlock()
	t.release(e)
	return cp, true
}

func (t *Table) release(e *entry) {
	t.mu.Lock()
	e.leases--
	t.mu.Unlock()
}

// Lease is exclusive access to one customer's session.
type Lease struct {
	table    *Table
	entry    *entry
	released bool
}

func (l *Lease) Session() *Session {
	return l.entry.session
}

// Reset replaces the leased record with a fresh MENU session and returns it.
func (l *Lease) Reset(now time.Time) *Session {
	fresh := NewSession(l.entry.session.CustomerID, now)
	l.entry.session = fresh
	return fresh
}

// Release is idempotent.
func (l *Lease) Release() {
	if l == nil || l.released {
		return
	}
	l.released = true
	l.entry.mu.Unlock()
	l.table.release(l.entry)
}
