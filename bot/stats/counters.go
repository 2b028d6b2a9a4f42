package stats

import (
	"sync/atomic"
	"time"
)

// Counters are process-wide bot metrics. Safe for concurrent use.
type Counters struct {
	messagesReceived atomic.Int64
	ordersFinalized  atomic.Int64
	errors           atomic.Int64
	startedAt        time.Time
}

func New(now time.Time) *Counters {
	return &Counters{startedAt: now.UTC()}
}

func (c *Counters) MessageReceived() { c.messagesReceived.Add(1) }
func (c *Counters) OrderFinalized()  { c.ordersFinalized.Add(1) }
func (c *Counters) Error()           { c.errors.Add(1) }

func (c *Counters) StartedAt() time.Time { return c.startedAt }

// Snapshot is the JSON view served by the status endpoint.
type Snapshot struct {
	MessagesReceived int64     `json:"mensagensRecebidas"`
	OrdersFinalized  int64     `json:"pedidosFinalizados"`
	ActiveUsers      int       `json:"usuariosAtivos"`
	Errors           int64     `json:"erros"`
	StartedAt        time.Time `json:"iniciadoEm"`
}

func (c *Counters) Snapshot(activeSessions int) Snapshot {
	return Snapshot{
		MessagesReceived: c.messagesReceived.Load(),
		OrdersFinalized:  c.ordersFinalized.Load(),
		ActiveUsers:      activeSessions,
		Errors:           c.errors.Load(),
		StartedAt:        c.startedAt,
	}
}
