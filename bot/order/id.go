package order

import (
	"strconv"
	"sync"
	"time"
)

const idPrefix = "PD"

// IDGenerator issues PD<unix-millis> ids. Ids are strictly increasing within a
// process: a collision or a clock step backwards bumps the value by one.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return idPrefix + strconv.FormatInt(ms, 10)
}
