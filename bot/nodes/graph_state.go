package nodes

import (
	"errors"
	"time"

	"github.com/tanpawarit/Chative-Order-Bot/bot/flow"
	statex "github.com/tanpawarit/Chative-Order-Bot/bot/state"
)

var ErrMissingLease = errors.New("session lease is missing")

type GraphInput struct {
	CustomerID string
	Text       string
	// Lease is held by the caller for the whole graph run.
	Lease *statex.Lease
}

type GraphOutput struct {
	Reply  string
	Silent bool
}

type GraphState struct {
	CustomerID string
	Text       string
	Now        time.Time

	Lease   *statex.Lease
	Session *statex.Session

	Outcome flow.Outcome
	OrderID string
	Reply   string
}
