package nodes

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Order-Bot/bot/contract"
	statex "github.com/tanpawarit/Chative-Order-Bot/bot/state"
)

// ValidateRequest accepts empty text: a bare attachment still counts as input
// (for instance a payment receipt).
func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	customerID := strings.TrimSpace(in.CustomerID)
	if customerID == "" {
		return nil, statex.ErrEmptyCustomer
	}
	if in.Lease == nil || in.Lease.Session() == nil {
		return nil, ErrMissingLease
	}

	sess := in.Lease.Session()
	if sess.CustomerID != customerID {
		return nil, fmt.Errorf("%w: lease belongs to another customer", contractx.ErrValidation)
	}

	return &GraphState{
		CustomerID: customerID,
		Text:       strings.TrimSpace(in.Text),
		Now:        nowFn().UTC(),
		Lease:      in.Lease,
		Session:    sess,
	}, nil
}
