package nodes

import (
	"context"
	"errors"
	"testing"
	"time"

	contractx "github.com/tanpawarit/Chative-Order-Bot/bot/contract"
	"github.com/tanpawarit/Chative-Order-Bot/bot/flow"
	"github.com/tanpawarit/Chative-Order-Bot/bot/reply"
	statex "github.com/tanpawarit/Chative-Order-Bot/bot/state"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type stubOrders struct {
	got   []contractx.ConfirmedOrder
	err   error
	panic bool
}

func (s *stubOrders) Append(_ context.Context, o contractx.ConfirmedOrder) error {
	if s.panic {
		panic("driver exploded")
	}
	if s.err != nil {
		return s.err
	}
	s.got = append(s.got, o)
	return nil
}

func (s *stubOrders) List(context.Context) ([]contractx.ConfirmedOrder, error) {
	return s.got, nil
}

type stubIDs struct{}

func (stubIDs) Next() string { return "PD1" }

type countingRecorder struct{ n int }

func (r *countingRecorder) OrderFinalized() { r.n++ }

func leased(t *testing.T, customer string) (*statex.Table, *statex.Lease) {
	t.Helper()
	table := statex.NewTable(statex.WithClock(func() time.Time { return testNow }))
	lease, err := table.Get(customer)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	t.Cleanup(lease.Release)
	return table, lease
}

func awaitingPayment(t *testing.T) *GraphState {
	t.Helper()
	_, lease := leased(t, "c1")
	s := lease.Session()
	s.AddLine(contractx.MenuItem{ID: 1, Name: "Bolo A", Price: 2500})
	s.AddLine(contractx.MenuItem{ID: 2, Name: "Bolo B", Price: 2800})
	s.Stage = statex.StageAwaitingPayment

	return &GraphState{
		CustomerID: "c1",
		Now:        testNow,
		Lease:      lease,
		Session:    s,
		Outcome:    flow.Outcome{Effect: flow.EffectConfirmOrder},
	}
}

func TestValidateRequest(t *testing.T) {
	t.Parallel()

	_, lease := leased(t, "c1")
	now := func() time.Time { return testNow }

	if _, err := ValidateRequest(GraphInput{CustomerID: " ", Lease: lease}, now); !errors.Is(err, statex.ErrEmptyCustomer) {
		t.Fatalf("ValidateRequest() error = %v, want ErrEmptyCustomer", err)
	}
	if _, err := ValidateRequest(GraphInput{CustomerID: "c1"}, now); !errors.Is(err, ErrMissingLease) {
		t.Fatalf("ValidateRequest() error = %v, want ErrMissingLease", err)
	}
	if _, err := ValidateRequest(GraphInput{CustomerID: "c2", Lease: lease}, now); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("ValidateRequest() error = %v, want ErrValidation", err)
	}

	st, err := ValidateRequest(GraphInput{CustomerID: "c1", Text: "  1 ", Lease: lease}, now)
	if err != nil {
		t.Fatalf("ValidateRequest() error = %v", err)
	}
	if st.Text != "1" || st.Session != lease.Session() || !st.Now.Equal(testNow) {
		t.Fatalf("ValidateRequest() = %+v", st)
	}
}

func TestConfirmOrderPersistsSnapshot(t *testing.T) {
	t.Parallel()

	in := awaitingPayment(t)
	orders := &stubOrders{}
	rec := &countingRecorder{}
	texts := reply.MustNew(reply.DefaultBusiness())

	out, err := ConfirmOrder(context.Background(), in, ConfirmDeps{Orders: orders, IDs: stubIDs{}, Recorder: rec, Texts: texts})
	if err != nil {
		t.Fatalf("ConfirmOrder() error = %v", err)
	}

	if len(orders.got) != 1 {
		t.Fatalf("appended %d orders, want 1", len(orders.got))
	}
	o := orders.got[0]
	if o.ID != "PD1" || o.Total != 5300 || len(o.Items) != 2 || o.Status != contractx.OrderConfirmed || !o.CreatedAt.Equal(testNow) {
		t.Fatalf("order = %+v", o)
	}
	if rec.n != 1 {
		t.Fatalf("recorder = %d, want 1", rec.n)
	}
	if out.Reply != texts.PaymentConfirmed() || out.OrderID != "PD1" {
		t.Fatalf("reply = %q order = %q", out.Reply, out.OrderID)
	}
	if out.Session.Stage != statex.StageMenu || len(out.Session.Cart) != 0 {
		t.Fatalf("session not reset: %+v", out.Session)
	}
	if out.Lease.Session() != out.Session {
		t.Fatal("lease does not hold the fresh session")
	}

	out.Session.AddLine(contractx.MenuItem{ID: 9, Name: "x", Price: 1})
	if len(o.Items) != 2 {
		t.Fatal("order items alias the session cart")
	}
}

func TestConfirmOrderFailurePolicies(t *testing.T) {
	t.Parallel()

	texts := reply.MustNew(reply.DefaultBusiness())

	for _, tc := range []struct {
		name      string
		orders    *stubOrders
		retain    bool
		wantStage statex.Stage
	}{
		{name: "reset on error", orders: &stubOrders{err: contractx.ErrStorageWriteFailed}, wantStage: statex.StageMenu},
		{name: "reset on panic", orders: &stubOrders{panic: true}, wantStage: statex.StageMenu},
		{name: "retain on error", orders: &stubOrders{err: contractx.ErrStorageWriteFailed}, retain: true, wantStage: statex.StageAwaitingPayment},
	} {
		t.Run(tc.name, func(t *testing.T) {
			in := awaitingPayment(t)
			rec := &countingRecorder{}

			out, err := ConfirmOrder(context.Background(), in, ConfirmDeps{
				Orders:              tc.orders,
				IDs:                 stubIDs{},
				Recorder:            rec,
				Texts:               texts,
				RetainCartOnFailure: tc.retain,
			})
			if err != nil {
				t.Fatalf("ConfirmOrder() error = %v", err)
			}
			if out.Reply != texts.OrderFailed() {
				t.Fatalf("reply = %q", out.Reply)
			}
			if rec.n != 0 {
				t.Fatalf("recorder = %d, want 0", rec.n)
			}
			if out.Session.Stage != tc.wantStage {
				t.Fatalf("stage = %s, want %s", out.Session.Stage, tc.wantStage)
			}
		})
	}
}

func TestConfirmOrderSkipsWithoutEffect(t *testing.T) {
	t.Parallel()

	in := awaitingPayment(t)
	in.Outcome = flow.Outcome{Reply: "x"}
	orders := &stubOrders{}

	if _, err := ConfirmOrder(context.Background(), in, ConfirmDeps{Orders: orders}); err != nil {
		t.Fatalf("ConfirmOrder() error = %v", err)
	}
	if len(orders.got) != 0 {
		t.Fatal("order appended without confirm effect")
	}
}

func TestFinalizeReply(t *testing.T) {
	t.Parallel()

	_, lease := leased(t, "c1")
	st := &GraphState{Session: lease.Session(), Reply: " ok \n"}

	out, err := FinalizeReply(st)
	if err != nil || out.Reply != "ok" || out.Silent {
		t.Fatalf("FinalizeReply() = %+v, %v", out, err)
	}

	st.Outcome.Silent = true
	out, err = FinalizeReply(st)
	if err != nil || !out.Silent || out.Reply != "" {
		t.Fatalf("FinalizeReply(silent) = %+v, %v", out, err)
	}

	st.Outcome.Silent = false
	st.Reply = ""
	if _, err := FinalizeReply(st); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("FinalizeReply(empty) error = %v, want ErrValidation", err)
	}

	st.Session.Stage = "bogus"
	st.Reply = "x"
	if _, err := FinalizeReply(st); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("FinalizeReply(invalid stage) error = %v, want ErrValidation", err)
	}
}
