package engine

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/tanpawarit/Chative-Order-Bot/bot/contract"
	"github.com/tanpawarit/Chative-Order-Bot/bot/flow"
	nodex "github.com/tanpawarit/Chative-Order-Bot/bot/nodes"
	"github.com/tanpawarit/Chative-Order-Bot/bot/reply"
	statex "github.com/tanpawarit/Chative-Order-Bot/bot/state"
)

type Config struct {
	RetainCartOnOrderFailure bool
}

type Deps struct {
	Sessions statex.Store
	Menu     flow.Menu
	Orders   contractx.OrderStore
	IDs      nodex.IDSource
	Texts    *reply.Texts
	Recorder nodex.OrderRecorder
	Now      func() time.Time
}

// Engine routes one inbound message through the stage machine for its customer.
type Engine struct {
	sessions statex.Store
	menu     flow.Menu
	orders   contractx.OrderStore
	ids      nodex.IDSource
	texts    *reply.Texts
	recorder nodex.OrderRecorder
	now      func() time.Time
	cfg      Config

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]
}

func New(deps Deps, cfg Config) (*Engine, error) {
	if deps.Sessions == nil {
		return nil, errors.New("session store is required")
	}
	if deps.Menu == nil {
		return nil, errors.New("catalog is required")
	}
	if deps.Orders == nil {
		return nil, errors.New("order store is required")
	}
	if deps.IDs == nil {
		return nil, errors.New("order id source is required")
	}
	if deps.Texts == nil {
		return nil, errors.New("reply texts are required")
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	e := &Engine{
		sessions: deps.Sessions,
		menu:     deps.Menu,
		orders:   deps.Orders,
		ids:      deps.IDs,
		texts:    deps.Texts,
		recorder: deps.Recorder,
		now:      now,
		cfg:      cfg,
	}

	graphRunner, err := e.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	e.graphRunner = graphRunner

	return e, nil
}

// HandleMessage returns the reply for text, or "" when the session is closed
// and the message must go unanswered.
func (e *Engine) HandleMessage(ctx context.Context, customerID string, text string) (string, error) {
	lease, err := e.sessions.Get(customerID)
	if err != nil {
		return "", err
	}
	defer lease.Release()

	out, err := e.graphRunner.Invoke(ctx, nodex.GraphInput{
		CustomerID: customerID,
		Text:       text,
		Lease:      lease,
	})
	if err != nil {
		return "", err
	}
	if out.Silent {
		return "", nil
	}
	return out.Reply, nil
}

func (e *Engine) confirmDeps() nodex.ConfirmDeps {
	return nodex.ConfirmDeps{
		Orders:              e.orders,
		IDs:                 e.ids,
		Recorder:            e.recorder,
		Texts:               e.texts,
		RetainCartOnFailure: e.cfg.RetainCartOnOrderFailure,
	}
}
