package nodes

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Order-Bot/bot/contract"
	"github.com/tanpawarit/Chative-Order-Bot/bot/flow"
	"github.com/tanpawarit/Chative-Order-Bot/bot/reply"
	statex "github.com/tanpawarit/Chative-Order-Bot/bot/state"
	logx "github.com/tanpawarit/Chative-Order-Bot/pkg/logger"
)

type IDSource interface {
	Next() string
}

type OrderRecorder interface {
	OrderFinalized()
}

type ConfirmDeps struct {
	Orders   contractx.OrderStore
	IDs      IDSource
	Recorder OrderRecorder
	Texts    *reply.Texts
	// RetainCartOnFailure keeps the session in awaiting payment when the append
	// fails so the next message retries. Default is to reset.
	RetainCartOnFailure bool
}

// ConfirmOrder runs only when the transition asked for it. The session is
// replaced by a fresh menu session afterwards.
func ConfirmOrder(ctx context.Context, in *GraphState, deps ConfirmDeps) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph state is incomplete", contractx.ErrValidation)
	}
	if in.Outcome.Effect != flow.EffectConfirmOrder {
		return in, nil
	}
	if deps.Orders == nil || deps.IDs == nil || deps.Texts == nil {
		return nil, fmt.Errorf("%w: order confirmation is not configured", contractx.ErrValidation)
	}

	items := in.Session.Snapshot()
	order := contractx.ConfirmedOrder{
		ID:         deps.IDs.Next(),
		CreatedAt:  in.Now,
		CustomerID: in.CustomerID,
		Items:      items,
		Total:      in.Session.Total(),
		Status:     contractx.OrderConfirmed,
	}

	if err := appendOrder(ctx, deps.Orders, order); err != nil {
		log.Error().
			Err(err).
			Str("acao", "salvar_pedido").
			Str("chatId", logx.MaskID(in.CustomerID)).
			Str("pedidoId", order.ID).
			Msg("order persistence failed")

		in.Reply = deps.Texts.OrderFailed()
		if deps.RetainCartOnFailure {
			return in, nil
		}
		in.Session = resetSession(in)
		return in, nil
	}

	if deps.Recorder != nil {
		deps.Recorder.OrderFinalized()
	}
	in.OrderID = order.ID
	in.Reply = deps.Texts.PaymentConfirmed()

	log.Info().
		Str("acao", "pagamento_confirmado").
		Str("chatId", logx.MaskID(in.CustomerID)).
		Str("pedidoId", order.ID).
		Int("itens", len(order.Items)).
		Str("total", order.Total.String()).
		Msg("order finalized")

	in.Session = resetSession(in)
	return in, nil
}

func appendOrder(ctx context.Context, store contractx.OrderStore, order contractx.ConfirmedOrder) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: order store panic: %v", contractx.ErrStorageWriteFailed, r)
		}
	}()
	return store.Append(ctx, order)
}

func resetSession(in *GraphState) *statex.Session {
	if in.Lease != nil {
		return in.Lease.Reset(in.Now)
	}
	*in.Session = *statex.NewSession(in.CustomerID, in.Now)
	return in.Session
}
