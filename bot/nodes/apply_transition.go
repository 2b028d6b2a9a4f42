package nodes

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Order-Bot/bot/contract"
	"github.com/tanpawarit/Chative-Order-Bot/bot/flow"
	"github.com/tanpawarit/Chative-Order-Bot/bot/reply"
	logx "github.com/tanpawarit/Chative-Order-Bot/pkg/logger"
)

func ApplyTransition(ctx context.Context, in *GraphState, menu flow.Menu, texts *reply.Texts) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph state is incomplete", contractx.ErrValidation)
	}

	from := in.Session.Stage
	out, err := flow.Transition(ctx, in.Session, in.Text, menu, texts, in.Now)
	if err != nil {
		return nil, err
	}
	in.Outcome = out
	in.Reply = out.Reply

	if !out.Silent {
		log.Info().
			Str("acao", out.Action).
			Str("chatId", logx.MaskID(in.CustomerID)).
			Str("de", string(from)).
			Str("para", string(in.Session.Stage)).
			Int("carrinho", len(in.Session.Cart)).
			AnErr("motivo", out.Rejected).
			Msg("conversation step")
	}
	return in, nil
}
