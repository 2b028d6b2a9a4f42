package flow

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Order-Bot/bot/contract"
	"github.com/tanpawarit/Chative-Order-Bot/bot/reply"
	statex "github.com/tanpawarit/Chative-Order-Bot/bot/state"
)

const (
	CmdReset     = "0"
	CmdTerminate = "9"
)

var greetingPattern = regexp.MustCompile(`(?i)^(oi|olá|ola|menu|inicio|iniciar|start)$`)

// Menu is the catalog as seen by the stage handlers. It is read on every call.
type Menu interface {
	Load(ctx context.Context) ([]contractx.MenuItem, error)
	Find(ctx context.Context, id int) (contractx.MenuItem, bool, error)
}

type Effect int

const (
	EffectNone Effect = iota
	// EffectConfirmOrder asks the caller to persist the cart as a confirmed order.
	EffectConfirmOrder
)

func (e Effect) String() string {
	switch e {
	case EffectConfirmOrder:
		return "confirm_order"
	default:
		return "none"
	}
}

// Outcome is the result of one transition.
type Outcome struct {
	Reply  string
	Silent bool
	Effect Effect
	// Action names the transition for logs ("saudacao", "item_adicionado", ...).
	Action string
	// Reset is set when the session was replaced by a fresh one.
	Reset bool
	// Rejected explains why the input was refused; the reply is still sent.
	Rejected error
}

func IsGreeting(input string) bool {
	return greetingPattern.MatchString(input)
}

// Transition applies input to s. s is mutated in place and is the only state
// touched; catalog reads go through menu.
func Transition(
	ctx context.Context,
	s *statex.Session,
	input string,
	menu Menu,
	texts *reply.Texts,
	now time.Time,
) (Outcome, error) {
	if s == nil {
		return Outcome{}, fmt.Errorf("%w: nil session", contractx.ErrValidation)
	}
	if texts == nil {
		return Outcome{}, fmt.Errorf("%w: reply texts are nil", contractx.ErrValidation)
	}
	input = strings.TrimSpace(input)

	switch {
	case s.Closed && input != CmdReset:
		return Outcome{Silent: true, Action: "ignorada"}, nil

	case input == CmdTerminate:
		s.Close()
		return Outcome{Reply: texts.Farewell(), Action: "encerrada"}, nil

	case input == CmdReset:
		*s = *statex.NewSession(s.CustomerID, now)
		return Outcome{Reply: texts.Greeting(), Action: "reiniciada", Reset: true}, nil

	case IsGreeting(input):
		s.Stage = statex.StageMenu
		return Outcome{Reply: texts.Greeting(), Action: "saudacao"}, nil
	}

	switch s.Stage {
	case statex.StageMenu:
		return handleMenu(ctx, s, input, menu, texts)
	case statex.StageCatalogBrowse:
		return handleCatalog(ctx, s, input, menu, texts)
	case statex.StageCartReview:
		return handleCart(ctx, s, input, menu, texts)
	case statex.StageAwaitingPayment:
		return Outcome{Effect: EffectConfirmOrder, Action: "pagamento"}, nil
	default:
		return Outcome{}, fmt.Errorf("%w: %q", statex.ErrInvalidStage, s.Stage)
	}
}

func handleMenu(ctx context.Context, s *statex.Session, input string, menu Menu, texts *reply.Texts) (Outcome, error) {
	switch input {
	case "1", "4":
		catalog, err := catalogText(ctx, menu, texts)
		if err != nil {
			return Outcome{}, err
		}
		s.Stage = statex.StageCatalogBrowse
		return Outcome{Reply: catalog, Action: "navegacao"}, nil
	case "2":
		return Outcome{Reply: texts.Location(), Action: "localizacao"}, nil
	case "3":
		return Outcome{Reply: texts.Pix(), Action: "pix"}, nil
	case "5":
		return Outcome{Reply: texts.Social(), Action: "redes_sociais"}, nil
	case "6":
		return Outcome{Reply: texts.Attendant(), Action: "atendente"}, nil
	default:
		return Outcome{Reply: texts.Greeting(), Action: "menu"}, nil
	}
}

func handleCatalog(ctx context.Context, s *statex.Session, input string, menu Menu, texts *reply.Texts) (Outcome, error) {
	if input == CmdReset {
		s.Stage = statex.StageMenu
		return Outcome{Reply: texts.Greeting(), Action: "navegacao"}, nil
	}

	id, err := strconv.Atoi(input)
	if err != nil {
		return invalidSelection(input, texts), nil
	}
	if menu == nil {
		return Outcome{}, fmt.Errorf("%w: catalog is not configured", contractx.ErrValidation)
	}
	item, ok, err := menu.Find(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	if !ok {
		return invalidSelection(input, texts), nil
	}

	s.AddLine(item)
	s.Stage = statex.StageCartReview
	return Outcome{Reply: texts.ItemAdded(item, s.Cart), Action: "item_adicionado"}, nil
}

func invalidSelection(input string, texts *reply.Texts) Outcome {
	return Outcome{
		Reply:    texts.InvalidNumber(),
		Action:   "numero_invalido",
		Rejected: fmt.Errorf("%w: %q is not a catalog id", contractx.ErrInvalidSelection, input),
	}
}

func handleCart(ctx context.Context, s *statex.Session, input string, menu Menu, texts *reply.Texts) (Outcome, error) {
	switch input {
	case "1":
		catalog, err := catalogText(ctx, menu, texts)
		if err != nil {
			return Outcome{}, err
		}
		s.Stage = statex.StageCatalogBrowse
		return Outcome{Reply: catalog, Action: "navegacao"}, nil

	case "2":
		removed, ok := s.RemoveLast()
		if !ok {
			return Outcome{Reply: texts.CartAlreadyEmpty(), Action: "carrinho_vazio"}, nil
		}
		return Outcome{Reply: texts.ItemRemoved(removed, s.Cart), Action: "item_removido"}, nil

	case "3":
		s.ClearCart()
		s.Stage = statex.StageMenu
		return Outcome{Reply: texts.CartCleared(), Action: "carrinho_limpo"}, nil

	case "4":
		if len(s.Cart) == 0 {
			return Outcome{Reply: texts.CartEmpty(), Action: "carrinho_vazio"}, nil
		}
		s.Stage = statex.StageAwaitingPayment
		return Outcome{Reply: texts.OrderSlip(s.CustomerID, s.Cart), Action: "finalizacao"}, nil

	default:
		return Outcome{Reply: texts.CartMenu(s.Cart), Action: "carrinho"}, nil
	}
}

func catalogText(ctx context.Context, menu Menu, texts *reply.Texts) (string, error) {
	if menu == nil {
		return "", fmt.Errorf("%w: catalog is not configured", contractx.ErrValidation)
	}
	items, err := menu.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load catalog: %w", err)
	}
	return texts.Catalog(items), nil
}
