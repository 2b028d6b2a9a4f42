package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Order-Bot/bot/contract"
	"github.com/tanpawarit/Chative-Order-Bot/bot/reply"
	logx "github.com/tanpawarit/Chative-Order-Bot/pkg/logger"
)

const DefaultReconnectDelay = 5 * time.Second

// Config is loaded with the DISPATCH_ prefix.
type Config struct {
	ReconnectDelay time.Duration `split_words:"true" default:"5s"`
	MaxInputLength int           `split_words:"true" default:"500"`
}

// Handler produces the reply for one customer message. An empty reply means
// nothing is sent.
type Handler interface {
	HandleMessage(ctx context.Context, customerID string, text string) (string, error)
}

type Counters interface {
	MessageReceived()
	Error()
}

// Dispatcher turns inbound events into engine calls and sends the replies.
type Dispatcher struct {
	handler  Handler
	channel  contractx.MessageChannel
	counters Counters
	cfg      Config

	reconnectMu      sync.Mutex
	reconnectPending bool
	wg               sync.WaitGroup
}

func New(handler Handler, channel contractx.MessageChannel, counters Counters, cfg Config) (*Dispatcher, error) {
	if handler == nil {
		return nil, errors.New("message handler is required")
	}
	if channel == nil {
		return nil, errors.New("message channel is required")
	}
	if counters == nil {
		counters = noopCounters{}
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.MaxInputLength <= 0 {
		cfg.MaxInputLength = DefaultMaxInputLength
	}
	return &Dispatcher{
		handler:  handler,
		channel:  channel,
		counters: counters,
		cfg:      cfg,
	}, nil
}

// Dispatch handles one event to completion. Failures never propagate: they are
// counted, logged and answered with an apology.
func (d *Dispatcher) Dispatch(ctx context.Context, ev contractx.InboundEvent) {
	if ev.IsGroupOrBroadcast || strings.TrimSpace(ev.SenderID) == "" {
		return
	}

	eventID := uuid.NewString()
	logger := log.With().
		Str("eventId", eventID).
		Str("chatId", logx.MaskID(ev.SenderID)).
		Logger()

	text := Sanitize(ev.Body, d.cfg.MaxInputLength)
	d.counters.MessageReceived()

	replyText, err := d.handle(ctx, ev.SenderID, text)
	if err != nil {
		d.counters.Error()
		logger.Error().Err(err).Str("acao", "erro").Msg("message handling failed")
		d.send(ctx, ev.SenderID, reply.Apology, eventID)
		return
	}
	if replyText == "" {
		logger.Debug().Msg("no reply")
		return
	}
	d.send(ctx, ev.SenderID, replyText, eventID)
}

func (d *Dispatcher) handle(ctx context.Context, customerID, text string) (replyText string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", contractx.ErrHandlerFault, r)
			log.Error().Str("stack", string(debug.Stack())).Msg("recovered handler panic")
		}
	}()

	replyText, err = d.handler.HandleMessage(ctx, customerID, text)
	if err != nil {
		return "", fmt.Errorf("%w: %w", contractx.ErrHandlerFault, err)
	}
	return replyText, nil
}

func (d *Dispatcher) send(ctx context.Context, to, text, eventID string) {
	err := d.channel.Send(ctx, to, text)
	if err == nil {
		return
	}

	log.Error().
		Err(err).
		Str("acao", "envio_mensagem").
		Str("eventId", eventID).
		Str("chatId", logx.MaskID(to)).
		Msg("send reply failed")

	if errors.Is(err, contractx.ErrTransport) {
		if rc, ok := d.channel.(contractx.Reconnector); ok {
			d.scheduleReconnect(rc)
		}
	}
}

// scheduleReconnect runs at most one pending reconnect at a time.
func (d *Dispatcher) scheduleReconnect(rc contractx.Reconnector) {
	d.reconnectMu.Lock()
	if d.reconnectPending {
		d.reconnectMu.Unlock()
		return
	}
	d.reconnectPending = true
	d.reconnectMu.Unlock()

	log.Warn().
		Str("acao", "protocol_error").
		Dur("delay", d.cfg.ReconnectDelay).
		Msg("transport unstable, scheduling reconnect")

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			d.reconnectMu.Lock()
			d.reconnectPending = false
			d.reconnectMu.Unlock()
		}()

		time.Sleep(d.cfg.ReconnectDelay)
		if err := rc.Reconnect(context.Background()); err != nil {
			log.Error().Err(err).Str("acao", "reconexao").Msg("reconnect failed")
			return
		}
		log.Info().Str("acao", "reconexao").Msg("channel reconnected")
	}()
}

// Wait blocks until scheduled reconnects have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

type noopCounters struct{}

func (noopCounters) MessageReceived() {}
func (noopCounters) Error()           {}
