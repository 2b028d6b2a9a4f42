package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/Chative-Order-Bot/bot/channel"
	contractx "github.com/tanpawarit/Chative-Order-Bot/bot/contract"
	"github.com/tanpawarit/Chative-Order-Bot/bot/stats"
	"github.com/tanpawarit/Chative-Order-Bot/pkg/httpx"
)

const maxBodyBytes = 64 << 10

type Dispatcher interface {
	Dispatch(ctx context.Context, ev contractx.InboundEvent)
}

type SessionCounter interface {
	Len() int
}

type Deps struct {
	Dispatcher Dispatcher
	Sessions   SessionCounter
	Counters   *stats.Counters
	BotName    string
	Now        func() time.Time
}

type inboundMessage struct {
	From    string `json:"from"`
	Body    string `json:"body"`
	IsGroup bool   `json:"isGroup"`
}

type healthResponse struct {
	Status    string         `json:"status"`
	Bot       string         `json:"bot"`
	Metrics   stats.Snapshot `json:"metrics"`
	StateSize int            `json:"stateSize"`
	Uptime    float64        `json:"uptime"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewRouter exposes the inbound message webhook and the status endpoint.
func NewRouter(deps Deps) http.Handler {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", deps.health)
	r.Get("/health", deps.health)
	r.Post("/webhook/messages", deps.inbound)

	return r
}

func (d Deps) inbound(w http.ResponseWriter, r *http.Request) {
	var msg inboundMessage
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&msg); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid message payload")
		return
	}
	from := strings.TrimSpace(msg.From)
	if from == "" {
		httpx.RespondError(w, http.StatusBadRequest, "from is required")
		return
	}

	ev := contractx.InboundEvent{
		SenderID:           from,
		Body:               msg.Body,
		IsGroupOrBroadcast: msg.IsGroup || channel.IsGroupOrBroadcast(from),
	}
	if ev.IsGroupOrBroadcast {
		httpx.RespondJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	// The reply is sent even if the caller hangs up.
	d.Dispatcher.Dispatch(context.WithoutCancel(r.Context()), ev)
	httpx.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (d Deps) health(w http.ResponseWriter, r *http.Request) {
	active := 0
	if d.Sessions != nil {
		active = d.Sessions.Len()
	}

	now := d.Now()
	resp := healthResponse{
		Status:    "online",
		Bot:       d.BotName,
		StateSize: active,
		Timestamp: now.UTC(),
	}
	if d.Counters != nil {
		resp.Metrics = d.Counters.Snapshot(active)
		resp.Uptime = now.Sub(d.Counters.StartedAt()).Seconds()
	}
	httpx.RespondJSON(w, http.StatusOK, resp)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		log.Debug().
			Str("requestId", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("latency", time.Since(start)).
			Msg("http request")
	})
}
