package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Order-Bot/bot/contract"
)

const maxResponseSizeBytes = 64 << 10

// Config is loaded with the CHANNEL_ prefix.
type Config struct {
	URL     string        `split_words:"true" required:"true"`
	Token   string        `split_words:"true"`
	Timeout time.Duration `split_words:"true" default:"10s"`
}

type Option func(*Webhook)

func WithHTTPClient(client *http.Client) Option {
	return func(w *Webhook) {
		if client != nil {
			w.httpClient = client
		}
	}
}

// Webhook delivers outbound messages by POSTing them to a messaging gateway.
type Webhook struct {
	url        string
	token      string
	httpClient *http.Client
}

var (
	_ contractx.MessageChannel = (*Webhook)(nil)
	_ contractx.Reconnector    = (*Webhook)(nil)
)

type outboundMessage struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

func NewWebhook(cfg Config, opts ...Option) (*Webhook, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("channel url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid channel url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	w := &Webhook{
		url:   baseURL,
		token: strings.TrimSpace(cfg.Token),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

func MustNew(cfg Config, opts ...Option) *Webhook {
	w, err := NewWebhook(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return w
}

// Send returns an error wrapping contract.ErrTransport when the gateway could
// not be reached and contract.ErrChannelSend when it rejected the message.
func (w *Webhook) Send(ctx context.Context, recipient string, text string) error {
	if strings.TrimSpace(recipient) == "" {
		return fmt.Errorf("%w: recipient is empty", contractx.ErrChannelSend)
	}

	body, err := json.Marshal(outboundMessage{To: recipient, Text: text})
	if err != nil {
		return fmt.Errorf("%w: marshal message: %v", contractx.ErrChannelSend, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", contractx.ErrChannelSend, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.token != "" {
		req.Header.Set("Authorization", "Bearer "+w.token)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", contractx.ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))

	switch {
	case resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices:
		return nil
	case resp.StatusCode == http.StatusBadGateway ||
		resp.StatusCode == http.StatusServiceUnavailable ||
		resp.StatusCode == http.StatusGatewayTimeout:
		return fmt.Errorf("%w: gateway status=%d body=%s", contractx.ErrTransport, resp.StatusCode, string(raw))
	default:
		return fmt.Errorf("%w: gateway status=%d body=%s", contractx.ErrChannelSend, resp.StatusCode, string(raw))
	}
}

// Reconnect drops pooled connections so the next Send dials afresh.
func (w *Webhook) Reconnect(ctx context.Context) error {
	w.httpClient.CloseIdleConnections()
	return ctx.Err()
}

// IsGroupOrBroadcast reports whether senderID addresses a group chat or the
// status broadcast list.
func IsGroupOrBroadcast(senderID string) bool {
	return strings.Contains(senderID, "@g.us") || strings.Contains(senderID, "status@broadcast")
}
