package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/grupodv/dv-assistant-go/internal/domain"
	"github.com/grupodv/dv-assistant-go/internal/infra/observability"
	"github.com/grupodv/dv-assistant-go/internal/infra/resilience"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// WhatsAppConfig configures the Graph API client.
type WhatsAppConfig struct {
	GraphURL      string // e.g. https://graph.facebook.com
	APIVersion    string // e.g. v19.0
	PhoneNumberID string
	Token         string
	// SendRate is the maximum number of Graph calls per second.
	SendRate float64
}

// WhatsAppClient sends messages through the WhatsApp Cloud API.
type WhatsAppClient struct {
	httpClient *http.Client
	cfg        WhatsAppConfig
	limiter    *rate.Limiter
	breaker    *resilience.Breaker
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewWhatsAppClient creates a new WhatsAppClient.
func NewWhatsAppClient(
	httpClient *http.Client,
	cfg WhatsAppConfig,
	breaker *resilience.Breaker,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *WhatsAppClient {
	limit := rate.Inf
	burst := 1
	if cfg.SendRate > 0 {
		limit = rate.Limit(cfg.SendRate)
		burst = max(1, int(cfg.SendRate))
	}
	return &WhatsAppClient{
		httpClient: httpClient,
		cfg:        cfg,
		limiter:    rate.NewLimiter(limit, burst),
		breaker:    breaker,
		metrics:    metrics,
		logger:     logger,
	}
}

type textBody struct {
	Body string `json:"body"`
}

type sendTextPayload struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type markReadPayload struct {
	MessagingProduct string `json:"messaging_product"`
	Status           string `json:"status"`
	MessageID        string `json:"message_id"`
}

// SendText posts a text message. A non-2xx answer is logged and reported
// as not sent; only transport failures return an error.
func (c *WhatsAppClient) SendText(ctx context.Context, to, body string) (bool, error) {
	ctx, span := tracer.Start(ctx, "WhatsAppClient.SendText")
	defer span.End()

	status, respBody, err := c.post(ctx, sendTextPayload{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             textBody{Body: body},
	})
	if err != nil {
		c.metrics.IncrWhatsAppSend("failed")
		c.metrics.IncrUpstreamError("whatsapp")
		return false, err
	}
	if status < 200 || status > 299 {
		c.logger.Error("whatsapp send rejected",
			zap.Int("status", status),
			zap.String("body", truncate(respBody, 500)),
		)
		c.metrics.IncrWhatsAppSend("failed")
		return false, nil
	}
	c.metrics.IncrWhatsAppSend("sent")
	return true, nil
}

// MarkRead flags an inbound message as read.
func (c *WhatsAppClient) MarkRead(ctx context.Context, messageID string) error {
	status, body, err := c.post(ctx, markReadPayload{
		MessagingProduct: "whatsapp",
		Status:           "read",
		MessageID:        messageID,
	})
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return &domain.ErrUpstreamStatus{Service: "whatsapp", StatusCode: status, Body: truncate(body, 200)}
	}
	return nil
}

func (c *WhatsAppClient) post(ctx context.Context, payload any) (int, string, error) {
	if c.cfg.Token == "" || c.cfg.PhoneNumberID == "" {
		return 0, "", &domain.ErrDependencyMissing{Name: "WHATSAPP_TOKEN/WHATSAPP_PHONE_NUMBER_ID"}
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, "", err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return 0, "", err
	}
	url := fmt.Sprintf("%s/%s/%s/messages", c.cfg.GraphURL, c.cfg.APIVersion, c.cfg.PhoneNumberID)

	var (
		status int
		body   []byte
	)
	err = c.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		status = resp.StatusCode
		body, _ = io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return nil
	})
	if err != nil {
		return 0, "", &domain.ErrExternalService{Service: "whatsapp", Err: err}
	}
	return status, string(body), nil
}
