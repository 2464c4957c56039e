package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/grupodv/dv-assistant-go/internal/domain"
	"github.com/grupodv/dv-assistant-go/internal/infra/observability"
	"github.com/grupodv/dv-assistant-go/internal/port"

	"go.uber.org/zap"
)

const (
	// WhatsAppDefaultReply is sent when the LLM has nothing to say or fails.
	WhatsAppDefaultReply = "Certo! Como posso te ajudar hoje?"
	// DefaultOutboundText is used by the send endpoint when no text is given.
	DefaultOutboundText = "Hello from Grupo DV!"
)

// markReadTimeout bounds the read receipt, which outlives the webhook request.
const markReadTimeout = 10 * time.Second

// Webhook dispositions reported in WebhookOutcome.Reason.
const (
	ReasonBadSignature   = "bad_signature"
	ReasonInvalidPayload = "invalid_payload"
	ReasonNoMessage      = "no_message"
	ReasonUnsupported    = "unsupported_type"
	ReasonDuplicate      = "duplicate"
)

// Asker is the part of the assistant the WhatsApp bridge needs.
type Asker interface {
	Ask(ctx context.Context, question string, channel domain.Channel) (*domain.Answer, error)
}

// WhatsAppConfig carries the webhook secrets.
type WhatsAppConfig struct {
	VerifyToken string
	// AppSecret enables X-Hub-Signature-256 validation when set.
	AppSecret string
}

// WhatsAppService bridges the WhatsApp Cloud API webhook to the assistant.
type WhatsAppService struct {
	assistant Asker
	sender    port.MessageSender
	seen      port.Cache[bool]
	cfg       WhatsAppConfig
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewWhatsAppService creates the bridge. seen remembers processed message ids.
func NewWhatsAppService(
	assistant Asker,
	sender port.MessageSender,
	seen port.Cache[bool],
	cfg WhatsAppConfig,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *WhatsAppService {
	return &WhatsAppService{
		assistant: assistant,
		sender:    sender,
		seen:      seen,
		cfg:       cfg,
		metrics:   metrics,
		logger:    logger,
	}
}

// VerifyChallenge validates the subscription handshake and returns the
// challenge to echo back.
func (s *WhatsAppService) VerifyChallenge(mode, token, challenge string) (string, error) {
	if s.cfg.VerifyToken == "" {
		return "", &domain.ErrDependencyMissing{Name: "WHATSAPP_VERIFY_TOKEN"}
	}
	if mode != "subscribe" || subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.VerifyToken)) != 1 {
		return "", &domain.ErrUnauthorized{Message: "forbidden"}
	}
	return challenge, nil
}

// HandleWebhook processes one webhook delivery: it picks the first text
// message, answers it and sends the reply. Events that cannot be answered
// are reported as ignored, not as errors.
func (s *WhatsAppService) HandleWebhook(ctx context.Context, body []byte, signature string) (*domain.WebhookOutcome, error) {
	ctx, span := tracer.Start(ctx, "WhatsAppService.HandleWebhook")
	defer span.End()

	if s.cfg.AppSecret != "" && !validSignature(body, signature, s.cfg.AppSecret) {
		s.logger.Warn("webhook signature mismatch")
		return s.ignore(ReasonBadSignature), nil
	}

	var payload domain.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return s.ignore(ReasonInvalidPayload), nil
	}

	msg, ok := payload.FirstMessage()
	if !ok {
		return s.ignore(ReasonNoMessage), nil
	}
	text := msg.Body()
	if text == "" {
		return s.ignore(ReasonUnsupported), nil
	}
	if msg.ID != "" && !s.seen.SetIfAbsent(msg.ID, true) {
		s.logger.Info("duplicate webhook delivery", zap.String("message_id", msg.ID))
		return s.ignore(ReasonDuplicate), nil
	}
	s.metrics.IncrWebhookEvent("processed")

	logger := s.logger.With(
		zap.String("correlation_id", uuid.NewString()),
		zap.String("message_id", msg.ID),
	)

	if msg.ID != "" {
		detached := context.WithoutCancel(ctx)
		go func(id string) {
			ctx, cancel := context.WithTimeout(detached, markReadTimeout)
			defer cancel()
			if err := s.sender.MarkRead(ctx, id); err != nil {
				logger.Debug("mark read failed", zap.Error(err))
			}
		}(msg.ID)
	}

	outcome := &domain.WebhookOutcome{}
	reply := WhatsAppDefaultReply
	answer, err := s.assistant.Ask(ctx, text, domain.ChannelWhatsApp)
	if err != nil {
		logger.Error("assistant failed, sending default reply", zap.Error(err))
		outcome.Used = domain.AnswerDefault
	} else {
		reply = answer.Text
		outcome.Used = answer.Source
	}

	sent, err := s.sender.SendText(ctx, msg.From, reply)
	if err != nil {
		logger.Error("whatsapp send failed", zap.Error(err))
	}
	outcome.Sent = sent
	return outcome, nil
}

// Send delivers a free-form text to a recipient.
func (s *WhatsAppService) Send(ctx context.Context, req *domain.SendTextRequest) (*domain.SendTextResponse, error) {
	to := digitsOnly(req.To)
	if to == "" {
		return nil, &domain.ErrValidation{Field: "to", Message: "missing_to"}
	}
	text := req.Text
	if strings.TrimSpace(text) == "" {
		text = DefaultOutboundText
	}

	sent, err := s.sender.SendText(ctx, to, text)
	if err != nil {
		return nil, fmt.Errorf("whatsapp send: %w", err)
	}
	return &domain.SendTextResponse{OK: true, Sent: sent}, nil
}

func (s *WhatsAppService) ignore(reason string) *domain.WebhookOutcome {
	s.metrics.IncrWebhookEvent(reasonMetric(reason))
	return &domain.WebhookOutcome{Ignored: true, Reason: reason}
}

func reasonMetric(reason string) string {
	switch reason {
	case ReasonDuplicate, ReasonBadSignature:
		return reason
	}
	return "ignored"
}

// validSignature checks X-Hub-Signature-256 ("sha256=<hex hmac>").
func validSignature(body []byte, header, secret string) bool {
	sig, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
