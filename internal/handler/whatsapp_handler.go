package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/grupodv/dv-assistant-go/internal/domain"
	"github.com/grupodv/dv-assistant-go/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// maxWebhookBody caps the size of a webhook delivery.
const maxWebhookBody = 1 << 20

type webhookResponse struct {
	OK      bool   `json:"ok"`
	Used    string `json:"used,omitempty"`
	Sent    bool   `json:"sent,omitempty"`
	Ignored bool   `json:"ignored,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ============================================================
// WhatsApp: GET/POST /api/whatsapp
// ============================================================

func whatsappWebhookHandler(svc *service.WhatsAppService, policy WebhookPolicy, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			verifyWebhook(w, r, svc, logger)
		case http.MethodPost:
			receiveWebhook(w, r, svc, policy, logger)
		default:
			methodNotAllowed(w, "GET, POST")
		}
	}
}

func verifyWebhook(w http.ResponseWriter, r *http.Request, svc *service.WhatsAppService, logger *zap.Logger) {
	q := r.URL.Query()
	challenge, err := svc.VerifyChallenge(q.Get("hub.mode"), q.Get("hub.verify_token"), q.Get("hub.challenge"))
	if err != nil {
		var unauthorized *domain.ErrUnauthorized
		if errors.As(err, &unauthorized) {
			logger.Warn("webhook verification refused", zap.String("remote_addr", r.RemoteAddr))
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, "Forbidden")
			return
		}
		handleServiceError(w, err, logger)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, challenge)
}

func receiveWebhook(w http.ResponseWriter, r *http.Request, svc *service.WhatsAppService, policy WebhookPolicy, logger *zap.Logger) {
	ctx, span := tracer.Start(r.Context(), "POST /api/whatsapp")
	defer span.End()

	failStatus := http.StatusInternalServerError
	if policy.AlwaysAck {
		failStatus = http.StatusOK
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		logger.Warn("webhook body unreadable", zap.Error(err))
		writeJSON(w, failStatus, webhookResponse{OK: false, Error: "invalid_body"})
		return
	}

	outcome, err := svc.HandleWebhook(ctx, body, r.Header.Get("X-Hub-Signature-256"))
	if err != nil {
		logger.Error("webhook processing failed", zap.Error(err))
		writeJSON(w, failStatus, webhookResponse{OK: false, Error: "internal_error"})
		return
	}

	if outcome.Ignored {
		span.SetAttributes(attribute.String("webhook.ignored", outcome.Reason))
		writeJSON(w, http.StatusOK, webhookResponse{OK: true, Ignored: true, Reason: outcome.Reason})
		return
	}

	span.SetAttributes(attribute.String("webhook.used", string(outcome.Used)))
	writeJSON(w, http.StatusOK, webhookResponse{OK: true, Used: string(outcome.Used), Sent: outcome.Sent})
}

// ============================================================
// WhatsApp: POST /api/whatsapp-send
// ============================================================

func whatsappSendHandler(svc *service.WhatsAppService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeJSON(w, http.StatusMethodNotAllowed, webhookResponse{OK: false, Error: "method_not_allowed"})
			return
		}

		ctx, span := tracer.Start(r.Context(), "POST /api/whatsapp-send")
		defer span.End()

		var req domain.SendTextRequest
		_ = json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req)

		resp, err := svc.Send(ctx, &req)
		if err != nil {
			var validation *domain.ErrValidation
			if errors.As(err, &validation) {
				writeJSON(w, http.StatusBadRequest, webhookResponse{OK: false, Error: validation.Message})
				return
			}
			logger.Error("whatsapp send failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, webhookResponse{OK: false, Error: "internal_error"})
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
