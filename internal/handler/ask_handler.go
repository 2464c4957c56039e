package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/grupodv/dv-assistant-go/internal/domain"
	"github.com/grupodv/dv-assistant-go/internal/service"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Assistente: POST /api/ask
// ============================================================

func askHandler(assistant service.Asker, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}

		ctx, span := tracer.Start(r.Context(), "POST /api/ask")
		defer span.End()

		// A body that does not decode is treated like an empty question.
		var req domain.AskRequest
		_ = json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req)

		answer, err := assistant.Ask(ctx, req.Question, domain.ChannelAPI)
		if err != nil {
			var validation *domain.ErrValidation
			if errors.As(err, &validation) {
				writeError(w, http.StatusBadRequest, validation.Message)
				return
			}
			logger.Error("assistant failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{
				Error:   "assistant failed",
				Details: err.Error(),
			})
			return
		}

		span.SetAttributes(attribute.String("answer.source", string(answer.Source)))

		resp := domain.AskResponse{
			ID:     uuid.New().String(),
			Answer: answer.Text,
			Source: string(answer.Source),
		}
		switch {
		case answer.Source == domain.AnswerFromClock:
			resp.Meta = &domain.AskMeta{NowISO: answer.AnsweredAt.Format(time.RFC3339)}
		case answer.Period != nil:
			resp.Meta = &domain.AskMeta{Period: answer.Period}
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
