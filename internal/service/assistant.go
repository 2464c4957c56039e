package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grupodv/dv-assistant-go/internal/domain"
	"github.com/grupodv/dv-assistant-go/internal/infra/observability"
	"github.com/grupodv/dv-assistant-go/internal/locale"
	"github.com/grupodv/dv-assistant-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// NoDataAnswer is the sentence used whenever the figures are missing.
const NoDataAnswer = "Não encontrei dados suficientes para esse pedido."

const apiSystemPrompt = `Você é o Assistente Grupo DV.

REGRAS IMPORTANTES:
- Use APENAS os dados JSON fornecidos neste chat quando a pergunta for sobre as empresas/relatórios.
- Se não houver dados suficientes para responder com número, diga exatamente: "` + NoDataAnswer + `"
- Para percentuais: percentual = ((valor_atual - valor_base) / |valor_base|) * 100. Informe 2 casas decimais.
- Se a pergunta for sobre a data atual, já foi respondida pelo servidor.
- Tolere erros de português e variações de nome de empresa (ex: "mercato" → "MERCATTO DELÍCIA").
- Ao responder, cite claramente o período usado (ex: "ontem", "mês passado", ou datas ISO).
- Nunca invente valores. Se algum relatório estiver com erro, diga que está indisponível.`

const whatsappSystemPrompt = `Você é o assistente oficial do GRUPO DV no WhatsApp.
Responda em mensagens curtas. Use somente os dados JSON fornecidos; nunca invente valores.
Quando não houver dados estruturados disponíveis, responda de forma útil e peça o período e a empresa.
Fale sempre em português do Brasil.`

// channelProfile is how one channel talks to the LLM.
type channelProfile struct {
	prompt      string
	temperature float32
	emptyReply  string
}

func profileFor(ch domain.Channel) channelProfile {
	switch ch {
	case domain.ChannelWhatsApp:
		return channelProfile{prompt: whatsappSystemPrompt, temperature: 0.2, emptyReply: WhatsAppDefaultReply}
	case domain.ChannelAPI:
		return channelProfile{prompt: apiSystemPrompt, temperature: 0.1, emptyReply: NoDataAnswer}
	}
	return channelProfile{prompt: apiSystemPrompt, temperature: 0.1, emptyReply: NoDataAnswer}
}

// Assistant answers questions from any channel: date questions from the
// clock, sales figures from the reports and everything else through the LLM.
type Assistant struct {
	resolver *Resolver
	llm      port.ChatCompleter
	now      locale.Clock
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewAssistant creates the assistant service with all dependencies injected.
func NewAssistant(
	resolver *Resolver,
	llm port.ChatCompleter,
	now locale.Clock,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Assistant {
	return &Assistant{
		resolver: resolver,
		llm:      llm,
		now:      now,
		metrics:  metrics,
		logger:   logger,
	}
}

// Ask answers question for the given channel. An error means the LLM was
// needed and could not be reached; data gaps are not errors.
func (a *Assistant) Ask(ctx context.Context, question string, channel domain.Channel) (*domain.Answer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q := strings.TrimSpace(question)
	if q == "" && channel == domain.ChannelAPI {
		return nil, &domain.ErrValidation{Field: "question", Message: "missing question"}
	}

	ctx, span := tracer.Start(ctx, "Assistant.Ask")
	defer span.End()
	span.SetAttributes(attribute.String("channel", channel.String()))

	start := time.Now()
	defer func() {
		a.metrics.RecordDuration("ask", time.Since(start))
	}()

	now := a.now()

	if channel == domain.ChannelAPI && IsDateQuestion(q) {
		a.metrics.IncrQuestion(channel, observability.OutcomeClock)
		return &domain.Answer{
			Text:       fmt.Sprintf("Hoje é %s.", locale.LongDate(now)),
			Source:     domain.AnswerFromClock,
			AnsweredAt: now,
		}, nil
	}

	switch res := a.resolver.Resolve(ctx, q, now).(type) {
	case domain.Answered:
		a.metrics.IncrQuestion(channel, observability.OutcomeData)
		info := res.Period.Info()
		return &domain.Answer{Text: res.Text, Source: domain.AnswerFromData, Period: &info, AnsweredAt: now}, nil

	case domain.NeedsFallback:
		answer, err := a.fallback(ctx, q, channel, res)
		if err != nil {
			a.metrics.IncrQuestion(channel, observability.OutcomeError)
			return nil, err
		}
		answer.AnsweredAt = now
		a.metrics.IncrQuestion(channel, observability.OutcomeLLM)
		return answer, nil
	}

	return nil, fmt.Errorf("unexpected resolution for %q", q)
}

func (a *Assistant) fallback(ctx context.Context, q string, channel domain.Channel, res domain.NeedsFallback) (*domain.Answer, error) {
	profile := profileFor(channel)

	a.logger.Debug("delegating to llm",
		zap.String("channel", channel.String()),
		zap.String("reason", res.Reason.String()),
	)

	start := time.Now()
	completion, err := a.llm.Complete(ctx, &domain.CompletionRequest{
		SystemPrompt: profile.prompt,
		Question:     q,
		Bundle:       res.Bundle,
		Temperature:  profile.temperature,
	})
	a.metrics.RecordDuration("llm", time.Since(start))
	if err != nil {
		a.logger.Error("llm call failed",
			zap.String("channel", channel.String()),
			zap.Error(err),
		)
		a.metrics.IncrUpstreamError("llm")
		return nil, fmt.Errorf("llm completion: %w", err)
	}

	a.metrics.RecordTokens(completion.PromptTokens, completion.CompletionTokens)

	text := strings.TrimSpace(completion.Content)
	if text == "" {
		text = profile.emptyReply
	}

	answer := &domain.Answer{Text: text, Source: domain.AnswerFromLLM}
	if res.Bundle != nil {
		info := res.Bundle.Periodo
		answer.Period = &info
	}
	return answer, nil
}
