package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/grupodv/dv-assistant-go/internal/domain"
	"github.com/grupodv/dv-assistant-go/internal/infra/resilience"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"
)

// OpenAIClient implements port.ChatCompleter on any OpenAI-compatible
// chat completions endpoint.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	breaker *resilience.Breaker
	cfg     resilience.Config
}

// OpenAIConfig configures the LLM client. An empty APIKey is allowed: every
// call then fails with *domain.ErrDependencyMissing.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// NewOpenAIClient creates a new OpenAIClient.
func NewOpenAIClient(httpClient *http.Client, oc OpenAIConfig, breaker *resilience.Breaker, cfg resilience.Config) *OpenAIClient {
	c := &OpenAIClient{model: oc.Model, breaker: breaker, cfg: cfg}
	if oc.APIKey == "" {
		return c
	}
	conf := openai.DefaultConfig(oc.APIKey)
	if oc.BaseURL != "" {
		conf.BaseURL = oc.BaseURL
	}
	if httpClient != nil {
		conf.HTTPClient = httpClient
	}
	c.client = openai.NewClientWithConfig(conf)
	return c
}

// Complete sends the system prompt, the question and, when present, the
// data bundle as a second system message.
func (c *OpenAIClient) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.Completion, error) {
	if c.client == nil {
		return nil, &domain.ErrDependencyMissing{Name: "OPENAI_API_KEY"}
	}

	ctx, span := tracer.Start(ctx, "OpenAIClient.Complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", c.model),
		attribute.Bool("llm.with_data", req.Bundle != nil),
	)

	msgs, err := buildMessages(req)
	if err != nil {
		return nil, err
	}

	var resp openai.ChatCompletionResponse
	err = c.breaker.Execute(func() error {
		return resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			var callErr error
			resp, callErr = c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
				Model:       c.model,
				Temperature: req.Temperature,
				Messages:    msgs,
			})
			return classifyOpenAIError(callErr)
		})
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "llm", Err: err}
	}

	out := &domain.Completion{
		Model:            resp.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}
	if len(resp.Choices) > 0 {
		out.Content = resp.Choices[0].Message.Content
	}
	span.SetAttributes(attribute.Int("llm.total_tokens", resp.Usage.TotalTokens))
	return out, nil
}

func buildMessages(req *domain.CompletionRequest) ([]openai.ChatCompletionMessage, error) {
	msgs := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: req.Question},
	}
	if req.Bundle != nil {
		data, err := json.MarshalIndent(req.Bundle, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding data bundle: %w", err)
		}
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: "DADOS_JSON = " + string(data),
		})
	}
	return msgs, nil
}

// classifyOpenAIError converts provider status errors so the retry loop
// skips 4xx responses.
func classifyOpenAIError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &domain.ErrUpstreamStatus{Service: "llm", StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &domain.ErrUpstreamStatus{Service: "llm", StatusCode: reqErr.HTTPStatusCode, Body: reqErr.Error()}
	}
	return err
}
