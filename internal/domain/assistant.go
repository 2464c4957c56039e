package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// ============================================================
// Plataformas de delivery
// ============================================================

// Platform identifica a plataforma de delivery citada na pergunta.
type Platform int

const (
	PlatformNone Platform = iota
	PlatformIFood
	PlatformDeliveryMuch
)

// String devolve o nome como aparece nas respostas ao usuário.
func (p Platform) String() string {
	switch p {
	case PlatformIFood:
		return "iFood"
	case PlatformDeliveryMuch:
		return "Delivery Much"
	case PlatformNone:
		return ""
	}
	return ""
}

// Matches verifica se o campo plataforma de uma linha pertence a p.
// PlatformNone casa com qualquer valor.
func (p Platform) Matches(value string) bool {
	v := strings.ToLower(value)
	switch p {
	case PlatformNone:
		return true
	case PlatformIFood:
		return strings.Contains(v, "ifood") || strings.Contains(v, "i food")
	case PlatformDeliveryMuch:
		return strings.Contains(v, "much")
	}
	return false
}

// ============================================================
// Canais
// ============================================================

// Channel é o canal de entrada da pergunta. Cada canal tem seu próprio
// prompt de sistema e texto padrão.
type Channel int

const (
	ChannelAPI Channel = iota + 1
	ChannelWhatsApp
)

func (c Channel) String() string {
	switch c {
	case ChannelAPI:
		return "api"
	case ChannelWhatsApp:
		return "whatsapp"
	}
	return "unknown"
}

// ============================================================
// Resultado da resolução
// ============================================================

// FallbackReason explica por que o resolver não produziu um número.
type FallbackReason int

const (
	// FallbackNotNeeded: a pergunta não fala de dados de negócio.
	FallbackNotNeeded FallbackReason = iota + 1
	// FallbackNoData: nenhuma fonte devolveu total diferente de zero.
	FallbackNoData
	// FallbackEmptyQuestion: texto vazio depois do trim.
	FallbackEmptyQuestion
)

func (r FallbackReason) String() string {
	switch r {
	case FallbackNotNeeded:
		return "not_needed"
	case FallbackNoData:
		return "no_data"
	case FallbackEmptyQuestion:
		return "empty"
	}
	return "unknown"
}

// ResolutionResult é Answered ou NeedsFallback. Nenhum outro tipo
// implementa a interface.
type ResolutionResult interface {
	isResolution()
}

// Answered carrega a resposta numérica pronta.
type Answered struct {
	Text   string
	Source ReportKey
	Total  float64
	Period Period
}

// NeedsFallback pede que o chamador delegue ao LLM. Não é um erro.
// Bundle é nil quando a pergunta não precisava de dados.
type NeedsFallback struct {
	Reason FallbackReason
	Bundle *DataBundle
}

func (Answered) isResolution()      {}
func (NeedsFallback) isResolution() {}

// ============================================================
// DataBundle: contexto enviado ao LLM
// ============================================================

// BundleEntry é o conteúdo de um relatório dentro do bundle: o JSON
// original ou um marcador de erro.
type BundleEntry struct {
	Data  json.RawMessage
	Error string
}

// MarshalJSON emite o payload cru ou {"error": "..."}.
func (e BundleEntry) MarshalJSON() ([]byte, error) {
	if e.Error != "" || len(e.Data) == 0 {
		msg := e.Error
		if msg == "" {
			msg = "empty payload"
		}
		return json.Marshal(map[string]string{"error": msg})
	}
	return e.Data, nil
}

// DataBundle reúne tudo que foi buscado para uma pergunta.
type DataBundle struct {
	EmpresaPreferida *string                   `json:"empresa_preferida"`
	Periodo          PeriodInfo                `json:"periodo"`
	Dados            map[ReportKey]BundleEntry `json:"dados"`
}

// NewDataBundle monta o bundle a partir do resultado do gateway.
func NewDataBundle(company string, period Period, set ReportSet) *DataBundle {
	b := &DataBundle{
		Periodo: period.Info(),
		Dados:   make(map[ReportKey]BundleEntry, len(set)),
	}
	if company != "" {
		c := company
		b.EmpresaPreferida = &c
	}
	for key, res := range set {
		if res.Err != nil {
			b.Dados[key] = BundleEntry{Error: res.Err.Error()}
			continue
		}
		b.Dados[key] = BundleEntry{Data: res.Payload}
	}
	return b
}

// ============================================================
// LLM: request/response entre o assistente e o provedor
// ============================================================

// CompletionRequest é o que o assistente manda para o cliente de LLM.
type CompletionRequest struct {
	SystemPrompt string
	Question     string
	Bundle       *DataBundle
	Temperature  float32
}

// Completion é a resposta do provedor.
type Completion struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// ============================================================
// API do assistente
// ============================================================

// AnswerSource indica de onde veio o texto da resposta.
type AnswerSource string

const (
	AnswerFromData  AnswerSource = "data"
	AnswerFromLLM   AnswerSource = "llm"
	AnswerFromClock AnswerSource = "clock"
	// AnswerDefault: o LLM falhou e o canal respondeu com o texto padrão.
	AnswerDefault AnswerSource = "default"
)

// Answer é o resultado do assistente antes de virar JSON ou mensagem.
type Answer struct {
	Text       string
	Source     AnswerSource
	Period     *PeriodInfo
	AnsweredAt time.Time
}

// AskRequest é o body do POST /api/ask.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse é a resposta do POST /api/ask.
type AskResponse struct {
	ID     string   `json:"id"`
	Answer string   `json:"answer"`
	Source string   `json:"source"`
	Meta   *AskMeta `json:"meta,omitempty"`
}

// AskMeta traz o período resolvido ou o instante usado no atalho de data.
type AskMeta struct {
	Period *PeriodInfo `json:"periodo,omitempty"`
	NowISO string      `json:"now_iso,omitempty"`
}

// AssistantMetrics é o snapshot exposto em GET /api/metrics/assistant.
type AssistantMetrics struct {
	TotalQuestions   int64   `json:"totalQuestions"`
	AnsweredFromData int64   `json:"answeredFromData"`
	LLMFallbacks     int64   `json:"llmFallbacks"`
	Errors           int64   `json:"errors"`
	FallbackRate     float64 `json:"fallbackRate"`
	UpstreamErrors   int64   `json:"upstreamErrors"`
	PromptTokens     int64   `json:"promptTokens"`
	CompletionTokens int64   `json:"completionTokens"`
	EstimatedCostUsd float64 `json:"estimatedCostUsd"`
	DuplicateEvents  int64   `json:"duplicateEvents"`
	Period           string  `json:"period"`
}
