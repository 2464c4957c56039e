package domain

// ============================================================
// WhatsApp Cloud API: webhook payload
// ============================================================

// WebhookPayload é o corpo que a Meta envia no POST do webhook.
// Só os campos usados pelo assistente são mapeados.
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

// WebhookEntry agrupa as mudanças de uma conta WhatsApp Business.
type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

// WebhookChange traz o valor de um evento (mensagens ou status).
type WebhookChange struct {
	Field string       `json:"field"`
	Value WebhookValue `json:"value"`
}

// WebhookValue contém mensagens recebidas e atualizações de status.
type WebhookValue struct {
	MessagingProduct string            `json:"messaging_product"`
	Messages         []InboundMessage  `json:"messages"`
	Statuses         []StatusUpdate    `json:"statuses,omitempty"`
	Contacts         []WebhookContact  `json:"contacts,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// WebhookContact identifica quem escreveu.
type WebhookContact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

// StatusUpdate é uma notificação de entrega (sent, delivered, read).
type StatusUpdate struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// InboundMessage é uma mensagem recebida.
type InboundMessage struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`
}

// Body devolve o texto da mensagem, ou "" quando não é do tipo text.
func (m InboundMessage) Body() string {
	if m.Type != "text" || m.Text == nil {
		return ""
	}
	return m.Text.Body
}

// FirstMessage devolve a primeira mensagem do payload, se houver.
func (p *WebhookPayload) FirstMessage() (InboundMessage, bool) {
	if len(p.Entry) == 0 || len(p.Entry[0].Changes) == 0 {
		return InboundMessage{}, false
	}
	msgs := p.Entry[0].Changes[0].Value.Messages
	if len(msgs) == 0 {
		return InboundMessage{}, false
	}
	return msgs[0], true
}

// WebhookOutcome descreve o que o adaptador fez com um evento. O handler
// decide o status HTTP a partir disso e da política do canal.
type WebhookOutcome struct {
	Ignored bool
	Reason  string
	Used    AnswerSource
	Sent    bool
}

// ============================================================
// WhatsApp: envio avulso (POST /api/whatsapp-send)
// ============================================================

// SendTextRequest é o body do POST /api/whatsapp-send.
type SendTextRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

// SendTextResponse é a resposta do POST /api/whatsapp-send.
type SendTextResponse struct {
	OK   bool `json:"ok"`
	Sent bool `json:"sent"`
}
