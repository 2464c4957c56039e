package service_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/grupodv/dv-assistant-go/internal/domain"
	"github.com/grupodv/dv-assistant-go/internal/infra/cache"
	"github.com/grupodv/dv-assistant-go/internal/infra/observability"
	"github.com/grupodv/dv-assistant-go/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubAsker struct {
	answer *domain.Answer
	err    error
	asked  []string
}

func (s *stubAsker) Ask(_ context.Context, q string, ch domain.Channel) (*domain.Answer, error) {
	s.asked = append(s.asked, q)
	if ch != domain.ChannelWhatsApp {
		return nil, fmt.Errorf("unexpected channel %s", ch)
	}
	return s.answer, s.err
}

func newWhatsApp(t *testing.T, asker service.Asker, sender *mockSender, cfg service.WhatsAppConfig) *service.WhatsAppService {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return service.NewWhatsAppService(asker, sender, cache.New[bool](ctx, time.Minute), cfg, observability.NewMetrics(), zap.NewNop())
}

func textEvent(id, from, body string) []byte {
	return []byte(fmt.Sprintf(`{"object":"whatsapp_business_account","entry":[{"id":"1","changes":[{"field":"messages","value":{
		"messaging_product":"whatsapp",
		"messages":[{"id":%q,"from":%q,"timestamp":"1760640000","type":"text","text":{"body":%q}}]}}]}]}`, id, from, body))
}

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyChallenge(t *testing.T) {
	svc := newWhatsApp(t, &stubAsker{}, &mockSender{}, service.WhatsAppConfig{VerifyToken: "GRUPODV"})

	got, err := svc.VerifyChallenge("subscribe", "GRUPODV", "12345")
	require.NoError(t, err)
	assert.Equal(t, "12345", got)

	_, err = svc.VerifyChallenge("subscribe", "wrong", "12345")
	var unauth *domain.ErrUnauthorized
	assert.True(t, errors.As(err, &unauth))

	_, err = svc.VerifyChallenge("unsubscribe", "GRUPODV", "12345")
	assert.True(t, errors.As(err, &unauth))

	empty := newWhatsApp(t, &stubAsker{}, &mockSender{}, service.WhatsAppConfig{})
	_, err = empty.VerifyChallenge("subscribe", "", "1")
	var missing *domain.ErrDependencyMissing
	assert.True(t, errors.As(err, &missing))
}

func TestHandleWebhook_AnswersAndReplies(t *testing.T) {
	sender := &mockSender{readCh: make(chan string, 1)}
	asker := &stubAsker{answer: &domain.Answer{Text: "Você vendeu R$ 10,00 ontem.", Source: domain.AnswerFromData}}
	svc := newWhatsApp(t, asker, sender, service.WhatsAppConfig{})

	out, err := svc.HandleWebhook(context.Background(), textEvent("wamid.1", "5571999990000", "quanto vendi ontem"), "")
	require.NoError(t, err)
	assert.False(t, out.Ignored)
	assert.Equal(t, domain.AnswerFromData, out.Used)
	assert.True(t, out.Sent)

	assert.Equal(t, []string{"quanto vendi ontem"}, asker.asked)
	assert.Equal(t, []sentMessage{{To: "5571999990000", Body: "Você vendeu R$ 10,00 ontem."}}, sender.messages())

	select {
	case id := <-sender.readCh:
		assert.Equal(t, "wamid.1", id)
	case <-time.After(time.Second):
		t.Fatal("message was not marked as read")
	}
}

func TestHandleWebhook_MarkReadIsBoundedAndDetached(t *testing.T) {
	sender := &mockSender{readCh: make(chan string, 1)}
	asker := &stubAsker{answer: &domain.Answer{Text: "ok", Source: domain.AnswerFromLLM}}
	svc := newWhatsApp(t, asker, sender, service.WhatsAppConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	_, err := svc.HandleWebhook(ctx, textEvent("wamid.ttl", "5571999990000", "oi"), "")
	require.NoError(t, err)

	select {
	case <-sender.readCh:
	case <-time.After(time.Second):
		t.Fatal("message was not marked as read")
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	require.True(t, sender.readHasDeadline, "read receipt must carry a deadline")
	assert.WithinDuration(t, start.Add(10*time.Second), sender.readDeadline, 2*time.Second)
	assert.NoError(t, sender.readCtxErr, "read receipt must not inherit request cancellation")
}

func TestHandleWebhook_DuplicateSuppressed(t *testing.T) {
	sender := &mockSender{}
	asker := &stubAsker{answer: &domain.Answer{Text: "ok", Source: domain.AnswerFromLLM}}
	svc := newWhatsApp(t, asker, sender, service.WhatsAppConfig{})

	body := textEvent("wamid.dup", "1", "oi")
	_, err := svc.HandleWebhook(context.Background(), body, "")
	require.NoError(t, err)
	out, err := svc.HandleWebhook(context.Background(), body, "")
	require.NoError(t, err)

	assert.True(t, out.Ignored)
	assert.Equal(t, service.ReasonDuplicate, out.Reason)
	assert.Len(t, asker.asked, 1)
	assert.Len(t, sender.messages(), 1)
}

func TestHandleWebhook_Ignored(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		reason string
	}{
		{"status update", `{"entry":[{"changes":[{"value":{"statuses":[{"id":"wamid.1","status":"delivered"}]}}]}]}`, service.ReasonNoMessage},
		{"image", `{"entry":[{"changes":[{"value":{"messages":[{"id":"wamid.2","from":"1","type":"image"}]}}]}]}`, service.ReasonUnsupported},
		{"garbage", `not json`, service.ReasonInvalidPayload},
		{"empty entry", `{}`, service.ReasonNoMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asker := &stubAsker{}
			svc := newWhatsApp(t, asker, &mockSender{}, service.WhatsAppConfig{})

			out, err := svc.HandleWebhook(context.Background(), []byte(tt.body), "")
			require.NoError(t, err)
			assert.True(t, out.Ignored)
			assert.Equal(t, tt.reason, out.Reason)
			assert.Empty(t, asker.asked)
		})
	}
}

func TestHandleWebhook_Signature(t *testing.T) {
	asker := &stubAsker{answer: &domain.Answer{Text: "ok", Source: domain.AnswerFromLLM}}
	svc := newWhatsApp(t, asker, &mockSender{}, service.WhatsAppConfig{AppSecret: "app-secret"})

	body := textEvent("wamid.s1", "1", "oi")
	out, err := svc.HandleWebhook(context.Background(), body, "sha256=deadbeef")
	require.NoError(t, err)
	assert.Equal(t, service.ReasonBadSignature, out.Reason)

	out, err = svc.HandleWebhook(context.Background(), body, sign(body, "app-secret"))
	require.NoError(t, err)
	assert.False(t, out.Ignored)
}

func TestHandleWebhook_AssistantFailureSendsDefault(t *testing.T) {
	sender := &mockSender{}
	asker := &stubAsker{err: errors.New("llm down")}
	svc := newWhatsApp(t, asker, sender, service.WhatsAppConfig{})

	out, err := svc.HandleWebhook(context.Background(), textEvent("wamid.e", "55", "bom dia"), "")
	require.NoError(t, err)
	assert.Equal(t, domain.AnswerDefault, out.Used)
	require.Len(t, sender.messages(), 1)
	assert.Equal(t, service.WhatsAppDefaultReply, sender.messages()[0].Body)
}

func TestHandleWebhook_SendFailureIsNotAnError(t *testing.T) {
	sender := &mockSender{err: errors.New("graph unreachable")}
	asker := &stubAsker{answer: &domain.Answer{Text: "ok", Source: domain.AnswerFromLLM}}
	svc := newWhatsApp(t, asker, sender, service.WhatsAppConfig{})

	out, err := svc.HandleWebhook(context.Background(), textEvent("wamid.f", "55", "oi"), "")
	require.NoError(t, err)
	assert.False(t, out.Sent)
}

func TestSend(t *testing.T) {
	sender := &mockSender{}
	svc := newWhatsApp(t, &stubAsker{}, sender, service.WhatsAppConfig{})

	resp, err := svc.Send(context.Background(), &domain.SendTextRequest{To: "+55 (71) 99999-0000"})
	require.NoError(t, err)
	assert.Equal(t, &domain.SendTextResponse{OK: true, Sent: true}, resp)
	assert.Equal(t, []sentMessage{{To: "5571999990000", Body: service.DefaultOutboundText}}, sender.messages())

	_, err = svc.Send(context.Background(), &domain.SendTextRequest{To: "abc", Text: "x"})
	var valErr *domain.ErrValidation
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "missing_to", valErr.Message)

	rejecting := newWhatsApp(t, &stubAsker{}, &mockSender{reject: true}, service.WhatsAppConfig{})
	resp, err = rejecting.Send(context.Background(), &domain.SendTextRequest{To: "1", Text: "x"})
	require.NoError(t, err)
	assert.False(t, resp.Sent)
}
