package controller

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-interview-be/internal/dto"
	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/pkg/serverutils"
	"ai-interview-be/pkg/callprovider"
	"ai-interview-be/pkg/faults"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webhookSecret = "test-webhook-secret"

type testLogger struct{}

func (testLogger) Debug(module, message string, details map[string]interface{}) {}
func (testLogger) Info(module, message string, details map[string]interface{})  {}
func (testLogger) Warn(module, message string, details map[string]interface{})  {}
func (testLogger) Error(module, message string, details map[string]interface{}) {}
func (testLogger) Sync() error                                                  { return nil }

type fakeResponseService struct {
	started []string
	ended   []string
	err     error
}

func (f *fakeResponseService) RegisterAttempt(ctx context.Context, req *dto.RegisterResponseRequest) (*dto.RegisterResponseResponse, error) {
	return nil, f.err
}
func (f *fakeResponseService) CallStarted(ctx context.Context, callId string) error {
	if f.err != nil {
		return f.err
	}
	f.started = append(f.started, callId)
	return nil
}
func (f *fakeResponseService) CallEnded(ctx context.Context, call *dto.WebhookCall) error {
	if f.err != nil {
		return f.err
	}
	f.ended = append(f.ended, call.CallId)
	return nil
}
func (f *fakeResponseService) RecordTabSwitch(ctx context.Context, callId string, count int) error {
	return f.err
}
func (f *fakeResponseService) SetDisposition(ctx context.Context, callId string, disposition entity.CandidateDisposition) error {
	return f.err
}
func (f *fakeResponseService) MarkFailed(ctx context.Context, callId string, reason string) error {
	return f.err
}
func (f *fakeResponseService) ResetFailure(ctx context.Context, callId string) error {
	return f.err
}
func (f *fakeResponseService) Snapshot(ctx context.Context, callId string) (*dto.ResponseSnapshot, error) {
	return nil, f.err
}
func (f *fakeResponseService) ListByInterview(ctx context.Context, interviewId uuid.UUID) ([]*dto.ResponseSnapshot, error) {
	return nil, f.err
}
func (f *fakeResponseService) Delete(ctx context.Context, callId string) error {
	return f.err
}

type fakeJobPublisher struct {
	jobs []string
	err  error
}

func (f *fakeJobPublisher) Publish(ctx context.Context, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	var job dto.AnalysisJob
	_ = json.Unmarshal(payload, &job)
	f.jobs = append(f.jobs, job.CallId)
	return nil
}

func newWebhookApp(responses *fakeResponseService, publisher *fakeJobPublisher) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())

	provider := callprovider.NewClient("http://unused", "key", webhookSecret)
	ctrl := NewWebhookController(responses, publisher, provider, testLogger{})
	ctrl.RegisterRoutes(app.Group("/api"))
	return app
}

func signBody(body []byte) string {
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func postEvent(t *testing.T, app *fiber.App, body []byte, signature string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/webhook/call-events", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("X-Signature", signature)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestWebhookRejectsInvalidSignature(t *testing.T) {
	responses := &fakeResponseService{}
	publisher := &fakeJobPublisher{}
	app := newWebhookApp(responses, publisher)

	body := []byte(`{"event":"call_started","call":{"call_id":"call_1"}}`)

	resp := postEvent(t, app, body, "deadbeef")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = postEvent(t, app, body, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	assert.Empty(t, responses.started, "a rejected webhook must not change state")
	assert.Empty(t, publisher.jobs)
}

func TestWebhookCallStarted(t *testing.T) {
	responses := &fakeResponseService{}
	publisher := &fakeJobPublisher{}
	app := newWebhookApp(responses, publisher)

	body := []byte(`{"event":"call_started","call":{"call_id":"call_1"}}`)
	resp := postEvent(t, app, body, signBody(body))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"call_1"}, responses.started)
	assert.Empty(t, publisher.jobs)
}

func TestWebhookCallEndedEnqueuesAnalysis(t *testing.T) {
	responses := &fakeResponseService{}
	publisher := &fakeJobPublisher{}
	app := newWebhookApp(responses, publisher)

	body := []byte(`{"event":"call_ended","call":{"call_id":"call_2","transcript":"hi","start_timestamp":1,"end_timestamp":2}}`)
	resp := postEvent(t, app, body, signBody(body))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"call_2"}, responses.ended)
	assert.Equal(t, []string{"call_2"}, publisher.jobs, "scoring runs off the webhook thread")
}

func TestWebhookCallAnalyzedEnqueuesOnly(t *testing.T) {
	responses := &fakeResponseService{}
	publisher := &fakeJobPublisher{}
	app := newWebhookApp(responses, publisher)

	body := []byte(`{"event":"call_analyzed","call":{"call_id":"call_3"}}`)
	resp := postEvent(t, app, body, signBody(body))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, responses.started)
	assert.Empty(t, responses.ended)
	assert.Equal(t, []string{"call_3"}, publisher.jobs)
}

func TestWebhookUnknownEventIsAcknowledged(t *testing.T) {
	responses := &fakeResponseService{}
	publisher := &fakeJobPublisher{}
	app := newWebhookApp(responses, publisher)

	body := []byte(`{"event":"call_transferred","call":{"call_id":"call_4"}}`)
	resp := postEvent(t, app, body, signBody(body))

	// 2xx, never an error: the provider must not retry these forever.
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, responses.started)
	assert.Empty(t, publisher.jobs)

	// Unknown events aren't held to the call_id contract either; the
	// payload can be any shape the provider invents.
	body = []byte(`{"event":"agent_response","data":{"utterance":"hello"}}`)
	resp = postEvent(t, app, body, signBody(body))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, publisher.jobs)
}

func TestWebhookMalformedPayload(t *testing.T) {
	app := newWebhookApp(&fakeResponseService{}, &fakeJobPublisher{})

	body := []byte(`{"event": truncated`)
	resp := postEvent(t, app, body, signBody(body))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body = []byte(`{"event":"call_started","call":{}}`)
	resp = postEvent(t, app, body, signBody(body))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "missing call_id is a permanent validation failure")
}

func TestWebhookTransientDownstreamFailureIs5xx(t *testing.T) {
	responses := &fakeResponseService{err: faults.Transient("CallProviderBusy", nil)}
	app := newWebhookApp(responses, &fakeJobPublisher{})

	body := []byte(`{"event":"call_started","call":{"call_id":"call_5"}}`)
	resp := postEvent(t, app, body, signBody(body))

	// 5xx so the provider's own retry kicks in.
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
