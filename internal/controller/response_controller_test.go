package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-interview-be/internal/dto"
	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/pkg/serverutils"
	"ai-interview-be/internal/service"
	"ai-interview-be/pkg/faults"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRegisterService struct {
	fakeResponseService
	registered *dto.RegisterResponseResponse
	snapshot   *dto.ResponseSnapshot
}

func (s *stubRegisterService) RegisterAttempt(ctx context.Context, req *dto.RegisterResponseRequest) (*dto.RegisterResponseResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.registered, nil
}

func (s *stubRegisterService) Snapshot(ctx context.Context, callId string) (*dto.ResponseSnapshot, error) {
	if s.snapshot == nil {
		return nil, faults.NotFound("ResponseNotFound", nil)
	}
	return s.snapshot, nil
}

type stubAnalyticsService struct {
	err   error
	calls int
}

func (s *stubAnalyticsService) Analyse(ctx context.Context, callId string) (*entity.ScoreDocument, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &entity.ScoreDocument{
		OverallScore:      88,
		QuestionSummaries: []entity.QuestionSummary{{QuestionId: "q1", Summary: "good"}},
	}, nil
}

func newResponseApp(responses service.IResponseService, analytics service.IAnalyticsService) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	ctrl := NewResponseController(responses, analytics, testLogger{})
	ctrl.RegisterRoutes(app.Group("/api"))
	return app
}

func TestRegisterEndpointSuccess(t *testing.T) {
	svc := &stubRegisterService{registered: &dto.RegisterResponseResponse{CallId: "call_1", AccessToken: "tok"}}
	app := newResponseApp(svc, &stubAnalyticsService{})

	payload, _ := json.Marshal(map[string]interface{}{
		"interview_id": uuid.New().String(),
		"email":        "alice@example.com",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/responses/register", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data dto.RegisterResponseResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "call_1", body.Data.CallId)
	assert.Equal(t, "tok", body.Data.AccessToken)
}

func TestRegisterEndpointDenialCodes(t *testing.T) {
	cases := []struct {
		reason string
		status int
	}{
		{service.ReasonAlreadyResponded, http.StatusConflict},
		{service.ReasonNotInvited, http.StatusForbidden},
		{service.ReasonInterviewInactive, http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.reason, func(t *testing.T) {
			svc := &stubRegisterService{}
			svc.err = faults.Permanent(tc.reason, nil)
			app := newResponseApp(svc, &stubAnalyticsService{})

			payload, _ := json.Marshal(map[string]interface{}{
				"interview_id": uuid.New().String(),
				"email":        "alice@example.com",
			})
			req := httptest.NewRequest(http.MethodPost, "/api/responses/register", bytes.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)

			var body struct {
				Reason string `json:"reason"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tc.reason, body.Reason)
		})
	}
}

func TestRegisterEndpointValidatesPayload(t *testing.T) {
	app := newResponseApp(&stubRegisterService{}, &stubAnalyticsService{})

	payload := []byte(`{"email":"not-an-email"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/responses/register", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestShowEndpointDegradesOnAnalyseFailure(t *testing.T) {
	// Candidate-facing surfaces never expose pipeline failures: the poll
	// returns the snapshot without analytics.
	svc := &stubRegisterService{snapshot: &dto.ResponseSnapshot{CallId: "call_1", State: "ended"}}
	analytics := &stubAnalyticsService{err: faults.Transient("ScoringRetriesExhausted", nil)}
	app := newResponseApp(svc, analytics)

	req := httptest.NewRequest(http.MethodGet, "/api/responses/call_1?analyse=true", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, analytics.calls)

	var body struct {
		Data dto.ResponseSnapshot `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ended", body.Data.State)
	assert.Nil(t, body.Data.Analytics)
}

func TestShowEndpointWithoutAnalyseSkipsPipeline(t *testing.T) {
	svc := &stubRegisterService{snapshot: &dto.ResponseSnapshot{CallId: "call_1", State: "started"}}
	analytics := &stubAnalyticsService{}
	app := newResponseApp(svc, analytics)

	req := httptest.NewRequest(http.MethodGet, "/api/responses/call_1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, analytics.calls)
}

func TestShowEndpointNotFound(t *testing.T) {
	app := newResponseApp(&stubRegisterService{}, &stubAnalyticsService{})

	req := httptest.NewRequest(http.MethodGet, "/api/responses/missing", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
