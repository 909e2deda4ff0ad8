// FILE: internal/service/helpers_test.go
package service

import (
	"context"
	"sync"

	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/repository/memory"
	"ai-interview-be/pkg/callprovider"

	"github.com/google/uuid"
)

// --- logging ---

type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error                                                  { return nil }

// --- call provider ---

type fakeCallProvider struct {
	mu sync.Mutex

	registerErr  error
	registered   []callprovider.RegisterCallRequest
	nextCallId   string
	detail       *callprovider.CallDetail
	getErr       error
	getCallCount int
}

func (f *fakeCallProvider) RegisterCall(ctx context.Context, req callprovider.RegisterCallRequest) (*callprovider.RegisteredCall, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	f.registered = append(f.registered, req)
	callId := f.nextCallId
	if callId == "" {
		callId = "call_" + uuid.NewString()
	}
	return &callprovider.RegisteredCall{CallId: callId, AccessToken: "tok_" + callId}, nil
}

func (f *fakeCallProvider) GetCall(ctx context.Context, callId string) (*callprovider.CallDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCallCount += 1
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.detail != nil {
		return f.detail, nil
	}
	return &callprovider.CallDetail{CallId: callId}, nil
}

func (f *fakeCallProvider) VerifySignature(body []byte, signature string) bool {
	return true
}

// --- scorer ---

type fakeScorer struct {
	mu    sync.Mutex
	doc   *entity.ScoreDocument
	err   error
	calls int

	// blockUntil, when set, makes Score wait so tests can interleave
	// concurrent invocations deterministically.
	blockUntil chan struct{}
}

func (f *fakeScorer) Score(ctx context.Context, transcript string, questions []entity.Question) (*entity.ScoreDocument, error) {
	f.mu.Lock()
	f.calls++
	block := f.blockUntil
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if f.err != nil {
		return nil, f.err
	}
	doc := *f.doc
	return &doc, nil
}

func (f *fakeScorer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// --- notifier ---

type recordingNotifier struct {
	mu      sync.Mutex
	updates []string
}

func (r *recordingNotifier) NotifyLifecycle(callId string, interviewId string, state entity.LifecycleState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, callId+":"+string(state))
}

// --- fixtures ---

func sampleDoc() *entity.ScoreDocument {
	return &entity.ScoreDocument{
		OverallScore: 74,
		QuestionSummaries: []entity.QuestionSummary{
			{QuestionId: "q1", Summary: "Covered the question well.", Score: 74},
		},
	}
}

func seedInterview(factory *memory.Factory, mutate func(*entity.Interview)) *entity.Interview {
	interview := &entity.Interview{
		Id:          uuid.New(),
		Name:        "Backend Screen",
		Questions:   []entity.Question{{Id: "q1", Question: "Tell me about a project."}},
		IsAnonymous: false,
		IsActive:    true,
	}
	if mutate != nil {
		mutate(interview)
	}
	_ = factory.Interviews.Create(context.Background(), interview)
	return interview
}

func seedResponse(factory *memory.Factory, interviewId uuid.UUID, callId string, state entity.LifecycleState, mutate func(*entity.Response)) *entity.Response {
	response := &entity.Response{
		Id:          uuid.New(),
		CallId:      callId,
		InterviewId: interviewId,
		State:       state,
		Disposition: entity.DispositionNoStatus,
	}
	if mutate != nil {
		mutate(response)
	}
	_ = factory.Responses.Create(context.Background(), response)
	return response
}
