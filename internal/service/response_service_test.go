// FILE: internal/service/response_service_test.go
package service

import (
	"context"
	"testing"

	"ai-interview-be/internal/dto"
	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/repository/memory"
	"ai-interview-be/pkg/callprovider"
	"ai-interview-be/pkg/faults"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResponseService(factory *memory.Factory, provider *fakeCallProvider) IResponseService {
	interviews := NewInterviewService(factory)
	guard := NewEligibilityService(factory, interviews, noopLogger{})
	return NewResponseService(factory, guard, interviews, provider, nil, nil, "", "agent_default", noopLogger{})
}

func TestRegisterAttemptCreatesResponse(t *testing.T) {
	factory := memory.NewFactory()
	interview := seedInterview(factory, func(i *entity.Interview) {
		i.RespondentEmails = []string{"alice@example.com"}
	})
	provider := &fakeCallProvider{nextCallId: "call_1"}
	svc := newResponseService(factory, provider)

	res, err := svc.RegisterAttempt(context.Background(), &dto.RegisterResponseRequest{
		InterviewId: interview.Id,
		Email:       "alice@example.com",
		Name:        "Alice",
	})
	require.NoError(t, err)
	assert.Equal(t, "call_1", res.CallId)
	assert.Equal(t, "tok_call_1", res.AccessToken)

	stored, err := factory.Responses.FindByCallId(context.Background(), "call_1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, entity.LifecycleCreated, stored.State)
	require.NotNil(t, stored.RespondentIdentity)
	assert.Equal(t, "alice@example.com", *stored.RespondentIdentity)

	updated, _ := factory.Interviews.FindById(context.Background(), interview.Id)
	assert.Equal(t, 1, updated.ResponseCount)

	// Agent fallback and dynamic context plumbing.
	require.Len(t, provider.registered, 1)
	assert.Equal(t, "agent_default", provider.registered[0].AgentId)
	assert.Equal(t, "Alice", provider.registered[0].DynamicContext["candidate_name"])
}

func TestRegisterAttemptAnonymousStoresNoIdentity(t *testing.T) {
	factory := memory.NewFactory()
	interview := seedInterview(factory, func(i *entity.Interview) { i.IsAnonymous = true })
	svc := newResponseService(factory, &fakeCallProvider{nextCallId: "call_anon"})

	_, err := svc.RegisterAttempt(context.Background(), &dto.RegisterResponseRequest{
		InterviewId: interview.Id,
		Email:       "alice@example.com",
		Name:        "Alice",
	})
	require.NoError(t, err)

	stored, _ := factory.Responses.FindByCallId(context.Background(), "call_anon")
	assert.Nil(t, stored.RespondentIdentity)
	assert.Nil(t, stored.DisplayName)
}

func TestRegisterAttemptDeniedByGuard(t *testing.T) {
	factory := memory.NewFactory()
	interview := seedInterview(factory, func(i *entity.Interview) {
		i.RespondentEmails = []string{"alice@example.com"}
	})
	provider := &fakeCallProvider{}
	svc := newResponseService(factory, provider)

	_, err := svc.RegisterAttempt(context.Background(), &dto.RegisterResponseRequest{
		InterviewId: interview.Id,
		Email:       "mallory@example.com",
	})
	require.Error(t, err)
	assert.Equal(t, ReasonNotInvited, faults.CodeOf(err))
	assert.Empty(t, provider.registered, "denied attempts must not register provider calls")
}

func TestRegisterAttemptCapDeactivatesInterview(t *testing.T) {
	factory := memory.NewFactory()
	interview := seedInterview(factory, func(i *entity.Interview) {
		i.IsAnonymous = true
		i.ResponseCap = 1
	})
	svc := newResponseService(factory, &fakeCallProvider{})

	_, err := svc.RegisterAttempt(context.Background(), &dto.RegisterResponseRequest{InterviewId: interview.Id})
	require.NoError(t, err)

	updated, _ := factory.Interviews.FindById(context.Background(), interview.Id)
	assert.False(t, updated.IsActive, "reaching the cap closes the interview")
}

func TestRegisterAttemptDuplicateCallIdIsSuccess(t *testing.T) {
	factory := memory.NewFactory()
	interview := seedInterview(factory, func(i *entity.Interview) { i.IsAnonymous = true })
	seedResponse(factory, interview.Id, "call_dup", entity.LifecycleCreated, nil)

	svc := newResponseService(factory, &fakeCallProvider{nextCallId: "call_dup"})
	res, err := svc.RegisterAttempt(context.Background(), &dto.RegisterResponseRequest{InterviewId: interview.Id})
	require.NoError(t, err, "storage-level duplicate must surface as success")
	assert.Equal(t, "call_dup", res.CallId)
}

func TestLifecycleForwardOnly(t *testing.T) {
	factory := memory.NewFactory()
	interview := seedInterview(factory, nil)
	seedResponse(factory, interview.Id, "call_1", entity.LifecycleCreated, nil)
	svc := newResponseService(factory, &fakeCallProvider{})

	require.NoError(t, svc.CallStarted(context.Background(), "call_1"))
	stored, _ := factory.Responses.FindByCallId(context.Background(), "call_1")
	assert.Equal(t, entity.LifecycleStarted, stored.State)

	// Duplicate delivery is a no-op, not an error.
	require.NoError(t, svc.CallStarted(context.Background(), "call_1"))

	ended := &dto.WebhookCall{
		CallId:         "call_1",
		Transcript:     "Agent: hi\nUser: hello",
		StartTimestamp: 1700000000000,
		EndTimestamp:   1700000120000,
	}
	require.NoError(t, svc.CallEnded(context.Background(), ended))
	stored, _ = factory.Responses.FindByCallId(context.Background(), "call_1")
	assert.Equal(t, entity.LifecycleEnded, stored.State)
	assert.Equal(t, 120, stored.DurationSeconds)
	require.NotNil(t, stored.CallDetail)
	assert.Equal(t, "Agent: hi\nUser: hello", stored.CallDetail.Transcript)

	// A late call_started must not regress the record.
	require.NoError(t, svc.CallStarted(context.Background(), "call_1"))
	stored, _ = factory.Responses.FindByCallId(context.Background(), "call_1")
	assert.Equal(t, entity.LifecycleEnded, stored.State)
	assert.Equal(t, 120, stored.DurationSeconds)
}

func TestCallEndedBeforeCallStarted(t *testing.T) {
	// Out-of-order webhook delivery: the furthest-forward event wins.
	factory := memory.NewFactory()
	interview := seedInterview(factory, nil)
	seedResponse(factory, interview.Id, "call_ooo", entity.LifecycleCreated, nil)
	svc := newResponseService(factory, &fakeCallProvider{})

	require.NoError(t, svc.CallEnded(context.Background(), &dto.WebhookCall{
		CallId:         "call_ooo",
		Transcript:     "short call",
		StartTimestamp: 1700000000000,
		EndTimestamp:   1700000060000,
	}))
	stored, _ := factory.Responses.FindByCallId(context.Background(), "call_ooo")
	assert.Equal(t, entity.LifecycleEnded, stored.State)

	require.NoError(t, svc.CallStarted(context.Background(), "call_ooo"))
	stored, _ = factory.Responses.FindByCallId(context.Background(), "call_ooo")
	assert.Equal(t, entity.LifecycleEnded, stored.State)
}

func TestCallEndedFetchesDetailWhenWebhookIsBare(t *testing.T) {
	factory := memory.NewFactory()
	interview := seedInterview(factory, nil)
	seedResponse(factory, interview.Id, "call_bare", entity.LifecycleStarted, nil)

	provider := &fakeCallProvider{detail: &callprovider.CallDetail{
		CallId:         "call_bare",
		Transcript:     "fetched transcript",
		StartTimestamp: 1700000000000,
		EndTimestamp:   1700000030000,
	}}
	svc := newResponseService(factory, provider)

	require.NoError(t, svc.CallEnded(context.Background(), &dto.WebhookCall{CallId: "call_bare"}))
	stored, _ := factory.Responses.FindByCallId(context.Background(), "call_bare")
	assert.Equal(t, entity.LifecycleEnded, stored.State)
	assert.Equal(t, 30, stored.DurationSeconds)
	require.NotNil(t, stored.CallDetail)
	assert.Equal(t, "fetched transcript", stored.CallDetail.Transcript)
	assert.Equal(t, 1, provider.getCallCount)
}

func TestCallEndedEmptyDetailDoesNotOccupySlot(t *testing.T) {
	// Bare call_ended while the provider detail API is down: the record
	// still moves to ended, but the write-once call_detail slot must stay
	// free so the real transcript can land once the provider recovers.
	factory := memory.NewFactory()
	interview := seedInterview(factory, nil)
	seedResponse(factory, interview.Id, "call_down", entity.LifecycleStarted, nil)

	provider := &fakeCallProvider{getErr: faults.Transient("CallProviderBusy", nil)}
	svc := newResponseService(factory, provider)

	require.NoError(t, svc.CallEnded(context.Background(), &dto.WebhookCall{CallId: "call_down"}))
	stored, _ := factory.Responses.FindByCallId(context.Background(), "call_down")
	assert.Equal(t, entity.LifecycleEnded, stored.State)
	assert.Nil(t, stored.CallDetail, "empty detail must not be persisted")

	// Provider recovers and redelivers call_ended with the full payload.
	require.NoError(t, svc.CallEnded(context.Background(), &dto.WebhookCall{
		CallId:         "call_down",
		Transcript:     "Agent: Hello\nUser: Hi",
		StartTimestamp: 1700000000000,
		EndTimestamp:   1700000045000,
	}))
	stored, _ = factory.Responses.FindByCallId(context.Background(), "call_down")
	require.NotNil(t, stored.CallDetail)
	assert.Equal(t, "Agent: Hello\nUser: Hi", stored.CallDetail.Transcript)
}

func TestTabSwitchIsMonotonic(t *testing.T) {
	factory := memory.NewFactory()
	interview := seedInterview(factory, nil)
	seedResponse(factory, interview.Id, "call_1", entity.LifecycleStarted, nil)
	svc := newResponseService(factory, &fakeCallProvider{})

	require.NoError(t, svc.RecordTabSwitch(context.Background(), "call_1", 3))
	require.NoError(t, svc.RecordTabSwitch(context.Background(), "call_1", 1)) // out of order
	require.NoError(t, svc.RecordTabSwitch(context.Background(), "call_1", 5))

	stored, _ := factory.Responses.FindByCallId(context.Background(), "call_1")
	assert.Equal(t, 5, stored.TabSwitchCount)
}

func TestCallEndedMergesTabSwitchCount(t *testing.T) {
	factory := memory.NewFactory()
	interview := seedInterview(factory, nil)
	seedResponse(factory, interview.Id, "call_tab", entity.LifecycleStarted, nil)
	svc := newResponseService(factory, &fakeCallProvider{})

	require.NoError(t, svc.RecordTabSwitch(context.Background(), "call_tab", 4))

	require.NoError(t, svc.CallEnded(context.Background(), &dto.WebhookCall{
		CallId:         "call_tab",
		Transcript:     "done",
		StartTimestamp: 1700000000000,
		EndTimestamp:   1700000010000,
		TabSwitchCount: 2, // stale heartbeat in the webhook must not decrease the count
	}))
	stored, _ := factory.Responses.FindByCallId(context.Background(), "call_tab")
	assert.Equal(t, 4, stored.TabSwitchCount)

	// Duplicate call_ended carrying a higher count still merges.
	require.NoError(t, svc.CallEnded(context.Background(), &dto.WebhookCall{
		CallId:         "call_tab",
		TabSwitchCount: 7,
	}))
	stored, _ = factory.Responses.FindByCallId(context.Background(), "call_tab")
	assert.Equal(t, 7, stored.TabSwitchCount)
	assert.Equal(t, "done", stored.CallDetail.Transcript)
}

func TestMarkFailedAndReset(t *testing.T) {
	factory := memory.NewFactory()
	interview := seedInterview(factory, nil)
	seedResponse(factory, interview.Id, "call_1", entity.LifecycleEnded, nil)
	svc := newResponseService(factory, &fakeCallProvider{})

	require.NoError(t, svc.MarkFailed(context.Background(), "call_1", "scoring quota exhausted"))
	stored, _ := factory.Responses.FindByCallId(context.Background(), "call_1")
	assert.Equal(t, entity.LifecycleFailed, stored.State)
	require.NotNil(t, stored.FailureReason)
	assert.Equal(t, "scoring quota exhausted", *stored.FailureReason)

	// Terminal for the automatic pipeline: a second fail is a no-op.
	require.NoError(t, svc.MarkFailed(context.Background(), "call_1", "other reason"))
	stored, _ = factory.Responses.FindByCallId(context.Background(), "call_1")
	assert.Equal(t, "scoring quota exhausted", *stored.FailureReason)

	require.NoError(t, svc.ResetFailure(context.Background(), "call_1"))
	stored, _ = factory.Responses.FindByCallId(context.Background(), "call_1")
	assert.Equal(t, entity.LifecycleEnded, stored.State)
	assert.Nil(t, stored.FailureReason)

	// Resetting a record that is not failed is a conflict.
	err := svc.ResetFailure(context.Background(), "call_1")
	require.Error(t, err)
	assert.True(t, faults.IsKind(err, faults.KindConflict))
}

func TestMarkFailedRequiresStartedOrEnded(t *testing.T) {
	factory := memory.NewFactory()
	interview := seedInterview(factory, nil)
	seedResponse(factory, interview.Id, "call_fresh", entity.LifecycleCreated, nil)
	svc := newResponseService(factory, &fakeCallProvider{})

	require.NoError(t, svc.MarkFailed(context.Background(), "call_fresh", "reason"))
	stored, _ := factory.Responses.FindByCallId(context.Background(), "call_fresh")
	assert.Equal(t, entity.LifecycleCreated, stored.State, "created records cannot hard-fail")
}

func TestSnapshotNotFound(t *testing.T) {
	factory := memory.NewFactory()
	svc := newResponseService(factory, &fakeCallProvider{})

	_, err := svc.Snapshot(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, faults.IsKind(err, faults.KindNotFound))
}

func TestSnapshotAndDisposition(t *testing.T) {
	factory := memory.NewFactory()
	interview := seedInterview(factory, nil)
	seedResponse(factory, interview.Id, "call_1", entity.LifecycleEnded, func(r *entity.Response) {
		r.CallDetail = &entity.CallDetail{Transcript: "t", RecordingURL: "https://rec.example/1"}
	})
	svc := newResponseService(factory, &fakeCallProvider{})

	require.NoError(t, svc.SetDisposition(context.Background(), "call_1", entity.DispositionSelected))

	snap, err := svc.Snapshot(context.Background(), "call_1")
	require.NoError(t, err)
	assert.Equal(t, "ended", snap.State)
	assert.Equal(t, "selected", snap.Disposition)
	assert.Equal(t, "https://rec.example/1", snap.RecordingURL)
}
