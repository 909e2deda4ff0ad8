// FILE: internal/dto/webhook_dto.go
package dto

// WebhookEnvelope is the provider's event wrapper. Signature verification
// happens on the raw body BEFORE this is parsed.
type WebhookEnvelope struct {
	Event string      `json:"event"`
	Call  WebhookCall `json:"call"`
}

type WebhookCall struct {
	CallId         string `json:"call_id"`
	Transcript     string `json:"transcript,omitempty"`
	StartTimestamp int64  `json:"start_timestamp,omitempty"`
	EndTimestamp   int64  `json:"end_timestamp,omitempty"`
	RecordingURL   string `json:"recording_url,omitempty"`
	TabSwitchCount int    `json:"tab_switch_count,omitempty"`
}

// AnalysisJob is the payload handed from the webhook receiver to the async
// analysis worker over the message bus.
type AnalysisJob struct {
	CallId string `json:"call_id"`
}
