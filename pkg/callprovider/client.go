// FILE: pkg/callprovider/client.go
package callprovider

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"ai-interview-be/pkg/faults"
)

// Provider is the contract to the external voice/call service: register a
// call, fetch its detail after the fact, verify webhook signatures.
type Provider interface {
	RegisterCall(ctx context.Context, req RegisterCallRequest) (*RegisteredCall, error)
	GetCall(ctx context.Context, callId string) (*CallDetail, error)
	VerifySignature(body []byte, signature string) bool
}

type RegisterCallRequest struct {
	AgentId        string            `json:"agent_id"`
	DynamicContext map[string]string `json:"dynamic_variables,omitempty"`
}

type RegisteredCall struct {
	CallId      string `json:"call_id"`
	AccessToken string `json:"access_token"`
}

type CallDetail struct {
	CallId         string `json:"call_id"`
	Transcript     string `json:"transcript"`
	StartTimestamp int64  `json:"start_timestamp"`
	EndTimestamp   int64  `json:"end_timestamp"`
	RecordingURL   string `json:"recording_url,omitempty"`
	CallAnalysis   *struct {
		UserSentiment string `json:"user_sentiment,omitempty"`
		CallSummary   string `json:"call_summary,omitempty"`
	} `json:"call_analysis,omitempty"`
}

type Client struct {
	BaseURL       string
	APIKey        string
	WebhookSecret string
	HTTPClient    *http.Client
}

var _ Provider = &Client{}

func NewClient(baseURL, apiKey, webhookSecret string) *Client {
	return &Client{
		BaseURL:       baseURL,
		APIKey:        apiKey,
		WebhookSecret: webhookSecret,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) RegisterCall(ctx context.Context, req RegisterCallRequest) (*RegisteredCall, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, faults.Permanent("InvalidRegisterRequest", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v2/create-web-call", bytes.NewBuffer(payload))
	if err != nil {
		return nil, faults.Permanent("InvalidRegisterRequest", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, faults.Transient("CallProviderUnreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, faults.Transient("CallProviderUnreachable", err)
	}
	if err := classifyStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	var registered RegisteredCall
	if err := json.Unmarshal(body, &registered); err != nil {
		return nil, faults.Permanent("MalformedProviderResponse", err)
	}
	if registered.CallId == "" {
		return nil, faults.Permanent("MalformedProviderResponse", errors.New("register response missing call_id"))
	}
	return &registered, nil
}

func (c *Client) GetCall(ctx context.Context, callId string) (*CallDetail, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v2/get-call/"+callId, nil)
	if err != nil {
		return nil, faults.Permanent("InvalidCallId", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, faults.Transient("CallProviderUnreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, faults.Transient("CallProviderUnreachable", err)
	}
	if err := classifyStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	var detail CallDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, faults.Permanent("MalformedProviderResponse", err)
	}
	return &detail, nil
}

// VerifySignature checks the HMAC-SHA256 hex digest of the raw, unparsed
// body bytes against the shared webhook secret. Constant-time compare.
func (c *Client) VerifySignature(body []byte, signature string) bool {
	if c.WebhookSecret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(c.WebhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func classifyStatus(status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return faults.Unauthorized("CallProviderAuth", fmt.Errorf("provider returned %d", status))
	case status == http.StatusNotFound:
		return faults.NotFound("CallNotFound", fmt.Errorf("provider returned 404"))
	case status == http.StatusTooManyRequests || status >= 500:
		return faults.Transient("CallProviderBusy", fmt.Errorf("provider returned %d: %s", status, truncate(body, 200)))
	default:
		return faults.Permanent("CallProviderRejected", fmt.Errorf("provider returned %d: %s", status, truncate(body, 200)))
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
