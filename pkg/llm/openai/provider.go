package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ai-interview-be/pkg/faults"
	"ai-interview-be/pkg/llm"
)

// OpenAIProvider talks to any OpenAI-compatible chat completions endpoint.
type OpenAIProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

var _ llm.LLMProvider = &OpenAIProvider{}

func NewOpenAIProvider(apiKey, baseURL, model string) *OpenAIProvider {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []llm.Message   `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

func (p *OpenAIProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	opts := &llm.Options{
		Model:       p.model,
		Temperature: 0.2,
	}
	for _, o := range options {
		o(opts)
	}

	reqBody := chatRequest{
		Model:       opts.Model,
		Messages:    history,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	if opts.JSONMode {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", faults.Permanent("MalformedRequest", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewBuffer(payload))
	if err != nil {
		return "", faults.Permanent("MalformedRequest", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		// Includes client timeouts and context deadlines.
		return "", faults.Transient("ScoringProviderUnreachable", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", faults.Transient("ScoringProviderUnreachable", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return "", faults.Transient("ScoringProviderBadResponse",
			fmt.Errorf("status %d, body: %s", resp.StatusCode, truncate(bodyBytes, 200)))
	}

	if resp.StatusCode != http.StatusOK {
		return "", classify(resp.StatusCode, &parsed)
	}
	if len(parsed.Choices) == 0 {
		return "", faults.Transient("ScoringProviderBadResponse", fmt.Errorf("no choices returned"))
	}
	return parsed.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

// classify maps provider failures onto the shared error taxonomy. Quota
// exhaustion looks like a 429 but retrying it is pointless, so it is tagged
// permanent.
func classify(status int, resp *chatResponse) error {
	msg := "unknown provider error"
	code := ""
	if resp.Error != nil {
		msg = resp.Error.Message
		code = resp.Error.Code
		if code == "" {
			code = resp.Error.Type
		}
	}
	err := fmt.Errorf("status %d (%s): %s", status, code, msg)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return faults.Unauthorized("ScoringProviderAuth", err)
	case code == "insufficient_quota":
		return faults.Permanent("ScoringProviderQuota", err)
	case status == http.StatusTooManyRequests || status >= 500:
		return faults.Transient("ScoringProviderBusy", err)
	default:
		return faults.Permanent("ScoringProviderRejected", err)
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
