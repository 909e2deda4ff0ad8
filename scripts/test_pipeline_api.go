package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/fatih/color"
)

// End-to-end smoke test against a locally running server: register a
// response, replay the provider webhook sequence, poll for analytics.
//
// Usage:
//   go run scripts/test_pipeline_api.go <interview_id>
// Env:
//   WEBHOOK_SECRET must match CALL_PROVIDER_WEBHOOK_SECRET on the server.

const baseURL = "http://localhost:3000/api"

func prettyPrint(body []byte) {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		fmt.Println(string(body))
		return
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func sendRequest(method, url string, body interface{}, headers map[string]string) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	var raw []byte
	if body != nil {
		raw, _ = json.Marshal(body)
		bodyReader = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func sendWebhook(secret string, payload map[string]interface{}) (*http.Response, []byte, error) {
	raw, _ := json.Marshal(payload)
	req, err := http.NewRequest(http.MethodPost, baseURL+"/webhook/call-events", bytes.NewBuffer(raw))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Signature", sign(secret, raw))

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func main() {
	if len(os.Args) < 2 {
		color.Red("Usage: go run scripts/test_pipeline_api.go <interview_id>")
		os.Exit(1)
	}
	interviewId := os.Args[1]
	secret := os.Getenv("WEBHOOK_SECRET")

	color.Cyan("🚀 Response Pipeline Smoke Test\n")

	color.Yellow("\n1. Register response")
	resp, body, err := sendRequest(http.MethodPost, "/responses/register", map[string]interface{}{
		"interview_id": interviewId,
		"email":        "smoke-test@example.com",
		"name":         "Smoke Test",
	}, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(body)

	var registered struct {
		Data struct {
			CallId string `json:"call_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &registered); err != nil || registered.Data.CallId == "" {
		color.Red("No call_id in response, aborting")
		os.Exit(1)
	}
	callId := registered.Data.CallId

	color.Yellow("\n2. Webhook: call_started")
	resp, body, err = sendWebhook(secret, map[string]interface{}{
		"event": "call_started",
		"call":  map[string]interface{}{"call_id": callId},
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(body)

	color.Yellow("\n3. Webhook: call_ended")
	resp, body, err = sendWebhook(secret, map[string]interface{}{
		"event": "call_ended",
		"call": map[string]interface{}{
			"call_id":         callId,
			"transcript":      "Agent: Tell me about yourself.\nUser: I have five years of Go experience.",
			"start_timestamp": 1700000000000,
			"end_timestamp":   1700000300000,
		},
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(body)

	color.Yellow("\n4. Poll with inline analyse")
	resp, body, err = sendRequest(http.MethodGet, "/responses/"+callId+"?analyse=true", nil, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(body)

	color.Cyan("\n✅ Done")
}
