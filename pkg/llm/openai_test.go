package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func testClient(serverURL string) *OpenAIClient {
	return &OpenAIClient{
		endpoint:   serverURL,
		apiKey:     "test-key",
		model:      "gpt-4o-mini",
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func testRequest() Request {
	return Request{
		Kind:  "ticker",
		Value: "AAPL",
		Items: []Item{
			{Title: "Apple beats estimates", Description: "Revenue up 8% year over year.", Source: "Reuters"},
			{Title: "iPhone demand steady", Source: "Bloomberg"},
		},
	}
}

func TestSummarizeChatCompletionsShape(t *testing.T) {
	var gotAuth string
	var gotPayload chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"bullets\":[\"Apple revenue rose 8%.\",\"iPhone demand held steady.\"]}"}}]}`))
	}))
	defer srv.Close()

	result, err := testClient(srv.URL).Summarize(context.Background(), testRequest())
	assert.Equal(t, nil, err)
	assert.Equal(t, "gpt-4o-mini", result.Model)
	assert.Equal(t, 2, len(result.Bullets))
	assert.Equal(t, "Apple revenue rose 8%.", result.Bullets[0])

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "gpt-4o-mini", gotPayload.Model)
	assert.Equal(t, 2, len(gotPayload.Messages))
	assert.Equal(t, "json_schema", gotPayload.ResponseFormat.Type)

	// URLs never travel to the service.
	user := gotPayload.Messages[1].Content
	if strings.Contains(user, "http") {
		t.Fatalf("user payload must not contain URLs: %q", user)
	}
	if !strings.Contains(user, "Group: ticker AAPL") {
		t.Fatalf("user payload missing group identity: %q", user)
	}
}

func TestSummarizeContentPartsShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":[{"type":"text","text":"{\"bullets\":[\"one\",\"two\",\"three\"]}"}]}}]}`))
	}))
	defer srv.Close()

	result, err := testClient(srv.URL).Summarize(context.Background(), testRequest())
	assert.Equal(t, nil, err)
	assert.Equal(t, 3, len(result.Bullets))
}

func TestSummarizeOutputTextShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"output_text":"{\"bullets\":[\"one\",\"two\"]}"}`))
	}))
	defer srv.Close()

	result, err := testClient(srv.URL).Summarize(context.Background(), testRequest())
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, len(result.Bullets))
}

func TestSummarizeErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-request-id", "req_123")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Summarize(context.Background(), testRequest())
	var apiErr *APIError
	assert.Equal(t, true, errors.As(err, &apiErr))
	assert.Equal(t, 429, apiErr.Status)
	assert.Equal(t, "rate_limit_exceeded", apiErr.Code)
	assert.Equal(t, "Rate limit reached", apiErr.Message)
	assert.Equal(t, "req_123", apiErr.RequestID)
	assert.Equal(t, true, apiErr.Retryable())
}

func TestSummarizeNonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream unavailable"))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Summarize(context.Background(), testRequest())
	var apiErr *APIError
	assert.Equal(t, true, errors.As(err, &apiErr))
	assert.Equal(t, 502, apiErr.Status)
	assert.Equal(t, "upstream unavailable", apiErr.Message)
}

func TestSummarizeBadRequestNotRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Invalid schema","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Summarize(context.Background(), testRequest())
	var apiErr *APIError
	assert.Equal(t, true, errors.As(err, &apiErr))
	assert.Equal(t, 400, apiErr.Status)
	assert.Equal(t, false, apiErr.Retryable())
}

func TestSummarizeTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	_, err := testClient(srv.URL).Summarize(context.Background(), testRequest())
	var apiErr *APIError
	assert.Equal(t, true, errors.As(err, &apiErr))
	assert.Equal(t, 0, apiErr.Status)
	assert.Equal(t, true, apiErr.Retryable())
}

func TestParseBulletsFencedContent(t *testing.T) {
	result, err := parseBullets("```json\n{\"bullets\": [\"a\", \"b\"]}\n```", "gpt-4o-mini")
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, len(result.Bullets))
}

func TestParseBulletsSurroundingProse(t *testing.T) {
	result, err := parseBullets("Here is the summary: {\"bullets\": [\"a\", \"b\"]} Hope it helps!", "gpt-4o-mini")
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, len(result.Bullets))
}

func TestParseBulletsDropsBlanksAndCaps(t *testing.T) {
	result, err := parseBullets(`{"bullets":["a","  ","b","c","d","e","f"]}`, "gpt-4o-mini")
	assert.Equal(t, nil, err)
	assert.Equal(t, 5, len(result.Bullets))
}

func TestParseBulletsMissingArray(t *testing.T) {
	_, err := parseBullets(`{"summary":"not bullets"}`, "gpt-4o-mini")
	assert.NotEqual(t, err, nil)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "status 429 rate_limit_exceeded: slow down",
		Describe(&APIError{Status: 429, Code: "rate_limit_exceeded", Message: "slow down"}))
	assert.Equal(t, "network error: connection refused",
		Describe(&APIError{Status: 0, Message: "connection refused"}))
	assert.Equal(t, "plain", Describe(errors.New("plain")))
}

func TestFormatItemsTruncation(t *testing.T) {
	long := strings.Repeat("x", 500)
	out := formatItems(Request{Kind: "topic", Value: "crypto", Items: []Item{
		{Title: long, Description: long, Source: long},
	}})
	if strings.Contains(out, strings.Repeat("x", 400)) {
		t.Fatal("fields must be truncated before sending")
	}
	assert.Equal(t, true, strings.Contains(out, "1. Title: "))
}
