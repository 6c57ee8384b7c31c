package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"

// bulletsSchema is the strict structured-output contract: a single object
// with a "bullets" array of 2-5 strings.
var bulletsSchema = json.RawMessage(`{"type":"object","properties":{"bullets":{"type":"array","items":{"type":"string"},"minItems":2,"maxItems":5}},"required":["bullets"],"additionalProperties":false}`)

// OpenAIClient calls the chat completions API directly over HTTP. The wire is
// kept in our hands so failures carry their HTTP status and error envelope;
// retry classification and fallback text both depend on them.
type OpenAIClient struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		endpoint:   defaultOpenAIEndpoint,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *jsonSchema `json:"json_schema,omitempty"`
}

type jsonSchema struct {
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

// chatResponse covers the envelope shapes we accept: chat completions
// (choices[].message.content, as a string or as text parts) and the
// responses-style output_text / output[] layout.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	OutputText string `json:"output_text"`
	Output     []struct {
		Content []textPart `json:"content"`
	} `json:"output"`
}

type textPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
		Param   string `json:"param"`
	} `json:"error"`
}

func (c *OpenAIClient) Summarize(ctx context.Context, req Request) (*Result, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: bulletsSystemPrompt},
			{Role: "user", Content: formatItems(req)},
		},
		ResponseFormat: &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchema{
				Name:   "news_bullets",
				Strict: true,
				Schema: bulletsSchema,
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("openai: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai: new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &APIError{Status: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &APIError{Status: 0, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apiErrorFrom(resp, respBody)
	}

	content, err := extractText(respBody)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}

	return parseBullets(content, c.model)
}

// apiErrorFrom builds the structured error from a non-2xx response, pulling
// the JSON error envelope when present and falling back to the raw body.
func apiErrorFrom(resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{
		Status:    resp.StatusCode,
		RequestID: resp.Header.Get("x-request-id"),
	}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Message != "" {
		apiErr.Message = env.Error.Message
		apiErr.Type = env.Error.Type
		apiErr.Code = env.Error.Code
		apiErr.Param = env.Error.Param
		return apiErr
	}

	apiErr.Message = truncate(strings.TrimSpace(string(body)), 300)
	return apiErr
}

// extractText locates the textual payload inside the response envelope.
func extractText(body []byte) (string, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("parse response envelope: %w", err)
	}

	if len(resp.Choices) > 0 {
		raw := resp.Choices[0].Message.Content

		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s, nil
		}

		var parts []textPart
		if err := json.Unmarshal(raw, &parts); err == nil {
			var sb strings.Builder
			for _, p := range parts {
				sb.WriteString(p.Text)
			}
			if sb.Len() > 0 {
				return sb.String(), nil
			}
		}
	}

	if resp.OutputText != "" {
		return resp.OutputText, nil
	}
	for _, out := range resp.Output {
		for _, p := range out.Content {
			if p.Text != "" {
				return p.Text, nil
			}
		}
	}

	return "", fmt.Errorf("no text content in response")
}

// parseBullets parses the model's JSON text and validates its shape. A valid
// object with too few bullets is not an error here; the generator decides how
// to degrade.
func parseBullets(content, model string) (*Result, error) {
	content = cleanJSONResponse(content)

	var parsed struct {
		Bullets []string `json:"bullets"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("parse bullets: %w, content: %s", err, truncate(content, 200))
	}
	if parsed.Bullets == nil {
		return nil, fmt.Errorf("parse bullets: missing bullets array, content: %s", truncate(content, 200))
	}

	bullets := make([]string, 0, len(parsed.Bullets))
	for _, b := range parsed.Bullets {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		bullets = append(bullets, b)
	}
	if len(bullets) > 5 {
		bullets = bullets[:5]
	}

	return &Result{Bullets: bullets, Model: model}, nil
}

// cleanJSONResponse strips markdown fences and surrounding prose some model
// responses wrap around the JSON object.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}
