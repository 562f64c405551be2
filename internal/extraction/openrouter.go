package extraction

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

// OpenRouter implements the Extractor interface against any OpenAI-compatible
// chat completions endpoint. The default base URL points at OpenRouter.
type OpenRouter struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewOpenRouter creates a new OpenRouter Extractor instance. An empty API key
// is tolerated here so the process can start without a credential; every
// Extract call then fails with an APIError until one is configured.
func NewOpenRouter(baseURL, apiKey, model string) *OpenRouter {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	if model == "" {
		model = "openai/gpt-4o-mini"
	}

	return &OpenRouter{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// chatRequest represents the request body for the chat completions API
type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *chatFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatFormat struct {
	Type string `json:"type"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// chatResponse represents the response from the chat completions API
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Extract sends the normalized image with the extraction prompt as a single
// blocking chat completions call and returns the model's text response.
// No retry, no streaming.
func (o *OpenRouter) Extract(ctx context.Context, img NormalizedImage) (string, error) {
	if o.apiKey == "" {
		return "", &APIError{Message: "no API credential configured"}
	}

	reqBody := chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: receiptPrompt},
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: "Extract the receipt data."},
					{Type: "image_url", ImageURL: &imageURL{URL: img.DataURI(), Detail: "high"}},
				},
			},
		},
		ResponseFormat: &chatFormat{Type: "json_object"},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", &APIError{Message: "marshaling request", Err: err}
	}

	url := fmt.Sprintf("%s/chat/completions", o.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", &APIError{Message: "creating request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", &APIError{Message: "calling completion API", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", &APIError{Message: "decoding response", Err: err}
	}

	if len(chatResp.Choices) == 0 {
		return "", &APIError{Message: "empty response from model"}
	}

	return chatResp.Choices[0].Message.Content, nil
}

// Close closes the extractor (no-op for HTTP client)
func (o *OpenRouter) Close() error {
	return nil
}
