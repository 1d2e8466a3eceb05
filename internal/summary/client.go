package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"

type Client struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:   apiKey,
		endpoint: defaultEndpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetEndpoint overrides the API base URL (useful for testing).
func (c *Client) SetEndpoint(endpoint string) {
	c.endpoint = strings.TrimRight(endpoint, "/")
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

// GenerateContent sends a single-turn text prompt to model and returns the
// concatenated text of the first candidate.
func (c *Client) GenerateContent(ctx context.Context, model, prompt string) (string, error) {
	bodyBytes, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/models/%s:generateContent", c.endpoint, url.PathEscape(model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(respBytes, "error.message").String()
		if msg == "" {
			msg = string(respBytes)
		}
		return "", fmt.Errorf("gemini API returned %d: %s", resp.StatusCode, msg)
	}

	if !gjson.ValidBytes(respBytes) {
		return "", fmt.Errorf("decode response: invalid JSON")
	}

	var text strings.Builder
	for _, p := range gjson.GetBytes(respBytes, "candidates.0.content.parts.#.text").Array() {
		text.WriteString(p.String())
	}
	if text.Len() == 0 {
		reason := gjson.GetBytes(respBytes, "promptFeedback.blockReason").String()
		if reason != "" {
			return "", fmt.Errorf("gemini blocked prompt: %s", reason)
		}
		return "", fmt.Errorf("gemini returned no text")
	}
	return text.String(), nil
}
