package pipedrive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
)

const defaultEndpoint = "https://api.pipedrive.com/v1"

// visibleToAll is Pipedrive's "entire company" visibility group.
const visibleToAll = "3"

type Client struct {
	apiToken   string
	endpoint   string
	httpClient *http.Client
}

func NewClient(apiToken string) *Client {
	return &Client{
		apiToken: apiToken,
		endpoint: defaultEndpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SetEndpoint overrides the API base URL (useful for testing).
func (c *Client) SetEndpoint(endpoint string) {
	c.endpoint = endpoint
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (gjson.Result, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api_token", c.apiToken)
	reqURL := c.endpoint + path + "?" + query.Encode()

	var reqBody io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return gjson.Result{}, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return gjson.Result{}, fmt.Errorf("pipedrive API %s %s returned %d: %s", method, path, resp.StatusCode, respBytes)
	}

	if !gjson.ValidBytes(respBytes) {
		return gjson.Result{}, fmt.Errorf("decode response: invalid JSON")
	}

	result := gjson.ParseBytes(respBytes)
	if success := result.Get("success"); success.Exists() && !success.Bool() {
		return gjson.Result{}, fmt.Errorf("pipedrive API error: %s", result.Get("error").String())
	}
	return result, nil
}

// SearchPersonByEmail returns the ID of the first person whose email matches.
// Returns 0, nil if there is none.
func (c *Client) SearchPersonByEmail(ctx context.Context, email string) (int64, error) {
	res, err := c.do(ctx, http.MethodGet, "/persons/search", url.Values{
		"term":   {email},
		"fields": {"email"},
	}, nil)
	if err != nil {
		return 0, err
	}
	return res.Get("data.items.0.item.id").Int(), nil
}

func (c *Client) CreatePerson(ctx context.Context, name, email string) (int64, error) {
	res, err := c.do(ctx, http.MethodPost, "/persons", nil, map[string]any{
		"name":       name,
		"email":      []string{email},
		"visible_to": visibleToAll,
	})
	if err != nil {
		return 0, fmt.Errorf("create person: %w", err)
	}
	id := res.Get("data.id").Int()
	if id == 0 {
		return 0, fmt.Errorf("create person: response has no id")
	}
	return id, nil
}

func (c *Client) CreateDeal(ctx context.Context, title string, personID int64) (int64, error) {
	res, err := c.do(ctx, http.MethodPost, "/deals", nil, map[string]any{
		"title":      title,
		"person_id":  personID,
		"visible_to": visibleToAll,
	})
	if err != nil {
		return 0, fmt.Errorf("create deal: %w", err)
	}
	id := res.Get("data.id").Int()
	if id == 0 {
		return 0, fmt.Errorf("create deal: response has no id")
	}
	return id, nil
}

func (c *Client) AddNote(ctx context.Context, dealID int64, content string) error {
	_, err := c.do(ctx, http.MethodPost, "/notes", nil, map[string]any{
		"content": content,
		"deal_id": dealID,
	})
	if err != nil {
		return fmt.Errorf("add note: %w", err)
	}
	return nil
}
