package repository

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

const defaultNotionBaseURL = "https://api.notion.com/v1"

// notionAPIError carries the HTTP status of a failed Notion call so the
// repository can map 404 onto the read-path "absent" result.
type notionAPIError struct {
	StatusCode int
	Body       string
}

func (e *notionAPIError) Error() string {
	return fmt.Sprintf("notion api: status %d: %s", e.StatusCode, e.Body)
}

// NotionClient is a thin HTTP client for the Notion REST API. It handles
// Bearer authentication, the Notion-Version header and JSON (de)serialization.
type NotionClient struct {
	baseURL    string
	apiKey     string
	apiVersion string
	httpClient *http.Client
}

// NewNotionClient creates a Notion API client. An empty baseURL selects the
// public API endpoint; tests point it at a local server.
func NewNotionClient(apiKey, apiVersion, baseURL string) *NotionClient {
	if baseURL == "" {
		baseURL = defaultNotionBaseURL
	}
	if apiVersion == "" {
		apiVersion = "2022-06-28"
	}
	return &NotionClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		apiVersion: apiVersion,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *NotionClient) get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *NotionClient) post(ctx context.Context, path string, body any) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *NotionClient) patch(ctx context.Context, path string, body any) ([]byte, error) {
	return c.do(ctx, http.MethodPatch, path, body)
}

func (c *NotionClient) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Notion-Version", c.apiVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &notionAPIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return data, nil
}
