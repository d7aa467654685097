// Package pinecone provides a client for the Pinecone Assistant context API.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// apiVersion pins the remote API version. Bumping it is a deliberate
// compatibility decision, not a side effect of a dependency upgrade.
const apiVersion = "2025-04"

// Client is a client for the assistant context endpoint. It holds no mutable
// state and is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

// NewClient creates a new Client targeting the given host.
func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// ContextRequest is the wire shape of a context query. TopK is a pointer so
// an absent value is omitted from the body entirely rather than sent as zero.
type ContextRequest struct {
	Query string  `json:"query"`
	TopK  *uint32 `json:"top_k,omitempty"`
}

// ContextResponse holds the snippets returned for a query. Snippets stay
// opaque raw JSON so they can be passed through to the client verbatim.
type ContextResponse struct {
	Snippets []json.RawMessage `json:"snippets"`
	Usage    json.RawMessage   `json:"usage"`
}

// NotFoundError indicates the named resource does not exist on the backend.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("API error: %s not found", e.Resource)
}

// APIError is a non-2xx, non-404 response from the backend.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %d - %s", e.Status, e.Body)
}

// DecodeError is a 2xx response whose body does not match the expected shape.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("JSON deserialization error: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// AssistantContext retrieves context snippets for a query against a named
// assistant. It performs exactly one network call, with no retries.
func (c *Client) AssistantContext(ctx context.Context, assistantName, query string, topK *uint32) (*ContextResponse, error) {
	url := fmt.Sprintf("%s/assistant/chat/%s/context", c.baseURL, assistantName)

	payload, err := json.Marshal(ContextRequest{Query: query, TopK: topK})
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Pinecone-API-Version", apiVersion)

	log.Debug("Requesting assistant context", "assistant", assistantName)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read error response: %w", err)
		}

		if resp.StatusCode == http.StatusNotFound {
			return nil, &NotFoundError{Resource: fmt.Sprintf("assistant %q", assistantName)}
		}

		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &DecodeError{Err: err}
	}

	// snippets is required; a 2xx body without it is malformed, not empty.
	if _, ok := raw["snippets"]; !ok {
		return nil, &DecodeError{Err: fmt.Errorf("missing field snippets")}
	}

	var response ContextResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &DecodeError{Err: err}
	}

	log.Debug("Received assistant context", "assistant", assistantName, "snippets", len(response.Snippets))

	return &response, nil
}
