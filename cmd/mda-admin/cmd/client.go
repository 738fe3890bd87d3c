package cmd

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

// Client is the access API HTTP client.
type Client struct {
	baseURL    string
	actorID    string
	httpClient *http.Client
	verbose    bool
}

// NewClient creates a new access API client.
func NewClient(baseURL, actorID string, verbose bool) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		actorID: actorID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		verbose: verbose,
	}
}

// Do performs an HTTP request and returns the response body.
func (c *Client) Do(method, path string, body any) ([]byte, int, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(context.Background(), method, url, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.actorID != "" {
		req.Header.Set("X-Actor-ID", c.actorID)
	}

	if c.verbose {
		fmt.Printf(">>> %s %s\n", method, url)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	if c.verbose {
		fmt.Printf("<<< %d %s\n", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	if resp.StatusCode >= 400 {
		return nil, resp.StatusCode, parseAPIError(resp.StatusCode, respBody)
	}

	return respBody, resp.StatusCode, nil
}

// Get performs a GET request.
func (c *Client) Get(path string) ([]byte, error) {
	body, _, err := c.Do(http.MethodGet, path, nil)
	return body, err
}

// Put performs a PUT request.
func (c *Client) Put(path string, body any) ([]byte, error) {
	respBody, _, err := c.Do(http.MethodPut, path, body)
	return respBody, err
}

// Post performs a POST request.
func (c *Client) Post(path string, body any) ([]byte, error) {
	respBody, _, err := c.Do(http.MethodPost, path, body)
	return respBody, err
}

// Delete performs a DELETE request.
func (c *Client) Delete(path string) error {
	_, _, err := c.Do(http.MethodDelete, path, nil)
	return err
}

type apiErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func parseAPIError(status int, body []byte) error {
	var parsed apiErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		return fmt.Errorf("%s (%d %s)", parsed.Message, status, http.StatusText(status))
	}
	return fmt.Errorf("%d %s", status, http.StatusText(status))
}
