package sim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Request is the body posted to a simulation endpoint.
type Request struct {
	Code  string `json:"code"`
	Shots int    `json:"shots,omitempty"`
}

// ErrorResponse is the body returned by a simulation endpoint on failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Remote posts code to an HTTP simulation endpoint such as the one served by
// "qcomposer serve".
type Remote struct {
	URL    string
	Client *http.Client
}

// NewRemote returns a client for the endpoint at url.
func NewRemote(url string) *Remote {
	return &Remote{URL: url, Client: &http.Client{Timeout: 30 * time.Second}}
}

func (r *Remote) Run(ctx context.Context, code string, shots int) (*Result, error) {
	body, err := json.Marshal(Request{Code: code, Shots: shots})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("simulate: reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var e ErrorResponse
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			return nil, fmt.Errorf("simulate: %s: %s", resp.Status, e.Error)
		}
		return nil, fmt.Errorf("simulate: %s", resp.Status)
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("simulate: decoding response: %w", err)
	}
	return &res, nil
}
