package out

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"flux/internal/modules/replication/domain"
	replicationout "flux/internal/modules/replication/port/out"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	maxErrorBody       = 512
)

type HTTPSink struct {
	endpoint string
	token    string
	client   *http.Client
}

type batchRequest struct {
	Events []domain.Record `json:"events"`
}

// NewHTTPSink posts batches as JSON to endpoint. A non-empty token is sent
// as a bearer credential.
func NewHTTPSink(endpoint, token string, client *http.Client) (replicationout.Sink, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("sync endpoint is required")
	}
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &HTTPSink{endpoint: endpoint, token: strings.TrimSpace(token), client: client}, nil
}

func (s *HTTPSink) Name() string { return "http" }

func (s *HTTPSink) Push(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	body, err := json.Marshal(batchRequest{Events: records})
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request to %s: %w", s.endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post batch to %s: %w", s.endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("post batch to %s: status %d: %s", s.endpoint, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (s *HTTPSink) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
