package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/quotecart/pkg/errors"
)

const (
	defaultHTTPTimeout    = 15 * time.Second
	responseBodyReadLimit = 1024
	ordersPath            = "/orders"
	quotesPath            = "/quotes"
)

var errBaseURLRequired = errors.New("submission api base url is required")

// HTTPSubmitter posts payloads to the ordering REST API.
type HTTPSubmitter struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// HTTPOption configures optional submitter behavior.
type HTTPOption func(*HTTPSubmitter)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(s *HTTPSubmitter) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithBearerToken authenticates requests with the given token.
func WithBearerToken(token string) HTTPOption {
	return func(s *HTTPSubmitter) {
		s.token = strings.TrimSpace(token)
	}
}

func NewHTTPSubmitter(baseURL string, timeout time.Duration, opts ...HTTPOption) (*HTTPSubmitter, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	s := &HTTPSubmitter{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Submit sends orders to /orders and quotes to /quotes.
func (s *HTTPSubmitter) Submit(ctx context.Context, payload Payload) (Result, error) {
	path := ordersPath
	if payload.Kind == KindQuote {
		path = quotesPath
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal submission")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build submission request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Idempotency-Key", payload.SubmissionID)
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute submission request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		cause := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		if resp.StatusCode == http.StatusUnprocessableEntity || resp.StatusCode == http.StatusBadRequest {
			return Result{}, pkgerrors.Wrap(pkgerrors.CodeValidation, cause, "submission rejected")
		}
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, cause, "submission request failed")
	}

	var result Result
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil && !errors.Is(err, io.EOF) {
			return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode submission response")
		}
	}
	if result.Status == "" {
		result.Status = "submitted"
	}
	return result, nil
}
