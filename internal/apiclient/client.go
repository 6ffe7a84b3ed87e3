package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/doc-portal/internal/observability"
	apperrors "github.com/spec-kit/doc-portal/pkg/util"
)

const maxErrorBody = 64 << 10

// CredentialSource yields the bearer token to attach to an outgoing call.
// It is consulted on every request, never cached.
type CredentialSource interface {
	Credential() string
}

// CredentialFunc adapts a function to CredentialSource.
type CredentialFunc func() string

func (f CredentialFunc) Credential() string { return f() }

// Dependencies bundles optional collaborators for the client.
type Dependencies struct {
	Transport http.RoundTripper
	Logger    *zap.Logger
	Metrics   *observability.Metrics
}

// Client talks to the document backend. The zero credential source sends anonymous requests.
type Client struct {
	baseURL string
	timeout time.Duration
	base    http.RoundTripper
	http    *http.Client
	logger  *zap.Logger
	metrics *observability.Metrics
}

// New builds an anonymous client. timeout of zero disables the client deadline.
func New(baseURL string, timeout time.Duration, deps Dependencies) *Client {
	base := deps.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		base:    base,
		logger:  logger,
		metrics: deps.Metrics,
	}
	c.http = &http.Client{Transport: &requestIDTransport{base: base}, Timeout: timeout}
	return c
}

// Bind returns a view of the client that attaches source's credential to every call.
func (c *Client) Bind(source CredentialSource) *Client {
	bound := *c
	bound.http = &http.Client{
		Transport: &bearerTransport{base: &requestIDTransport{base: c.base}, source: source},
		Timeout:   c.timeout,
	}
	return &bound
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Ping checks that the backend answers at all; any HTTP status counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

type bearerTransport struct {
	base   http.RoundTripper
	source CredentialSource
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token := ""
	if t.source != nil {
		token = t.source.Credential()
	}
	if token == "" {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+token)
	return t.base.RoundTrip(clone)
}

type requestIDTransport struct {
	base http.RoundTripper
}

func (t *requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	id := observability.RequestIDFromContext(req.Context())
	if id == "" || req.Header.Get(observability.RequestIDHeader) != "" {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set(observability.RequestIDHeader, id)
	return t.base.RoundTrip(clone)
}

type call struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	accept      string
	length      int64
}

func (c *Client) send(ctx context.Context, in call) (*http.Response, error) {
	target := c.baseURL + in.path
	if len(in.query) > 0 {
		target += "?" + in.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, in.method, target, in.body)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("%s: build request: %w", in.op, err))
	}
	if in.contentType != "" {
		req.Header.Set("Content-Type", in.contentType)
	}
	if in.length > 0 {
		req.ContentLength = in.length
	}
	accept := in.accept
	if accept == "" {
		accept = "application/json"
	}
	req.Header.Set("Accept", accept)

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.RecordBackendCall(in.op, 0)
		c.logger.Warn("backend call failed", zap.String("op", in.op), zap.Error(err))
		return nil, apperrors.NewUpstreamError("", fmt.Errorf("%s: %w", in.op, err))
	}
	c.metrics.RecordBackendCall(in.op, resp.StatusCode)
	c.logger.Debug("backend call", zap.String("op", in.op), zap.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}
	return resp, nil
}

// do performs a call and decodes a JSON body into out when out is non-nil.
func (c *Client) do(ctx context.Context, in call, out any) error {
	resp, err := c.send(ctx, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewUpstreamError("Unexpected response from server", fmt.Errorf("%s: decode: %w", in.op, err))
	}
	return nil
}

type validationIssue struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// decodeError turns a non-2xx response into a DomainError, keeping the backend's detail text.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || len(envelope.Detail) == 0 {
		return apperrors.FromStatus(resp.StatusCode, "", nil)
	}

	var detail string
	if err := json.Unmarshal(envelope.Detail, &detail); err == nil {
		return apperrors.FromStatus(resp.StatusCode, detail, nil)
	}

	var issues []validationIssue
	if err := json.Unmarshal(envelope.Detail, &issues); err == nil && len(issues) > 0 {
		fields := make(map[string]any, len(issues))
		for _, issue := range issues {
			fields[fieldName(issue.Loc)] = issue.Msg
		}
		return apperrors.FromStatus(resp.StatusCode, "Validation failed", map[string]any{"fields": fields})
	}
	return apperrors.FromStatus(resp.StatusCode, "", nil)
}

func fieldName(loc []any) string {
	parts := make([]string, 0, len(loc))
	for i, part := range loc {
		// drop the "body"/"query" origin marker
		if i == 0 && len(loc) > 1 {
			if s, ok := part.(string); ok && (s == "body" || s == "query" || s == "path") {
				continue
			}
		}
		parts = append(parts, fmt.Sprint(part))
	}
	return strings.Join(parts, ".")
}
