// Package api talks to the Tasker backend over JSON and multipart HTTP.
//
// Every failure is returned as an *apperr.Error: transport failures and 5xx as
// network errors, 404 as not found, 401 and 403 as forbidden and any other
// 4xx as a rejected request.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tgienger/tasker/internal/apperr"
)

// TokenSource supplies the bearer token for each request
type TokenSource interface {
	Token() (string, error)
}

// Client is a Tasker API client
type Client struct {
	base   *url.URL
	http   *http.Client
	tokens TokenSource
	log    *zap.Logger
}

// New returns a client for baseURL. tokens may be nil for anonymous calls.
func New(baseURL string, tokens TokenSource, timeout time.Duration, log *zap.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api url %q: scheme must be http or https", baseURL)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		base:   u,
		http:   &http.Client{Timeout: timeout},
		tokens: tokens,
		log:    log,
	}, nil
}

// request describes one call
type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	// notFound is the message id used when the server answers 404
	notFound string
}

func jsonRequest(method, path string, in any) (request, error) {
	r := request{method: method, path: path}
	if in == nil {
		return r, nil
	}
	b, err := json.Marshal(in)
	if err != nil {
		return r, fmt.Errorf("encode %s %s: %w", method, path, err)
	}
	r.body = bytes.NewReader(b)
	r.contentType = "application/json"
	return r, nil
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	// r.path arrives escaped so segments like a search term keep their slashes
	path, err := url.PathUnescape(r.path)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", r.method, r.path, err)
	}
	u := *c.base
	u.Path = c.base.Path + path
	u.RawPath = c.base.EscapedPath() + r.path
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), r.body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", r.method, r.path, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if c.tokens != nil {
		tok, err := c.tokens.Token()
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		code := apperr.CodeNetworkUnavailable
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			code = apperr.CodeTimeout
		}
		c.log.Warn("api request failed",
			zap.String("method", r.method), zap.String("path", r.path),
			zap.String("request_id", reqID), zap.Error(err))
		return apperr.Network(code, err)
	}
	defer resp.Body.Close()

	c.log.Debug("api request",
		zap.String("method", r.method), zap.String("path", r.path),
		zap.Int("status", resp.StatusCode), zap.Duration("took", time.Since(start)),
		zap.String("request_id", reqID))

	if resp.StatusCode >= 300 {
		return c.statusError(resp, r, reqID)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperr.Network(apperr.CodeServerError, fmt.Errorf("decode %s %s: %w", r.method, r.path, err))
	}
	return nil
}

// serverError is the body the backend sends with a failure
type serverError struct {
	Message any    `json:"message"`
	Error   string `json:"error"`
}

func (c *Client) statusError(resp *http.Response, r request, reqID string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	var se serverError
	_ = json.Unmarshal(body, &se)
	cause := fmt.Errorf("%s %s: %s: %v", r.method, r.path, resp.Status, se.Message)

	var err *apperr.Error
	switch {
	case resp.StatusCode >= 500:
		err = apperr.Network(apperr.CodeServerError, cause)
	case resp.StatusCode == http.StatusNotFound:
		code := r.notFound
		if code == "" {
			code = apperr.CodeNotFound
		}
		err = &apperr.Error{Kind: apperr.KindNotFound, Code: code, Err: cause}
	case resp.StatusCode == http.StatusUnauthorized:
		err = &apperr.Error{Kind: apperr.KindForbidden, Code: apperr.CodeSessionInvalid, Err: cause}
	case resp.StatusCode == http.StatusForbidden:
		err = &apperr.Error{Kind: apperr.KindForbidden, Code: apperr.CodeServerForbidden, Err: cause}
	default:
		err = &apperr.Error{Kind: apperr.KindValidation, Code: apperr.CodeServerRejected, Err: cause}
	}
	c.log.Warn("api request rejected",
		zap.String("method", r.method), zap.String("path", r.path),
		zap.Int("status", resp.StatusCode), zap.String("request_id", reqID),
		zap.Stringer("kind", err.Kind))
	return err
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
