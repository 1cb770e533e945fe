package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/parikshasetu/exam-platform/pkg/middleware/requestid"
)

// ServiceTokenHeader authenticates calls between services.
const ServiceTokenHeader = "X-Service-Token"

// Outcome labels recorded for every peer call.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder observes peer calls. MetricsService satisfies it.
type Recorder interface {
	ObservePeerCall(peer, outcome string, duration time.Duration)
}

// Options bounds and authenticates peer calls.
type Options struct {
	Timeout      time.Duration
	Retries      int
	ServiceToken string
	HTTPClient   *http.Client
	Logger       *zap.Logger
	Recorder     Recorder
}

// StatusError reports an unexpected HTTP status from a peer.
type StatusError struct {
	Peer   string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s responded with HTTP %d", e.Peer, e.Status)
}

type peer struct {
	name    string
	baseURL string
	opts    Options
}

func newPeer(name, baseURL string, opts Options) peer {
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return peer{name: name, baseURL: baseURL, opts: opts}
}

type reply struct {
	status int
	body   []byte
}

// do sends one request, retrying transport failures and 5xx replies when the
// request is idempotent. Every attempt gets its own timeout.
func (p peer) do(ctx context.Context, method, path string, payload interface{}, idempotent bool) (*reply, error) {
	var body []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", p.name, err)
		}
		body = encoded
	}

	attempts := 1
	if idempotent {
		attempts += p.opts.Retries
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		start := time.Now()
		res, err := p.attempt(ctx, method, path, body)
		outcome := OutcomeSuccess
		if err != nil {
			outcome = OutcomeFailure
		}
		if p.opts.Recorder != nil {
			p.opts.Recorder.ObservePeerCall(p.name, outcome, time.Since(start))
		}
		if err == nil {
			return res, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if attempt < attempts {
			p.opts.Logger.Warn("peer call failed, retrying",
				zap.String("peer", p.name),
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
	}
	return nil, lastErr
}

func (p peer) attempt(ctx context.Context, method, path string, body []byte) (*reply, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", p.name, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p.opts.ServiceToken != "" {
		req.Header.Set(ServiceTokenHeader, p.opts.ServiceToken)
	}
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.HeaderKey, id)
	}

	resp, err := p.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", p.name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", p.name, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, &StatusError{Peer: p.name, Status: resp.StatusCode}
	}
	return &reply{status: resp.StatusCode, body: data}, nil
}

// envelope mirrors pkg/response.Envelope on the receiving side.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// decodeData unwraps the response envelope into dest. Bare payloads without
// an envelope are accepted too.
func decodeData(body []byte, dest interface{}) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
		return json.Unmarshal(env.Data, dest)
	}
	return json.Unmarshal(body, dest)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}
