// Package iproov is the HTTP client for the four iProov endpoints a photo
// enrolment touches. Every call goes through the same send/classify path so a
// non-2xx response or a transport failure always comes back as a typed error.
package iproov

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"photoenrol/internal/platform/metrics"
	"photoenrol/internal/platform/tracer"
	"photoenrol/pkg/domain"
	dErrors "photoenrol/pkg/domain-errors"
)

// Step labels. They appear in logs, error messages and metric labels.
const (
	StepCreateToken         = "create token"
	StepEnrolImage          = "enrol image"
	StepGenerateAccessToken = "generate access token"
	StepDeleteUser          = "delete user"
)

// Header names set on every outbound request.
const (
	HeaderRequestID = "X-Request-ID"
	HeaderUserAgent = "User-Agent"
)

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures a Client.
type Config struct {
	BaseURL       string // region already substituted, no trailing slash
	APIKey        string
	Secret        string
	OAuthUsername string
	OAuthPassword string
	Resource      string
	UserAgent     string
	RunID         domain.RunID
	Timeout       time.Duration // applies only when HTTPClient is nil; zero means none
	HTTPClient    HTTPDoer
	Logger        *slog.Logger
	Tracer        tracer.Tracer
	Metrics       *metrics.Metrics
}

// Client talks to one iProov region with one set of service-provider credentials.
type Client struct {
	baseURL       string
	apiKey        string
	secret        string
	oauthUsername string
	oauthPassword string
	resource      string
	userAgent     string
	runID         domain.RunID
	client        HTTPDoer
	logger        *slog.Logger
	tracer        tracer.Tracer
	metrics       *metrics.Metrics
}

// NewClient creates a Client. Nil logger, tracer and metrics are replaced by
// a discarding logger, a no-op tracer and a fresh private registry.
func NewClient(cfg Config) *Client {
	c := &Client{
		baseURL:       cfg.BaseURL,
		apiKey:        cfg.APIKey,
		secret:        cfg.Secret,
		oauthUsername: cfg.OAuthUsername,
		oauthPassword: cfg.OAuthPassword,
		resource:      cfg.Resource,
		userAgent:     cfg.UserAgent,
		runID:         cfg.RunID,
		client:        selectHTTPClient(cfg),
		logger:        cfg.Logger,
		tracer:        cfg.Tracer,
		metrics:       cfg.Metrics,
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.tracer == nil {
		c.tracer = tracer.NewNoop()
	}
	if c.metrics == nil {
		c.metrics = metrics.New()
	}
	return c
}

func selectHTTPClient(cfg Config) HTTPDoer {
	if cfg.HTTPClient != nil {
		return cfg.HTTPClient
	}
	return &http.Client{
		Timeout: cfg.Timeout,
	}
}

// decorate sets the headers every request carries.
func (c *Client) decorate(req *http.Request) {
	if c.userAgent != "" {
		req.Header.Set(HeaderUserAgent, c.userAgent)
	}
	if !c.runID.IsNil() {
		req.Header.Set(HeaderRequestID, c.runID.String())
	}
}

// send executes req and classifies the response. The body of a 2xx response
// is returned; anything else becomes a transport error or a *StatusError.
func (c *Client) send(ctx context.Context, span tracer.Span, req *http.Request, step string) ([]byte, error) {
	c.decorate(req)
	span.SetAttributes(
		tracer.String(tracer.AttrMethod, req.Method),
		tracer.String(tracer.AttrRunID, c.runID.String()),
	)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		err = transportError(ctx, step, err)
		c.metrics.ObserveStep(step, time.Since(start), err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		err = transportError(ctx, step, err)
		c.metrics.ObserveStep(step, time.Since(start), err)
		return nil, err
	}

	err = classify(resp.StatusCode, body, step)
	span.AddEvent(tracer.EventClassified,
		tracer.Int(tracer.AttrStatusCode, resp.StatusCode),
		tracer.Bool("success", err == nil),
	)
	c.metrics.ObserveStep(step, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, step+" succeeded",
		"step", step,
		"status", resp.StatusCode,
	)
	return body, nil
}

// transportError classifies a failure that happened before a full response
// was read. Cancellation and deadline are reported with the context's cause.
func transportError(ctx context.Context, step string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		err = errors.Join(err, ctxErr)
	}
	return dErrors.Wrap(err, dErrors.CodeTransport, step+" request failed: "+err.Error())
}
