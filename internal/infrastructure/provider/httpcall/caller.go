package httpcall

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/aimatrix/site/internal/domain/provider"
	"github.com/aimatrix/site/internal/observability"
	"github.com/aimatrix/site/internal/observability/logctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const componentCaller = "provider_caller"

// Request describes a single outbound provider call.
type Request struct {
	Provider provider.Name
	Method   string
	URL      string
	Header   http.Header
	Body     []byte
	// BasicAuth, when set, is sent as HTTP basic credentials.
	BasicAuth *BasicAuth
}

type BasicAuth struct {
	User, Password string
}

// Caller performs exactly one HTTP call per Do: no retries, no client-side timeout,
// no circuit breaking. The caller's context is the only way to abandon a call.
type Caller struct {
	client   *http.Client
	log      observability.Logger
	tracer   observability.Tracer
	requests observability.Counter
	duration observability.Histogram

	mu    sync.Mutex
	bound map[provider.Name]*providerSeries
}

// providerSeries holds one provider's metric series, bound on first use.
type providerSeries struct {
	duration observability.BoundHistogram
	outcomes map[string]observability.BoundCounter
}

var callOutcomes = []string{
	observability.OutcomeSuccess,
	observability.OutcomeError,
	observability.OutcomeProviderError,
	observability.OutcomeNetworkError,
}

// New builds a Caller. A nil client gets an otelhttp-instrumented transport with no timeout.
func New(client *http.Client, obs observability.Observability) *Caller {
	if obs == nil {
		obs = observability.Nop()
	}
	if client == nil {
		client = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return &Caller{
		client:   client,
		log:      obs.Logger().With(observability.F("component", componentCaller)),
		tracer:   obs.Tracer(),
		requests: obs.Metrics().Counter(observability.MExternalRequests),
		duration: obs.Metrics().Histogram(observability.MExternalRequestDuration),
		bound:    make(map[provider.Name]*providerSeries),
	}
}

// series binds every outcome of p up front, so each one is exported from zero.
func (c *Caller) series(p provider.Name) *providerSeries {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.bound[p]; ok {
		return s
	}
	name := observability.L("provider", string(p))
	s := &providerSeries{
		duration: c.duration.Bind(name),
		outcomes: make(map[string]observability.BoundCounter, len(callOutcomes)),
	}
	for _, o := range callOutcomes {
		s.outcomes[o] = c.requests.Bind(name, observability.L("outcome", o))
	}
	c.bound[p] = s
	return s
}

// Do issues the call. Any HTTP response, including non-2xx, is returned as a Response;
// a transport failure is returned as *provider.NetworkError.
func (c *Caller) Do(ctx context.Context, req Request) (_ provider.Response, err error) {
	logger := logctx.FromOr(ctx, c.log).With(
		observability.F("provider", string(req.Provider)),
		observability.F("method", req.Method),
	)
	ctx, span := c.tracer.Start(ctx, "Provider."+string(req.Provider),
		attribute.String("provider", string(req.Provider)),
		attribute.String("http.method", req.Method),
	)
	start := time.Now()
	outcome := observability.OutcomeSuccess
	status := 0

	defer func() {
		latency := time.Since(start).Seconds()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		span.End()

		series := c.series(req.Provider)
		series.outcomes[outcome].Add(1)
		series.duration.Observe(latency)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", status),
			observability.F("latency_seconds", latency),
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
			logger.Warn("provider_call_failed", fields...)
			return
		}
		logger.Info("provider_call_done", fields...)
	}()

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		outcome = observability.OutcomeError
		return provider.Response{}, fmt.Errorf("%s: build request: %w", req.Provider, err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.BasicAuth != nil {
		httpReq.SetBasicAuth(req.BasicAuth.User, req.BasicAuth.Password)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		outcome = observability.OutcomeNetworkError
		return provider.Response{}, &provider.NetworkError{Provider: req.Provider, Err: err}
	}
	defer resp.Body.Close()

	status = resp.StatusCode
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		outcome = observability.OutcomeNetworkError
		return provider.Response{}, &provider.NetworkError{Provider: req.Provider, Err: fmt.Errorf("read body: %w", err)}
	}

	out := provider.Response{
		Status:      resp.StatusCode,
		Body:        respBody,
		ContentType: resp.Header.Get("Content-Type"),
	}
	if !out.OK() {
		outcome = observability.OutcomeProviderError
	}
	return out, nil
}
