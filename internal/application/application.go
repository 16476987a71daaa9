package application

import (
	"context"
	"time"

	"github.com/aimatrix/site/internal/domain/provider"
	"github.com/aimatrix/site/internal/observability"
	"github.com/aimatrix/site/internal/observability/logctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}

const spanPrefix = "UC."

// Instruments is the per-use-case observability bundle, built once at construction.
type Instruments struct {
	name       string
	log        observability.Logger
	tracer     observability.Tracer
	reqCounter observability.Counter
	durHist    observability.Histogram
}

// NewInstruments binds a use case name to the provider's logger, tracer and metrics.
func NewInstruments(obs observability.Observability, service, useCase string) Instruments {
	if obs == nil {
		obs = observability.Nop()
	}
	return Instruments{
		name:       useCase,
		log:        obs.Logger().With(observability.F("service", service)),
		tracer:     obs.Tracer(),
		reqCounter: obs.Metrics().Counter(observability.MUsecaseRequests),
		durHist:    obs.Metrics().Histogram(observability.MUsecaseDuration),
	}
}

func (in Instruments) Logger(ctx context.Context) observability.Logger {
	return logctx.FromOr(ctx, in.log).With(observability.F("use_case", in.name))
}

// Run tracks one execution: a span, the outcome/status pair, and extra log fields.
type Run struct {
	in         Instruments
	ctx        context.Context
	span       trace.Span
	start      time.Time
	logger     observability.Logger
	outcome    string
	statusText string
	fields     []observability.Field
}

// Start opens the span "UC.<spanName>" and returns the context carrying it.
func (in Instruments) Start(ctx context.Context, spanName string, attrs ...attribute.KeyValue) (context.Context, *Run) {
	attrs = append(attrs, attribute.String("use_case", in.name))
	ctx, span := in.tracer.Start(ctx, spanPrefix+spanName, attrs...)
	return ctx, &Run{
		in:         in,
		ctx:        ctx,
		span:       span,
		start:      time.Now(),
		logger:     in.Logger(ctx),
		outcome:    observability.OutcomeSuccess,
		statusText: "OK",
	}
}

// Fail records a failure outcome with a short machine-readable status.
func (r *Run) Fail(outcome, statusText string) {
	r.outcome, r.statusText = outcome, statusText
}

// FailWith classifies err into the provider_error / network_error / error outcomes.
func (r *Run) FailWith(err error, statusText string) {
	switch {
	case provider.IsNetwork(err):
		r.Fail(observability.OutcomeNetworkError, statusText)
	case isProviderError(err):
		r.Fail(observability.OutcomeProviderError, statusText)
	default:
		r.Fail(observability.OutcomeError, statusText)
	}
}

func isProviderError(err error) bool {
	_, ok := provider.AsProviderError(err)
	return ok
}

// Status overrides the status text while keeping the outcome.
func (r *Run) Status(statusText string) {
	r.statusText = statusText
}

// With attaches fields to the final use_case_done entry.
func (r *Run) With(fields ...observability.Field) {
	r.fields = append(r.fields, fields...)
}

// End closes the span, records metrics, and writes the use_case_done log. Call it deferred.
func (r *Run) End(err error) {
	if r.span != nil {
		if err != nil {
			r.span.RecordError(err)
			r.span.SetStatus(codes.Error, r.statusText)
		} else {
			r.span.SetStatus(codes.Ok, r.statusText)
		}
		r.span.End()
	}

	latency := time.Since(r.start).Seconds()
	if err != nil && r.outcome == observability.OutcomeSuccess {
		r.outcome = observability.OutcomeError
	}
	r.in.reqCounter.Add(1,
		observability.L("use_case", r.in.name),
		observability.L("outcome", r.outcome),
	)
	r.in.durHist.Observe(latency, observability.L("use_case", r.in.name))

	fields := append([]observability.Field{
		observability.F("outcome", r.outcome),
		observability.F("status", r.statusText),
		observability.F("latency_seconds", latency),
	}, r.fields...)
	if sc := trace.SpanContextFromContext(r.ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	if err != nil {
		fields = append(fields, observability.F("error", err.Error()))
	}
	r.logger.Info("use_case_done", fields...)
}

// Logger returns the run's logger for intermediate events.
func (r *Run) Logger() observability.Logger { return r.logger }
