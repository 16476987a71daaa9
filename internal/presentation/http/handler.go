package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/aimatrix/site/internal/application"
	appPayment "github.com/aimatrix/site/internal/application/payment"
	domainContact "github.com/aimatrix/site/internal/domain/contact"
	domainPayment "github.com/aimatrix/site/internal/domain/payment"
	"github.com/aimatrix/site/internal/domain/provider"
	"github.com/aimatrix/site/internal/observability"
	"github.com/aimatrix/site/internal/observability/logctx"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	maxBodyBytes         = 1 << 20

	RouteHealth        = "/"
	RouteContact       = "/api/contact"
	RouteCreateOrder   = "/api/create-order"
	RouteVerifyPayment = "/api/verify-payment"
	RoutePredict       = "/api/ai/predict"
)

var (
	errMethodNotAllowed  = errors.New("Method not allowed")
	errRateLimited       = errors.New("rate limit exceeded")
	errInvalidJSON       = errors.New("invalid JSON body")
	errMailNotConfigured = errors.New("Email not configured")
	errNotConfigured     = errors.New("Service not configured")
)

// UseCases are the application entry points the handlers delegate to.
type UseCases struct {
	Contact       application.UseCase[domainContact.Submission, struct{}]
	CreateOrder   application.UseCase[appPayment.CreateOrderInput, provider.Response]
	VerifyPayment application.UseCase[domainPayment.Confirmation, appPayment.VerifyResult]
	Predict       application.UseCase[[]byte, provider.Response]
}

// Options tunes edge behaviour that is not part of any single use case.
type Options struct {
	ContactRateRPS   float64
	ContactRateBurst int
	AllowedOrigins   []string
}

type Handler struct {
	uc       UseCases
	log      observability.Logger
	requests observability.Counter
	duration observability.Histogram
	limiter  *limiterStore
	origins  []string
}

func NewHandler(uc UseCases, obs observability.Observability, opts Options) *Handler {
	if obs == nil {
		obs = observability.Nop()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	var limiter *limiterStore
	if opts.ContactRateRPS > 0 {
		limiter = newLimiterStore(opts.ContactRateRPS, opts.ContactRateBurst)
	}
	return &Handler{
		uc:       uc,
		log:      obs.Logger().With(observability.F("component", componentHTTPHandler)),
		requests: obs.Metrics().Counter(observability.MHTTPRequests),
		duration: obs.Metrics().Histogram(observability.MHTTPRequestDuration),
		limiter:  limiter,
		origins:  origins,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{headerRequestID},
		MaxAge:         300,
	}))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
			next.ServeHTTP(w, r)
		})
	})

	// Wire each route with middlewares:
	// Trace → ObservabilityMiddleware (request logger) → HTTP metrics → Access log → Handler
	h.route(r, http.MethodGet, RouteHealth, h.handleHealth)
	h.route(r, http.MethodPost, RouteContact, withRateLimit(h.limiter, http.HandlerFunc(h.handleContact)).ServeHTTP)
	h.route(r, http.MethodPost, RouteCreateOrder, h.handleCreateOrder)
	h.route(r, http.MethodPost, RouteVerifyPayment, h.handleVerifyPayment)
	h.route(r, http.MethodPost, RoutePredict, h.handlePredict)

	return r
}

func (h *Handler) route(r chi.Router, method, route string, handler http.HandlerFunc) {
	r.HandleFunc(route, func(w http.ResponseWriter, r *http.Request) {
		// Store stable route template for low-cardinality labels
		r = r.WithContext(contextWithRoute(r.Context(), route))

		wrapped := h.withTrace(
			ObservabilityMiddleware(
				h.log,
				func(r *http.Request) string {
					return r.Header.Get(headerRequestID)
				},
			)(
				h.withHTTPMetrics(
					h.withAccessLog(allowOnly(method, handler)),
				),
			),
		)
		wrapped.ServeHTTP(w, r)
	})
}

// allowOnly answers 405 to any other method without reaching next.
func allowOnly(method string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			writeError(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
			return
		}
		next(w, r)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "running"})
}

type contactResponse struct {
	Success bool `json:"success"`
}

func (h *Handler) handleContact(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := validateJSONSchema(contactLoader, body); err != nil {
		logctx.FromOr(r.Context(), h.log).Debug("contact_schema_rejected", observability.F("error", err.Error()))
		writeError(w, http.StatusBadRequest, domainContact.ErrMissingField)
		return
	}
	var sub domainContact.Submission
	if err := json.Unmarshal(body, &sub); err != nil {
		writeError(w, http.StatusBadRequest, domainContact.ErrMissingField)
		return
	}

	if _, err := h.uc.Contact.Execute(r.Context(), sub); err != nil {
		h.writeContactError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contactResponse{Success: true})
}

type createOrderRequest struct {
	Amount int64 `json:"amount"`
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSON)
		return
	}

	resp, err := h.uc.CreateOrder.Execute(r.Context(), appPayment.CreateOrderInput{Amount: req.Amount})
	if err != nil {
		writeProviderError(w, err)
		return
	}
	relay(w, resp)
}

func (h *Handler) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req domainPayment.Confirmation
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSON)
		return
	}

	res, err := h.uc.VerifyPayment.Execute(r.Context(), req)
	if err != nil {
		writeProviderError(w, err)
		return
	}
	if res.Upstream != nil {
		relay(w, *res.Upstream)
		return
	}
	writeJSON(w, http.StatusOK, res.Verification)
}

func (h *Handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !json.Valid(body) {
		writeError(w, http.StatusBadRequest, errInvalidJSON)
		return
	}

	resp, err := h.uc.Predict.Execute(r.Context(), body)
	if err != nil {
		writeProviderError(w, err)
		return
	}
	relay(w, resp)
}

// withAccessLog writes a single access log after the handler completes.
// It relies on the request-scoped logger already injected by ObservabilityMiddleware.
func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		logctx.FromOr(r.Context(), h.log).Info("http_access",
			observability.F("method", r.Method),
			observability.F("route", routeFromContext(r.Context())),
			observability.F("path", r.URL.Path),
			observability.F("status", lrw.status),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

// withTrace creates a server span for the request using OTel and W3C propagation.
func (h *Handler) withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := otel.Tracer("aimatrix-site.http")
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		route := routeFromContext(parentCtx)
		ctxWithSpan, span := tracer.Start(parentCtx,
			r.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		next.ServeHTTP(w, r.WithContext(ctxWithSpan))
	})
}

// withHTTPMetrics records RED-ish HTTP metrics using injected vectors.
// DO NOT new metrics inside the middleware.
func (h *Handler) withHTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		labels := []observability.Label{
			observability.L("method", r.Method),
			observability.L("route", routeFromContext(r.Context())),
			observability.L("status", strconv.Itoa(lrw.status)),
		}
		h.requests.Add(1, labels...)
		h.duration.Observe(time.Since(start).Seconds(), labels...)
	})
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// relay writes a provider answer back unchanged: same status, same body.
func relay(w http.ResponseWriter, resp provider.Response) {
	ct := resp.ContentType
	if ct == "" {
		ct = "application/json"
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}

type contactErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func (h *Handler) writeContactError(w http.ResponseWriter, err error) {
	if pe, ok := provider.AsProviderError(err); ok {
		writeJSON(w, http.StatusBadGateway, contactErrorResponse{Error: "SendGrid error", Detail: pe.Detail})
		return
	}
	switch {
	case errors.Is(err, domainContact.ErrMissingField):
		writeError(w, http.StatusBadRequest, domainContact.ErrMissingField)
	case errors.Is(err, provider.ErrNotConfigured):
		writeError(w, http.StatusInternalServerError, errMailNotConfigured)
	case provider.IsNetwork(err):
		writeError(w, http.StatusServiceUnavailable, errors.New("mail provider unreachable"))
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

// writeProviderError maps failures of the relaying handlers. Provider answers are
// relayed by the caller, so only configuration and transport failures reach here.
func writeProviderError(w http.ResponseWriter, err error) {
	var ne *provider.NetworkError
	switch {
	case errors.Is(err, provider.ErrNotConfigured):
		writeError(w, http.StatusInternalServerError, errNotConfigured)
	case errors.As(err, &ne):
		writeError(w, http.StatusServiceUnavailable, errors.New(string(ne.Provider)+" unreachable"))
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

type routeKey struct{}

// contextWithRoute stores the stable route template in the context so downstream
// metrics/logging can rely on low-cardinality values.
func contextWithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFromContext(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if route, ok := ctx.Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}
