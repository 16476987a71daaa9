package httppresentation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	appContact "github.com/aimatrix/site/internal/application/contact"
	appPayment "github.com/aimatrix/site/internal/application/payment"
	appPredict "github.com/aimatrix/site/internal/application/predict"
	domainPayment "github.com/aimatrix/site/internal/domain/payment"
	"github.com/aimatrix/site/internal/infrastructure/provider/httpcall"
	"github.com/aimatrix/site/internal/infrastructure/provider/predictor"
	"github.com/aimatrix/site/internal/infrastructure/provider/razorpay"
	"github.com/aimatrix/site/internal/infrastructure/provider/sendgrid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider is one upstream that counts the calls it receives.
type fakeProvider struct {
	*httptest.Server
	calls atomic.Int32
}

func newFakeProvider(t *testing.T, h http.HandlerFunc) *fakeProvider {
	t.Helper()
	fp := &fakeProvider{}
	fp.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fp.calls.Add(1)
		h(w, r)
	}))
	t.Cleanup(fp.Close)
	return fp
}

type fixture struct {
	router    http.Handler
	mail      *fakeProvider
	gateway   *fakeProvider
	predictor *fakeProvider
}

const testSecret = "s3cret"

type fixtureOptions struct {
	mailTo    string
	mailKey   string
	predictor string
	// paymentUnset leaves the gateway without key id and secret.
	paymentUnset bool
	opts         Options
}

func newFixture(t *testing.T, mailH, gatewayH, predictH http.HandlerFunc, fo fixtureOptions) *fixture {
	t.Helper()
	f := &fixture{
		mail:      newFakeProvider(t, mailH),
		gateway:   newFakeProvider(t, gatewayH),
		predictor: newFakeProvider(t, predictH),
	}
	caller := httpcall.New(nil, nil)

	mailKey := fo.mailKey
	if mailKey == "" {
		mailKey = "SG.key"
	}
	predictURL := f.predictor.URL
	if fo.predictor == "-" {
		predictURL = ""
	}

	mailer := sendgrid.NewMailer(caller, f.mail.URL, mailKey)
	keyID, keySecret := "rzp_test_1", testSecret
	if fo.paymentUnset {
		keyID, keySecret = "", ""
	}
	gw := razorpay.NewGateway(caller, f.gateway.URL, keyID, keySecret)

	uc := UseCases{
		Contact:     appContact.NewSendContactUseCase(mailer, appContact.Recipient{To: fo.mailTo}, nil),
		CreateOrder: appPayment.NewCreateOrderUseCase(gw, nil),
		VerifyPayment: appPayment.NewVerifyPaymentUseCase(gw, func(o, p, s string) bool {
			return razorpay.ValidSignature(gw.Secret(), domainPayment.Confirmation{OrderID: o, PaymentID: p, Signature: s})
		}, nil),
		Predict: appPredict.NewPredictUseCase(predictor.NewClient(caller, predictURL), nil),
	}
	f.router = NewHandler(uc, nil, fo.opts).Router()
	return f
}

func ok(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusAccepted)
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) downstreamCalls() int32 {
	return f.mail.calls.Load() + f.gateway.calls.Load() + f.predictor.calls.Load()
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	f := newFixture(t, ok, ok, ok, fixtureOptions{})

	rec := f.do(http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "running", decode(t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestNonPostIsRejectedWithoutDownstreamCall(t *testing.T) {
	f := newFixture(t, ok, ok, ok, fixtureOptions{mailTo: "owner@aimatrix.example"})

	for _, path := range []string{RouteContact, RouteCreateOrder, RouteVerifyPayment, RoutePredict} {
		for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodPatch} {
			rec := f.do(method, path, `{"amount":100}`)
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, "%s %s", method, path)
			assert.Equal(t, "Method not allowed", decode(t, rec)["error"])
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"), "%s %s", method, path)
		}
	}
	assert.Equal(t, int32(0), f.downstreamCalls())
}

func TestContact_Success(t *testing.T) {
	f := newFixture(t, ok, ok, ok, fixtureOptions{mailTo: "owner@aimatrix.example"})

	rec := f.do(http.MethodPost, RouteContact, `{"name":"Asha","email":"asha@example.com","message":"hi"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["success"])
	assert.Equal(t, int32(1), f.mail.calls.Load())
}

func TestContact_MissingFieldIs400WithoutMail(t *testing.T) {
	f := newFixture(t, ok, ok, ok, fixtureOptions{mailTo: "owner@aimatrix.example"})

	bodies := []string{
		`{"email":"asha@example.com","message":"hi"}`,
		`{"name":"Asha","message":"hi"}`,
		`{"name":"Asha","email":"asha@example.com"}`,
		`{"name":"","email":"asha@example.com","message":"hi"}`,
		`{"name":"Asha","email":"","message":"hi"}`,
		`{"name":"Asha","email":"asha@example.com","message":""}`,
		`{}`,
		``,
		`not json`,
	}
	for _, body := range bodies {
		rec := f.do(http.MethodPost, RouteContact, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "name,email,message required", decode(t, rec)["error"], body)
	}
	assert.Equal(t, int32(0), f.mail.calls.Load())
}

func TestContact_NotConfiguredIs500(t *testing.T) {
	f := newFixture(t, ok, ok, ok, fixtureOptions{})

	rec := f.do(http.MethodPost, RouteContact, `{"name":"Asha","email":"asha@example.com","message":"hi"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Email not configured", decode(t, rec)["error"])
	assert.Equal(t, int32(0), f.mail.calls.Load())
}

func TestContact_ProviderErrorIs502WithRawDetail(t *testing.T) {
	mailH := func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"The provided authorization grant is invalid"}]}`))
	}
	f := newFixture(t, mailH, ok, ok, fixtureOptions{mailTo: "owner@aimatrix.example"})

	rec := f.do(http.MethodPost, RouteContact, `{"name":"Asha","email":"asha@example.com","message":"hi"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "SendGrid error", out["error"])
	assert.Equal(t, `{"errors":[{"message":"The provided authorization grant is invalid"}]}`, out["detail"])
}

func TestContact_NetworkErrorIs503(t *testing.T) {
	f := newFixture(t, ok, ok, ok, fixtureOptions{mailTo: "owner@aimatrix.example"})
	f.mail.Close()

	rec := f.do(http.MethodPost, RouteContact, `{"name":"Asha","email":"asha@example.com","message":"hi"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "mail provider unreachable", decode(t, rec)["error"])
}

func TestContact_RateLimited(t *testing.T) {
	f := newFixture(t, ok, ok, ok, fixtureOptions{
		mailTo: "owner@aimatrix.example",
		opts:   Options{ContactRateRPS: 0.001, ContactRateBurst: 1},
	})
	body := `{"name":"Asha","email":"asha@example.com","message":"hi"}`

	assert.Equal(t, http.StatusOK, f.do(http.MethodPost, RouteContact, body).Code)
	assert.Equal(t, http.StatusTooManyRequests, f.do(http.MethodPost, RouteContact, body).Code)
	assert.Equal(t, int32(1), f.mail.calls.Load())
}

func TestCreateOrder_RelaysProviderOrder(t *testing.T) {
	gatewayH := func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, float64(999900), req["amount"])
		assert.Equal(t, "INR", req["currency"])
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_1","amount":999900,"currency":"INR","status":"created"}`))
	}
	f := newFixture(t, ok, gatewayH, ok, fixtureOptions{})

	rec := f.do(http.MethodPost, RouteCreateOrder, `{"amount":999900}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"order_1","amount":999900,"currency":"INR","status":"created"}`, rec.Body.String())
}

func TestCreateOrder_PassesThroughProviderError(t *testing.T) {
	gatewayH := func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"The amount must be atleast INR 1.00"}}`))
	}
	f := newFixture(t, ok, gatewayH, ok, fixtureOptions{})

	rec := f.do(http.MethodPost, RouteCreateOrder, `{"amount":0}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "BAD_REQUEST_ERROR")
}

func TestVerifyPayment(t *testing.T) {
	gatewayH := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments/pay_1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"pay_1","order_id":"order_1","status":"captured","amount":999900}`))
	}
	f := newFixture(t, ok, gatewayH, ok, fixtureOptions{})

	good := `{"razorpay_payment_id":"pay_1","razorpay_order_id":"order_1","razorpay_signature":"` +
		razorpay.Sign(testSecret, "order_1", "pay_1") + `"}`
	rec := f.do(http.MethodPost, RouteVerifyPayment, good)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", decode(t, rec)["status"])

	forged := `{"razorpay_payment_id":"pay_1","razorpay_order_id":"order_1","razorpay_signature":"forged"}`
	rec = f.do(http.MethodPost, RouteVerifyPayment, forged)
	assert.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "failed", out["status"])
	assert.Equal(t, appPayment.ReasonSignatureMismatch, out["reason"])

	assert.Equal(t, int32(1), f.gateway.calls.Load())
}

func TestCreateOrder_UnconfiguredGatewayIs500(t *testing.T) {
	f := newFixture(t, ok, ok, ok, fixtureOptions{paymentUnset: true})

	rec := f.do(http.MethodPost, RouteCreateOrder, `{"amount":100}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Service not configured", decode(t, rec)["error"])
	assert.Equal(t, int32(0), f.gateway.calls.Load())
}

func TestVerifyPayment_UnconfiguredGatewayIs500(t *testing.T) {
	f := newFixture(t, ok, ok, ok, fixtureOptions{paymentUnset: true})

	complete := `{"razorpay_payment_id":"pay_1","razorpay_order_id":"order_1","razorpay_signature":"` +
		razorpay.Sign(testSecret, "order_1", "pay_1") + `"}`
	rec := f.do(http.MethodPost, RouteVerifyPayment, complete)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Service not configured", decode(t, rec)["error"])
	assert.NotContains(t, rec.Body.String(), appPayment.ReasonSignatureMismatch)
	assert.Equal(t, int32(0), f.gateway.calls.Load())
}

func TestPredict_RelaysUpstreamStatusAndBody(t *testing.T) {
	predictH := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/predict", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":[{"msg":"field required"}]}`))
	}
	f := newFixture(t, ok, ok, predictH, fixtureOptions{})

	rec := f.do(http.MethodPost, RoutePredict, `{"wrong":"field"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"detail":[{"msg":"field required"}]}`, rec.Body.String())
}

func TestPredict_NotConfigured(t *testing.T) {
	f := newFixture(t, ok, ok, ok, fixtureOptions{predictor: "-"})

	rec := f.do(http.MethodPost, RoutePredict, `{"text":"hi"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, int32(0), f.predictor.calls.Load())
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, ok, ok, ok, fixtureOptions{})

	req := httptest.NewRequest(http.MethodOptions, RouteContact, nil)
	req.Header.Set("Origin", "https://aimatrix.netlify.app")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, int32(0), f.downstreamCalls())
}
