package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appContact "github.com/aimatrix/site/internal/application/contact"
	appPayment "github.com/aimatrix/site/internal/application/payment"
	appPredict "github.com/aimatrix/site/internal/application/predict"
	"github.com/aimatrix/site/internal/config"
	"github.com/aimatrix/site/internal/domain/payment"
	infraobs "github.com/aimatrix/site/internal/infrastructure/observability"
	"github.com/aimatrix/site/internal/infrastructure/observability/oteltrace"
	"github.com/aimatrix/site/internal/infrastructure/observability/prometrics"
	"github.com/aimatrix/site/internal/infrastructure/observability/zaplogger"
	"github.com/aimatrix/site/internal/infrastructure/provider/httpcall"
	"github.com/aimatrix/site/internal/infrastructure/provider/predictor"
	"github.com/aimatrix/site/internal/infrastructure/provider/razorpay"
	"github.com/aimatrix/site/internal/infrastructure/provider/sendgrid"
	"github.com/aimatrix/site/internal/pkg/logging"
	httppresentation "github.com/aimatrix/site/internal/presentation/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadServer(os.Getenv("SITE_CONFIG"))
	if err != nil {
		panic(err)
	}

	baseLogger := logging.MustNewLogger(logging.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
	})
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	systemLogger := logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID)

	oteltrace.InstallPropagator()
	obs := infraobs.NewWithRegistry(
		oteltrace.New(cfg.ServiceName),
		zaplogger.New(baseLogger),
		prometrics.New(nil, "", ""),
	)

	if !cfg.MailConfigured() {
		systemLogger.Warn("provider_not_configured", zap.String("provider", "sendgrid"))
	}
	if !cfg.PaymentConfigured() {
		systemLogger.Warn("provider_not_configured", zap.String("provider", "razorpay"))
	}
	if cfg.PythonAPIURL == "" {
		systemLogger.Warn("provider_not_configured", zap.String("provider", "predictor"))
	}

	caller := httpcall.New(nil, obs)
	mailer := sendgrid.NewMailer(caller, cfg.SendGridBaseURL, cfg.SendGridAPIKey)
	gateway := razorpay.NewGateway(caller, cfg.RazorpayBaseURL, cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	predictions := predictor.NewClient(caller, cfg.PythonAPIURL)

	signed := func(orderID, paymentID, signature string) bool {
		return razorpay.ValidSignature(gateway.Secret(), payment.Confirmation{
			OrderID:   orderID,
			PaymentID: paymentID,
			Signature: signature,
		})
	}

	handler := httppresentation.NewHandler(httppresentation.UseCases{
		Contact:       appContact.NewSendContactUseCase(mailer, appContact.Recipient{To: cfg.MailTo, From: cfg.MailFrom}, obs),
		CreateOrder:   appPayment.NewCreateOrderUseCase(gateway, obs),
		VerifyPayment: appPayment.NewVerifyPaymentUseCase(gateway, signed, obs),
		Predict:       appPredict.NewPredictUseCase(predictions, obs),
	}, obs, httppresentation.Options{
		ContactRateRPS:   cfg.ContactRateRPS,
		ContactRateBurst: cfg.ContactRateBurst,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		systemLogger.Info("http_server_start",
			zap.String("addr", server.Addr),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			systemLogger.Error("http_server_error",
				zap.Error(err),
			)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error",
			zap.Error(err),
		)
	} else {
		systemLogger.Info("http_server_stopped")
	}
}
