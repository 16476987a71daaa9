package predict

import (
	"context"
	"fmt"

	"github.com/aimatrix/site/internal/application"
	"github.com/aimatrix/site/internal/domain/provider"
	"github.com/aimatrix/site/internal/observability"
)

const (
	predictService  = "predict-service"
	useCasePredict  = "predict.forward"
	predictSpanName = "Predict"
)

// Predictor is an outbound port for the prediction API.
type Predictor interface {
	Predict(ctx context.Context, body []byte) (provider.Response, error)
}

// PredictUseCase relays an arbitrary JSON body to the prediction API.
type PredictUseCase struct {
	predictor Predictor
	in        application.Instruments
}

func NewPredictUseCase(p Predictor, obs observability.Observability) *PredictUseCase {
	return &PredictUseCase{predictor: p, in: application.NewInstruments(obs, predictService, useCasePredict)}
}

var _ application.UseCase[[]byte, provider.Response] = (*PredictUseCase)(nil)

func (uc *PredictUseCase) Execute(ctx context.Context, body []byte) (_ provider.Response, err error) {
	ctx, run := uc.in.Start(ctx, predictSpanName)
	defer func() { run.End(err) }()
	run.With(observability.F("body_bytes", len(body)))

	resp, err := uc.predictor.Predict(ctx, body)
	if err != nil {
		run.FailWith(err, "UPSTREAM_CALL_FAILED")
		return provider.Response{}, fmt.Errorf("predict: %w", err)
	}
	run.With(observability.F("upstream_status", resp.Status))
	if !resp.OK() {
		run.Fail(observability.OutcomeProviderError, "UPSTREAM_REJECTED")
	}
	return resp, nil
}
