package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aimatrix/site/internal/application"
	"github.com/aimatrix/site/internal/domain/order"
	dompay "github.com/aimatrix/site/internal/domain/payment"
	"github.com/aimatrix/site/internal/domain/provider"
	"github.com/aimatrix/site/internal/observability"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const (
	paymentService       = "payment-service"
	useCaseCreateOrder   = "payment.create_order"
	useCaseVerifyPayment = "payment.verify"
	createOrderSpanName  = "CreateOrder"
	verifySpanName       = "VerifyPayment"
)

// Verification failure reasons reported to the client.
const (
	ReasonIncomplete        = "incomplete_confirmation"
	ReasonSignatureMismatch = "signature_mismatch"
	ReasonOrderMismatch     = "order_mismatch"
	ReasonNotSettled        = "payment_not_settled"
	ReasonUnreadablePayment = "unreadable_payment"
)

type CreateOrderInput struct {
	Amount int64
}

// CreateOrderUseCase forwards an order request to the gateway. It trusts the caller's amount;
// the gateway is the authority on what it accepts.
type CreateOrderUseCase struct {
	gateway  Gateway
	receipts func() string
	in       application.Instruments
}

func NewCreateOrderUseCase(gateway Gateway, obs observability.Observability) *CreateOrderUseCase {
	return &CreateOrderUseCase{
		gateway:  gateway,
		receipts: func() string { return "rcpt_" + uuid.NewString() },
		in:       application.NewInstruments(obs, paymentService, useCaseCreateOrder),
	}
}

var _ application.UseCase[CreateOrderInput, provider.Response] = (*CreateOrderUseCase)(nil)

func (uc *CreateOrderUseCase) Execute(ctx context.Context, cmd CreateOrderInput) (_ provider.Response, err error) {
	ctx, run := uc.in.Start(ctx, createOrderSpanName, attribute.Int64("order.amount", cmd.Amount))
	defer func() { run.End(err) }()

	req := order.Request{Amount: cmd.Amount, Currency: order.Currency, Receipt: uc.receipts()}
	run.With(observability.F("amount", cmd.Amount), observability.F("receipt", req.Receipt))

	resp, err := uc.gateway.CreateOrder(ctx, req)
	if err != nil {
		run.FailWith(err, "GATEWAY_CALL_FAILED")
		return provider.Response{}, fmt.Errorf("payment: create order: %w", err)
	}
	run.With(observability.F("provider_status", resp.Status))
	if !resp.OK() {
		run.Fail(observability.OutcomeProviderError, "GATEWAY_REJECTED")
	}
	return resp, nil
}

// VerifyResult is either a verdict, or an upstream answer to relay when the gateway refused the lookup.
type VerifyResult struct {
	Verification dompay.Verification
	Upstream     *provider.Response
}

// VerifyPaymentUseCase decides server-side whether a checkout confirmation is a real payment.
type VerifyPaymentUseCase struct {
	gateway Gateway
	signed  SignatureVerifier
	in      application.Instruments
}

func NewVerifyPaymentUseCase(gateway Gateway, signed SignatureVerifier, obs observability.Observability) *VerifyPaymentUseCase {
	return &VerifyPaymentUseCase{
		gateway: gateway,
		signed:  signed,
		in:      application.NewInstruments(obs, paymentService, useCaseVerifyPayment),
	}
}

var _ application.UseCase[dompay.Confirmation, VerifyResult] = (*VerifyPaymentUseCase)(nil)

func (uc *VerifyPaymentUseCase) Execute(ctx context.Context, cmd dompay.Confirmation) (_ VerifyResult, err error) {
	ctx, run := uc.in.Start(ctx, verifySpanName,
		attribute.String("order.id", cmd.OrderID),
		attribute.String("payment.id", cmd.PaymentID),
	)
	defer func() { run.End(err) }()
	run.With(observability.F("order_id", cmd.OrderID), observability.F("payment_id", cmd.PaymentID))

	failed := func(reason string) (VerifyResult, error) {
		run.Status("DECLINED")
		run.With(observability.F("failure_reason", reason))
		return VerifyResult{Verification: dompay.Verification{
			Status:    dompay.StatusFailed,
			PaymentID: cmd.PaymentID,
			OrderID:   cmd.OrderID,
			Reason:    reason,
		}}, nil
	}

	// Without credentials no signature can be checked, so this is a server fault.
	if !uc.gateway.Configured() {
		run.Fail(observability.OutcomeError, "NOT_CONFIGURED")
		return VerifyResult{}, fmt.Errorf("payment: verify: %w", provider.ErrNotConfigured)
	}
	if !cmd.Complete() {
		return failed(ReasonIncomplete)
	}
	if uc.signed == nil || !uc.signed(cmd.OrderID, cmd.PaymentID, cmd.Signature) {
		return failed(ReasonSignatureMismatch)
	}

	resp, err := uc.gateway.FetchPayment(ctx, cmd.PaymentID)
	if err != nil {
		run.FailWith(err, "GATEWAY_CALL_FAILED")
		return VerifyResult{}, fmt.Errorf("payment: fetch payment: %w", err)
	}
	if !resp.OK() {
		run.Fail(observability.OutcomeProviderError, "GATEWAY_REJECTED")
		return VerifyResult{Upstream: &resp}, nil
	}

	var p dompay.Payment
	if jsonErr := json.Unmarshal(resp.Body, &p); jsonErr != nil {
		return failed(ReasonUnreadablePayment)
	}
	if p.OrderID != cmd.OrderID {
		return failed(ReasonOrderMismatch)
	}
	if !p.Settled() {
		return failed(ReasonNotSettled)
	}

	return VerifyResult{Verification: dompay.Verification{
		Status:    dompay.StatusSuccess,
		PaymentID: cmd.PaymentID,
		OrderID:   cmd.OrderID,
	}}, nil
}
