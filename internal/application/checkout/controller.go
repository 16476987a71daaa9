package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aimatrix/site/internal/application"
	domcheckout "github.com/aimatrix/site/internal/domain/checkout"
	"github.com/aimatrix/site/internal/domain/order"
	"github.com/aimatrix/site/internal/domain/payment"
	"github.com/aimatrix/site/internal/observability"
	"github.com/aimatrix/site/internal/observability/logctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const (
	checkoutService = "checkout-client"
	useCaseCheckout = "checkout.run"
	runSpanName     = "Checkout"

	DefaultName        = "AIMatrix"
	DefaultDescription = "AIMatrix purchase"
)

// ErrNotVerified is returned when the flow ends without a successful verification.
var ErrNotVerified = errors.New("checkout: payment not verified")

// Options configures the checkout widget and the optional wait bound.
type Options struct {
	Key         string
	Name        string
	Description string
	// PlaceholderKey marks Key as the unconfigured default.
	PlaceholderKey bool
	// Deadline bounds the wait on the widget. Zero waits until ctx ends.
	Deadline time.Duration
}

// FlowController drives one payment flow per Run: order, checkout, verification.
// Runs share nothing, so independent flows may proceed concurrently.
type FlowController struct {
	orders OrderAPI
	widget Widget
	verify VerifyAPI
	opts   Options
	in     application.Instruments
}

func NewFlowController(orders OrderAPI, widget Widget, verify VerifyAPI, opts Options, obs observability.Observability) *FlowController {
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	if opts.Description == "" {
		opts.Description = DefaultDescription
	}
	return &FlowController{
		orders: orders,
		widget: widget,
		verify: verify,
		opts:   opts,
		in:     application.NewInstruments(obs, checkoutService, useCaseCheckout),
	}
}

// Run takes a rupee amount through the whole flow. The returned Flow is always
// non-nil and terminal; err is non-nil unless the flow ended Verified.
func (c *FlowController) Run(ctx context.Context, rupees float64) (_ *domcheckout.Flow, err error) {
	ctx, run := c.in.Start(ctx, runSpanName, attribute.Float64("checkout.rupees", rupees))
	defer func() { run.End(err) }()

	paise, convErr := order.ToMinorUnits(rupees)
	flow := domcheckout.NewFlow(uuid.NewString(), paise)
	run.With(observability.F("flow_id", flow.ID), observability.F("amount", paise))
	ctx = logctx.Enrich(ctx, run.Logger(), observability.F("flow_id", flow.ID))
	defer func() {
		run.With(observability.F("final_state", string(flow.State())))
	}()

	fail := func(status string, cause error) (*domcheckout.Flow, error) {
		flow.Fail(cause.Error())
		run.FailWith(cause, status)
		return flow, fmt.Errorf("checkout: %w", cause)
	}

	if convErr != nil {
		return fail("INVALID_AMOUNT", convErr)
	}

	// Idle → OrderRequested → OrderCreated
	if err := flow.Advance(domcheckout.StateOrderRequested); err != nil {
		return fail("STATE_ERROR", err)
	}
	o, err := c.orders.CreateOrder(ctx, paise)
	if err != nil {
		return fail("ORDER_FAILED", err)
	}
	if err := flow.OrderCreated(o); err != nil {
		return fail("STATE_ERROR", err)
	}
	run.With(observability.F("order_id", o.ID))

	// OrderCreated → CheckoutOpened
	if c.opts.PlaceholderKey {
		run.Logger().Warn("checkout_placeholder_key", observability.F("key", c.opts.Key))
	}
	if err := flow.Advance(domcheckout.StateCheckoutOpened); err != nil {
		return fail("STATE_ERROR", err)
	}
	// The widget always charges in INR, whatever the order response echoes.
	conf, err := c.openWidget(ctx, CheckoutOptions{
		Key:         c.opts.Key,
		OrderID:     o.ID,
		Amount:      o.Amount,
		Currency:    order.Currency,
		Name:        c.opts.Name,
		Description: c.opts.Description,
	})
	if err != nil {
		return fail("CHECKOUT_ABANDONED", err)
	}

	// CheckoutOpened → VerificationRequested → Verified | Failed
	if err := flow.Confirmed(conf); err != nil {
		return fail("FOREIGN_CONFIRMATION", err)
	}
	v, err := c.verify.VerifyPayment(ctx, conf)
	if err != nil {
		return fail("VERIFY_FAILED", err)
	}
	if !v.Succeeded() {
		flow.Verification = v
		cause := ErrNotVerified
		if v.Reason != "" {
			cause = fmt.Errorf("%w: %s", ErrNotVerified, v.Reason)
		}
		run.With(observability.F("verify_status", string(v.Status)))
		return fail("DECLINED", cause)
	}
	if err := flow.Verified(v); err != nil {
		return fail("STATE_ERROR", err)
	}
	return flow, nil
}

func (c *FlowController) openWidget(ctx context.Context, opts CheckoutOptions) (payment.Confirmation, error) {
	if c.opts.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Deadline)
		defer cancel()
	}
	return c.widget.Open(ctx, opts)
}
