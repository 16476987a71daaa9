// Package site binds the site's user interactions to application services
// through named ports instead of page elements.
package site

import (
	"context"
	"errors"

	appstatus "github.com/aimatrix/site/internal/application/status"
	domcheckout "github.com/aimatrix/site/internal/domain/checkout"
	"github.com/aimatrix/site/internal/domain/contact"
	"github.com/aimatrix/site/internal/domain/provider"
	"github.com/aimatrix/site/internal/domain/session"
	"github.com/aimatrix/site/internal/observability"
	"github.com/aimatrix/site/internal/observability/logctx"
)

const (
	MsgNetworkError     = "Network error. Please try again."
	MsgContactSent      = "Success: Message sent!"
	MsgLoginSuccess     = "Login Successful!"
	MsgLoginFailed      = "Login failed."
	MsgRegistered       = "Account created! Please login."
	MsgRegisterFailed   = "Registration failed."
	MsgLoginRequired    = "You must be logged in to view this page."
	MsgPaymentVerified  = "Payment successful!"
	MsgPaymentFailed    = "Payment failed."
	MsgCheckingStatus   = "Checking connection..."
	componentController = "site_controller"
)

// Deps are the services and UI ports a Controller drives.
type Deps struct {
	Contact  ContactAPI
	Payments Payments
	Sessions Sessions
	Status   StatusChecker

	Alerter   Alerter
	Navigator Navigator
	Label     StatusLabel
}

type Controller struct {
	d   Deps
	log observability.Logger
}

func NewController(d Deps, log observability.Logger) *Controller {
	if log == nil {
		log = observability.NopLogger()
	}
	return &Controller{d: d, log: log.With(observability.F("component", componentController))}
}

// OnSubmitContact sends the contact form and alerts the outcome.
func (c *Controller) OnSubmitContact(ctx context.Context, s contact.Submission) error {
	if err := c.d.Contact.SubmitContact(ctx, s); err != nil {
		c.alertFailure(ctx, "contact_failed", err, "Error: ")
		return err
	}
	c.d.Alerter.Alert(MsgContactSent)
	return nil
}

// OnInitiatePayment runs one payment flow for an amount in rupees.
func (c *Controller) OnInitiatePayment(ctx context.Context, rupees float64) (*domcheckout.Flow, error) {
	flow, err := c.d.Payments.Run(ctx, rupees)
	if err != nil {
		if provider.IsNetwork(err) {
			c.alertFailure(ctx, "payment_failed", err, "")
			return flow, err
		}
		msg := MsgPaymentFailed
		if flow != nil && flow.FailureReason != "" {
			msg += " " + flow.FailureReason
		}
		logctx.FromOr(ctx, c.log).Warn("payment_failed", observability.F("error", err.Error()))
		c.d.Alerter.Alert(msg)
		return flow, err
	}
	c.d.Alerter.Alert(MsgPaymentVerified)
	return flow, nil
}

func (c *Controller) OnLogin(ctx context.Context, email, password string) error {
	if _, err := c.d.Sessions.Login(ctx, email, password); err != nil {
		c.alertAuthFailure(ctx, "login_failed", err, MsgLoginFailed)
		return err
	}
	c.d.Alerter.Alert(MsgLoginSuccess)
	c.d.Navigator.Navigate(PageDashboard)
	return nil
}

func (c *Controller) OnRegister(ctx context.Context, name, email, password string) error {
	if err := c.d.Sessions.Register(ctx, name, email, password); err != nil {
		c.alertAuthFailure(ctx, "register_failed", err, MsgRegisterFailed)
		return err
	}
	c.d.Alerter.Alert(MsgRegistered)
	c.d.Navigator.Navigate(PageLogin)
	return nil
}

func (c *Controller) OnLogout(ctx context.Context) error {
	if err := c.d.Sessions.Logout(ctx); err != nil {
		return err
	}
	c.d.Navigator.Navigate(PageLogin)
	return nil
}

// OnDashboardLoad gates the dashboard. Without a live session the user is
// alerted and sent to the login page; ok is false.
func (c *Controller) OnDashboardLoad(ctx context.Context) (user session.User, ok bool) {
	sess, err := c.d.Sessions.Current(ctx)
	if err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			logctx.FromOr(ctx, c.log).Warn("session_unreadable", observability.F("error", err.Error()))
		}
		c.d.Alerter.Alert(MsgLoginRequired)
		c.d.Navigator.Navigate(PageLogin)
		return session.User{}, false
	}
	return sess.User, true
}

// OnStatusCheck refreshes the status label.
func (c *Controller) OnStatusCheck(ctx context.Context) appstatus.State {
	c.d.Label.SetStatus(MsgCheckingStatus, false)
	st := c.d.Status.Check(ctx)
	c.d.Label.SetStatus(st.Label(), st == appstatus.Online)
	return st
}

// alertFailure reports a server rejection with its message, and anything else
// as a network error.
func (c *Controller) alertFailure(ctx context.Context, event string, err error, prefix string) {
	logctx.FromOr(ctx, c.log).Warn(event, observability.F("error", err.Error()))
	if pe, ok := provider.AsProviderError(err); ok {
		c.d.Alerter.Alert(prefix + pe.Detail)
		return
	}
	c.d.Alerter.Alert(MsgNetworkError)
}

func (c *Controller) alertAuthFailure(ctx context.Context, event string, err error, fallback string) {
	logctx.FromOr(ctx, c.log).Warn(event, observability.F("error", err.Error()))
	if pe, ok := provider.AsProviderError(err); ok && pe.Detail != "" {
		c.d.Alerter.Alert(pe.Detail)
		return
	}
	c.d.Alerter.Alert(fallback)
}
