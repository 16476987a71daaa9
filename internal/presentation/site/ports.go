package site

import (
	"context"

	appstatus "github.com/aimatrix/site/internal/application/status"
	domcheckout "github.com/aimatrix/site/internal/domain/checkout"
	"github.com/aimatrix/site/internal/domain/contact"
	"github.com/aimatrix/site/internal/domain/session"
)

// Page is a navigation target.
type Page string

const (
	PageHome      Page = "home"
	PageLogin     Page = "login"
	PageDashboard Page = "dashboard"
)

// Alerter shows a blocking, user-visible message.
type Alerter interface {
	Alert(msg string)
}

// Navigator moves the user to another page.
type Navigator interface {
	Navigate(p Page)
}

// StatusLabel is the persistent system status indicator.
type StatusLabel interface {
	SetStatus(text string, online bool)
}

type ContactAPI interface {
	SubmitContact(ctx context.Context, s contact.Submission) error
}

type Payments interface {
	Run(ctx context.Context, rupees float64) (*domcheckout.Flow, error)
}

type Sessions interface {
	Login(ctx context.Context, email, password string) (session.Session, error)
	Register(ctx context.Context, name, email, password string) error
	Current(ctx context.Context) (session.Session, error)
	Logout(ctx context.Context) error
}

type StatusChecker interface {
	Check(ctx context.Context) appstatus.State
}
