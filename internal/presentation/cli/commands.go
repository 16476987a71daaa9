package cli

import (
	"context"
	"errors"
	"fmt"

	appsession "github.com/aimatrix/site/internal/application/session"
	appstatus "github.com/aimatrix/site/internal/application/status"
	"github.com/aimatrix/site/internal/domain/contact"
	"github.com/aimatrix/site/internal/domain/session"
	"github.com/aimatrix/site/internal/infrastructure/sessionfile"
	"github.com/spf13/cobra"
)

// errOffline makes `sitectl status` exit non-zero when the API is down.
var errOffline = errors.New("site API is offline")

func newStatusCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether the site API is online",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if st := get().controller.OnStatusCheck(cmd.Context()); st != appstatus.Online {
				return errOffline
			}
			return nil
		},
	}
}

func newContactCmd(get func() *app) *cobra.Command {
	var s contact.Submission
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Send the contact form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return get().controller.OnSubmitContact(cmd.Context(), s)
		},
	}
	cmd.Flags().StringVar(&s.Name, "name", "", "your name")
	cmd.Flags().StringVar(&s.Email, "email", "", "your email")
	cmd.Flags().StringVar(&s.Message, "message", "", "message body")
	return cmd
}

func newPayCmd(get func() *app) *cobra.Command {
	var rupees float64
	cmd := &cobra.Command{
		Use:   "pay",
		Short: "Run a payment: create an order, complete checkout, verify",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flow, err := get().controller.OnInitiatePayment(cmd.Context(), rupees)
			if flow != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "flow %s ended %s\n", flow.ID, flow.State())
			}
			return err
		},
	}
	cmd.Flags().Float64Var(&rupees, "amount", 0, "amount in rupees")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newLoginCmd(get func() *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and keep the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return get().controller.OnLogin(cmd.Context(), email, password)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func newRegisterCmd(get func() *app) *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return get().controller.OnRegister(cmd.Context(), name, email, password)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func newLogoutCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return get().controller.OnLogout(cmd.Context())
		},
	}
}

func newDashboardCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Open the dashboard (requires a session)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, ok := get().controller.OnDashboardLoad(cmd.Context())
			if !ok {
				return session.ErrNoSession
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s\n", u.Name)
			return nil
		},
	}
}

// lockedSessions stands in when no session secret is configured. Only
// registration, which keeps no session, goes through.
type lockedSessions struct {
	auth appsession.AuthAPI
}

func (lockedSessions) Login(context.Context, string, string) (session.Session, error) {
	return session.Session{}, sessionfile.ErrNoSecret
}

func (l lockedSessions) Register(ctx context.Context, name, email, password string) error {
	return l.auth.Register(ctx, name, email, password)
}

func (lockedSessions) Current(context.Context) (session.Session, error) {
	return session.Session{}, sessionfile.ErrNoSecret
}

func (lockedSessions) Logout(context.Context) error {
	return sessionfile.ErrNoSecret
}
