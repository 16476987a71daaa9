// Package cli is the sitectl command line. Each subcommand drives one named
// port of the site controller against the site API.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	appcheckout "github.com/aimatrix/site/internal/application/checkout"
	appsession "github.com/aimatrix/site/internal/application/session"
	appstatus "github.com/aimatrix/site/internal/application/status"
	"github.com/aimatrix/site/internal/config"
	infraobs "github.com/aimatrix/site/internal/infrastructure/observability"
	"github.com/aimatrix/site/internal/infrastructure/observability/oteltrace"
	"github.com/aimatrix/site/internal/infrastructure/observability/prometrics"
	"github.com/aimatrix/site/internal/infrastructure/observability/zaplogger"
	"github.com/aimatrix/site/internal/infrastructure/provider/httpcall"
	"github.com/aimatrix/site/internal/infrastructure/provider/siteapi"
	"github.com/aimatrix/site/internal/infrastructure/sessionfile"
	"github.com/aimatrix/site/internal/pkg/logging"
	"github.com/aimatrix/site/internal/presentation/site"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configFile  string
	sessionFile string
}

// app is everything a subcommand needs, built once per invocation.
type app struct {
	controller *site.Controller
	sync       func() error
}

// NewRootCmd builds the command tree. in feeds the checkout widget; out receives
// every alert, navigation and status line.
func NewRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	flags := &rootFlags{}
	var a *app

	root := &cobra.Command{
		Use:           "sitectl",
		Short:         "Drive the AIMatrix site flows from a terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			built, err := buildApp(flags, in, out)
			if err != nil {
				return err
			}
			a = built
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a != nil && a.sync != nil {
				_ = a.sync()
			}
			return nil
		},
	}
	root.SetOut(out)
	root.SetIn(in)
	root.PersistentFlags().StringVar(&flags.configFile, "config", os.Getenv("SITE_CONFIG"), "YAML config file")
	root.PersistentFlags().StringVar(&flags.sessionFile, "session-file", "", "session file (overrides SESSION_FILE)")

	get := func() *app { return a }
	root.AddCommand(
		newStatusCmd(get),
		newContactCmd(get),
		newPayCmd(get),
		newLoginCmd(get),
		newRegisterCmd(get),
		newLogoutCmd(get),
		newDashboardCmd(get),
	)
	return root
}

// Execute runs sitectl on the process streams.
func Execute(version string) error {
	root := NewRootCmd(os.Stdin, os.Stdout)
	root.Version = version
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func buildApp(flags *rootFlags, in io.Reader, out io.Writer) (*app, error) {
	cfg, err := config.LoadClient(flags.configFile)
	if err != nil {
		return nil, err
	}
	if flags.sessionFile != "" {
		cfg.SessionFile = flags.sessionFile
	}
	if cfg.SessionFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("locate session file: %w", err)
		}
		cfg.SessionFile = filepath.Join(dir, "aimatrix", "session.json")
	}

	zl, err := logging.NewLogger(logging.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		Stream:  "stderr",
	})
	if err != nil {
		return nil, err
	}
	oteltrace.InstallPropagator()
	obs := infraobs.NewWithRegistry(
		oteltrace.New(cfg.ServiceName),
		zaplogger.New(zl),
		prometrics.New(prometheus.NewRegistry(), "", ""),
	)

	api := siteapi.NewClient(httpcall.New(nil, obs), cfg.APIBaseURL, cfg.AuthBaseURL)
	ui := terminal{out: out}

	var sessions site.Sessions = lockedSessions{auth: api}
	if store, err := sessionfile.NewStore(cfg.SessionFile, cfg.SessionSecret); err == nil {
		sessions = appsession.NewService(api, store, cfg.SessionTTL, obs)
	}

	payments := appcheckout.NewFlowController(api, newTerminalWidget(in, out), api, appcheckout.Options{
		Key:            cfg.CheckoutKey,
		Name:           cfg.CheckoutName,
		PlaceholderKey: cfg.UsesPlaceholderKey(),
		Deadline:       cfg.CheckoutDeadline,
	}, obs)

	controller := site.NewController(site.Deps{
		Contact:   api,
		Payments:  payments,
		Sessions:  sessions,
		Status:    appstatus.NewChecker(api, obs),
		Alerter:   ui,
		Navigator: ui,
		Label:     ui,
	}, obs.Logger())

	return &app{controller: controller, sync: zl.Sync}, nil
}
