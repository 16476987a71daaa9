package status

import (
	"context"

	"github.com/aimatrix/site/internal/application"
	"github.com/aimatrix/site/internal/domain/provider"
	"github.com/aimatrix/site/internal/observability"
)

const (
	statusService = "status-client"
	useCaseCheck  = "status.check"
	checkSpanName = "StatusCheck"
)

type State string

const (
	Online  State = "online"
	Offline State = "offline"
)

// Label is the user-facing text for each state.
func (s State) Label() string {
	if s == Online {
		return "Online & Operational"
	}
	return "System Offline (Maintenance)"
}

// HealthAPI fetches the API root.
type HealthAPI interface {
	Health(ctx context.Context) (provider.Response, error)
}

type Checker struct {
	api HealthAPI
	in  application.Instruments
}

func NewChecker(api HealthAPI, obs observability.Observability) *Checker {
	return &Checker{api: api, in: application.NewInstruments(obs, statusService, useCaseCheck)}
}

// Check reports Online only for a 2xx root response. Failures degrade to Offline
// and are logged, never returned.
func (c *Checker) Check(ctx context.Context) State {
	ctx, run := c.in.Start(ctx, checkSpanName)
	var cause error
	defer func() { run.End(cause) }()

	resp, err := c.api.Health(ctx)
	if err != nil {
		cause = err
		run.FailWith(err, "UNREACHABLE")
		return Offline
	}
	run.With(observability.F("http_status", resp.Status))
	if !resp.OK() {
		run.Fail(observability.OutcomeProviderError, "UNHEALTHY")
		return Offline
	}
	return Online
}
