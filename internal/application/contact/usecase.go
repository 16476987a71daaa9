package contact

import (
	"context"
	"fmt"

	"github.com/aimatrix/site/internal/application"
	domcontact "github.com/aimatrix/site/internal/domain/contact"
	"github.com/aimatrix/site/internal/domain/provider"
	"github.com/aimatrix/site/internal/observability"
)

const (
	contactService    = "contact-service"
	useCaseSend       = "contact.send"
	sendSpanName      = "SendContact"
	statusMailFailed  = "MAIL_PROVIDER_ERROR"
	statusMailNetwork = "MAIL_PROVIDER_UNREACHABLE"
)

// Recipient is the site owner's mailbox configuration.
type Recipient struct {
	To   string
	From string
}

type SendContactUseCase struct {
	mailer    Mailer
	recipient Recipient
	in        application.Instruments
}

func NewSendContactUseCase(mailer Mailer, recipient Recipient, obs observability.Observability) *SendContactUseCase {
	return &SendContactUseCase{
		mailer:    mailer,
		recipient: recipient,
		in:        application.NewInstruments(obs, contactService, useCaseSend),
	}
}

var _ application.UseCase[domcontact.Submission, struct{}] = (*SendContactUseCase)(nil)

// Execute validates the submission and relays it to the mail provider in a single attempt.
func (uc *SendContactUseCase) Execute(ctx context.Context, cmd domcontact.Submission) (_ struct{}, err error) {
	ctx, run := uc.in.Start(ctx, sendSpanName)
	defer func() { run.End(err) }()
	run.With(observability.F("sender_email", cmd.Email))

	if err = cmd.Validate(); err != nil {
		run.Fail(observability.OutcomeError, "VALIDATION_FAILED")
		return struct{}{}, err
	}
	if uc.recipient.To == "" {
		run.Fail(observability.OutcomeError, "NOT_CONFIGURED")
		return struct{}{}, fmt.Errorf("contact: mail recipient: %w", provider.ErrNotConfigured)
	}

	mail := domcontact.NewMail(cmd, uc.recipient.To, uc.recipient.From)
	if err = uc.mailer.Send(ctx, mail); err != nil {
		switch {
		case provider.IsNetwork(err):
			run.FailWith(err, statusMailNetwork)
		default:
			run.FailWith(err, statusMailFailed)
		}
		return struct{}{}, fmt.Errorf("contact: send: %w", err)
	}
	return struct{}{}, nil
}
