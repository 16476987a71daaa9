package contact

import (
	"context"

	domcontact "github.com/aimatrix/site/internal/domain/contact"
)

// Mailer is an outbound port for mail delivery.
type Mailer interface {
	Send(ctx context.Context, mail domcontact.Mail) error
}
