package service

import "context"

// Mailer delivers transactional mail. The recovery flow uses it to send
// reset codes; delivery failures are surfaced to the caller so the flow
// can be retried.
type Mailer interface {
	// SendResetCode emails the reset code to the given address.
	SendResetCode(ctx context.Context, email, code string) error
}
