package notification

import "context"

// MailerAPI is the outbound message channel. The console implementation is
// the only one wired in; swapping in SMTP or an SMS gateway is a matter of
// satisfying this interface.
type MailerAPI interface {
	Send(ctx context.Context, to, subject, body string) error
}
