package ports

import "context"

// Mailer delivers a single message. Callers treat it as fire-and-forget; a
// delivery failure never rolls back the operation that triggered it.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
