// Package mailer sends the transactional emails the auth flows depend on.
// Delivery is fire-and-forget from the caller's perspective: a failed email
// never fails registration, login, or password reset.
package mailer

import (
	"context"
)

type Mailer interface {
	SendWelcomeEmail(ctx context.Context, to, name string) error
	SendVerificationEmail(ctx context.Context, to, name, verifyURL, validFor string) error
	SendPasswordResetEmail(ctx context.Context, to, name, resetURL, validFor string) error
}
