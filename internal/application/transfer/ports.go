package transfer

import "context"

// Authorizer is the outbound port for the external authorization gateway.
// The call carries no transfer-specific payload; the gateway returns an
// opaque approval signal. A nil error means the transfer may proceed.
type Authorizer interface {
	Authorize(ctx context.Context) error
}

// Notifier is the outbound port for the payee notification sink.
// Failures are best-effort only and never change the transfer outcome.
type Notifier interface {
	Notify(ctx context.Context, to, message string) error
}

type IDGenerator interface {
	NewID() string
}
