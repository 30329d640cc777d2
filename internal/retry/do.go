package retry

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/walletboot/internal/foundation/errors"
	"git.home.luguber.info/inful/walletboot/internal/logfields"
)

// Do runs fn until it succeeds, returns an error that is not retryable, or
// the policy's retries are spent. Waiting between attempts stops early when
// ctx is done, in which case the last error from fn is returned. An invalid
// policy is rejected before fn runs.
func Do(ctx context.Context, p Policy, fn func(context.Context) error) error {
	if err := p.Validate(); err != nil {
		return errors.ValidationError("invalid retry policy").
			WithCause(err).
			WithContext("mode", string(p.Mode)).
			Build()
	}

	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt >= p.MaxRetries || !errors.IsRetryable(err) {
			return err
		}

		delay := p.Delay(attempt + 1)
		slog.Debug("Retrying after transient failure",
			logfields.Attempt(attempt+1),
			slog.Duration("delay", delay),
			logfields.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}
