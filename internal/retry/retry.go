package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/backupctl/backupctl/internal/log"
)

// Do will run function with retry mechanism.
// fn is the func to run.
// Option can control the retry times and timeout.
func Do(ctx context.Context, fn func() error, opts ...Option) error {
	c := newDefaultConfig()

	for _, opt := range opts {
		opt(c)
	}

	var err error

	for i := uint(0); i < c.attempts; i++ {
		if innerErr := fn(); innerErr != nil {
			if i%10 == 0 {
				log.Debug("retry func failed", zap.Uint("retry time", i), zap.Error(innerErr))
			}

			if IsUnRecoverable(innerErr) {
				return innerErr
			}

			err = errors.Join(err, innerErr)

			select {
			case <-time.After(c.sleep):
			case <-ctx.Done():
				return errors.Join(err, ctx.Err())
			}

			c.sleep *= 2
			if c.sleep > c.maxSleepTime {
				c.sleep = c.maxSleepTime
			}
		} else {
			return nil
		}
	}

	return err
}

type unrecoverableError struct {
	error
}

// Unwrap keeps the wrapped error reachable for errors.Is/errors.As, callers
// classify terminal failures by the error Do returns.
func (ue unrecoverableError) Unwrap() error {
	return ue.error
}

// Unrecoverable method wrap an error to unrecoverableError. This will make retry
// quick return.
func Unrecoverable(err error) error {
	return unrecoverableError{err}
}

// IsUnRecoverable is used to judge whether the error is wrapped by unrecoverableError.
func IsUnRecoverable(err error) bool {
	var ue unrecoverableError
	return errors.As(err, &ue)
}
