package await

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/backupctl/backupctl/core/kube"
	"github.com/backupctl/backupctl/internal/cfg"
	"github.com/backupctl/backupctl/internal/log"
	"github.com/backupctl/backupctl/internal/retry"
)

// ErrTimeout is returned when no terminal state was observed within the
// kind's timeout budget. It is distinct from FailureError, both terminal.
var ErrTimeout = errors.New("await: timed out waiting for terminal state")

// FailureError is the terminal failure of a tracked resource, carrying the
// operator-reported cause. Cause may be empty when the detail could not be
// read, the detail fetch is best effort.
type FailureError struct {
	Kind      kube.Kind
	Namespace string
	Name      string
	Cause     string
}

func (e *FailureError) Error() string {
	if e.Cause == "" {
		return fmt.Sprintf("await: %s %s/%s failed", e.Kind, e.Namespace, e.Name)
	}
	return fmt.Sprintf("await: %s %s/%s failed: %s", e.Kind, e.Namespace, e.Name, e.Cause)
}

// StatusSource is the read-only status-fetch capability the poller depends
// on. *kube.Client implements it.
type StatusSource interface {
	Observe(ctx context.Context, kind kube.Kind, namespace, name string) (kube.Observation, error)
}

// kindSpec is the fixed per-kind terminal configuration.
type kindSpec struct {
	successPhase string
	failurePhase string
	timeout      time.Duration
}

type Config struct {
	Interval             time.Duration
	PolicyTimeout        time.Duration
	BackupActionTimeout  time.Duration
	RestoreActionTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Interval:             5 * time.Second,
		PolicyTimeout:        60 * time.Second,
		BackupActionTimeout:  120 * time.Second,
		RestoreActionTimeout: 120 * time.Second,
	}
}

// ConfigFrom parses the duration-typed await settings.
func ConfigFrom(c *cfg.AwaitConfig) (Config, error) {
	interval, err := cfg.Duration(c.Interval)
	if err != nil {
		return Config{}, err
	}
	policy, err := cfg.Duration(c.PolicyTimeout)
	if err != nil {
		return Config{}, err
	}
	backup, err := cfg.Duration(c.BackupActionTimeout)
	if err != nil {
		return Config{}, err
	}
	restore, err := cfg.Duration(c.RestoreActionTimeout)
	if err != nil {
		return Config{}, err
	}

	return Config{
		Interval:             interval,
		PolicyTimeout:        policy,
		BackupActionTimeout:  backup,
		RestoreActionTimeout: restore,
	}, nil
}

// Poller drives a created resource to a terminal state: it re-reads the
// status on a fixed interval and classifies each observation as success,
// failure or still pending, within the kind's timeout budget. One poll
// session per Await call, no state crosses calls.
type Poller struct {
	source   StatusSource
	interval time.Duration
	specs    map[kube.Kind]kindSpec

	logger *zap.Logger
}

func New(source StatusSource, c Config) *Poller {
	return &Poller{
		source:   source,
		interval: c.Interval,
		specs: map[kube.Kind]kindSpec{
			kube.KindPolicy:        {successPhase: "Success", failurePhase: "Failed", timeout: c.PolicyTimeout},
			kube.KindBackupAction:  {successPhase: "Complete", failurePhase: "Failed", timeout: c.BackupActionTimeout},
			kube.KindRestoreAction: {successPhase: "Complete", failurePhase: "Failed", timeout: c.RestoreActionTimeout},
		},
		logger: log.L(),
	}
}

var errStillPending = errors.New("await: still pending")

// Await blocks until the resource reaches a terminal state. It returns nil
// on success, *FailureError on an operator-reported failure and an
// ErrTimeout-wrapped error when the budget elapses first. Terminal states
// return immediately, without waiting out the remainder of the interval.
// A transient status-fetch error counts as still pending, the interval
// retry is the system's only retry mechanism.
func (p *Poller) Await(ctx context.Context, kind kube.Kind, namespace, name string) error {
	spec, ok := p.specs[kind]
	if !ok {
		return fmt.Errorf("await: kind %q is not tracked", kind)
	}

	logger := p.logger.With(
		zap.String("session_id", uuid.NewString()),
		zap.String("kind", string(kind)),
		zap.String("namespace", namespace),
		zap.String("name", name))
	logger.Info("await terminal state",
		zap.Duration("interval", p.interval),
		zap.Duration("timeout", spec.timeout))

	attempts := uint(spec.timeout / p.interval)
	if attempts == 0 {
		attempts = 1
	}

	start := time.Now()
	var attempt int
	err := retry.Do(ctx, func() error {
		attempt++
		obs, err := p.source.Observe(ctx, kind, namespace, name)
		if err != nil {
			logger.Debug("status fetch failed", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}

		switch obs.Phase {
		case spec.successPhase:
			return nil
		case spec.failurePhase:
			return retry.Unrecoverable(&FailureError{Kind: kind, Namespace: namespace, Name: name, Cause: obs.ErrorDetail})
		default:
			return fmt.Errorf("%s %s/%s phase %q: %w", kind, namespace, name, obs.Phase, errStillPending)
		}
	}, retry.Attempts(attempts), retry.FixedInterval(p.interval))

	elapsed := time.Since(start)
	if err == nil {
		logger.Info("terminal state reached: success",
			zap.Int("attempts", attempt), zap.Duration("elapsed", elapsed))
		return nil
	}

	var failure *FailureError
	if errors.As(err, &failure) {
		logger.Warn("terminal state reached: failure",
			zap.String("cause", failure.Cause),
			zap.Int("attempts", attempt), zap.Duration("elapsed", elapsed))
		return failure
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("await %s %s/%s: %w", kind, namespace, name, ctxErr)
	}

	logger.Warn("no terminal state within budget",
		zap.Int("attempts", attempt), zap.Duration("elapsed", elapsed))
	return fmt.Errorf("await %s %s/%s: no terminal state within %s: %w", kind, namespace, name, spec.timeout, ErrTimeout)
}
