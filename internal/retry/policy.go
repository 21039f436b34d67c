package retry

import (
	"context"
	"time"

	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
	"git.home.luguber.info/inful/syllabi/internal/foundation/normalization"
)

// ContextRetryAfter is the error context key of a server-requested delay
// (time.Duration). Do waits at least that long, up to Max.
const ContextRetryAfter = "retry_after"

// Mode enumerates supported backoff strategies.
type Mode string

const (
	ModeFixed       Mode = "fixed"
	ModeLinear      Mode = "linear"
	ModeExponential Mode = "exponential"
)

var modes = normalization.NewNormalizer("retry mode",
	map[string]Mode{"fixed": ModeFixed, "linear": ModeLinear, "exponential": ModeExponential},
	map[string]Mode{"constant": ModeFixed, "exp": ModeExponential},
)

// ParseMode converts user input (case-insensitive) into a Mode, returning "" for unknown values.
func ParseMode(raw string) Mode {
	m, _ := modes.Normalize(raw)
	return m
}

// Policy is the backoff schedule applied to transient publish failures.
type Policy struct {
	Mode       Mode          // fixed|linear|exponential
	Initial    time.Duration
	Max        time.Duration // upper bound for a single wait
	MaxRetries int           // attempts after the first failure
}

// DefaultPolicy returns the default policy (exponential, 500ms initial, 10s cap, 3 retries).
func DefaultPolicy() Policy {
	return Policy{Mode: ModeExponential, Initial: 500 * time.Millisecond, Max: 10 * time.Second, MaxRetries: 3}
}

// NewPolicy builds a policy from config values. Zero or unknown values keep the defaults.
func NewPolicy(mode Mode, initial, maxDuration time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDuration > 0 {
		p.Max = maxDuration
	}
	if m := ParseMode(string(mode)); m != "" {
		p.Mode = m
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// Delay returns the wait before retry n, counting the first retry as 1.
func (p Policy) Delay(retryCount int) time.Duration {
	if retryCount <= 0 {
		return 0
	}
	var d time.Duration
	switch p.Mode {
	case ModeFixed:
		return p.Initial
	case ModeExponential:
		if retryCount > 30 {
			return p.Max
		}
		d = p.Initial * (1 << (retryCount - 1))
	default:
		d = time.Duration(retryCount) * p.Initial
	}
	if d > p.Max {
		return p.Max
	}
	return d
}

// Validate rejects policies that cannot produce a delay.
func (p Policy) Validate() error {
	switch {
	case p.Initial <= 0:
		return errors.ConfigError("retry initial delay must be positive").WithContext("initial", p.Initial).Build()
	case p.Max <= 0:
		return errors.ConfigError("retry max delay must be positive").WithContext("max", p.Max).Build()
	case p.MaxRetries < 0:
		return errors.ConfigError("retry count cannot be negative").WithContext("max_retries", p.MaxRetries).Build()
	}
	return nil
}

// Do runs fn until it succeeds, returns an error that is not retryable, or the policy
// is exhausted. Errors are retryable when classified with a backoff strategy.
// onRetry, when non-nil, is called before each wait.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error, onRetry func(attempt int, delay time.Duration, err error)) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if !errors.IsRetryable(err) || attempt >= p.MaxRetries {
			return err
		}
		delay := p.Delay(attempt + 1)
		if ra := retryAfter(err); ra > delay {
			delay = min(ra, p.Max)
		}
		if onRetry != nil {
			onRetry(attempt+1, delay, err)
		}
		t := time.NewTimer(delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
	}
}

func retryAfter(err error) time.Duration {
	ce, ok := errors.AsClassified(err)
	if !ok {
		return 0
	}
	v, ok := ce.Context().Get(ContextRetryAfter)
	if !ok {
		return 0
	}
	d, _ := v.(time.Duration)
	return d
}
