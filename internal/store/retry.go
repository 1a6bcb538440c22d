package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Значения RetryPolicy по умолчанию.
const (
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = time.Second
	DefaultMaxDelay     = 30 * time.Second
)

// RetryPolicy — политика повторов проверки существования.
type RetryPolicy struct {
	// MaxAttempts — общее число попыток (включая первую).
	MaxAttempts int

	// InitialDelay — задержка перед второй попыткой.
	InitialDelay time.Duration

	// MaxDelay — верхняя граница задержки.
	MaxDelay time.Duration
}

// DefaultRetryPolicy возвращает политику по умолчанию.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
		MaxDelay:     DefaultMaxDelay,
	}
}

// Backoff вычисляет задержку после attempt-й неудачной попытки:
// delay = initialDelay * 2^(attempt-1), не больше maxDelay.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	initialDelay := p.InitialDelay
	if initialDelay <= 0 {
		initialDelay = DefaultInitialDelay
	}
	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = DefaultMaxDelay
	}

	delay := initialDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
			break
		}
	}
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

// ExistenceChecker — проверка существования с ограниченным числом повторов.
type ExistenceChecker struct {
	store  Store
	policy RetryPolicy
	logger *slog.Logger

	// OnRetry вызывается перед каждым повтором (метрики).
	OnRetry func()

	// sleep подменяется в тестах.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewExistenceChecker создаёт ExistenceChecker поверх store.
func NewExistenceChecker(s Store, policy RetryPolicy, logger *slog.Logger) *ExistenceChecker {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultMaxAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExistenceChecker{
		store:  s,
		policy: policy,
		logger: logger,
		sleep:  sleepContext,
	}
}

// Exists проверяет наличие loc, повторяя запрос при ошибках.
// После исчерпания попыток возвращает ErrRetryExhausted с последней ошибкой.
func (c *ExistenceChecker) Exists(ctx context.Context, loc string) (bool, error) {
	var lastErr error

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		ok, err := c.store.Exists(ctx, loc)
		if err == nil {
			return ok, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrInvalidLocation) {
			return false, err
		}
		lastErr = err

		if attempt == c.policy.MaxAttempts {
			break
		}

		delay := c.policy.Backoff(attempt)
		c.logger.Warn("existence check failed, retrying",
			"location", loc,
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
		if c.OnRetry != nil {
			c.OnRetry()
		}
		if err := c.sleep(ctx, delay); err != nil {
			return false, err
		}
	}

	return false, fmt.Errorf("%w: exists %s after %d attempts: %w",
		ErrRetryExhausted, loc, c.policy.MaxAttempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
