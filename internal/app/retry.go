package app

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
	Max      time.Duration
}

var DefaultRetry = RetryPolicy{Attempts: 5, Backoff: 1 * time.Second, Max: 30 * time.Second}

// WithRetry calls fn until it succeeds, doubling the wait after each failure. Rate-limit
// errors wait four times longer.
func WithRetry[T any](ctx context.Context, policy RetryPolicy, log *logrus.Entry, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	backoff := policy.Backoff
	for i := 0; i < policy.Attempts; i++ {
		val, err := fn()
		if err == nil {
			return val, nil
		}
		lastErr = err
		if i == policy.Attempts-1 {
			break
		}
		wait := min(backoff, policy.Max)
		if isRateLimitError(err) {
			wait = min(backoff*4, policy.Max)
		}
		log.WithError(lastErr).WithField("attempt", i+1).Warn("Ошибка, повторяем запрос.")
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(wait):
		}
		backoff *= 2
	}
	return zero, lastErr
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "Too Many Requests") ||
		strings.Contains(msg, "Превышен лимит запросов")
}
