// Package fallback запускает упорядоченный список стратегий до первой успешной.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNoAttempts возвращается, если список стратегий пуст.
var ErrNoAttempts = errors.New("no attempts configured")

// Attempt — одна стратегия в цепочке.
type Attempt[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// First выполняет попытки по порядку. Каждая попытка получает собственный
// таймаут; таймаут и ошибка одинаково означают переход к следующей.
// Возвращает результат и имя первой успешной попытки либо объединённую ошибку.
func First[T any](ctx context.Context, timeout time.Duration, attempts ...Attempt[T]) (T, string, error) {
	var zero T

	if len(attempts) == 0 {
		return zero, "", ErrNoAttempts
	}

	var errs []error
	for _, a := range attempts {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		res, err := runWithTimeout(ctx, timeout, a)
		if err == nil {
			return res, a.Name, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", a.Name, err))
	}

	return zero, "", errors.Join(errs...)
}

func runWithTimeout[T any](ctx context.Context, timeout time.Duration, a Attempt[T]) (T, error) {
	if timeout <= 0 {
		return a.Run(ctx)
	}

	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		val T
		err error
	}

	ch := make(chan result, 1)
	go func() {
		v, err := a.Run(actx)
		ch <- result{val: v, err: err}
	}()

	select {
	case r := <-ch:
		return r.val, r.err
	case <-actx.Done():
		var zero T
		return zero, actx.Err()
	}
}
