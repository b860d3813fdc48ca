package graceful

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"eventsImporter/internal/utils/logger/sl"
)

// Operation — функция корректного завершения одного сервиса.
type Operation func(ctx context.Context) error

// GracefulShutdown ждёт сигнала ОС и завершает все сервисы параллельно
// с общим таймаутом. Возвращает канал, который закрывается после завершения.
func GracefulShutdown(ctx context.Context, timeout time.Duration, ops map[string]Operation, log *slog.Logger) <-chan struct{} {
	wait := make(chan struct{})

	go func() {
		s := make(chan os.Signal, 1)

		signal.Notify(s, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		<-s

		log.Info("shutting down")

		timeoutFunc := time.AfterFunc(timeout, func() {
			log.Warn("timeout has been elapsed, force exit", slog.Duration("timeout", timeout))
			os.Exit(0)
		})

		defer timeoutFunc.Stop()

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		var wg sync.WaitGroup

		for key, op := range ops {
			wg.Add(1)
			innerOp := op
			innerKey := key
			go func() {
				defer wg.Done()

				log.Info("cleaning up", slog.String("service", innerKey))
				if err := innerOp(ctx); err != nil {
					log.Error("clean up failed", slog.String("service", innerKey), sl.Err(err))
					return
				}

				log.Info("was shutdown gracefully", slog.String("service", innerKey))
			}()
		}

		wg.Wait()

		close(wait)
	}()

	return wait
}
