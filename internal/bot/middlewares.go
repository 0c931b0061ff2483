package bot

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/avetikov/flowgram/internal/apperr"
	"github.com/avetikov/flowgram/internal/flow"
	"github.com/avetikov/flowgram/internal/idempotency"
	"github.com/avetikov/flowgram/internal/ratelimit"
	"github.com/avetikov/flowgram/pkg/metrics"
)

// RecoveryMiddleware catches panics, reports them, and notifies the user.
func RecoveryMiddleware(log *slog.Logger, errHandler *apperr.Handler) Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next Handler) Handler {
		return func(ctx context.Context, fc *flow.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("panic recovered in handler",
						slog.Any("panic", r),
						slog.String("stack", string(debug.Stack())),
					)

					if errHandler != nil {
						errHandler.Handle(ctx, apperr.NewExecutionError("panic", fmt.Errorf("%v", r)))
					}

					if sendErr := fc.Transport.Send(ctx, flow.DefaultMessages.ActionFailed, nil); sendErr != nil {
						log.Error("failed to notify user about panic", slog.Any("error", sendErr))
					}

					err = nil
				}
			}()

			return next(ctx, fc)
		}
	}
}

// ErrorHandlingMiddleware reports handler failures centrally. Errors that
// reach it are transport or store failures; the user already got (or could
// not get) a message, so nothing more is sent.
func ErrorHandlingMiddleware(errHandler *apperr.Handler) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, fc *flow.Context) error {
			err := next(ctx, fc)
			if err == nil {
				return nil
			}

			if errHandler != nil {
				errHandler.Handle(ctx, err)
				return nil
			}

			return err
		}
	}
}

// LoggingMiddleware logs basic telemetry about incoming updates.
func LoggingMiddleware(log *slog.Logger) Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next Handler) Handler {
		return func(ctx context.Context, fc *flow.Context) error {
			start := time.Now()

			log.Info("handling update",
				slog.Int64("user_id", fc.Event.SenderID()),
				slog.String("input", describeEvent(fc.Event)),
			)

			err := next(ctx, fc)

			log.Info("handled update",
				slog.Int64("user_id", fc.Event.SenderID()),
				slog.String("input", describeEvent(fc.Event)),
				slog.Duration("duration", time.Since(start)),
				slog.Any("error", err),
			)

			return err
		}
	}
}

// MetricsMiddleware measures handling time and status per update kind.
func MetricsMiddleware(next Handler) Handler {
	return func(ctx context.Context, fc *flow.Context) error {
		start := time.Now()
		err := next(ctx, fc)

		status := "ok"
		if err != nil {
			status = "error"
		}

		metrics.RecordUpdate(eventKind(fc.Event), status, time.Since(start))
		return err
	}
}

// RateLimitMiddleware rejects updates from users over their window allowance.
// It runs at the telebot layer, before the session is even loaded. Limiter
// failures fail open.
func RateLimitMiddleware(limiter ratelimit.Limiter, log *slog.Logger, replyText string) telebot.MiddlewareFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			sender := c.Sender()
			if limiter == nil || sender == nil {
				return next(c)
			}

			allowed, err := limiter.Allow(context.Background(), sender.ID)
			if err != nil {
				log.Error("rate limiter failed, allowing update", slog.Any("error", err))
				return next(c)
			}

			if !allowed {
				log.Warn("rate limit exceeded", slog.Int64("user_id", sender.ID))
				if replyText != "" {
					return c.Send(replyText)
				}
				return nil
			}

			return next(c)
		}
	}
}

// IdempotencyMiddleware drops updates that were already processed, keyed
// by the Telegram update identifier. Dedup failures fail open.
func IdempotencyMiddleware(dedup idempotency.Deduplicator, log *slog.Logger) telebot.MiddlewareFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			if dedup == nil {
				return next(c)
			}

			updateID := int64(c.Update().ID)
			if updateID == 0 {
				return next(c)
			}

			seen, err := dedup.Seen(context.Background(), updateID)
			if err != nil {
				log.Error("idempotency check failed, processing anyway", slog.Any("error", err))
				return next(c)
			}

			if seen {
				log.Info("duplicate update skipped", slog.Int64("update_id", updateID))
				return nil
			}

			return next(c)
		}
	}
}

func describeEvent(ev flow.Event) string {
	if data, ok := ev.CallbackData(); ok {
		return data
	}
	return ev.Text()
}

func eventKind(ev flow.Event) string {
	if _, ok := ev.CallbackData(); ok {
		return "callback"
	}
	return "text"
}
