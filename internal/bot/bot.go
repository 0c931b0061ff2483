// Package bot wires the Telegram transport to the flow engine and the
// stateless route tables.
package bot

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/avetikov/flowgram/internal/apperr"
	"github.com/avetikov/flowgram/internal/i18n"
	"github.com/avetikov/flowgram/internal/idempotency"
	"github.com/avetikov/flowgram/internal/ratelimit"
	"github.com/avetikov/flowgram/internal/session"
	"github.com/avetikov/flowgram/pkg/config"
)

// Bot wraps telebot.Bot with the router and its dependencies.
type Bot struct {
	telebot *telebot.Bot
	router  *Router
	log     *slog.Logger
}

// Deps carries the collaborators a Bot needs.
type Deps struct {
	Sessions   session.Store
	Translator i18n.Translator
	Limiter    ratelimit.Limiter
	Dedup      idempotency.Deduplicator
	ErrHandler *apperr.Handler
}

// New builds a telegram bot instance configured according to the
// application settings.
func New(cfg config.Config, log *slog.Logger, deps Deps) (*Bot, error) {
	if log == nil {
		log = slog.Default()
	}

	settings := telebot.Settings{
		Token: cfg.Bot.Token,
	}

	if cfg.Bot.Mode == "webhook" {
		settings.Poller = &telebot.Webhook{
			Listen: cfg.Bot.Listen,
		}
	} else {
		settings.Poller = &telebot.LongPoller{
			Timeout: cfg.Bot.Timeout,
		}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	router := NewRouter(deps.Sessions, log)
	setupRoutes(router, deps, log)

	if deps.Dedup != nil {
		tb.Use(IdempotencyMiddleware(deps.Dedup, log))
	}
	if deps.Limiter != nil {
		tb.Use(RateLimitMiddleware(deps.Limiter, log, deps.Translator.T("errors.rate_limited")))
	}

	tb.Handle(telebot.OnText, router.Route)
	tb.Handle(telebot.OnCallback, router.Route)

	return &Bot{
		telebot: tb,
		router:  router,
		log:     log,
	}, nil
}

// Start runs the telegram bot event loop.
func (b *Bot) Start() {
	if b.telebot != nil {
		b.telebot.Start()
	}
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	b.log.Info("stopping telegram bot...")
	b.telebot.Stop()
}

// Router exposes the outer router, mainly for tests.
func (b *Bot) Router() *Router {
	return b.router
}

func setupRoutes(router *Router, deps Deps, log *slog.Logger) {
	t := deps.Translator

	router.Use(RecoveryMiddleware(log, deps.ErrHandler))
	router.Use(ErrorHandlingMiddleware(deps.ErrHandler))
	router.Use(LoggingMiddleware(log))
	router.Use(MetricsMiddleware)

	orderFlow := NewOrderFlow(t, log, deps.ErrHandler)
	router.Mount(orderFlow)

	router.HandleCommand(CommandStart, NewStartHandler(t))
	router.HandleCommand(CommandHelp, NewHelpHandler(t))
	router.HandleCommand(CommandOrder, NewOrderStartHandler(orderFlow))
	router.HandleCommand(CommandCancel, NewCancelHandler(t, log))

	router.HandleCallback(callbackStartOrder, NewOrderStartHandler(orderFlow))

	router.SetDefault(NewDefaultHandler(t))
}
