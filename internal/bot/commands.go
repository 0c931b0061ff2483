package bot

import (
	"context"
	"log/slog"

	"github.com/avetikov/flowgram/internal/bot/keyboard"
	"github.com/avetikov/flowgram/internal/flow"
	"github.com/avetikov/flowgram/internal/i18n"
)

// Command constants for Telegram bot commands.
const (
	CommandStart  = "/start"
	CommandOrder  = "/order"
	CommandCancel = "/cancel"
	CommandHelp   = "/help"
)

// Callback data for stateless menu buttons.
const callbackStartOrder = "start_order"

// NewStartHandler greets the user and shows the entry menu.
func NewStartHandler(t i18n.Translator) Handler {
	return func(ctx context.Context, fc *flow.Context) error {
		markup := keyboard.Inline(keyboard.Button{
			Text: t.T("start.order_button"),
			Data: callbackStartOrder,
		})

		return fc.Transport.Send(ctx, t.T("start.welcome"), markup)
	}
}

// NewHelpHandler lists the available commands.
func NewHelpHandler(t i18n.Translator) Handler {
	return func(ctx context.Context, fc *flow.Context) error {
		return fc.Transport.Send(ctx, t.T("help.text"), nil)
	}
}

// NewOrderStartHandler launches the order flow at its menu state.
func NewOrderStartHandler(orderFlow *flow.Flow) Handler {
	return func(ctx context.Context, fc *flow.Context) error {
		return orderFlow.Start(ctx, fc, orderStateMenu)
	}
}

// NewCancelHandler exits whatever flow the conversation is in.
func NewCancelHandler(t i18n.Translator, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(ctx context.Context, fc *flow.Context) error {
		if !fc.Session.InFlow() {
			return fc.Transport.Send(ctx, t.T("cancel.nothing"), nil)
		}

		flowName, stateName, _ := fc.Session.Active()
		log.Info("cancelling flow",
			slog.Int64("user_id", fc.Event.SenderID()),
			slog.String("flow", flowName),
			slog.String("state", stateName),
		)

		fc.Session.ExitFlow()
		return fc.Transport.Send(ctx, t.T("cancel.done"), nil)
	}
}

// NewDefaultHandler nudges idle users toward the commands.
func NewDefaultHandler(t i18n.Translator) Handler {
	return func(ctx context.Context, fc *flow.Context) error {
		return fc.Transport.Send(ctx, t.T("help.hint"), nil)
	}
}
