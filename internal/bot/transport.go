package bot

import (
	"context"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/avetikov/flowgram/internal/apperr"
)

// telebotEvent projects a telebot update onto the engine's Event contract.
type telebotEvent struct {
	c telebot.Context
}

// CallbackData returns the callback payload. The ok flag marks callback
// origin even when the payload is empty.
func (e telebotEvent) CallbackData() (string, bool) {
	cb := e.c.Callback()
	if cb == nil {
		return "", false
	}

	// telebot prefixes unique-tagged callbacks with "\f"; flows match on
	// the plain data.
	return strings.TrimPrefix(strings.TrimSpace(cb.Data), "\f"), true
}

// Text returns the user's free text. Callback events carry none: c.Text()
// would return the bot's own message text there.
func (e telebotEvent) Text() string {
	if e.c.Callback() != nil {
		return ""
	}
	return e.c.Text()
}

// SenderID identifies the conversation's user.
func (e telebotEvent) SenderID() int64 {
	if sender := e.c.Sender(); sender != nil {
		return sender.ID
	}
	return 0
}

// telebotTransport delivers payloads through the update's telebot context,
// which resolves chat and message identity implicitly.
type telebotTransport struct {
	c telebot.Context
}

func (t telebotTransport) Send(_ context.Context, text string, markup any) error {
	var err error
	if markup != nil {
		err = t.c.Send(text, markup)
	} else {
		err = t.c.Send(text)
	}

	if err != nil {
		return apperr.NewTransportError("send_message", err)
	}
	return nil
}

func (t telebotTransport) Edit(_ context.Context, text string, markup any) error {
	var err error
	if markup != nil {
		err = t.c.Edit(text, markup)
	} else {
		err = t.c.Edit(text)
	}

	if err != nil {
		return apperr.NewTransportError("edit_message", err)
	}
	return nil
}

func (t telebotTransport) Ack(_ context.Context, text string) error {
	resp := &telebot.CallbackResponse{}
	if text != "" {
		resp.Text = text
	}

	if err := t.c.Respond(resp); err != nil {
		return apperr.NewTransportError("answer_callback", err)
	}
	return nil
}
