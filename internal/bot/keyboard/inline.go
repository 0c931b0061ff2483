// Package keyboard builds inline keyboards and encodes callback data.
package keyboard

import (
	telebot "gopkg.in/telebot.v3"
)

// Button is a lightweight inline button definition: visible text plus the
// callback data the flow patterns will match against.
type Button struct {
	Text string
	Data string
}

// Builder accumulates rows of buttons before rendering telebot markup.
type Builder struct {
	rows [][]Button
}

// New creates an empty inline keyboard builder.
func New() *Builder {
	return &Builder{rows: make([][]Button, 0)}
}

// Row appends a new row of buttons.
func (b *Builder) Row(buttons ...Button) *Builder {
	if len(buttons) == 0 {
		return b
	}

	row := make([]Button, len(buttons))
	copy(row, buttons)
	b.rows = append(b.rows, row)
	return b
}

// Markup renders the accumulated rows as telebot inline markup. Buttons
// whose data exceeds the Telegram callback limit are dropped rather than
// sent broken.
func (b *Builder) Markup() *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{InlineKeyboard: make([][]telebot.InlineButton, 0, len(b.rows))}

	for _, row := range b.rows {
		rendered := make([]telebot.InlineButton, 0, len(row))
		for _, btn := range row {
			data, err := EncodeCallback(btn.Data)
			if err != nil {
				continue
			}
			rendered = append(rendered, telebot.InlineButton{
				Text: btn.Text,
				Data: data,
			})
		}
		if len(rendered) > 0 {
			markup.InlineKeyboard = append(markup.InlineKeyboard, rendered)
		}
	}

	return markup
}

// Inline is a shorthand for a single-column keyboard.
func Inline(buttons ...Button) *telebot.ReplyMarkup {
	b := New()
	for _, btn := range buttons {
		b.Row(btn)
	}
	return b.Markup()
}
