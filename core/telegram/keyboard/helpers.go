package keyboard

import tele "gopkg.in/telebot.v4"

// Button is an inline button carrying raw callback data.
type Button struct {
	Text string
	Data string
}

// Inline builds an inline keyboard where each provided button is placed on its own row.
// It returns nil for an empty list so messages go out without markup.
func Inline(buttons []Button) *tele.ReplyMarkup {
	if len(buttons) == 0 {
		return nil
	}
	rows := make([][]Button, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, []Button{b})
	}
	return InlineRows(rows...)
}

// InlineRows builds an inline keyboard from rows of buttons. Data is sent
// back verbatim; no telebot unique prefix is added.
func InlineRows(rows ...[]Button) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	inline := make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tele.InlineButton, len(row))
		for j, btn := range row {
			r[j] = tele.InlineButton{Text: btn.Text, Data: btn.Data}
		}
		inline = append(inline, r)
	}
	markup.InlineKeyboard = inline
	return markup
}

// InlineNPerRow splits a flat list of buttons into rows with up to n buttons per row.
// If n <= 1, it behaves like Inline (one per row).
func InlineNPerRow(buttons []Button, n int) *tele.ReplyMarkup {
	if n <= 1 {
		return Inline(buttons)
	}
	var rows [][]Button
	for i := 0; i < len(buttons); i += n {
		end := min(i+n, len(buttons))
		rows = append(rows, buttons[i:end])
	}
	return InlineRows(rows...)
}
