// Package chat defines the transport-neutral events the bot consumes and the
// responses it produces.
package chat

import "strings"

// Kind classifies an inbound event.
type Kind int

const (
	KindCommand Kind = iota + 1
	KindText
	KindButton
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindText:
		return "text"
	case KindButton:
		return "button"
	default:
		return "unknown"
	}
}

// Event is one inbound user action. ChatID keys the session; UserID is the
// sender and is used for admin checks only.
type Event struct {
	Kind    Kind
	ChatID  int64
	UserID  int64
	Command string
	Args    []string
	Text    string
	Token   string
}

// CommandEvent builds a command event. name may carry a leading slash and a
// @botname suffix; both are stripped and the name is lowercased.
func CommandEvent(chatID int64, name string, args ...string) Event {
	return Event{Kind: KindCommand, ChatID: chatID, Command: NormalizeCommand(name), Args: args}
}

// TextEvent builds a free-text event.
func TextEvent(chatID int64, text string) Event {
	return Event{Kind: KindText, ChatID: chatID, Text: text}
}

// ButtonEvent builds a button press carrying token.
func ButtonEvent(chatID int64, token string) Event {
	return Event{Kind: KindButton, ChatID: chatID, Token: token}
}

// NormalizeCommand turns "/List@order_bot" into "list".
func NormalizeCommand(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	return strings.ToLower(name)
}

// Format selects how Text is rendered by the transport.
type Format int

const (
	Plain Format = iota
	Markdown
)

// Button is a labelled action. Token is delivered back as a button event.
type Button struct {
	Label string
	Token string
}

// Document is a file attachment.
type Document struct {
	FileName string
	MIME     string
	Data     []byte
	Caption  string
}

// Response is one outbound message. Buttons are laid out in order, Columns
// per row; zero means one per row.
type Response struct {
	Text     string
	Format   Format
	Buttons  []Button
	Columns  int
	Document *Document
}

// Reply is shorthand for a plain text response.
func Reply(text string, buttons ...Button) Response {
	return Response{Text: text, Buttons: buttons}
}

// ReplyMarkdown is shorthand for a markdown response.
func ReplyMarkdown(text string, buttons ...Button) Response {
	return Response{Text: text, Format: Markdown, Buttons: buttons}
}

// One wraps a single response in a slice.
func One(r Response) []Response {
	return []Response{r}
}
