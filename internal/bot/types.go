// Package bot owns the chat-transport boundary: the update and reply types a
// connector exchanges with the daemon, and the dispatcher that routes updates
// into the catalog, ingestion, and delivery paths. No chat platform SDK is
// referenced here; a connector bridges a real platform onto these types.
package bot

import (
	"context"
	"io"
	"os"

	"kinobot/internal/catalog"
)

// Update is one inbound event from the chat transport. Exactly one of
// Command, Callback, Attachment, or plain Text is expected to be meaningful.
type Update struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	// Language is the user-supplied language tag, possibly with region
	// ("ru-RU"). May be empty.
	Language string `json:"language,omitempty"`

	Text     string   `json:"text,omitempty"`
	Command  string   `json:"command,omitempty"`
	Args     []string `json:"args,omitempty"`
	Callback string   `json:"callback,omitempty"`

	// Attachment carries an open callback and never crosses the wire
	// directly; the socket transport maps its own representation in.
	Attachment *Attachment `json:"-"`
}

// Attachment describes a binary file the user sent. Open streams the bytes;
// the dispatcher stages them to disk before ingestion.
type Attachment struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// Button is one pressable element of a keyboard. Data carries a callback
// payload; URL makes the button an external link instead.
type Button struct {
	Label string `json:"label"`
	Data  string `json:"data,omitempty"`
	URL   string `json:"url,omitempty"`
}

// Keyboard is a grid of buttons attached to a message.
type Keyboard struct {
	Rows [][]Button `json:"rows"`
}

// Sender is the outbound half of the transport. The dispatcher never talks to
// the chat platform directly; it hands messages and files to a Sender.
type Sender interface {
	SendMessage(ctx context.Context, userID int64, text string, keyboard *Keyboard) error
	SendDocument(ctx context.Context, userID int64, entry *catalog.Entry, file *os.File, caption string) error
}
