package order

import "context"

// Store holds one session per user.
type Store interface {
	Create(userID, chatID int64, username string) Session
	Mutate(ctx context.Context, userID int64, fn func(*Session) error) error
	Len() int
}

// Notifier delivers replies to a chat.
type Notifier interface {
	Text(ctx context.Context, chatID int64, text string) error
	Prompt(ctx context.Context, chatID int64, p Prompt) error
}

// Pricer computes the quote for a fully configured session.
type Pricer interface {
	Quote(ctx context.Context, s Session) Quote
}

// Processor renames and delivers the files of a confirmed session.
type Processor interface {
	Process(ctx context.Context, s Session) Report
}

// Journal records finished orders.
type Journal interface {
	Record(ctx context.Context, e JournalEntry) error
}

// Option is one inline button.
type Option struct {
	Label string
	Value string
}

// Prompt is a message with a row-wrapped set of buttons sharing one key.
type Prompt struct {
	Text    string
	Key     string
	Options []Option
	PerRow  int
}
