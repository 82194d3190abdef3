package order

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// State is the position of a session in the conversation.
type State int

const (
	StateCollectingFiles State = iota + 1
	StateAwaitingPrintType
	StateAwaitingQuantity
	StateAwaitingSides
	StateAwaitingConfirmation
	// StateTerminal marks a finished order; the store drops sessions left in it.
	StateTerminal
)

func (s State) String() string {
	switch s {
	case StateCollectingFiles:
		return "collecting_files"
	case StateAwaitingPrintType:
		return "awaiting_print_type"
	case StateAwaitingQuantity:
		return "awaiting_quantity"
	case StateAwaitingSides:
		return "awaiting_sides"
	case StateAwaitingConfirmation:
		return "awaiting_confirmation"
	case StateTerminal:
		return "terminal"
	}
	return "state(" + strconv.Itoa(int(s)) + ")"
}

// PrintType selects color or monochrome output.
type PrintType string

const (
	PrintColor      PrintType = "color"
	PrintMonochrome PrintType = "monochrome"
)

// ParsePrintType maps a button payload to a PrintType. "b&w" is the payload of the
// monochrome button; the canonical name is accepted as well.
func ParsePrintType(v string) (PrintType, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "color", "colour":
		return PrintColor, nil
	case "b&w", "bw", "monochrome":
		return PrintMonochrome, nil
	}
	return "", fmt.Errorf("unknown print type %q", v)
}

// Sides selects single or double sided printing.
type Sides string

const (
	SidesSingle Sides = "single"
	SidesDouble Sides = "double"
)

// ParseSides maps a button payload (one_sided, two_sided) to Sides.
func ParseSides(v string) (Sides, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "one_sided", "single":
		return SidesSingle, nil
	case "two_sided", "double":
		return SidesDouble, nil
	}
	return "", fmt.Errorf("unknown sides %q", v)
}

// MaxCopies bounds the copies of one file in an order.
const MaxCopies = 1000

// ParseQuantity accepts a positive integer up to MaxCopies.
func ParseQuantity(v string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("quantity %q: %w", v, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("quantity must be positive, got %d", n)
	}
	if n > MaxCopies {
		return 0, fmt.Errorf("quantity %d exceeds %d", n, MaxCopies)
	}
	return n, nil
}

// FileRef points at an uploaded document. ID is the transport handle used to fetch
// the bytes when they are needed.
type FileRef struct {
	ID       string
	UniqueID string
	Name     string
	Size     int64
}

// PrintConfig is the per-file choice set, filled one field per step.
type PrintConfig struct {
	Type     PrintType
	Quantity int
	Sides    Sides
}

// Complete reports whether all three choices are set.
func (c PrintConfig) Complete() bool {
	return c.Type != "" && c.Quantity > 0 && c.Sides != ""
}

// Session is one user's order in progress.
type Session struct {
	UserID   int64
	ChatID   int64
	Username string

	// Files keeps upload order; FileIndex points at the file being configured.
	Files     []FileRef
	FileIndex int
	Configs   map[string]PrintConfig

	// Quote is set once, on entering StateAwaitingConfirmation.
	Quote *Quote
	State State

	StartedAt time.Time
}

// NewSession returns an empty session in StateCollectingFiles.
func NewSession(userID, chatID int64, username string) Session {
	return Session{
		UserID:    userID,
		ChatID:    chatID,
		Username:  username,
		Configs:   make(map[string]PrintConfig),
		State:     StateCollectingFiles,
		StartedAt: time.Now(),
	}
}

// Current returns the file at the cursor.
func (s *Session) Current() (FileRef, bool) {
	if s.FileIndex < 0 || s.FileIndex >= len(s.Files) {
		return FileRef{}, false
	}
	return s.Files[s.FileIndex], true
}

// Config returns the configuration recorded for the file.
func (s *Session) Config(f FileRef) PrintConfig {
	return s.Configs[f.ID]
}

// Clone returns a deep copy safe to hand to another goroutine.
func (s Session) Clone() Session {
	c := s
	c.Files = append([]FileRef(nil), s.Files...)
	c.Configs = make(map[string]PrintConfig, len(s.Configs))
	for k, v := range s.Configs {
		c.Configs[k] = v
	}
	if s.Quote != nil {
		q := *s.Quote
		q.Lines = append([]QuoteLine(nil), s.Quote.Lines...)
		q.Skipped = append([]FileFailure(nil), s.Quote.Skipped...)
		c.Quote = &q
	}
	return c
}

// QuoteLine is the priced result for one file.
type QuoteLine struct {
	File   FileRef
	Pages  int // pages in the document
	Copies int
	Cost   int
}

// Quote is the price of a configured session.
type Quote struct {
	Lines      []QuoteLine
	Skipped    []FileFailure
	TotalPages int
	TotalCost  int
}

// Step names the pipeline stage that failed for a file.
type Step string

const (
	StepFetch      Step = "download"
	StepCount      Step = "count pages of"
	StepRename     Step = "rename"
	StepToOperator Step = "send to the print shop"
	StepToUser     Step = "send back"
)

// FileFailure describes why a file was skipped.
type FileFailure struct {
	File FileRef
	Step Step
	Err  error
}

func (f FileFailure) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", f.Step, f.File.Name, f.Err)
}

func (f FileFailure) Unwrap() error { return f.Err }

// Report summarizes a pipeline run.
type Report struct {
	Delivered []FileRef
	Failed    []FileFailure
}

// Outcome is how an order ended.
type Outcome string

const (
	OutcomeConfirmed Outcome = "confirmed"
	OutcomeDeclined  Outcome = "declined"
	OutcomeCancelled Outcome = "cancelled"
)

// JournalEntry is the record written for a finished order.
type JournalEntry struct {
	UserID     int64
	Username   string
	Files      int
	TotalPages int
	TotalCost  int
	Delivered  int
	Failed     int
	Outcome    Outcome
	At         time.Time
}
