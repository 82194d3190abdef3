package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/printbot/core/logger"
)

const component = "order"

// Deps wires the machine to its collaborators. Journal may be nil.
type Deps struct {
	Store     Store
	Notifier  Notifier
	Pricer    Pricer
	Processor Processor
	Journal   Journal

	// MaxQuantity is the number of copy buttons offered.
	MaxQuantity int
}

// Machine drives sessions through the order conversation.
type Machine struct {
	store     Store
	notify    Notifier
	pricer    Pricer
	processor Processor
	journal   Journal
	maxQty    int
	now       func() time.Time
}

// NewMachine validates deps and returns a Machine.
func NewMachine(d Deps) (*Machine, error) {
	switch {
	case d.Store == nil:
		return nil, errors.New("order: nil store")
	case d.Notifier == nil:
		return nil, errors.New("order: nil notifier")
	case d.Pricer == nil:
		return nil, errors.New("order: nil pricer")
	case d.Processor == nil:
		return nil, errors.New("order: nil processor")
	}
	if d.MaxQuantity <= 0 {
		d.MaxQuantity = 5
	}
	return &Machine{
		store:     d.Store,
		notify:    d.Notifier,
		pricer:    d.Pricer,
		processor: d.Processor,
		journal:   d.Journal,
		maxQty:    d.MaxQuantity,
		now:       time.Now,
	}, nil
}

// ActiveOrders reports the number of sessions in progress.
func (m *Machine) ActiveOrders() int {
	return m.store.Len()
}

// Handle applies one event. Errors wrapping ErrSessionNotFound, ErrEmptyFileSet or
// ErrUnexpectedEvent have already been answered to the user; callers treat them as
// handled input. Any other error comes from the transport.
func (m *Machine) Handle(ctx context.Context, ev Event) error {
	switch ev.Kind {
	case EventStart:
		return m.start(ctx, ev)
	case EventCancel:
		return m.cancel(ctx, ev)
	}

	err := m.store.Mutate(ctx, ev.UserID, func(s *Session) error {
		from := s.State
		err := m.transition(ctx, s, ev)
		if s.State != from {
			logger.Debug(ctx, component, "order.transition",
				slog.String("from", from.String()),
				slog.String("to", s.State.String()),
				slog.String("trigger", ev.Kind.String()),
				slog.Int("file_index", s.FileIndex),
				slog.Int("files", len(s.Files)),
			)
		}
		return err
	})
	if errors.Is(err, ErrSessionNotFound) {
		logger.Debug(ctx, component, "order.no_session", slog.String("trigger", ev.Kind.String()))
		return errors.Join(err, m.notify.Text(ctx, ev.ChatID, msgNoSession))
	}
	return err
}

// transition is the single (state, event) table. Anything not listed is rejected
// without touching the session.
func (m *Machine) transition(ctx context.Context, s *Session, ev Event) error {
	switch s.State {
	case StateCollectingFiles:
		switch ev.Kind {
		case EventDocument:
			s.Files = append(s.Files, ev.File)
			return m.notify.Text(ctx, s.ChatID, msgFileReceived)
		case EventDone:
			if len(s.Files) == 0 {
				return errors.Join(ErrEmptyFileSet, m.notify.Text(ctx, s.ChatID, msgNoFiles))
			}
			s.FileIndex = 0
			s.State = StateAwaitingPrintType
			return m.notify.Prompt(ctx, s.ChatID, printTypePrompt(s))
		}

	case StateAwaitingPrintType:
		if m.buttonFor(s, ev) {
			pt, err := ParsePrintType(ev.Button.Value)
			if err != nil {
				return m.reject(ctx, s, ev, err)
			}
			f, _ := s.Current()
			s.Configs[f.ID] = PrintConfig{Type: pt}
			s.State = StateAwaitingQuantity
			return m.notify.Prompt(ctx, s.ChatID, quantityPrompt(s, m.maxQty))
		}

	case StateAwaitingQuantity:
		if m.buttonFor(s, ev) {
			qty, err := ParseQuantity(ev.Button.Value)
			if err != nil {
				return m.reject(ctx, s, ev, err)
			}
			f, _ := s.Current()
			cfg := s.Configs[f.ID]
			cfg.Quantity = qty
			s.Configs[f.ID] = cfg
			s.State = StateAwaitingSides
			return m.notify.Prompt(ctx, s.ChatID, sidesPrompt(s))
		}

	case StateAwaitingSides:
		if m.buttonFor(s, ev) {
			sides, err := ParseSides(ev.Button.Value)
			if err != nil {
				return m.reject(ctx, s, ev, err)
			}
			f, _ := s.Current()
			cfg := s.Configs[f.ID]
			cfg.Sides = sides
			s.Configs[f.ID] = cfg
			s.FileIndex++
			if s.FileIndex < len(s.Files) {
				s.State = StateAwaitingPrintType
				return m.notify.Prompt(ctx, s.ChatID, printTypePrompt(s))
			}
			return m.quote(ctx, s)
		}

	case StateAwaitingConfirmation:
		if m.buttonFor(s, ev) {
			switch strings.ToLower(strings.TrimSpace(ev.Button.Value)) {
			case "yes":
				return m.confirm(ctx, s)
			case "no":
				s.State = StateTerminal
				m.record(ctx, s, OutcomeDeclined, Report{})
				return m.notify.Text(ctx, s.ChatID, msgDeclined)
			}
			return m.reject(ctx, s, ev, fmt.Errorf("unknown answer %q", ev.Button.Value))
		}
	}
	return m.reject(ctx, s, ev, nil)
}

// buttonFor reports whether ev is a press of the button the current state asked
// for. A repeated press of an earlier prompt fails this check and is rejected.
func (m *Machine) buttonFor(s *Session, ev Event) bool {
	if ev.Kind != EventButton || ev.Button.Key != expectedButton(s.State) {
		return false
	}
	_, ok := s.Current()
	return ok || s.State == StateAwaitingConfirmation
}

func (m *Machine) quote(ctx context.Context, s *Session) error {
	q := m.pricer.Quote(ctx, s.Clone())
	s.Quote = &q
	s.State = StateAwaitingConfirmation

	logger.Info(ctx, component, "order.quoted",
		slog.Int("files", len(s.Files)),
		slog.Int("priced", len(q.Lines)),
		slog.Int("skipped", len(q.Skipped)),
		slog.Int("pages", q.TotalPages),
		slog.Int("cost", q.TotalCost),
	)

	var errs []error
	for _, f := range q.Skipped {
		errs = append(errs, m.notify.Text(ctx, s.ChatID, capitalize(f.Error())))
	}
	errs = append(errs, m.notify.Prompt(ctx, s.ChatID, confirmPrompt(q)))
	return errors.Join(errs...)
}

func (m *Machine) confirm(ctx context.Context, s *Session) error {
	s.State = StateTerminal
	sendErr := m.notify.Text(ctx, s.ChatID, msgProcessing)

	start := m.now()
	report := m.processor.Process(ctx, s.Clone())
	logger.Info(ctx, component, "order.processed",
		slog.String("status", processedStatus(report)),
		slog.Int("delivered", len(report.Delivered)),
		slog.Int("failed", len(report.Failed)),
		slog.Duration("duration", m.now().Sub(start)),
	)
	m.record(ctx, s, OutcomeConfirmed, report)
	return sendErr
}

func (m *Machine) start(ctx context.Context, ev Event) error {
	s := m.store.Create(ev.UserID, ev.ChatID, ev.Username)
	logger.Info(ctx, component, "order.start", slog.String("username", logger.SanitizeLimit(s.Username, 64)))
	return m.notify.Text(ctx, ev.ChatID, msgWelcome)
}

func (m *Machine) cancel(ctx context.Context, ev Event) error {
	err := m.store.Mutate(ctx, ev.UserID, func(s *Session) error {
		logger.Info(ctx, component, "order.cancel", slog.String("state", s.State.String()))
		s.State = StateTerminal
		m.record(ctx, s, OutcomeCancelled, Report{})
		return nil
	})
	if errors.Is(err, ErrSessionNotFound) {
		logger.Debug(ctx, component, "order.no_session", slog.String("trigger", ev.Kind.String()))
		return errors.Join(err, m.notify.Text(ctx, ev.ChatID, msgNoSession))
	}
	if err != nil {
		return err
	}
	return m.notify.Text(ctx, ev.ChatID, msgCancelled)
}

// reject answers an out-of-state event and leaves the session unchanged.
func (m *Machine) reject(ctx context.Context, s *Session, ev Event, cause error) error {
	attrs := []slog.Attr{
		slog.String("state", s.State.String()),
		slog.String("trigger", ev.Kind.String()),
	}
	if ev.Kind == EventButton {
		attrs = append(attrs, slog.String("cb_key", ev.Button.Key), slog.String("payload", logger.SanitizeLimit(ev.Button.Value, 64)))
	}
	if cause != nil {
		attrs = append(attrs, logger.Err(cause))
	}
	logger.Debug(ctx, component, "order.unexpected", attrs...)

	hint := msgUseButtons
	if s.State == StateCollectingFiles {
		hint = msgSendDocuments
	}
	err := fmt.Errorf("%w: %s in %s", ErrUnexpectedEvent, ev.Kind, s.State)
	if cause != nil {
		err = fmt.Errorf("%w: %v", err, cause)
	}
	return errors.Join(err, m.notify.Text(ctx, s.ChatID, hint))
}

func (m *Machine) record(ctx context.Context, s *Session, outcome Outcome, r Report) {
	if m.journal == nil {
		return
	}
	e := JournalEntry{
		UserID:    s.UserID,
		Username:  s.Username,
		Files:     len(s.Files),
		Delivered: len(r.Delivered),
		Failed:    len(r.Failed),
		Outcome:   outcome,
		At:        m.now(),
	}
	if s.Quote != nil {
		e.TotalPages = s.Quote.TotalPages
		e.TotalCost = s.Quote.TotalCost
	}
	if err := m.journal.Record(ctx, e); err != nil {
		logger.Warn(ctx, component, "order.journal", slog.String("status", "fail"), logger.Err(err))
	}
}

func processedStatus(r Report) string {
	if len(r.Failed) == 0 {
		return "ok"
	}
	return "fail"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
