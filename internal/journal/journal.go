// Package journal records finished print orders.
package journal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/printbot/core/logger"
	"github.com/m3rciful/printbot/internal/order"
)

// Nop discards entries; used when no database is configured.
type Nop struct{}

// Record does nothing.
func (Nop) Record(context.Context, order.JournalEntry) error { return nil }

type row struct {
	UserID     int64     `db:"user_id"`
	Username   string    `db:"username"`
	Files      int       `db:"files"`
	TotalPages int       `db:"total_pages"`
	TotalCost  int       `db:"total_cost"`
	Delivered  int       `db:"delivered"`
	Failed     int       `db:"failed"`
	Outcome    string    `db:"outcome"`
	CreatedAt  time.Time `db:"created_at"`
}

// Summary aggregates journal rows for one outcome.
type Summary struct {
	Outcome string `db:"outcome"`
	Orders  int    `db:"orders"`
	Pages   int    `db:"pages"`
	Revenue int    `db:"revenue"`
}

const (
	insertOrder = `INSERT INTO print_orders
		(user_id, username, files, total_pages, total_cost, delivered, failed, outcome, created_at)
		VALUES (:user_id, :username, :files, :total_pages, :total_cost, :delivered, :failed, :outcome, :created_at)`

	summarizeSince = `SELECT outcome, COUNT(*) AS orders,
		COALESCE(SUM(total_pages), 0) AS pages, COALESCE(SUM(total_cost), 0) AS revenue
		FROM print_orders WHERE created_at >= $1 GROUP BY outcome ORDER BY outcome`
)

// Postgres stores entries in the print_orders table.
type Postgres struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewPostgres wraps an open connection.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db, timeout: 3 * time.Second}
}

// Record inserts e.
func (p *Postgres) Record(ctx context.Context, e order.JournalEntry) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if e.At.IsZero() {
		e.At = time.Now()
	}
	r := row{
		UserID:     e.UserID,
		Username:   e.Username,
		Files:      e.Files,
		TotalPages: e.TotalPages,
		TotalCost:  e.TotalCost,
		Delivered:  e.Delivered,
		Failed:     e.Failed,
		Outcome:    string(e.Outcome),
		CreatedAt:  e.At.UTC(),
	}
	start := time.Now()
	if _, err := p.db.NamedExecContext(ctx, insertOrder, r); err != nil {
		return fmt.Errorf("journal: insert order: %w", err)
	}
	logger.Debug(ctx, "journal", "journal.record",
		slog.String("outcome", r.Outcome),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return nil
}

// Summarize returns per-outcome totals since the given time.
func (p *Postgres) Summarize(ctx context.Context, since time.Time) ([]Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var out []Summary
	if err := p.db.SelectContext(ctx, &out, summarizeSince, since.UTC()); err != nil {
		return nil, fmt.Errorf("journal: summarize: %w", err)
	}
	return out, nil
}
