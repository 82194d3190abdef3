package journal

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/printbot/internal/order"
)

func newMock(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgres(sqlx.NewDb(db, "postgres")), mock
}

func TestRecordInsertsEntry(t *testing.T) {
	p, mock := newMock(t)
	at := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO print_orders")).
		WithArgs(int64(7), "alice", 2, 16, 40, 1, 1, "confirmed", at).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := p.Record(context.Background(), order.JournalEntry{
		UserID: 7, Username: "alice", Files: 2, TotalPages: 16, TotalCost: 40,
		Delivered: 1, Failed: 1, Outcome: order.OutcomeConfirmed, At: at,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordWrapsDriverError(t *testing.T) {
	p, mock := newMock(t)
	boom := errors.New("connection reset")
	mock.ExpectExec("INSERT INTO print_orders").WillReturnError(boom)

	err := p.Record(context.Background(), order.JournalEntry{UserID: 1, Outcome: order.OutcomeCancelled})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "journal: insert order")
}

func TestSummarize(t *testing.T) {
	p, mock := newMock(t)
	since := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"outcome", "orders", "pages", "revenue"}).
		AddRow("cancelled", 2, 0, 0).
		AddRow("confirmed", 5, 120, 310)
	mock.ExpectQuery(regexp.QuoteMeta("FROM print_orders WHERE created_at >= $1")).
		WithArgs(since).
		WillReturnRows(rows)

	got, err := p.Summarize(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, []Summary{
		{Outcome: "cancelled", Orders: 2},
		{Outcome: "confirmed", Orders: 5, Pages: 120, Revenue: 310},
	}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop{}.Record(context.Background(), order.JournalEntry{}))
}
