package pricing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/printbot/internal/order"
	"github.com/m3rciful/printbot/internal/pages"
)

var defaultRates = Rates{Color: 5, Mono: 1}

// fakeFetcher writes the page count as file content; names in fail are not fetched.
type fakeFetcher struct {
	pages map[string]string
	fail  map[string]bool
	dsts  []string
}

func (f *fakeFetcher) Fetch(_ context.Context, ref order.FileRef, dst string) error {
	f.dsts = append(f.dsts, dst)
	if f.fail[ref.ID] {
		return errors.New("telegram: file is too big")
	}
	return os.WriteFile(dst, []byte(f.pages[ref.ID]), 0o600)
}

// contentCounter reads the page count written by fakeFetcher.
var contentCounter = pages.Func(func(_ context.Context, path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	switch string(b) {
	case "1":
		return 1, nil
	case "3":
		return 3, nil
	case "10":
		return 10, nil
	}
	return 0, order.ErrUnreadableDocument
})

func session(files ...order.FileRef) order.Session {
	s := order.NewSession(1, 1, "alice")
	s.Files = files
	return s
}

func TestRatesLine(t *testing.T) {
	f := order.FileRef{ID: "a"}
	color := defaultRates.Line(f, 3, order.PrintConfig{Type: order.PrintColor, Quantity: 2})
	mono := defaultRates.Line(f, 3, order.PrintConfig{Type: order.PrintMonochrome, Quantity: 2})

	assert.Equal(t, 30, color.Cost)
	assert.Equal(t, 6, mono.Cost)
	assert.Equal(t, 2, color.Copies)
	assert.Equal(t, 3, color.Pages)
}

func TestQuoteSumsFiles(t *testing.T) {
	a := order.FileRef{ID: "a", Name: "a.pdf"}
	b := order.FileRef{ID: "b", Name: "b.pdf"}
	s := session(a, b)
	s.Configs[a.ID] = order.PrintConfig{Type: order.PrintColor, Quantity: 2, Sides: order.SidesSingle}
	s.Configs[b.ID] = order.PrintConfig{Type: order.PrintMonochrome, Quantity: 1, Sides: order.SidesDouble}

	fetch := &fakeFetcher{pages: map[string]string{"a": "3", "b": "10"}}
	q := NewCalculator(fetch, contentCounter, defaultRates, t.TempDir()).Quote(context.Background(), s)

	assert.Equal(t, 30+10, q.TotalCost)
	assert.Equal(t, 6+10, q.TotalPages)
	assert.Len(t, q.Lines, 2)
	assert.Empty(t, q.Skipped)
}

func TestQuoteSkipsUnreadableAndFailedDownloads(t *testing.T) {
	good := order.FileRef{ID: "good", Name: "good.pdf"}
	broken := order.FileRef{ID: "broken", Name: "broken.pdf"}
	lost := order.FileRef{ID: "lost", Name: "lost.pdf"}
	s := session(broken, good, lost)
	for _, f := range s.Files {
		s.Configs[f.ID] = order.PrintConfig{Type: order.PrintColor, Quantity: 2, Sides: order.SidesSingle}
	}

	fetch := &fakeFetcher{
		pages: map[string]string{"good": "3", "broken": "garbage"},
		fail:  map[string]bool{"lost": true},
	}
	q := NewCalculator(fetch, contentCounter, defaultRates, t.TempDir()).Quote(context.Background(), s)

	assert.Equal(t, 30, q.TotalCost)
	assert.Equal(t, 6, q.TotalPages)
	require.Len(t, q.Skipped, 2)

	assert.Equal(t, broken, q.Skipped[0].File)
	assert.Equal(t, order.StepCount, q.Skipped[0].Step)
	assert.ErrorIs(t, q.Skipped[0], order.ErrUnreadableDocument)

	assert.Equal(t, lost, q.Skipped[1].File)
	assert.Equal(t, order.StepFetch, q.Skipped[1].Step)
	assert.ErrorIs(t, q.Skipped[1], order.ErrTransferFailure)
}

func TestQuoteCleansUpAndSeparatesSameNames(t *testing.T) {
	a := order.FileRef{ID: "a", Name: "scan.pdf"}
	b := order.FileRef{ID: "b", Name: "scan.pdf"}
	s := session(a, b)
	s.Configs[a.ID] = order.PrintConfig{Type: order.PrintMonochrome, Quantity: 1, Sides: order.SidesSingle}
	s.Configs[b.ID] = order.PrintConfig{Type: order.PrintMonochrome, Quantity: 1, Sides: order.SidesSingle}

	root := t.TempDir()
	fetch := &fakeFetcher{pages: map[string]string{"a": "1", "b": "3"}}
	q := NewCalculator(fetch, contentCounter, defaultRates, root).Quote(context.Background(), s)

	assert.Equal(t, 4, q.TotalCost)
	require.Len(t, fetch.dsts, 2)
	assert.NotEqual(t, fetch.dsts[0], fetch.dsts[1])

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch directory must be removed")
}

func TestQuoteScratchFailureSkipsEverything(t *testing.T) {
	// A regular file where the temp root should be makes MkdirAll fail.
	root := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(root, nil, 0o600))

	a := order.FileRef{ID: "a", Name: "a.pdf"}
	s := session(a)
	s.Configs[a.ID] = order.PrintConfig{Type: order.PrintColor, Quantity: 1, Sides: order.SidesSingle}

	q := NewCalculator(&fakeFetcher{}, contentCounter, defaultRates, root).Quote(context.Background(), s)
	assert.Zero(t, q.TotalCost)
	require.Len(t, q.Skipped, 1)
	assert.ErrorIs(t, q.Skipped[0], order.ErrTransferFailure)
}
