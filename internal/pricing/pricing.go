// Package pricing computes the price of a configured order.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/m3rciful/printbot/core/logger"
	"github.com/m3rciful/printbot/internal/order"
	"github.com/m3rciful/printbot/internal/pages"
	"github.com/m3rciful/printbot/internal/scratch"
)

const component = "pricing"

// Fetcher downloads a document to a local path.
type Fetcher interface {
	Fetch(ctx context.Context, f order.FileRef, dst string) error
}

// Rates is the price per page per copy.
type Rates struct {
	Color int
	Mono  int
}

// For returns the rate of a print type.
func (r Rates) For(t order.PrintType) int {
	if t == order.PrintColor {
		return r.Color
	}
	return r.Mono
}

// Line prices one file: pages × copies × rate.
func (r Rates) Line(f order.FileRef, pageCount int, cfg order.PrintConfig) order.QuoteLine {
	printed := pageCount * cfg.Quantity
	return order.QuoteLine{
		File:   f,
		Pages:  pageCount,
		Copies: cfg.Quantity,
		Cost:   printed * r.For(cfg.Type),
	}
}

// Total folds lines into a quote.
func Total(lines []order.QuoteLine, skipped []order.FileFailure) order.Quote {
	q := order.Quote{Lines: lines, Skipped: skipped}
	for _, l := range lines {
		q.TotalPages += l.Pages * l.Copies
		q.TotalCost += l.Cost
	}
	return q
}

// Calculator downloads every file once, counts its pages and prices it.
type Calculator struct {
	fetcher Fetcher
	counter pages.Counter
	rates   Rates
	tempDir string
}

// NewCalculator returns a Calculator that keeps downloads under tempDir.
func NewCalculator(fetcher Fetcher, counter pages.Counter, rates Rates, tempDir string) *Calculator {
	return &Calculator{fetcher: fetcher, counter: counter, rates: rates, tempDir: tempDir}
}

// Quote prices s. A file that cannot be downloaded or counted is left out of both
// totals and listed in Quote.Skipped; the remaining files are still priced.
func (c *Calculator) Quote(ctx context.Context, s order.Session) order.Quote {
	var (
		lines   []order.QuoteLine
		skipped []order.FileFailure
	)

	dir, err := scratch.New(c.tempDir, s.UserID)
	if err != nil {
		logger.Error(ctx, component, "pricing.scratch", logger.Err(err))
		for _, f := range s.Files {
			skipped = append(skipped, order.FileFailure{File: f, Step: order.StepFetch, Err: fmt.Errorf("%w: %v", order.ErrTransferFailure, err)})
		}
		return Total(nil, skipped)
	}
	defer func() {
		if err := dir.Remove(); err != nil {
			logger.Warn(ctx, component, "pricing.cleanup", logger.Err(err))
		}
	}()

	for i, f := range s.Files {
		cfg := s.Config(f)
		n, fail := c.count(ctx, dir, i, f)
		if fail != nil {
			logger.Warn(ctx, component, "pricing.skip",
				slog.String("file", logger.SanitizeLimit(f.Name, 128)),
				slog.String("step", string(fail.Step)),
				logger.Err(fail.Err),
			)
			skipped = append(skipped, *fail)
			continue
		}
		line := c.rates.Line(f, n, cfg)
		logger.Debug(ctx, component, "pricing.line",
			slog.String("file", logger.SanitizeLimit(f.Name, 128)),
			slog.Int("pages", n),
			slog.Int("copies", cfg.Quantity),
			slog.String("print_type", string(cfg.Type)),
			slog.Int("cost", line.Cost),
		)
		lines = append(lines, line)
	}
	return Total(lines, skipped)
}

func (c *Calculator) count(ctx context.Context, dir *scratch.Dir, i int, f order.FileRef) (int, *order.FileFailure) {
	// Prefix with the index so two uploads named alike don't overwrite each other.
	path := dir.Path(fmt.Sprintf("%d-%s", i, scratch.SafeName(f.Name)))
	defer os.Remove(path)

	if err := c.fetcher.Fetch(ctx, f, path); err != nil {
		return 0, &order.FileFailure{File: f, Step: order.StepFetch, Err: fmt.Errorf("%w: %v", order.ErrTransferFailure, err)}
	}
	n, err := c.counter.Count(ctx, path)
	if err != nil {
		if !errors.Is(err, order.ErrUnreadableDocument) {
			err = fmt.Errorf("%w: %v", order.ErrUnreadableDocument, err)
		}
		return 0, &order.FileFailure{File: f, Step: order.StepCount, Err: err}
	}
	return n, nil
}
