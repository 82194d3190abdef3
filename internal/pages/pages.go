// Package pages counts the pages of uploaded documents.
package pages

import (
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/m3rciful/printbot/internal/order"
)

// Counter returns the number of pages of the document at path.
type Counter interface {
	Count(ctx context.Context, path string) (int, error)
}

// PDFCounter reads PDF documents.
type PDFCounter struct{}

// Count opens the PDF and reads its page tree. Failures wrap order.ErrUnreadableDocument.
func (PDFCounter) Count(ctx context.Context, path string) (n int, err error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("%w: %v", order.ErrUnreadableDocument, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", order.ErrUnreadableDocument, err)
	}
	defer f.Close()

	n = r.NumPage()
	if n <= 0 {
		return 0, fmt.Errorf("%w: no pages", order.ErrUnreadableDocument)
	}
	return n, nil
}

// Func adapts a function to Counter.
type Func func(ctx context.Context, path string) (int, error)

// Count calls f.
func (f Func) Count(ctx context.Context, path string) (int, error) {
	return f(ctx, path)
}
