package pages

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/printbot/internal/order"
)

// buildPDF writes a minimal PDF with n empty pages and a correct xref table.
func buildPDF(n int) []byte {
	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	kids := ""
	for i := 0; i < n; i++ {
		kids += fmt.Sprintf("%d 0 R ", i+3)
	}
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, n))
	for i := 0; i < n; i++ {
		obj("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestPDFCounterCountsPages(t *testing.T) {
	path := writeFile(t, "three.pdf", buildPDF(3))

	n, err := PDFCounter{}.Count(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestPDFCounterUnreadable(t *testing.T) {
	path := writeFile(t, "notes.pdf", []byte("this is not a pdf"))

	_, err := PDFCounter{}.Count(context.Background(), path)
	require.ErrorIs(t, err, order.ErrUnreadableDocument)
}

func TestPDFCounterMissingFile(t *testing.T) {
	_, err := PDFCounter{}.Count(context.Background(), filepath.Join(t.TempDir(), "gone.pdf"))
	require.ErrorIs(t, err, order.ErrUnreadableDocument)
}

func TestPDFCounterCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := PDFCounter{}.Count(ctx, "unused")
	require.ErrorIs(t, err, context.Canceled)
}

func TestFunc(t *testing.T) {
	var c Counter = Func(func(context.Context, string) (int, error) { return 4, nil })
	n, err := c.Count(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}
