package pdf

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-desk/internal/logger"
)

// buildPDF writes a minimal PDF with one page per text, each drawn in
// Helvetica with WinAnsi encoding.
func buildPDF(texts ...string) []byte {
	var objects []string
	pageCount := len(texts)

	kids := ""
	for i := range texts {
		kids += fmt.Sprintf("%d 0 R ", 4+i*2)
	}

	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, pageCount),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	)
	for i, text := range texts {
		content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R /Resources << /Font << /F1 3 0 R >> >> >>", 5+i*2),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestExtractor_Metadata(t *testing.T) {
	e := New(logger.Nop())

	assert.Equal(t, "pdf", e.Name())
	assert.Equal(t, []string{".pdf"}, e.Extensions())
	assert.True(t, e.Available())
}

func TestExtractor_Extract_Pages(t *testing.T) {
	data := buildPDF("Hello first page", "Second page text")

	text, err := New(logger.Nop()).Extract(context.Background(), bytes.NewReader(data), int64(len(data)), "doc.pdf")

	require.NoError(t, err)
	assert.Contains(t, text, "Hello first page")
	assert.Contains(t, text, "Second page text")
}

func TestExtractor_Extract_NotAPDF(t *testing.T) {
	data := []byte("this is not a pdf at all")

	text, err := New(logger.Nop()).Extract(context.Background(), bytes.NewReader(data), int64(len(data)), "fake.pdf")

	assert.Error(t, err)
	assert.Empty(t, text)
}

func TestExtractor_Extract_Cancelled(t *testing.T) {
	data := buildPDF("page")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(logger.Nop()).Extract(ctx, bytes.NewReader(data), int64(len(data)), "doc.pdf")

	assert.ErrorIs(t, err, context.Canceled)
}
