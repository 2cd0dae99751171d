package pptx

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slideXML(paragraphs ...string) string {
	body := ""
	for _, p := range paragraphs {
		body += "<a:p>"
		for _, run := range bytes.Fields([]byte(p)) {
			body += fmt.Sprintf("<a:r><a:t>%s</a:t></a:r>", run)
		}
		body += "</a:p>"
	}
	return `<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">` +
		`<p:cSld><p:spTree><p:sp><p:txBody>` + body + `</p:txBody></p:sp></p:spTree></p:cSld></p:sld>`
}

// createTestPPTX writes the named parts into a zip package.
func createTestPPTX(parts map[string]string, order []string) []byte {
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	for _, name := range order {
		f, _ := w.Create(name)
		_, _ = f.Write([]byte(parts[name]))
	}
	_ = w.Close()
	return buf.Bytes()
}

func extract(data []byte) (string, error) {
	return New().Extract(context.Background(), bytes.NewReader(data), int64(len(data)), "deck.pptx")
}

func TestExtractor_Metadata(t *testing.T) {
	e := New()

	assert.Equal(t, "pptx", e.Name())
	assert.Equal(t, []string{".pptx"}, e.Extensions())
	assert.True(t, e.Available())
}

func TestExtractor_Extract_SlidesInNumericOrder(t *testing.T) {
	parts := map[string]string{
		"ppt/slides/slide1.xml":  slideXML("Agenda", "Budget review"),
		"ppt/slides/slide2.xml":  slideXML("Next steps"),
		"ppt/slides/slide10.xml": slideXML("Appendix"),
		"ppt/presentation.xml":   "<p:presentation/>",
	}
	order := []string{"ppt/presentation.xml", "ppt/slides/slide10.xml", "ppt/slides/slide2.xml", "ppt/slides/slide1.xml"}

	text, err := extract(createTestPPTX(parts, order))

	require.NoError(t, err)
	assert.Equal(t, "--- Slide 1 ---\nAgenda\nBudget review\n--- Slide 2 ---\nNext steps\n--- Slide 3 ---\nAppendix", text)
}

func TestExtractor_Extract_NoSlides(t *testing.T) {
	parts := map[string]string{"ppt/presentation.xml": "<p:presentation/>"}

	text, err := extract(createTestPPTX(parts, []string{"ppt/presentation.xml"}))

	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestExtractor_Extract_NotZip(t *testing.T) {
	_, err := extract([]byte("garbage"))

	assert.Error(t, err)
}
