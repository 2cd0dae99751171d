// Package eml provides an Extractor for saved e-mail messages (.eml).
// Headers of interest are emitted first, followed by the plain text body
// or, when the message has none, the text of its HTML body.
package eml

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/custodia-labs/sercha-desk/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-desk/internal/extractors/html"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles RFC 822 messages.
type Extractor struct{}

// New creates a new EML extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "eml"
}

// Extensions returns the extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".eml"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Available always returns true.
func (e *Extractor) Available() bool {
	return true
}

// Extract returns the headers and body text of the message.
func (e *Extractor) Extract(_ context.Context, r io.ReaderAt, size int64, name string) (string, error) {
	msg, err := mail.ReadMessage(io.NewSectionReader(r, 0, size))
	if err != nil {
		return "", fmt.Errorf("eml: read %s: %w", name, err)
	}

	body, err := extractBody(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body)
	if err != nil {
		return "", fmt.Errorf("eml: body of %s: %w", name, err)
	}

	var content strings.Builder
	for _, key := range []string{"From", "To", "Date", "Subject"} {
		value := decodeHeader(msg.Header.Get(key))
		if value == "" {
			continue
		}
		content.WriteString(key)
		content.WriteString(": ")
		content.WriteString(value)
		content.WriteString("\n")
	}
	content.WriteString("\n")
	content.WriteString(body)

	return strings.TrimSpace(content.String()), nil
}

// decodeHeader decodes RFC 2047 encoded words.
func decodeHeader(header string) string {
	if header == "" {
		return ""
	}
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(header)
	if err != nil {
		return header // Return original if decoding fails
	}
	return decoded
}

// decodeTransfer undoes the Content-Transfer-Encoding of a part.
func decodeTransfer(r io.Reader, encoding string) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, newlineStripper{r})
	default:
		return r
	}
}

// newlineStripper drops CR and LF so wrapped base64 decodes.
type newlineStripper struct {
	r io.Reader
}

func (s newlineStripper) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	out := p[:0]
	for _, c := range p[:n] {
		if c != '\r' && c != '\n' {
			out = append(out, c)
		}
	}
	return len(out), err
}

func extractBody(contentType, transferEncoding string, body io.Reader) (string, error) {
	if contentType == "" {
		contentType = "text/plain"
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return extractMultipartBody(body, params["boundary"])
	}

	data, err := io.ReadAll(decodeTransfer(body, transferEncoding))
	if err != nil {
		return "", err
	}
	text := strings.ToValidUTF8(string(data), "�")

	if mediaType == "text/html" {
		return html.Text(text), nil
	}
	return text, nil
}

func extractMultipartBody(r io.Reader, boundary string) (string, error) {
	if boundary == "" {
		return "", nil
	}

	mr := multipart.NewReader(r, boundary)
	var textParts []string
	var htmlParts []string

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			break
		}

		mediaType, params, parseErr := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if parseErr != nil {
			mediaType = "text/plain"
		}

		content, readErr := io.ReadAll(decodeTransfer(part, part.Header.Get("Content-Transfer-Encoding")))
		part.Close()
		if readErr != nil {
			continue
		}
		text := strings.ToValidUTF8(string(content), "�")

		switch {
		case mediaType == "text/plain":
			textParts = append(textParts, text)
		case mediaType == "text/html":
			htmlParts = append(htmlParts, html.Text(text))
		case strings.HasPrefix(mediaType, "multipart/"):
			nested, nestedErr := extractMultipartBody(bytes.NewReader(content), params["boundary"])
			if nestedErr == nil && nested != "" {
				textParts = append(textParts, nested)
			}
		}
	}

	if len(textParts) > 0 {
		return strings.Join(textParts, "\n"), nil
	}
	return strings.Join(htmlParts, "\n"), nil
}
