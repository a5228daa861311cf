// Package document turns uploaded files into plain text for summarisation.
package document

import (
	"bytes"
	"fmt"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

const (
	MIMEPDF       = "application/pdf"
	MIMEPlainText = "text/plain"
)

// ExtractText returns the text of a PDF or UTF-8 text file. Failures are
// reported in-band as "Error reading ..." text rather than as an error.
// When mimeType is empty or generic the content is sniffed.
func ExtractText(data []byte, mimeType string) string {
	switch DetectType(data, mimeType) {
	case MIMEPDF:
		text, err := extractPDF(data)
		if err != nil {
			return fmt.Sprintf("Error reading PDF: %v", err)
		}
		return text
	case MIMEPlainText:
		if !utf8.Valid(data) {
			return "Error reading document: file is not valid UTF-8 text"
		}
		return string(data)
	default:
		return fmt.Sprintf("Error reading document: unsupported type %q", mimeType)
	}
}

// DetectType resolves the effective type of an upload: a declared PDF or
// text type wins, anything else falls back to content sniffing. It returns
// MIMEPDF, MIMEPlainText or the sniffed type.
func DetectType(data []byte, declared string) string {
	if mediaType, _, err := mime.ParseMediaType(declared); err == nil {
		switch strings.ToLower(mediaType) {
		case MIMEPDF:
			return MIMEPDF
		case MIMEPlainText:
			return MIMEPlainText
		}
	}

	sniffed := mimetype.Detect(data)
	switch {
	case sniffed.Is(MIMEPDF):
		return MIMEPDF
	case sniffed.Is(MIMEPlainText):
		return MIMEPlainText
	}
	return sniffed.String()
}

// IsSupported reports whether ExtractText can handle the upload.
func IsSupported(data []byte, declared string) bool {
	t := DetectType(data, declared)
	return t == MIMEPDF || t == MIMEPlainText
}

// extractPDF concatenates the plain text of every page in page order.
func extractPDF(data []byte) (text string, err error) {
	// The pdf package panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		b.WriteString(pageText)
	}
	return b.String(), nil
}
