package document

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF writes a minimal PDF with one Helvetica text line per page.
func buildPDF(pages ...string) []byte {
	var objects []string
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	objects = append(objects, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for i, text := range pages {
		content := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
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
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestExtractTextPlain(t *testing.T) {
	got := ExtractText([]byte("Cholesterol: 180 mg/dL"), "text/plain; charset=utf-8")
	assert.Equal(t, "Cholesterol: 180 mg/dL", got)
}

func TestExtractTextInvalidUTF8(t *testing.T) {
	got := ExtractText([]byte{0xff, 0xfe, 0xfd}, "text/plain")
	assert.True(t, strings.HasPrefix(got, "Error reading document:"), got)
}

func TestExtractTextPDFPagesInOrder(t *testing.T) {
	data := buildPDF("Hemoglobin normal", "Follow up in March")

	got := ExtractText(data, MIMEPDF)
	require.NotContains(t, got, "Error reading PDF")
	first := strings.Index(got, "Hemoglobin normal")
	second := strings.Index(got, "Follow up in March")
	require.GreaterOrEqual(t, first, 0, got)
	require.Greater(t, second, first, got)
}

func TestExtractTextCorruptPDFIsInBand(t *testing.T) {
	got := ExtractText([]byte("%PDF-1.4\nthis is not really a pdf"), MIMEPDF)
	assert.True(t, strings.HasPrefix(got, "Error reading PDF: "), got)
}

func TestDetectTypeSniffsWhenUndeclared(t *testing.T) {
	assert.Equal(t, MIMEPDF, DetectType(buildPDF("x"), ""))
	assert.Equal(t, MIMEPDF, DetectType(buildPDF("x"), "application/octet-stream"))
	assert.Equal(t, MIMEPlainText, DetectType([]byte("plain notes"), ""))
	assert.True(t, IsSupported([]byte("plain notes"), "application/octet-stream"))
}

func TestExtractTextUnsupported(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	assert.False(t, IsSupported(png, "image/png"))
	got := ExtractText(png, "image/png")
	assert.Contains(t, got, "unsupported type")
}
