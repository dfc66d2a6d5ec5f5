package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// buildPDF writes a single-page PDF showing each line with a Tj operator.
func buildPDF(lines ...string) []byte {
	var content strings.Builder
	content.WriteString("BT\n/F1 12 Tf\n72 712 Td\n")
	for _, l := range lines {
		fmt.Fprintf(&content, "(%s) Tj\n0 -14 Td\n", l)
	}
	content.WriteString("ET\n")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
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

func TestExtract_SinglePage(t *testing.T) {
	text, err := Extract(buildPDF("Refunds are accepted within 30 days."))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(text, "Refunds are accepted within 30 days.") {
		t.Errorf("expected page text, got %q", text)
	}
	if !strings.HasSuffix(text, "\n") {
		t.Errorf("expected page text to end with newline, got %q", text)
	}
}

func TestExtract_InvalidBytes(t *testing.T) {
	if _, err := Extract([]byte("definitely not a pdf")); err == nil {
		t.Fatal("expected error for non-pdf input")
	}
}

func TestExtract_Empty(t *testing.T) {
	if _, err := Extract(nil); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestExtract_NoText(t *testing.T) {
	_, err := Extract(buildPDF())
	if !errors.Is(err, ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
}
