// Package testpdf builds small single-font PDF fixtures for tests.
//
// The generated documents carry an explicit Widths array for the Helvetica
// font (a constant 500/1000 em per glyph), so text extraction gets real
// glyph geometry: a character at 12pt is exactly 6pt wide. Content streams
// are left uncompressed and the cross-reference table is a classic one,
// keeping the files readable by every parser in the toolchain.
package testpdf

import (
	"bytes"
	"fmt"
	"strings"
)

// Page geometry of the generated fixtures (A4, point units).
const (
	PageWidth  = 595.28
	PageHeight = 841.89

	FontSize   = 12.0
	LeftMargin = 72.0
	TopMargin  = 100.0
	Leading    = 24.0

	// GlyphWidth is the rendered width of one character at FontSize.
	GlyphWidth = 500.0 / 1000.0 * FontSize
)

// Doc renders each page as a slice of text lines in Helvetica 12pt. Line i
// has its baseline TopMargin+i*Leading below the top edge, starting at
// LeftMargin.
func Doc(pages ...[]string) []byte {
	var w writer
	w.obj("<</Type/Catalog/Pages 2 0 R>>") // 1

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	w.obj(fmt.Sprintf("<</Type/Pages/Kids[%s]/Count %d>>", strings.Join(kids, " "), len(pages))) // 2

	w.obj("<</Type/Font/Subtype/Type1/BaseFont/Helvetica/Encoding/WinAnsiEncoding" +
		"/FirstChar 32/LastChar 255/Widths[" + widthsArray() + "]>>") // 3

	for i, lines := range pages {
		content := contentStream(lines)
		w.obj(fmt.Sprintf(
			"<</Type/Page/Parent 2 0 R/MediaBox[0 0 %.2f %.2f]"+
				"/Resources<</Font<</F1 3 0 R>>>>/Contents %d 0 R>>",
			PageWidth, PageHeight, 5+2*i))
		w.stream(content)
	}

	return w.finish()
}

func widthsArray() string {
	return strings.TrimSpace(strings.Repeat("500 ", 224))
}

func contentStream(lines []string) []byte {
	var sb strings.Builder
	sb.WriteString("BT\n/F1 12 Tf\n")
	y := PageHeight - TopMargin
	for _, line := range lines {
		fmt.Fprintf(&sb, "1 0 0 1 %.2f %.2f Tm\n(%s) Tj\n", LeftMargin, y, escape(line))
		y -= Leading
	}
	sb.WriteString("ET\n")
	return []byte(sb.String())
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}

// writer accumulates numbered objects and emits the xref table at the end.
type writer struct {
	buf     bytes.Buffer
	offsets []int
}

func (w *writer) begin(body func()) {
	if w.buf.Len() == 0 {
		w.buf.WriteString("%PDF-1.4\n")
	}
	w.offsets = append(w.offsets, w.buf.Len())
	fmt.Fprintf(&w.buf, "%d 0 obj\n", len(w.offsets))
	body()
	w.buf.WriteString("endobj\n")
}

func (w *writer) obj(dict string) {
	w.begin(func() {
		w.buf.WriteString(dict)
		w.buf.WriteByte('\n')
	})
}

func (w *writer) stream(content []byte) {
	w.begin(func() {
		fmt.Fprintf(&w.buf, "<</Length %d>>\nstream\n", len(content))
		w.buf.Write(content)
		w.buf.WriteString("\nendstream\n")
	})
}

func (w *writer) finish() []byte {
	xref := w.buf.Len()
	fmt.Fprintf(&w.buf, "xref\n0 %d\n0000000000 65535 f \n", len(w.offsets)+1)
	for _, off := range w.offsets {
		fmt.Fprintf(&w.buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&w.buf, "trailer\n<</Size %d/Root 1 0 R>>\nstartxref\n%d\n%%%%EOF\n",
		len(w.offsets)+1, xref)
	return w.buf.Bytes()
}
