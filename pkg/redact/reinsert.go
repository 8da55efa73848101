package redact

import (
	"bytes"
	"fmt"
	"io"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"
	"golang.org/x/text/encoding/charmap"

	"github.com/cookedcareer/pdfredact/pkg/pagetext"
)

// Baseline offset within a box for point-anchored placement.
const pointAnchorRatio = 0.75

// applyStyledReinserts imports every page of the input PDF as a template and
// draws, per item, an opaque white cover followed by the styled replacement
// text. An item targeting a page outside the document fails the whole
// operation before anything is drawn. Per-item layout failures fall back to
// point placement and are never allowed to abort the remaining items.
func applyStyledReinserts(inputPDFData []byte, items []Item) ([]byte, error) {
	doc, err := pagetext.Open(inputPDFData)
	if err != nil {
		return nil, fmt.Errorf("failed to open input PDF: %w", err)
	}
	defer doc.Close()

	byPage := make(map[int][]Item)
	for _, it := range items {
		if it.Page < 0 || it.Page >= doc.NumPages() {
			return nil, fmt.Errorf("replacement targets page %d of a %d page document", it.Page, doc.NumPages())
		}
		byPage[it.Page] = append(byPage[it.Page], it)
	}

	pdf := fpdf.New("P", "pt", "", "")
	importer := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(inputPDFData))

	for page := 0; page < doc.NumPages(); page++ {
		w, h, err := doc.PageSize(page)
		if err != nil {
			return nil, fmt.Errorf("failed to read size of page %d: %w", page, err)
		}

		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})
		tpl := importer.ImportPageFromStream(pdf, &rs, page+1, "/MediaBox")
		importer.UseImportedTemplate(pdf, tpl, 0, 0, w, 0)

		for _, it := range byPage[page] {
			reinsertItem(pdf, it)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// reinsertItem covers the item's box with white and lays the replacement text
// out inside it. If the boxed layout overflows, the text is placed as a
// single point-anchored run instead; any further failure is swallowed so the
// remaining items still apply.
func reinsertItem(pdf *fpdf.Fpdf, it Item) {
	box := it.BBox
	if box.Width <= 0 || box.Height <= 0 {
		log.WithField("page", it.Page).Debug("skipping replacement with empty box")
		return
	}

	// 1. Opaque white cover over the original glyphs.
	pdf.SetFillColor(255, 255, 255)
	pdf.Rect(box.X, box.Y, box.Width, box.Height, "F")

	// 2-4. Resolve color, size and canonical font from the carried style.
	r, g, b := colorToRGB(it.Style.Color)
	size := resolveFontSize(it.Style, box)
	family := string(Classify(it.Style.FontName))

	pdf.SetFont(family, "", size)
	pdf.SetTextColor(r, g, b)

	text := encodeLatin1(it.ReplacementText)

	// 5. Boxed layout attempt, left aligned.
	lineHeight := size * 1.2
	lines := pdf.SplitText(text, box.Width)
	if len(lines) > 0 && float64(len(lines))*lineHeight <= box.Height {
		y := box.Y + size*0.8
		for _, line := range lines {
			pdf.Text(box.X, y, line)
			y += lineHeight
		}
		return
	}

	// 6. Overflow fallback: one point-anchored run at the box baseline.
	pdf.Text(box.X, box.Y+box.Height*pointAnchorRatio, text)
}

// encodeLatin1 converts text to ISO-8859-1 for the renderer's core fonts,
// falling back to the raw string when conversion fails.
func encodeLatin1(s string) string {
	latin1, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil {
		return s
	}
	return latin1
}
