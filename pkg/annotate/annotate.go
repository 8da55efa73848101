// Package annotate burns review annotations and a watermark into a PDF.
//
// Annotations are drawn directly onto the page content, not attached as PDF
// annotation objects, so every viewer renders them identically and they
// survive flattening. Each call also stamps the watermark onto every page,
// whether or not the page carries annotations.
package annotate

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/charmap"

	"github.com/cookedcareer/pdfredact/pkg/pagetext"
)

var log = logrus.StandardLogger()

// Type discriminates how an annotation is drawn.
type Type string

const (
	TypeHighlight Type = "highlight"
	TypeArea      Type = "area"
	TypeDrawing   Type = "drawing"
)

// Content carries the reviewer-entered parts of an annotation.
type Content struct {
	SelectedText string `json:"selected_text,omitempty" yaml:"selected_text,omitempty"`
	Comment      string `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// Annotation is one review mark on one page.
type Annotation struct {
	PageNumber int                  `json:"page_number" yaml:"page_number"` // 0-indexed
	Position   pagetext.BoundingBox `json:"position" yaml:"position"`
	Type       Type                 `json:"type" yaml:"type"`
	Content    Content              `json:"content" yaml:"content"`
}

// Comment callout geometry, in points.
const (
	commentOffset   = 30.0
	commentWidth    = 400.0
	commentGap      = 5.0
	commentFontSize = 9.0
)

// Watermark geometry.
const (
	watermarkFontSize = 10.0
	watermarkBottom   = 20.0
)

// Burn draws all annotations onto the document and stamps watermarkText onto
// every page, annotated or not. Annotations with out-of-range pages or
// degenerate positions are skipped with a log entry; they never fail the
// operation.
func Burn(pdfData []byte, annotations []Annotation, watermarkText string) ([]byte, error) {
	doc, err := pagetext.Open(pdfData)
	if err != nil {
		return nil, fmt.Errorf("failed to open input PDF: %w", err)
	}
	defer doc.Close()

	byPage := make(map[int][]Annotation)
	for _, a := range annotations {
		if a.PageNumber < 0 || a.PageNumber >= doc.NumPages() {
			log.WithField("page", a.PageNumber).Warn("skipping annotation on missing page")
			continue
		}
		byPage[a.PageNumber] = append(byPage[a.PageNumber], a)
	}

	pdf := fpdf.New("P", "pt", "", "")
	importer := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(pdfData))

	for page := 0; page < doc.NumPages(); page++ {
		w, h, err := doc.PageSize(page)
		if err != nil {
			return nil, fmt.Errorf("failed to read size of page %d: %w", page, err)
		}

		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})
		tpl := importer.ImportPageFromStream(pdf, &rs, page+1, "/MediaBox")
		importer.UseImportedTemplate(pdf, tpl, 0, 0, w, 0)

		for _, a := range byPage[page] {
			burnAnnotation(pdf, a)
		}
		drawWatermark(pdf, watermarkText, w, h)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// AddWatermark stamps text onto every page without drawing any annotations.
func AddWatermark(pdfData []byte, text string) ([]byte, error) {
	return Burn(pdfData, nil, text)
}

func burnAnnotation(pdf *fpdf.Fpdf, a Annotation) {
	if !validPosition(a.Position) {
		log.WithFields(logrus.Fields{
			"page": a.PageNumber,
			"type": a.Type,
		}).Warn("skipping annotation with invalid position")
		return
	}

	switch a.Type {
	case TypeHighlight:
		drawHighlight(pdf, a.Position)
	case TypeArea, TypeDrawing:
		drawOutline(pdf, a.Position)
	default:
		log.WithField("type", a.Type).Warn("skipping annotation of unknown type")
		return
	}

	if a.Content.Comment != "" {
		drawComment(pdf, a.Position, a.Content.Comment)
	}
}

func validPosition(p pagetext.BoundingBox) bool {
	for _, v := range [4]float64{p.X, p.Y, p.Width, p.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return p.Width > 0 && p.Height > 0
}

// drawHighlight paints a translucent yellow fill so the underlying text stays
// readable.
func drawHighlight(pdf *fpdf.Fpdf, p pagetext.BoundingBox) {
	pdf.SetFillColor(255, 255, 0)
	pdf.SetAlpha(0.35, "Multiply")
	pdf.Rect(p.X, p.Y, p.Width, p.Height, "F")
	pdf.SetAlpha(1.0, "Normal")
}

// drawOutline draws the red rectangle used for both area and drawing marks.
func drawOutline(pdf *fpdf.Fpdf, p pagetext.BoundingBox) {
	pdf.SetDrawColor(255, 0, 0)
	pdf.SetLineWidth(2)
	pdf.Rect(p.X, p.Y, p.Width, p.Height, "D")
}

// drawComment places a callout box above the annotated region.
func drawComment(pdf *fpdf.Fpdf, p pagetext.BoundingBox, comment string) {
	x := p.X
	y := p.Y - commentOffset
	h := commentOffset - commentGap

	pdf.SetFillColor(255, 255, 204)
	pdf.SetDrawColor(128, 128, 128)
	pdf.SetLineWidth(0.5)
	pdf.Rect(x, y, commentWidth, h, "FD")

	pdf.SetFont("Helvetica", "", commentFontSize)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(x+2, y+2)
	pdf.MultiCell(commentWidth-4, commentFontSize+2, encodeLatin1("» "+comment), "", "L", false)
}

// drawWatermark centers text near the bottom edge of the page.
func drawWatermark(pdf *fpdf.Fpdf, text string, pageW, pageH float64) {
	if text == "" {
		return
	}
	pdf.SetFont("Helvetica", "B", watermarkFontSize)
	pdf.SetTextColor(179, 179, 179)
	enc := encodeLatin1(text)
	x := (pageW - pdf.GetStringWidth(enc)) / 2
	pdf.Text(x, pageH-watermarkBottom, enc)
}

func encodeLatin1(s string) string {
	latin1, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil {
		return s
	}
	return latin1
}
