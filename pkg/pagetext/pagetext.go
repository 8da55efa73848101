// Package pagetext builds a per-page coordinate index over the text of a PDF
// document.
//
// The index answers two questions the rest of the module depends on: where a
// literal string occurs on a page (as bounding rectangles in page space) and
// what the text at a given rectangle looks like (font, size, color, style
// flags). Text is reconstructed from the positioned fragments the underlying
// reader emits, grouped into lines top-to-bottom and left-to-right, so the
// text returned by Text is exactly the text Locate searches.
//
// All coordinates use a top-left origin in page points. The underlying reader
// reports positions with a bottom-left origin; the y axis is flipped once,
// when spans are built, and never again downstream.
//
// Main Functions:
//
// - Open: build a Document from raw PDF bytes
// - Document.Text: reconstructed plain text of a page
// - Document.Locate: all rectangles where a literal string occurs on a page
// - Document.StyleAt: font attributes of the text under a rectangle
package pagetext

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// BoundingBox is an axis-aligned rectangle in page points, top-left origin.
// Boxes are produced by coordinate search and span assembly only; they always
// lie within the page extent.
type BoundingBox struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Intersects reports whether the two boxes overlap with non-zero area.
func (b BoundingBox) Intersects(o BoundingBox) bool {
	return b.X < o.X+o.Width && o.X < b.X+b.Width &&
		b.Y < o.Y+o.Height && o.Y < b.Y+b.Height
}

// Document is a page text index over a single PDF held in memory.
//
// A Document must not be shared across goroutines; concurrent callers open
// their own Document from their own byte buffer. Close releases the index;
// no handle outlives the call that opened it.
type Document struct {
	reader *pdf.Reader
	pages  []*pageIndex
}

// Open builds a Document from raw PDF bytes. The bytes are not retained.
func Open(data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("input PDF data is empty")
	}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return &Document{
		reader: r,
		pages:  make([]*pageIndex, r.NumPage()),
	}, nil
}

// Close releases the index. The Document must not be used afterwards.
func (d *Document) Close() error {
	d.reader = nil
	d.pages = nil
	return nil
}

// NumPages returns the page count of the document.
func (d *Document) NumPages() int {
	if d.reader == nil {
		return 0
	}
	return d.reader.NumPage()
}

// PageSize returns the width and height of a page (0-indexed) in points.
func (d *Document) PageSize(page int) (float64, float64, error) {
	idx, err := d.page(page)
	if err != nil {
		return 0, 0, err
	}
	return idx.width, idx.height, nil
}

// Text returns the reconstructed plain text of a page (0-indexed), one
// reconstructed line per physical text line. No whitespace normalization is
// performed beyond the space inference used during line assembly.
func (d *Document) Text(page int) (string, error) {
	idx, err := d.page(page)
	if err != nil {
		return "", err
	}
	return idx.text, nil
}

// Locate returns one bounding rectangle per physical occurrence of literal on
// the page (0-indexed). The search is case-sensitive first and falls back to
// case-insensitive when nothing matches. A literal that wraps across a line
// break is not found; callers treat that as match-or-drop.
func (d *Document) Locate(page int, literal string) ([]BoundingBox, error) {
	idx, err := d.page(page)
	if err != nil {
		return nil, err
	}
	if literal == "" {
		return nil, nil
	}
	boxes := idx.locate(literal, false)
	if len(boxes) == 0 {
		boxes = idx.locate(literal, true)
	}
	return boxes, nil
}

// page returns the lazily built index for a 0-indexed page.
func (d *Document) page(n int) (*pageIndex, error) {
	if d.reader == nil {
		return nil, fmt.Errorf("document is closed")
	}
	if n < 0 || n >= len(d.pages) {
		return nil, fmt.Errorf("page %d out of range (document has %d pages)", n, len(d.pages))
	}
	if d.pages[n] == nil {
		idx, err := buildPageIndex(d.reader.Page(n + 1))
		if err != nil {
			return nil, fmt.Errorf("failed to index page %d: %w", n, err)
		}
		d.pages[n] = idx
	}
	return d.pages[n], nil
}
