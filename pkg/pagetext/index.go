package pagetext

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Glyph boxes are derived from the baseline the reader reports: the ascent
// sits above it, the descent below, together spanning one font size.
const (
	ascentRatio  = 0.8
	descentRatio = 0.2
)

// A fragment gap wider than this fraction of the font size separates words.
const wordGapRatio = 0.27

// Baselines closer than this fraction of the font size share a line.
const lineMergeRatio = 0.4

// run maps a byte range of a reconstructed line back to page geometry.
type run struct {
	start, end int // byte offsets into line.text
	x0, x1     float64
	baseline   float64 // bottom-left origin
	font       string
	size       float64
}

// span is a maximal sequence of same-styled runs within one line.
type span struct {
	text string
	bbox BoundingBox
	font string
	size float64
}

type textLine struct {
	text     string
	baseline float64
	runs     []run
	spans    []span
}

// pageIndex holds the assembled text layout of one page.
type pageIndex struct {
	width, height float64
	lines         []textLine
	text          string
}

// buildPageIndex reads the positioned fragments of a page and assembles them
// into lines, runs and spans. The underlying reader panics on malformed
// content streams; the panic is recovered into an error here so malformed
// input surfaces as a single failed operation.
func buildPageIndex(p pdf.Page) (idx *pageIndex, err error) {
	defer func() {
		if r := recover(); r != nil {
			idx = nil
			err = fmt.Errorf("malformed page content: %v", r)
		}
	}()

	w, h, err := mediaBoxSize(p)
	if err != nil {
		return nil, err
	}

	frags := p.Content().Text
	sort.SliceStable(frags, func(i, j int) bool {
		if frags[i].Y != frags[j].Y {
			return frags[i].Y > frags[j].Y // top of page first
		}
		return frags[i].X < frags[j].X
	})

	idx = &pageIndex{width: w, height: h}
	var cur []pdf.Text
	for _, f := range frags {
		if f.S == "" {
			continue
		}
		if len(cur) > 0 && !sameLine(cur[0], f) {
			idx.lines = append(idx.lines, assembleLine(cur, h, w))
			cur = cur[:0]
		}
		cur = append(cur, f)
	}
	if len(cur) > 0 {
		idx.lines = append(idx.lines, assembleLine(cur, h, w))
	}

	var sb strings.Builder
	for i, ln := range idx.lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(ln.text)
	}
	idx.text = sb.String()
	return idx, nil
}

func sameLine(a, b pdf.Text) bool {
	tol := lineMergeRatio * maxFloat(a.FontSize, b.FontSize)
	if tol < 2.0 {
		tol = 2.0
	}
	return absFloat(a.Y-b.Y) <= tol
}

// assembleLine merges the x-sorted fragments of one line into a reconstructed
// string, inferring a single space wherever the horizontal gap between two
// fragments exceeds the word-gap threshold.
func assembleLine(frags []pdf.Text, pageH, pageW float64) textLine {
	sort.SliceStable(frags, func(i, j int) bool { return frags[i].X < frags[j].X })

	ln := textLine{baseline: frags[0].Y}
	var sb strings.Builder
	prevEnd := frags[0].X

	for i, f := range frags {
		gap := f.X - prevEnd
		if i > 0 && gap > wordGapRatio*f.FontSize && !strings.HasSuffix(sb.String(), " ") && !strings.HasPrefix(f.S, " ") {
			sb.WriteByte(' ')
		}

		start := sb.Len()
		sb.WriteString(f.S)
		end := sb.Len()
		prevEnd = f.X + f.W
		if f.Y > ln.baseline {
			ln.baseline = f.Y
		}

		// Extend the previous run when the fragment continues it seamlessly.
		if n := len(ln.runs); n > 0 {
			prev := &ln.runs[n-1]
			if prev.end == start && prev.font == f.Font && prev.size == f.FontSize && absFloat(f.X-prev.x1) <= wordGapRatio*f.FontSize {
				prev.end = end
				prev.x1 = f.X + f.W
				continue
			}
		}
		ln.runs = append(ln.runs, run{
			start:    start,
			end:      end,
			x0:       f.X,
			x1:       f.X + f.W,
			baseline: f.Y,
			font:     f.Font,
			size:     f.FontSize,
		})
	}

	ln.text = sb.String()
	ln.spans = spansFromRuns(ln, pageH, pageW)
	return ln
}

// spansFromRuns folds adjacent same-styled runs into spans carrying top-left
// origin boxes. This is the single place the y axis is flipped.
func spansFromRuns(ln textLine, pageH, pageW float64) []span {
	var spans []span
	for _, r := range ln.runs {
		if n := len(spans); n > 0 {
			last := &spans[n-1]
			if last.font == r.font && last.size == r.size && r.x0-last.bbox.X-last.bbox.Width <= wordGapRatio*r.size {
				last.text += ln.text[r.start:r.end]
				last.bbox.Width = r.x1 - last.bbox.X
				continue
			}
		}
		spans = append(spans, span{
			text: ln.text[r.start:r.end],
			bbox: clampBox(glyphBox(r.x0, r.x1, r.baseline, r.size, pageH), pageW, pageH),
			font: r.font,
			size: r.size,
		})
	}
	return spans
}

// glyphBox converts a baseline-anchored extent to a top-left origin box.
func glyphBox(x0, x1, baseline, size float64, pageH float64) BoundingBox {
	return BoundingBox{
		X:      x0,
		Y:      pageH - baseline - ascentRatio*size,
		Width:  x1 - x0,
		Height: size,
	}
}

func clampBox(b BoundingBox, pageW, pageH float64) BoundingBox {
	if b.X < 0 {
		b.Width += b.X
		b.X = 0
	}
	if b.Y < 0 {
		b.Height += b.Y
		b.Y = 0
	}
	if b.X+b.Width > pageW {
		b.Width = pageW - b.X
	}
	if b.Y+b.Height > pageH {
		b.Height = pageH - b.Y
	}
	if b.Width < 0 {
		b.Width = 0
	}
	if b.Height < 0 {
		b.Height = 0
	}
	return b
}

// locate finds every non-overlapping occurrence of literal within the page's
// reconstructed lines and returns one box per occurrence.
func (idx *pageIndex) locate(literal string, foldCase bool) []BoundingBox {
	var boxes []BoundingBox
	for _, ln := range idx.lines {
		from := 0
		for {
			rel := indexOf(ln.text[from:], literal, foldCase)
			if rel < 0 {
				break
			}
			s := from + rel
			e := s + len(literal)
			boxes = append(boxes, idx.boxForRange(ln, s, e))
			from = e
		}
	}
	return boxes
}

// indexOf is strings.Index with an optional ASCII case fold. The fold
// compares byte-for-byte, so offsets into the haystack stay valid.
func indexOf(hay, needle string, foldCase bool) int {
	if !foldCase {
		return strings.Index(hay, needle)
	}
	if len(needle) > len(hay) {
		return -1
	}
	for i := 0; i+len(needle) <= len(hay); i++ {
		if asciiFoldEqual(hay[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}

func asciiFoldEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// boxForRange maps a byte range of a line back to a page-space rectangle,
// interpolating inside runs when the range starts or ends mid-run.
func (idx *pageIndex) boxForRange(ln textLine, s, e int) BoundingBox {
	x0, x1 := -1.0, -1.0
	size := 0.0
	baseline := ln.baseline

	for _, r := range ln.runs {
		if r.end <= s || r.start >= e {
			continue
		}
		rx0 := r.x0
		if s > r.start {
			rx0 = interpolateX(r, s)
		}
		rx1 := r.x1
		if e < r.end {
			rx1 = interpolateX(r, e)
		}
		if x0 < 0 || rx0 < x0 {
			x0 = rx0
		}
		if rx1 > x1 {
			x1 = rx1
		}
		if r.size > size {
			size = r.size
			baseline = r.baseline
		}
	}
	if x0 < 0 {
		// Range falls entirely into inferred whitespace.
		return BoundingBox{}
	}
	return clampBox(glyphBox(x0, x1, baseline, size, idx.height), idx.width, idx.height)
}

// interpolateX estimates the x coordinate of a byte offset inside a run by
// linear proportion. Good enough for near-monospaced advances within a run.
func interpolateX(r run, off int) float64 {
	if r.end == r.start {
		return r.x0
	}
	frac := float64(off-r.start) / float64(r.end-r.start)
	return r.x0 + frac*(r.x1-r.x0)
}

// mediaBoxSize resolves the page MediaBox, walking up the page tree for
// inherited values.
func mediaBoxSize(p pdf.Page) (float64, float64, error) {
	v := p.V
	for !v.IsNull() {
		mb := v.Key("MediaBox")
		if !mb.IsNull() && mb.Len() == 4 {
			llx := mb.Index(0).Float64()
			lly := mb.Index(1).Float64()
			urx := mb.Index(2).Float64()
			ury := mb.Index(3).Float64()
			return urx - llx, ury - lly, nil
		}
		v = v.Key("Parent")
	}
	return 0, 0, fmt.Errorf("page has no MediaBox")
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func absFloat(a float64) float64 {
	if a < 0 {
		return -a
	}
	return a
}
