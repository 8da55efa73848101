package pagetext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cookedcareer/pdfredact/internal/testpdf"
)

func buildFixturePDF(t *testing.T, pages ...[]string) []byte {
	t.Helper()
	return testpdf.Doc(pages...)
}

func TestOpenAndPageCount(t *testing.T) {
	data := buildFixturePDF(t,
		[]string{"first page"},
		[]string{"second page"},
	)

	doc, err := Open(data)
	require.NoError(t, err)
	defer doc.Close()

	assert.Equal(t, 2, doc.NumPages())

	w, h, err := doc.PageSize(0)
	require.NoError(t, err)
	assert.InDelta(t, testpdf.PageWidth, w, 0.01)
	assert.InDelta(t, testpdf.PageHeight, h, 0.01)
}

func TestOpenRejectsGarbage(t *testing.T) {
	_, err := Open([]byte("this is not a pdf"))
	assert.Error(t, err)
}

func TestText(t *testing.T) {
	data := buildFixturePDF(t, []string{
		"Contact: john.doe@example.com",
		"Phone: (555) 123-4567",
	})

	doc, err := Open(data)
	require.NoError(t, err)
	defer doc.Close()

	text, err := doc.Text(0)
	require.NoError(t, err)
	assert.Contains(t, text, "john.doe@example.com")
	assert.Contains(t, text, "(555) 123-4567")

	_, err = doc.Text(2)
	assert.Error(t, err)
}

func TestLocateSingleOccurrence(t *testing.T) {
	data := buildFixturePDF(t, []string{
		"Contact: john.doe@example.com",
		"Some unrelated line",
	})

	doc, err := Open(data)
	require.NoError(t, err)
	defer doc.Close()

	boxes, err := doc.Locate(0, "john.doe@example.com")
	require.NoError(t, err)
	require.Len(t, boxes, 1)

	b := boxes[0]
	// 20 characters at the fixture's constant glyph width.
	assert.InDelta(t, 20*testpdf.GlyphWidth, b.Width, 0.5)
	assert.InDelta(t, 12.0, b.Height, 0.5)
	// The match starts after the 9 character "Contact: " prefix.
	assert.InDelta(t, testpdf.LeftMargin+9*testpdf.GlyphWidth, b.X, 0.5)

	w, h, err := doc.PageSize(0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, b.X, 0.0)
	assert.GreaterOrEqual(t, b.Y, 0.0)
	assert.LessOrEqual(t, b.X+b.Width, w)
	assert.LessOrEqual(t, b.Y+b.Height, h)

	// The line sits 100pt below the top edge, so the box top must be
	// close to the line's ascent above the baseline.
	assert.InDelta(t, 100.0-12.0*ascentRatio, b.Y, 2.0)
}

func TestLocateMultipleOccurrences(t *testing.T) {
	data := buildFixturePDF(t, []string{
		"Acme Corp hired me",
		"I left Acme Corp in 2020",
	})

	doc, err := Open(data)
	require.NoError(t, err)
	defer doc.Close()

	boxes, err := doc.Locate(0, "Acme Corp")
	require.NoError(t, err)
	require.Len(t, boxes, 2)
	assert.Less(t, boxes[0].Y, boxes[1].Y)
}

func TestLocateCaseInsensitiveFallback(t *testing.T) {
	data := buildFixturePDF(t, []string{"Contact: John.Doe@Example.com"})

	doc, err := Open(data)
	require.NoError(t, err)
	defer doc.Close()

	// Exact case first.
	boxes, err := doc.Locate(0, "John.Doe@Example.com")
	require.NoError(t, err)
	require.Len(t, boxes, 1)

	// Wrong case still matches via the fold fallback, same geometry.
	folded, err := doc.Locate(0, "JOHN.DOE@EXAMPLE.COM")
	require.NoError(t, err)
	require.Len(t, folded, 1)
	assert.InDelta(t, boxes[0].X, folded[0].X, 0.01)
	assert.InDelta(t, boxes[0].Width, folded[0].Width, 0.01)
}

func TestLocateMisses(t *testing.T) {
	data := buildFixturePDF(t, []string{"nothing interesting here"})

	doc, err := Open(data)
	require.NoError(t, err)
	defer doc.Close()

	boxes, err := doc.Locate(0, "absent text")
	require.NoError(t, err)
	assert.Empty(t, boxes)

	boxes, err = doc.Locate(0, "")
	require.NoError(t, err)
	assert.Empty(t, boxes)
}

func TestStyleAtMatch(t *testing.T) {
	data := buildFixturePDF(t, []string{"Styled run of text"})

	doc, err := Open(data)
	require.NoError(t, err)
	defer doc.Close()

	boxes, err := doc.Locate(0, "Styled run")
	require.NoError(t, err)
	require.Len(t, boxes, 1)

	style := doc.StyleAt(0, boxes[0])
	assert.Contains(t, style.FontName, "Helvetica")
	assert.InDelta(t, 12.0, style.FontSize, 0.1)
}

func TestStyleAtFallback(t *testing.T) {
	data := buildFixturePDF(t, []string{"text near the top"})

	doc, err := Open(data)
	require.NoError(t, err)
	defer doc.Close()

	// A box in the empty lower half of the page intersects nothing.
	empty := BoundingBox{X: 100, Y: 600, Width: 200, Height: 16}
	style := doc.StyleAt(0, empty)
	assert.Equal(t, FallbackFontName, style.FontName)
	assert.InDelta(t, 12.0, style.FontSize, 0.001) // 0.75 * 16
	assert.Equal(t, 0, style.Color)
	assert.Equal(t, 0, style.Flags)
}

func TestBoundingBoxIntersects(t *testing.T) {
	a := BoundingBox{X: 0, Y: 0, Width: 10, Height: 10}

	assert.True(t, a.Intersects(BoundingBox{X: 5, Y: 5, Width: 10, Height: 10}))
	assert.False(t, a.Intersects(BoundingBox{X: 20, Y: 0, Width: 10, Height: 10}))
	// Shared edges do not count as overlap.
	assert.False(t, a.Intersects(BoundingBox{X: 10, Y: 0, Width: 10, Height: 10}))
	// Zero-area boxes never intersect anything.
	assert.False(t, a.Intersects(BoundingBox{X: 5, Y: 5, Width: 0, Height: 0}))
}

func TestAsciiFoldEqual(t *testing.T) {
	assert.True(t, asciiFoldEqual("John DOE", "john doe"))
	assert.False(t, asciiFoldEqual("john", "jane"))
	assert.False(t, asciiFoldEqual("john", "john "))
}
