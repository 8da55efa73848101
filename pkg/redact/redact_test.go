package redact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cookedcareer/pdfredact/internal/testpdf"
	"github.com/cookedcareer/pdfredact/pkg/pagetext"
)

func buildFixturePDF(t *testing.T, pages ...[]string) []byte {
	t.Helper()
	return testpdf.Doc(pages...)
}

// locateOne finds exactly one occurrence of literal on the page.
func locateOne(t *testing.T, data []byte, page int, literal string) pagetext.BoundingBox {
	t.Helper()
	doc, err := pagetext.Open(data)
	require.NoError(t, err)
	defer doc.Close()

	boxes, err := doc.Locate(page, literal)
	require.NoError(t, err)
	require.Len(t, boxes, 1)
	return boxes[0]
}

func pageText(t *testing.T, data []byte, page int) string {
	t.Helper()
	doc, err := pagetext.Open(data)
	require.NoError(t, err)
	defer doc.Close()

	text, err := doc.Text(page)
	require.NoError(t, err)
	return text
}

func TestApplyNoItems(t *testing.T) {
	data := buildFixturePDF(t, []string{"untouched"})

	out, err := Apply(data, nil)
	require.NoError(t, err)
	assert.Equal(t, data, out)

	// The returned slice is a copy, not an alias.
	out[0] ^= 0xFF
	assert.NotEqual(t, data[0], out[0])
}

func TestItemAction(t *testing.T) {
	assert.Equal(t, actionHardRedact, Item{}.action())
	assert.Equal(t, actionHardRedact, Item{ReplacementText: "   "}.action())
	assert.Equal(t, actionStyledReinsert, Item{ReplacementText: "REDACTED"}.action())
}

func TestHardRedactRemovesText(t *testing.T) {
	data := buildFixturePDF(t, []string{
		"Contact: jane.doe@example.com",
		"Keep this line intact",
	})
	box := locateOne(t, data, 0, "jane.doe@example.com")

	out, err := Apply(data, []Item{{
		Page:         0,
		BBox:         box,
		OriginalText: "jane.doe@example.com",
	}})
	require.NoError(t, err)

	text := pageText(t, out, 0)
	assert.NotContains(t, text, "jane.doe@example.com")
	assert.Contains(t, text, "Keep this line intact")
}

func TestHardRedactIsIdempotent(t *testing.T) {
	data := buildFixturePDF(t, []string{"secret: 555-123-4567"})
	box := locateOne(t, data, 0, "555-123-4567")
	item := Item{Page: 0, BBox: box}

	once, err := Apply(data, []Item{item})
	require.NoError(t, err)
	assert.NotContains(t, pageText(t, once, 0), "555-123-4567")

	// Reapplying the same redaction finds no text to remove and succeeds.
	twice, err := Apply(once, []Item{item})
	require.NoError(t, err)
	assert.NotContains(t, pageText(t, twice, 0), "555-123-4567")
}

func TestHardRedactRejectsBadPage(t *testing.T) {
	data := buildFixturePDF(t, []string{"one page only"})

	_, err := Apply(data, []Item{{Page: 5, BBox: pagetext.BoundingBox{X: 10, Y: 10, Width: 50, Height: 10}}})
	assert.Error(t, err)
}

func TestStyledReplacement(t *testing.T) {
	data := buildFixturePDF(t, []string{
		"Employer: Acme Corp",
		"Other content stays",
	})
	box := locateOne(t, data, 0, "Acme Corp")

	out, err := Apply(data, []Item{{
		Page:            0,
		BBox:            box,
		OriginalText:    "Acme Corp",
		ReplacementText: "Company A",
		Style: pagetext.TextStyle{
			FontName: "Helvetica",
			FontSize: 12,
		},
	}})
	require.NoError(t, err)

	// The original page rides inside an imported form XObject the text
	// extractor does not descend into, so only text drawn on top of the
	// template is visible here.
	text := pageText(t, out, 0)
	assert.Contains(t, text, "Company A")
}

func TestStyledReplacementOverflowFallback(t *testing.T) {
	data := buildFixturePDF(t, []string{"Name: Jane Doe"})
	box := locateOne(t, data, 0, "Jane Doe")

	// A box far too small for the replacement forces the single-run point
	// placement instead of boxed layout.
	out, err := Apply(data, []Item{{
		Page:            0,
		BBox:            pagetext.BoundingBox{X: box.X, Y: box.Y, Width: 4, Height: 3},
		OriginalText:    "Jane Doe",
		ReplacementText: "abcdefghijklmnopqrstuvwxyz",
	}})
	require.NoError(t, err)

	assert.Contains(t, pageText(t, out, 0), "abcdefghijklmnopqrstuvwxyz")
}

func TestStyledReplacementRejectsBadPage(t *testing.T) {
	data := buildFixturePDF(t, []string{"one page only"})

	_, err := Apply(data, []Item{{
		Page:            5,
		BBox:            pagetext.BoundingBox{X: 10, Y: 10, Width: 50, Height: 10},
		ReplacementText: "Candidate",
	}})
	assert.Error(t, err)
}

func TestStyledReplacementKeepsPageCount(t *testing.T) {
	data := buildFixturePDF(t,
		[]string{"replace me"},
		[]string{"second page"},
	)
	box := locateOne(t, data, 0, "replace me")

	out, err := Apply(data, []Item{{
		Page:            0,
		BBox:            box,
		ReplacementText: "[hidden]",
	}})
	require.NoError(t, err)

	doc, err := pagetext.Open(out)
	require.NoError(t, err)
	defer doc.Close()
	assert.Equal(t, 2, doc.NumPages())
	assert.Contains(t, pageText(t, out, 0), "[hidden]")
}

func TestMixedItems(t *testing.T) {
	data := buildFixturePDF(t, []string{
		"email: jane@example.com",
		"name: Jane Smith",
	})
	emailBox := locateOne(t, data, 0, "jane@example.com")
	nameBox := locateOne(t, data, 0, "Jane Smith")

	out, err := Apply(data, []Item{
		{Page: 0, BBox: emailBox}, // hard redact
		{Page: 0, BBox: nameBox, ReplacementText: "Candidate"},
	})
	require.NoError(t, err)

	text := pageText(t, out, 0)
	assert.NotContains(t, text, "jane@example.com")
	assert.Contains(t, text, "Candidate")
}

func TestColorToRGB(t *testing.T) {
	r, g, b := colorToRGB(0xFF8040)
	assert.Equal(t, 255, r)
	assert.Equal(t, 128, g)
	assert.Equal(t, 64, b)

	r, g, b = colorToRGB(0)
	assert.Equal(t, 0, r+g+b)
}

func TestResolveFontSize(t *testing.T) {
	box := pagetext.BoundingBox{Width: 100, Height: 16}

	// Extracted size wins.
	assert.Equal(t, 11.0, resolveFontSize(pagetext.TextStyle{FontSize: 11}, box))

	// Missing size estimates from box height.
	assert.Equal(t, 12.0, resolveFontSize(pagetext.TextStyle{}, box))

	// Clamped at both ends.
	assert.Equal(t, maxFontSize, resolveFontSize(pagetext.TextStyle{FontSize: 40}, box))
	assert.Equal(t, minFontSize, resolveFontSize(pagetext.TextStyle{FontSize: 2}, box))
}
