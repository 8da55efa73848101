// Package redact applies replacement instructions to a PDF document.
//
// Each instruction either hard-redacts a rectangle (the text operations under
// it are physically removed from the page content stream and the area is
// filled black, so a later extraction pass finds no text there) or covers the
// rectangle with an opaque white box and reinserts styled replacement text in
// one of three canonical fonts.
//
// The engine works on in-memory copies only. Hard redactions rewrite the
// content streams of the original document; styled reinsertions then import
// every page of that intermediate document as a template and draw covers and
// replacement text on top. The caller's input bytes are never modified, and a
// whole-operation failure leaves nothing partially applied.
package redact

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/cookedcareer/pdfredact/pkg/pagetext"
	"github.com/cookedcareer/pdfredact/pkg/piidetect"
)

var log = logrus.StandardLogger()

// Item is one replacement instruction. An empty (whitespace-only)
// ReplacementText selects hard redaction; anything else selects styled
// reinsertion. The two states are resolved once, up front, and dispatched
// through a single switch.
type Item struct {
	Page            int                  `json:"page" yaml:"page"` // 0-indexed
	BBox            pagetext.BoundingBox `json:"bbox" yaml:"bbox"`
	OriginalText    string               `json:"original_text" yaml:"original_text"`
	ReplacementText string               `json:"replacement_text" yaml:"replacement_text"`
	Type            piidetect.Type       `json:"type" yaml:"type"`
	Style           pagetext.TextStyle   `json:"style" yaml:"style"`
}

// action is the resolved variant of an Item.
type action int

const (
	actionHardRedact action = iota
	actionStyledReinsert
)

func (it Item) action() action {
	if strings.TrimSpace(it.ReplacementText) == "" {
		return actionHardRedact
	}
	return actionStyledReinsert
}

// Font size bounds for reinserted text.
const (
	minFontSize = 6.0
	maxFontSize = 18.0
)

// Apply executes all items against a fresh copy of pdfData and returns the
// mutated document. Items are independent: one item failing to lay out does
// not abort the others. A document that cannot be opened fails the whole
// operation with nothing applied.
func Apply(pdfData []byte, items []Item) ([]byte, error) {
	if len(items) == 0 {
		return append([]byte(nil), pdfData...), nil
	}

	var hard, soft []Item
	for _, it := range items {
		switch it.action() {
		case actionHardRedact:
			hard = append(hard, it)
		case actionStyledReinsert:
			soft = append(soft, it)
		}
	}

	out := pdfData
	var err error

	if len(hard) > 0 {
		out, err = applyHardRedactions(out, hard)
		if err != nil {
			return nil, fmt.Errorf("hard redaction failed: %w", err)
		}
	}
	if len(soft) > 0 {
		out, err = applyStyledReinserts(out, soft)
		if err != nil {
			return nil, fmt.Errorf("replacement failed: %w", err)
		}
	}
	return out, nil
}

// colorToRGB unpacks a 24-bit packed RGB integer into 0..255 channels.
func colorToRGB(packed int) (r, g, b int) {
	return (packed >> 16) & 0xFF, (packed >> 8) & 0xFF, packed & 0xFF
}

// resolveFontSize picks the reinsertion size: the extracted size when set,
// otherwise an estimate from the box height, clamped to sane bounds either
// way.
func resolveFontSize(style pagetext.TextStyle, bbox pagetext.BoundingBox) float64 {
	size := style.FontSize
	if size <= 0 {
		size = bbox.Height * 0.75
	}
	if size < minFontSize {
		size = minFontSize
	}
	if size > maxFontSize {
		size = maxFontSize
	}
	return size
}
