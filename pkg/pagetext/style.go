package pagetext

import "strings"

// Style flag bits. The layout follows the common span-flag convention so
// styles survive round trips through serialized detection records.
const (
	FlagItalic     = 1 << 1
	FlagSerif      = 1 << 2
	FlagMonospaced = 1 << 3
	FlagBold       = 1 << 4
)

// FallbackFontName is reported when no span intersects the queried box.
const FallbackFontName = "Helvetica"

// TextStyle carries the font attributes of a text span. It is immutable once
// extracted and travels verbatim into replacement instructions so the visual
// style survives redaction.
type TextStyle struct {
	FontName string  `json:"font_name" yaml:"font_name"`
	FontSize float64 `json:"font_size" yaml:"font_size"`
	Color    int     `json:"color" yaml:"color"` // 24-bit packed RGB
	Flags    int     `json:"flags" yaml:"flags"`
}

// StyleAt returns the style of the first span that intersects bbox on the
// page (0-indexed). When nothing intersects, or the page cannot be indexed,
// it returns a defined fallback (Helvetica at 0.75 of the box height, black);
// it never fails.
//
// The underlying reader does not expose fill color or style flags per span,
// so color is always reported black and flags are synthesized from the font
// name.
func (d *Document) StyleAt(page int, bbox BoundingBox) TextStyle {
	idx, err := d.page(page)
	if err == nil {
		for _, ln := range idx.lines {
			for _, sp := range ln.spans {
				if sp.bbox.Intersects(bbox) {
					return TextStyle{
						FontName: sp.font,
						FontSize: sp.size,
						Color:    0,
						Flags:    flagsForFontName(sp.font),
					}
				}
			}
		}
	}
	return TextStyle{
		FontName: FallbackFontName,
		FontSize: bbox.Height * 0.75,
		Color:    0,
		Flags:    0,
	}
}

var (
	serifHints = []string{"times", "georgia", "garamond", "palatino", "baskerville", "cambria", "serif"}
	monoHints  = []string{"courier", "consolas", "monaco", "mono"}
)

func flagsForFontName(name string) int {
	lower := strings.ToLower(name)
	flags := 0
	if strings.Contains(lower, "italic") || strings.Contains(lower, "oblique") {
		flags |= FlagItalic
	}
	if strings.Contains(lower, "bold") || strings.Contains(lower, "black") || strings.Contains(lower, "heavy") {
		flags |= FlagBold
	}
	for _, h := range monoHints {
		if strings.Contains(lower, h) {
			return flags | FlagMonospaced
		}
	}
	for _, h := range serifHints {
		if strings.Contains(lower, h) {
			return flags | FlagSerif
		}
	}
	return flags
}
