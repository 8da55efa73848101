package redact

import "strings"

// CanonicalFont is one of the three renderer-native font families all source
// fonts are mapped onto before reinsertion. The values are the base-14 family
// names the renderer accepts directly.
type CanonicalFont string

const (
	FontSans  CanonicalFont = "Helvetica"
	FontSerif CanonicalFont = "Times"
	FontMono  CanonicalFont = "Courier"
)

// fontClasses is checked in order; the first class containing a keyword of
// the font name wins. New font families are added here, not in control flow.
var fontClasses = []struct {
	font     CanonicalFont
	keywords []string
}{
	{FontSans, []string{"arial", "helvetica", "calibri", "verdana", "tahoma", "segoe", "sans", "gill"}},
	{FontSerif, []string{"times", "georgia", "garamond", "palatino", "baskerville", "cambria", "serif"}},
	{FontMono, []string{"courier", "consolas", "monaco", "monospace", "mono"}},
}

// Classify maps an arbitrary font family string to a canonical renderer font.
// It is total and deterministic: unknown families map to sans.
func Classify(fontName string) CanonicalFont {
	lower := strings.ToLower(fontName)
	for _, class := range fontClasses {
		for _, kw := range class.keywords {
			if strings.Contains(lower, kw) {
				return class.font
			}
		}
	}
	return FontSans
}
