package piidetect

import (
	"regexp"
	"strings"
)

// pattern binds one compiled expression to the detection type it produces.
// An optional exclude filter rejects individual matches; Go's RE2 engine has
// no negative lookahead, so exclusions the original patterns expressed inline
// live here instead.
type pattern struct {
	typ     Type
	re      *regexp.Regexp
	exclude func(match string) bool
}

// piiPatterns is applied in order per page; detections are emitted in pattern
// order, then rectangle order. New PII categories are added here, not in
// control flow.
var piiPatterns = []pattern{
	{typ: TypeEmail, re: regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)},
	{typ: TypePhone, re: regexp.MustCompile(`\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`)},
	{typ: TypePhone, re: regexp.MustCompile(`\(\d{3}\)\s?\d{3}[-.\s]?\d{4}\b`)},
	{typ: TypePhone, re: regexp.MustCompile(`\+\d{1,3}\s?\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`)},
	{typ: TypeLinkedIn, re: regexp.MustCompile(`(?i)linkedin\.com/in/[\w-]+`)},
	{typ: TypeGitHub, re: regexp.MustCompile(`(?i)github\.com/[\w-]+`)},
	{
		typ: TypeWebsite,
		re:  regexp.MustCompile(`(?i)https?://[\w.-]+\.\w+[^\s]*`),
		exclude: func(match string) bool {
			lower := strings.ToLower(match)
			return strings.Contains(lower, "linkedin") || strings.Contains(lower, "github")
		},
	},
}
