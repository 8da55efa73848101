// Package piidetect locates personally identifiable text in PDF documents
// and reports each physical occurrence with page-relative pixel coordinates.
//
// Two independent sources feed one coordinate space: a fixed battery of
// regular expressions (emails, phone numbers, profile URLs, generic websites)
// and an external entity-extraction collaborator (names, companies, schools,
// addresses). Both resolve their matches to rectangles through the page text
// index, so a string occurring twice on a page yields two detections. That
// fan-out is intentional.
//
// The collaborator is best-effort: any failure degrades the affected page to
// regex-only detections and is logged, never surfaced as an operation error.
package piidetect

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/cookedcareer/pdfredact/pkg/pagetext"
)

var log = logrus.StandardLogger()

// Detector runs the full detection pipeline over a document. A nil extractor
// yields regex-only detection.
type Detector struct {
	extractor EntityExtractor
}

// NewDetector builds a Detector. extractor may be nil.
func NewDetector(extractor EntityExtractor) *Detector {
	return &Detector{extractor: extractor}
}

// Detect indexes the document and emits all detections in page order. Each
// call opens its own document handle from the supplied bytes and closes it on
// every exit path; the input bytes are never mutated.
func (d *Detector) Detect(ctx context.Context, pdfData []byte) (*Result, error) {
	doc, err := pagetext.Open(pdfData)
	if err != nil {
		return nil, fmt.Errorf("detection failed: %w", err)
	}
	defer doc.Close()

	res := &Result{TotalPages: doc.NumPages()}
	for page := 0; page < doc.NumPages(); page++ {
		text, err := doc.Text(page)
		if err != nil {
			return nil, fmt.Errorf("detection failed on page %d: %w", page, err)
		}

		res.Detections = append(res.Detections, d.detectRegex(doc, page, text)...)

		if d.extractor != nil {
			res.Detections = append(res.Detections, d.detectEntities(ctx, doc, page, text)...)
		}
	}
	return res, nil
}

// detectRegex applies the pattern table to the page text and resolves every
// match to coordinates. Regex provenance is deterministic, confidence 1.0.
// Earlier patterns claim their character spans, so a phone number matched by
// one shape is not reported again by a looser one. A string matching more
// than once resolves only once; the coordinate fan-out in resolve already
// covers every occurrence.
func (d *Detector) detectRegex(doc *pagetext.Document, page int, text string) []Detection {
	var out []Detection
	var claimed [][2]int
	seen := make(map[string]bool)
	for _, pat := range piiPatterns {
		for _, loc := range pat.re.FindAllStringIndex(text, -1) {
			match := text[loc[0]:loc[1]]
			if pat.exclude != nil && pat.exclude(match) {
				continue
			}
			if overlapsAny(claimed, loc[0], loc[1]) {
				continue
			}
			claimed = append(claimed, [2]int{loc[0], loc[1]})
			if seen[match] {
				continue
			}
			seen[match] = true
			out = append(out, resolve(doc, page, match, pat.typ, ConfidenceRegex)...)
		}
	}
	return out
}

func overlapsAny(spans [][2]int, start, end int) bool {
	for _, s := range spans {
		if start < s[1] && s[0] < end {
			return true
		}
	}
	return false
}

// detectEntities asks the collaborator for categorized entities and resolves
// each to coordinates. Collaborator failure yields zero detections for the
// page; regex detections are unaffected.
func (d *Detector) detectEntities(ctx context.Context, doc *pagetext.Document, page int, text string) []Detection {
	ents, err := d.extractor.ExtractEntities(ctx, text)
	if err != nil {
		log.WithError(err).WithField("page", page).Warn("entity extraction failed, emitting no AI detections for page")
		return nil
	}

	var out []Detection
	for _, name := range ents.Names {
		out = append(out, resolve(doc, page, name, TypeName, ConfidenceName)...)
	}
	for _, company := range ents.Companies {
		out = append(out, resolve(doc, page, company, TypeCompany, ConfidenceCompany)...)
	}
	for _, school := range ents.Schools {
		out = append(out, resolve(doc, page, school, TypeSchool, ConfidenceSchool)...)
	}
	for _, address := range ents.Addresses {
		out = append(out, resolve(doc, page, address, TypeAddress, ConfidenceAddress)...)
	}
	return out
}

// resolve fans a literal string out into one detection per rectangle the page
// index finds. A string the index cannot locate (line wraps, ligature or
// whitespace variants) is dropped silently: match-or-drop, no fuzzy matching.
func resolve(doc *pagetext.Document, page int, literal string, typ Type, confidence float64) []Detection {
	boxes, err := doc.Locate(page, literal)
	if err != nil {
		log.WithError(err).WithField("page", page).Debug("coordinate search failed")
		return nil
	}
	if len(boxes) == 0 {
		log.WithFields(logrus.Fields{"page": page, "type": typ}).Debug("text not located on page, dropping")
		return nil
	}

	out := make([]Detection, 0, len(boxes))
	for _, box := range boxes {
		out = append(out, Detection{
			ID:         uuid.New().String(),
			Type:       typ,
			Text:       literal,
			Page:       page,
			BBox:       box,
			Confidence: confidence,
			Style:      doc.StyleAt(page, box),
		})
	}
	return out
}
