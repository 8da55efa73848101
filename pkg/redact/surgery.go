package redact

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/cookedcareer/pdfredact/pkg/pagetext"
)

// applyHardRedactions rewrites the content streams of every page that has a
// hard-redaction item: text-showing operations under an item's box are
// removed from the stream and a black rectangle is painted over the box. The
// text is gone from the file afterwards, not merely covered.
func applyHardRedactions(inputPDFData []byte, items []Item) ([]byte, error) {
	ctx, err := api.ReadContext(bytes.NewReader(inputPDFData), model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("failed to parse input PDF: %w", err)
	}

	byPage := make(map[int][]Item)
	for _, it := range items {
		if it.Page < 0 || it.Page >= ctx.PageCount {
			return nil, fmt.Errorf("redaction targets page %d of a %d page document", it.Page, ctx.PageCount)
		}
		byPage[it.Page] = append(byPage[it.Page], it)
	}

	for page, pageItems := range byPage {
		if err := redactPage(ctx, page, pageItems); err != nil {
			return nil, fmt.Errorf("failed to redact page %d: %w", page, err)
		}
	}

	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		return nil, fmt.Errorf("failed to write redacted PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func redactPage(ctx *model.Context, page int, items []Item) error {
	pageDict, _, inhPAttrs, err := ctx.PageDict(page+1, false)
	if err != nil {
		return fmt.Errorf("failed to resolve page dict: %w", err)
	}
	mediaBox := inhPAttrs.MediaBox
	if mediaBox == nil {
		return fmt.Errorf("page has no media box")
	}

	content, err := pageContent(ctx, pageDict)
	if err != nil {
		return err
	}

	targets := make([]deviceRect, 0, len(items))
	for _, it := range items {
		targets = append(targets, deviceBox(it.BBox, mediaBox))
	}

	ops := rewriteOps(scanContent(content), targets)
	rewritten := serializeOps(ops)

	// Black fill over each redacted box, in a balanced graphics state.
	var fill bytes.Buffer
	for _, r := range targets {
		fmt.Fprintf(&fill, "q 0 g %s %s %s %s re f Q\n",
			formatNumber(r.x0), formatNumber(r.y0),
			formatNumber(r.x1-r.x0), formatNumber(r.y1-r.y0))
	}
	rewritten = append(rewritten, fill.Bytes()...)

	sd, err := ctx.NewStreamDictForBuf(rewritten)
	if err != nil {
		return fmt.Errorf("failed to build content stream: %w", err)
	}
	if err := sd.Encode(); err != nil {
		return fmt.Errorf("failed to encode content stream: %w", err)
	}
	ir, err := ctx.IndRefForNewObject(*sd)
	if err != nil {
		return fmt.Errorf("failed to register content stream: %w", err)
	}
	pageDict.Update("Contents", *ir)
	return nil
}

// pageContent decodes and concatenates the page's content stream or streams.
func pageContent(ctx *model.Context, pageDict types.Dict) ([]byte, error) {
	obj, found := pageDict.Find("Contents")
	if !found {
		return nil, nil
	}

	resolved, err := ctx.Dereference(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve page contents: %w", err)
	}

	// Contents is either a single stream or an array of streams that
	// together form one logical stream.
	if arr, ok := resolved.(types.Array); ok {
		var content []byte
		for _, entry := range arr {
			part, err := streamContent(ctx, entry)
			if err != nil {
				return nil, err
			}
			content = append(content, part...)
			content = append(content, '\n')
		}
		return content, nil
	}
	return streamContent(ctx, obj)
}

func streamContent(ctx *model.Context, obj types.Object) ([]byte, error) {
	sd, _, err := ctx.DereferenceStreamDict(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve content stream: %w", err)
	}
	if sd == nil {
		return nil, nil
	}
	if err := sd.Decode(); err != nil {
		return nil, fmt.Errorf("failed to decode content stream: %w", err)
	}
	return sd.Content, nil
}

// deviceBox converts a top-left-origin box into device space, which has its
// origin at the media box's lower-left corner.
func deviceBox(b pagetext.BoundingBox, mediaBox *types.Rectangle) deviceRect {
	pageHeight := mediaBox.Height()
	return deviceRect{
		x0: mediaBox.LL.X + b.X,
		y0: mediaBox.LL.Y + pageHeight - b.Y - b.Height,
		x1: mediaBox.LL.X + b.X + b.Width,
		y1: mediaBox.LL.Y + pageHeight - b.Y,
	}
}
