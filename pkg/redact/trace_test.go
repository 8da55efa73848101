package redact

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewriteOpsDropsIntersectingText(t *testing.T) {
	stream := []byte("BT /F1 12 Tf 100 700 Td (secret) Tj ET")
	ops := scanContent(stream)

	// 6 chars at the 500/1000 em estimate and 12pt is 36pt wide, baseline
	// at y=700. A box over that region must catch the run.
	target := deviceRect{x0: 95, y0: 690, x1: 200, y1: 715}

	out := string(serializeOps(rewriteOps(ops, []deviceRect{target})))
	assert.NotContains(t, out, "secret")
	// The drop leaves an advance adjustment so later text keeps its place.
	assert.Contains(t, out, "TJ")
}

func TestRewriteOpsKeepsNonIntersectingText(t *testing.T) {
	stream := []byte("BT /F1 12 Tf 100 700 Td (public) Tj ET")
	ops := scanContent(stream)

	target := deviceRect{x0: 300, y0: 100, x1: 400, y1: 150}

	out := string(serializeOps(rewriteOps(ops, []deviceRect{target})))
	assert.Contains(t, out, "public")
}

func TestRewriteOpsDropsOnlyTargetedRun(t *testing.T) {
	stream := []byte("BT /F1 12 Tf 100 700 Td (secret) Tj 0 -24 Td (public) Tj ET")
	ops := scanContent(stream)

	target := deviceRect{x0: 95, y0: 690, x1: 200, y1: 715}

	out := string(serializeOps(rewriteOps(ops, []deviceRect{target})))
	assert.NotContains(t, out, "secret")
	assert.Contains(t, out, "public")
}

func TestRewriteOpsHonorsTextMatrix(t *testing.T) {
	// Tm places the run at (50, 50); a box around (100, 700) must miss it.
	stream := []byte("BT /F1 12 Tf 1 0 0 1 50 50 Tm (low) Tj ET")
	ops := scanContent(stream)

	miss := deviceRect{x0: 95, y0: 690, x1: 200, y1: 715}
	out := string(serializeOps(rewriteOps(ops, []deviceRect{miss})))
	assert.Contains(t, out, "low")

	hit := deviceRect{x0: 45, y0: 45, x1: 90, y1: 65}
	out = string(serializeOps(rewriteOps(ops, []deviceRect{hit})))
	assert.NotContains(t, out, "low")
}

func TestRewriteOpsHonorsCTM(t *testing.T) {
	// The cm shifts everything 200pt right, so the run lands near x=300.
	stream := []byte("q 1 0 0 1 200 0 cm BT /F1 12 Tf 100 700 Td (moved) Tj ET Q")
	ops := scanContent(stream)

	atOriginal := deviceRect{x0: 95, y0: 690, x1: 150, y1: 715}
	out := string(serializeOps(rewriteOps(ops, []deviceRect{atOriginal})))
	assert.Contains(t, out, "moved")

	atShifted := deviceRect{x0: 295, y0: 690, x1: 350, y1: 715}
	out = string(serializeOps(rewriteOps(ops, []deviceRect{atShifted})))
	assert.NotContains(t, out, "moved")
}

func TestRewriteOpsQuotedShowKeepsLineAdvance(t *testing.T) {
	stream := []byte("BT /F1 12 Tf 14 TL 100 700 Td (first) Tj (second) ' ET")
	ops := scanContent(stream)

	// Box over the second line, one leading below the first.
	target := deviceRect{x0: 95, y0: 676, x1: 200, y1: 701 - 14}

	out := string(serializeOps(rewriteOps(ops, []deviceRect{target})))
	assert.Contains(t, out, "first")
	assert.NotContains(t, out, "second")
	// The replacement must preserve the ' operator's line advance.
	assert.Contains(t, out, "T*")
}

func TestRewriteOpsTJAdjustments(t *testing.T) {
	stream := []byte("BT /F1 12 Tf 100 700 Td [(se) -100 (cret)] TJ ET")
	ops := scanContent(stream)

	target := deviceRect{x0: 95, y0: 690, x1: 200, y1: 715}
	out := string(serializeOps(rewriteOps(ops, []deviceRect{target})))
	assert.NotContains(t, out, "cret")
}

func TestShowWidthIgnoresQuotedSpacing(t *testing.T) {
	tr := newTextTracer()
	tr.fontSize = 12

	// The " operator takes word and character spacing ahead of its string;
	// neither operand is a TJ adjustment.
	ops := scanContent([]byte(`3 1.5 (abcd) "`))
	require.Len(t, ops, 1)
	require.Equal(t, `"`, ops[0].operator)
	assert.InDelta(t, 4*defaultGlyphWidth/1000.0*12, tr.showWidth(ops[0]), 1e-9)

	// TJ adjustments still subtract.
	ops = scanContent([]byte("[(abcd) -500] TJ"))
	require.Len(t, ops, 1)
	assert.InDelta(t, (4*defaultGlyphWidth+500)/1000.0*12, tr.showWidth(ops[0]), 1e-9)
}

func TestAdvanceOpWidth(t *testing.T) {
	tr := newTextTracer()
	tr.fontSize = 12

	op := tr.advanceOp(36) // 36pt at 12pt font is -3000 thousandths
	require.Equal(t, "TJ", op.operator)

	raw := string(serializeOps([]operation{op}))
	assert.True(t, strings.Contains(raw, "-3000"), "got %q", raw)
}

func TestMatrixMul(t *testing.T) {
	m := translate(10, 20).mul(translate(1, 2))
	x, y := m.apply(0, 0)
	assert.Equal(t, 11.0, x)
	assert.Equal(t, 22.0, y)
}
