package redact

// Virtual execution of a page's content stream, tracking just enough state
// (CTM stack, text matrices, font size) to place each text-showing operation
// in device space. Intersecting show operations are replaced with
// advance-only TJ adjustments so the layout of the surviving text is
// unaffected.

const (
	// Glyph width estimate when no font metrics are at hand, in
	// thousandths of an em. 500 is the Type 1 convention for a missing
	// width.
	defaultGlyphWidth = 500.0

	// Fractions of the font size above and below the baseline a show
	// operation's box covers.
	ascentRatio  = 0.8
	descentRatio = 0.2
)

// matrix is a PDF transform [a b c d e f] applied to row vectors.
type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

func (m matrix) mul(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

func translate(tx, ty float64) matrix {
	return matrix{1, 0, 0, 1, tx, ty}
}

func (m matrix) apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// deviceRect is an axis-aligned box in device space, lower-left origin.
type deviceRect struct {
	x0, y0, x1, y1 float64
}

func (r deviceRect) intersects(o deviceRect) bool {
	return r.x0 < o.x1 && o.x0 < r.x1 && r.y0 < o.y1 && o.y0 < r.y1
}

type textTracer struct {
	ctm      matrix
	ctmStack []matrix
	tm       matrix // text matrix
	tlm      matrix // text line matrix
	fontSize float64
	leading  float64
}

func newTextTracer() *textTracer {
	return &textTracer{ctm: identity, tm: identity, tlm: identity}
}

func (t *textTracer) save()    { t.ctmStack = append(t.ctmStack, t.ctm) }
func (t *textTracer) restore() {
	if n := len(t.ctmStack); n > 0 {
		t.ctm = t.ctmStack[n-1]
		t.ctmStack = t.ctmStack[:n-1]
	}
}

func (t *textTracer) nextLine() {
	t.tlm = translate(0, -t.leading).mul(t.tlm)
	t.tm = t.tlm
}

func numberOperands(op operation) []float64 {
	var nums []float64
	for _, tok := range op.operands {
		if tok.kind == tokNumber {
			nums = append(nums, tok.num)
		}
	}
	return nums
}

// showWidth estimates the text-space width of a show operation's operands.
// String bytes count at the default glyph width; TJ numbers subtract their
// adjustment in thousandths of an em. The two-operand quoted show carries
// word and character spacing ahead of its string, which are not adjustments.
func (t *textTracer) showWidth(op operation) float64 {
	units := 0.0
	spacing := 0
	if op.operator == "\"" {
		spacing = 2
	}
	for _, tok := range op.operands {
		switch tok.kind {
		case tokString:
			units += float64(len(tok.text)) * defaultGlyphWidth
		case tokNumber:
			if spacing > 0 {
				spacing--
				continue
			}
			units -= tok.num
		}
	}
	return units / 1000.0 * t.fontSize
}

// showRect places a show operation in device space. Origin is the baseline,
// so the box spans one descent below and one ascent above it.
func (t *textTracer) showRect(width float64) deviceRect {
	trm := t.tm.mul(t.ctm)
	xs := make([]float64, 0, 4)
	ys := make([]float64, 0, 4)
	for _, c := range [4][2]float64{
		{0, -descentRatio * t.fontSize},
		{width, -descentRatio * t.fontSize},
		{0, ascentRatio * t.fontSize},
		{width, ascentRatio * t.fontSize},
	} {
		x, y := trm.apply(c[0], c[1])
		xs = append(xs, x)
		ys = append(ys, y)
	}
	return deviceRect{
		x0: min4(xs), y0: min4(ys),
		x1: max4(xs), y1: max4(ys),
	}
}

func min4(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func max4(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

// advanceOp builds a [n] TJ operation that moves the text position by width
// without drawing anything, keeping later runs in place.
func (t *textTracer) advanceOp(width float64) operation {
	adj := -width / t.fontSize * 1000.0
	raw := formatNumber(adj)
	return operation{
		operands: []token{
			{kind: tokArrayOpen, raw: []byte("[")},
			{kind: tokNumber, raw: []byte(raw), num: adj},
			{kind: tokArrayClose, raw: []byte("]")},
		},
		operator: "TJ",
	}
}

// rewriteOps virtually executes ops and replaces every text-showing operation
// whose device box intersects a target with an advance-only adjustment.
func rewriteOps(ops []operation, targets []deviceRect) []operation {
	t := newTextTracer()
	out := make([]operation, 0, len(ops))

	hit := func(r deviceRect) bool {
		for _, tgt := range targets {
			if r.intersects(tgt) {
				return true
			}
		}
		return false
	}

	for _, op := range ops {
		switch op.operator {
		case "q":
			t.save()
		case "Q":
			t.restore()
		case "cm":
			if n := numberOperands(op); len(n) == 6 {
				t.ctm = matrix{n[0], n[1], n[2], n[3], n[4], n[5]}.mul(t.ctm)
			}
		case "BT":
			t.tm, t.tlm = identity, identity
		case "Tf":
			if n := numberOperands(op); len(n) >= 1 {
				t.fontSize = n[len(n)-1]
			}
		case "TL":
			if n := numberOperands(op); len(n) == 1 {
				t.leading = n[0]
			}
		case "Tm":
			if n := numberOperands(op); len(n) == 6 {
				t.tlm = matrix{n[0], n[1], n[2], n[3], n[4], n[5]}
				t.tm = t.tlm
			}
		case "Td":
			if n := numberOperands(op); len(n) == 2 {
				t.tlm = translate(n[0], n[1]).mul(t.tlm)
				t.tm = t.tlm
			}
		case "TD":
			if n := numberOperands(op); len(n) == 2 {
				t.leading = -n[1]
				t.tlm = translate(n[0], n[1]).mul(t.tlm)
				t.tm = t.tlm
			}
		case "T*":
			t.nextLine()
		case "Tj", "TJ", "'", "\"":
			if op.operator == "'" || op.operator == "\"" {
				t.nextLine()
			}
			width := t.showWidth(op)
			rect := t.showRect(width)
			drop := width > 0 && t.fontSize > 0 && hit(rect)
			if drop {
				if op.operator == "'" || op.operator == "\"" {
					// Keep the line-advance side effect of the
					// quoted show operators.
					out = append(out, operation{operator: "T*"})
				}
				out = append(out, t.advanceOp(width))
			} else {
				out = append(out, op)
			}
			t.tm = translate(width, 0).mul(t.tm)
			continue
		}
		out = append(out, op)
	}
	return out
}
