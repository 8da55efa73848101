package redact

import (
	"bytes"
	"strconv"
)

// A content stream is scanned into operations: each operation is the raw
// tokens of its operands followed by the operator keyword. Tokens keep their
// original bytes so that re-serializing an untouched operation is lossless.

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokName
	tokString    // literal (...) or hex <...>
	tokArrayOpen // [
	tokArrayClose
	tokDictOpen // <<
	tokDictClose
	tokKeyword  // true, false, null
	tokOperator // everything else ending an operation
	tokInline   // opaque BI ... EI inline image
)

type token struct {
	kind tokenKind
	raw  []byte
	num  float64 // valid for tokNumber
	text []byte  // decoded bytes for tokString literals
}

// operation is one operand list plus its operator.
type operation struct {
	operands []token
	operator string
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isWhitespace(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

// scanContent splits a decoded content stream into operations. Inline images
// (BI ... EI) are kept as single opaque operations so their binary payload
// survives re-serialization untouched.
func scanContent(data []byte) []operation {
	var ops []operation
	var operands []token

	i := 0
	for i < len(data) {
		c := data[i]
		switch {
		case isWhitespace(c):
			i++
		case c == '%':
			for i < len(data) && data[i] != '\n' && data[i] != '\r' {
				i++
			}
		case c == '(':
			raw, text, next := scanLiteralString(data, i)
			operands = append(operands, token{kind: tokString, raw: raw, text: text})
			i = next
		case c == '<':
			if i+1 < len(data) && data[i+1] == '<' {
				operands = append(operands, token{kind: tokDictOpen, raw: data[i : i+2]})
				i += 2
				break
			}
			raw, text, next := scanHexString(data, i)
			operands = append(operands, token{kind: tokString, raw: raw, text: text})
			i = next
		case c == '>':
			if i+1 < len(data) && data[i+1] == '>' {
				operands = append(operands, token{kind: tokDictClose, raw: data[i : i+2]})
				i += 2
			} else {
				i++ // stray '>', skip
			}
		case c == '[':
			operands = append(operands, token{kind: tokArrayOpen, raw: data[i : i+1]})
			i++
		case c == ']':
			operands = append(operands, token{kind: tokArrayClose, raw: data[i : i+1]})
			i++
		case c == '/':
			start := i
			i++
			for i < len(data) && !isWhitespace(data[i]) && !isDelimiter(data[i]) {
				i++
			}
			operands = append(operands, token{kind: tokName, raw: data[start:i]})
		case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
			start := i
			i++
			for i < len(data) && !isWhitespace(data[i]) && !isDelimiter(data[i]) {
				i++
			}
			raw := data[start:i]
			n, err := strconv.ParseFloat(string(raw), 64)
			if err != nil {
				// Not a number after all, treat as an operator keyword.
				ops = append(ops, operation{operands: operands, operator: string(raw)})
				operands = nil
				break
			}
			operands = append(operands, token{kind: tokNumber, raw: raw, num: n})
		default:
			start := i
			for i < len(data) && !isWhitespace(data[i]) && !isDelimiter(data[i]) {
				i++
			}
			word := string(data[start:i])
			switch word {
			case "true", "false", "null":
				operands = append(operands, token{kind: tokKeyword, raw: data[start:i]})
			case "BI":
				raw, next := scanInlineImage(data, start)
				operands = append(operands, token{kind: tokInline, raw: raw})
				// The raw blob already carries BI through EI, so the
				// operation needs no operator of its own.
				ops = append(ops, operation{operands: operands, operator: ""})
				operands = nil
				i = next
			default:
				ops = append(ops, operation{operands: operands, operator: word})
				operands = nil
			}
		}
	}
	if len(operands) > 0 {
		// Trailing operands without an operator, keep them so nothing is lost.
		ops = append(ops, operation{operands: operands, operator: ""})
	}
	return ops
}

// scanLiteralString consumes a (...) string starting at pos, honoring nested
// parentheses and backslash escapes. Returns raw bytes, decoded content and
// the index past the closing paren.
func scanLiteralString(data []byte, pos int) (raw, text []byte, next int) {
	depth := 0
	var decoded []byte
	i := pos
	for i < len(data) {
		c := data[i]
		switch c {
		case '\\':
			if i+1 < len(data) {
				e := data[i+1]
				switch e {
				case 'n':
					decoded = append(decoded, '\n')
				case 'r':
					decoded = append(decoded, '\r')
				case 't':
					decoded = append(decoded, '\t')
				case 'b':
					decoded = append(decoded, '\b')
				case 'f':
					decoded = append(decoded, '\f')
				case '(', ')', '\\':
					decoded = append(decoded, e)
				default:
					if e >= '0' && e <= '7' {
						val, n := scanOctal(data, i+1)
						decoded = append(decoded, val)
						i += n - 1
					} else {
						decoded = append(decoded, e)
					}
				}
				i += 2
				continue
			}
			i++
		case '(':
			if depth > 0 {
				decoded = append(decoded, c)
			}
			depth++
			i++
		case ')':
			depth--
			if depth == 0 {
				return data[pos : i+1], decoded, i + 1
			}
			decoded = append(decoded, c)
			i++
		default:
			if depth > 0 {
				decoded = append(decoded, c)
			}
			i++
		}
	}
	return data[pos:], decoded, len(data)
}

func scanOctal(data []byte, pos int) (byte, int) {
	val := 0
	n := 0
	for n < 3 && pos+n < len(data) && data[pos+n] >= '0' && data[pos+n] <= '7' {
		val = val*8 + int(data[pos+n]-'0')
		n++
	}
	return byte(val), n
}

// scanHexString consumes a <...> string starting at pos.
func scanHexString(data []byte, pos int) (raw, text []byte, next int) {
	i := pos + 1
	var nibbles []byte
	for i < len(data) && data[i] != '>' {
		c := data[i]
		if !isWhitespace(c) {
			nibbles = append(nibbles, c)
		}
		i++
	}
	if i < len(data) {
		i++ // consume '>'
	}
	if len(nibbles)%2 == 1 {
		nibbles = append(nibbles, '0')
	}
	decoded := make([]byte, 0, len(nibbles)/2)
	for j := 0; j+1 < len(nibbles); j += 2 {
		decoded = append(decoded, hexNibble(nibbles[j])<<4|hexNibble(nibbles[j+1]))
	}
	return data[pos:i], decoded, i
}

func hexNibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}

// scanInlineImage captures everything from BI through the terminating EI as
// one raw blob. The payload is binary so we only match EI at a whitespace
// boundary.
func scanInlineImage(data []byte, start int) (raw []byte, next int) {
	i := start
	for i+1 < len(data) {
		if data[i] == 'E' && data[i+1] == 'I' &&
			(i == 0 || isWhitespace(data[i-1])) &&
			(i+2 >= len(data) || isWhitespace(data[i+2]) || isDelimiter(data[i+2])) {
			return data[start : i+2], i + 2
		}
		i++
	}
	return data[start:], len(data)
}

// serializeOps re-emits operations as a content stream. Unmodified tokens are
// written with their original bytes.
func serializeOps(ops []operation) []byte {
	var buf bytes.Buffer
	for _, op := range ops {
		for _, t := range op.operands {
			if buf.Len() > 0 {
				buf.WriteByte(' ')
			}
			buf.Write(t.raw)
		}
		if op.operator != "" {
			if buf.Len() > 0 {
				buf.WriteByte(' ')
			}
			buf.WriteString(op.operator)
		}
	}
	buf.WriteByte('\n')
	return buf.Bytes()
}

// formatNumber renders a float the way content streams expect, trimming
// trailing zeros.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
