package docsource

import (
	"strconv"
)

// textRun is one positioned show-text operation in PDF user space
// (bottom-left origin). Width is approximated from the font size since
// the scanner does not load font metrics.
type textRun struct {
	X, Y     float64
	FontSize float64
	Text     string
}

// contentScanner walks a decoded PDF content stream and collects the
// operators that matter here: straight line segments (m/l pairs),
// rectangle outlines (re), and positioned show-text runs (Tm/Td + Tj/TJ).
// Bezier curves, clipping and image operators are skipped; a curved
// stroke is never a table ruling.
//
// Operand handling is deliberately loose: operands are pushed onto a
// stack and the stack is cleared after every operator, so malformed or
// unsupported operators degrade to "no output" instead of an error.
type contentScanner struct {
	data []byte
	pos  int

	stack   []float64
	strings []string

	curX, curY     float64
	haveCur        bool
	startX, startY float64

	textX, textY float64
	lineX, lineY float64
	fontSize     float64
	leading      float64

	segments []Segment
	texts    []textRun
}

func newContentScanner(data []byte) *contentScanner {
	return &contentScanner{data: data}
}

// run scans the whole stream; collected segments and text runs are in
// PDF user-space coordinates (bottom-left origin, y up).
func (cs *contentScanner) run() {
	for cs.pos < len(cs.data) {
		cs.skipFiller()
		if cs.pos >= len(cs.data) {
			break
		}
		c := cs.data[cs.pos]
		switch {
		case c == '%':
			cs.skipLine()
		case c == '(':
			cs.skipLiteralString()
		case c == '<':
			cs.skipAngle()
		case c == '[' || c == ']' || c == '{' || c == '}':
			cs.pos++
		case c == '/':
			cs.skipName()
		case isNumberStart(c):
			cs.readNumber()
		default:
			cs.readOperator()
		}
	}
}

func (cs *contentScanner) skipFiller() {
	for cs.pos < len(cs.data) && isWhitespace(cs.data[cs.pos]) {
		cs.pos++
	}
}

func (cs *contentScanner) skipLine() {
	for cs.pos < len(cs.data) && cs.data[cs.pos] != '\n' && cs.data[cs.pos] != '\r' {
		cs.pos++
	}
}

func (cs *contentScanner) skipLiteralString() {
	depth := 0
	var out []byte
	for cs.pos < len(cs.data) {
		c := cs.data[cs.pos]
		switch c {
		case '\\':
			cs.pos++
			if cs.pos < len(cs.data) {
				switch cs.data[cs.pos] {
				case 'n':
					out = append(out, '\n')
				case 'r':
					out = append(out, '\r')
				case 't':
					out = append(out, '\t')
				default:
					out = append(out, cs.data[cs.pos])
				}
			}
		case '(':
			if depth > 0 {
				out = append(out, c)
			}
			depth++
		case ')':
			depth--
			if depth == 0 {
				cs.pos++
				cs.strings = append(cs.strings, string(out))
				return
			}
			out = append(out, c)
		default:
			out = append(out, c)
		}
		cs.pos++
	}
	cs.strings = append(cs.strings, string(out))
}

func (cs *contentScanner) skipAngle() {
	// "<<" opens a dictionary, "<...>" is a hex string; both are
	// irrelevant to path geometry.
	if cs.pos+1 < len(cs.data) && cs.data[cs.pos+1] == '<' {
		cs.pos += 2
		return
	}
	for cs.pos < len(cs.data) && cs.data[cs.pos] != '>' {
		cs.pos++
	}
	if cs.pos < len(cs.data) {
		cs.pos++
	}
}

func (cs *contentScanner) skipName() {
	cs.pos++
	for cs.pos < len(cs.data) && !isDelimiter(cs.data[cs.pos]) && !isWhitespace(cs.data[cs.pos]) {
		cs.pos++
	}
}

func (cs *contentScanner) readNumber() {
	start := cs.pos
	cs.pos++
	for cs.pos < len(cs.data) {
		c := cs.data[cs.pos]
		if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '+' {
			cs.pos++
			continue
		}
		break
	}
	if v, err := strconv.ParseFloat(string(cs.data[start:cs.pos]), 64); err == nil {
		cs.stack = append(cs.stack, v)
	}
}

func (cs *contentScanner) readOperator() {
	start := cs.pos
	for cs.pos < len(cs.data) && !isDelimiter(cs.data[cs.pos]) && !isWhitespace(cs.data[cs.pos]) {
		cs.pos++
	}
	cs.applyOperator(string(cs.data[start:cs.pos]))
	cs.stack = cs.stack[:0]
	cs.strings = cs.strings[:0]
}

func (cs *contentScanner) applyOperator(op string) {
	switch op {
	case "m":
		if x, y, ok := cs.pop2(); ok {
			cs.curX, cs.curY = x, y
			cs.startX, cs.startY = x, y
			cs.haveCur = true
		}
	case "l":
		if x, y, ok := cs.pop2(); ok && cs.haveCur {
			cs.segments = append(cs.segments, Segment{X0: cs.curX, Y0: cs.curY, X1: x, Y1: y})
			cs.curX, cs.curY = x, y
		}
	case "h":
		if cs.haveCur {
			cs.segments = append(cs.segments, Segment{X0: cs.curX, Y0: cs.curY, X1: cs.startX, Y1: cs.startY})
			cs.curX, cs.curY = cs.startX, cs.startY
		}
	case "re":
		if len(cs.stack) >= 4 {
			n := len(cs.stack)
			x, y := cs.stack[n-4], cs.stack[n-3]
			w, h := cs.stack[n-2], cs.stack[n-1]
			cs.segments = append(cs.segments,
				Segment{X0: x, Y0: y, X1: x + w, Y1: y},
				Segment{X0: x + w, Y0: y, X1: x + w, Y1: y + h},
				Segment{X0: x + w, Y0: y + h, X1: x, Y1: y + h},
				Segment{X0: x, Y0: y + h, X1: x, Y1: y},
			)
		}
	case "c", "v", "y":
		// Curves move the current point but contribute no ruling.
		if len(cs.stack) >= 2 {
			n := len(cs.stack)
			cs.curX, cs.curY = cs.stack[n-2], cs.stack[n-1]
		}

	case "BT":
		cs.textX, cs.textY = 0, 0
		cs.lineX, cs.lineY = 0, 0
	case "Tf":
		if len(cs.stack) >= 1 {
			cs.fontSize = cs.stack[len(cs.stack)-1]
		}
	case "TL":
		if len(cs.stack) >= 1 {
			cs.leading = cs.stack[len(cs.stack)-1]
		}
	case "Tm":
		// Only the translation part of the text matrix is kept;
		// rotated text never belongs to the schedule grid.
		if len(cs.stack) >= 6 {
			n := len(cs.stack)
			cs.lineX, cs.lineY = cs.stack[n-2], cs.stack[n-1]
			cs.textX, cs.textY = cs.lineX, cs.lineY
		}
	case "Td":
		if x, y, ok := cs.pop2(); ok {
			cs.lineX += x
			cs.lineY += y
			cs.textX, cs.textY = cs.lineX, cs.lineY
		}
	case "TD":
		if x, y, ok := cs.pop2(); ok {
			cs.leading = -y
			cs.lineX += x
			cs.lineY += y
			cs.textX, cs.textY = cs.lineX, cs.lineY
		}
	case "T*":
		cs.lineY -= cs.lineLeading()
		cs.textX, cs.textY = cs.lineX, cs.lineY
	case "Tj", "'":
		if op == "'" {
			cs.lineY -= cs.lineLeading()
			cs.textX, cs.textY = cs.lineX, cs.lineY
		}
		cs.showStrings()
	case "\"":
		cs.lineY -= cs.lineLeading()
		cs.textX, cs.textY = cs.lineX, cs.lineY
		cs.showStrings()
	case "TJ":
		cs.showStrings()
	}
}

func (cs *contentScanner) lineLeading() float64 {
	if cs.leading > 0 {
		return cs.leading
	}
	if cs.fontSize > 0 {
		return cs.fontSize
	}
	return 12.0
}

// showStrings emits the pending string operands as one text run at the
// current text position. Glyph widths are unknown without font metrics,
// so the run width is approximated at half the font size per character.
func (cs *contentScanner) showStrings() {
	var joined string
	for _, s := range cs.strings {
		joined += s
	}
	if joined == "" {
		return
	}
	size := cs.fontSize
	if size <= 0 {
		size = 12.0
	}
	cs.texts = append(cs.texts, textRun{
		X:        cs.textX,
		Y:        cs.textY,
		FontSize: size,
		Text:     joined,
	})
	cs.textX += 0.5 * size * float64(len(joined))
}

func (cs *contentScanner) pop2() (x, y float64, ok bool) {
	if len(cs.stack) < 2 {
		return 0, 0, false
	}
	n := len(cs.stack)
	return cs.stack[n-2], cs.stack[n-1], true
}

func isWhitespace(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isNumberStart(c byte) bool {
	return (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '+'
}
