package reader

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Operation is one content stream operator with its operands.
type Operation struct {
	Operator string
	Operands []Object
}

func (o Operation) String() string {
	parts := make([]string, 0, len(o.Operands)+1)
	for _, op := range o.Operands {
		parts = append(parts, op.String())
	}
	return strings.Join(append(parts, o.Operator), " ")
}

// ParseContent splits a decoded content stream into operations. Inline image
// data (BI ... ID ... EI) is skipped.
func ParseContent(data []byte) ([]Operation, error) {
	l := newLexer(data)
	l.content = true

	var ops []Operation
	var operands []Object
	for !l.atEOF() {
		obj, err := l.object()
		if err != nil {
			return nil, fmt.Errorf("reader: content stream: %w", err)
		}
		kw, ok := obj.(Keyword)
		if !ok {
			operands = append(operands, obj)
			continue
		}
		if kw == "ID" {
			if err := l.skipInlineImage(); err != nil {
				return nil, err
			}
		}
		ops = append(ops, Operation{Operator: string(kw), Operands: operands})
		operands = nil
	}
	return ops, nil
}

func (l *lexer) skipInlineImage() error {
	for l.pos+2 < len(l.data) {
		if isWhitespace(l.data[l.pos]) && l.data[l.pos+1] == 'E' && l.data[l.pos+2] == 'I' &&
			(l.pos+3 == len(l.data) || !isRegular(l.data[l.pos+3])) {
			l.pos += 3
			return nil
		}
		l.pos++
	}
	return fmt.Errorf("reader: content stream: unterminated inline image")
}

// Operations returns the page's content stream operations in order.
func (p *Page) Operations() ([]Operation, error) {
	data, err := p.ContentStream()
	if err != nil {
		return nil, err
	}
	return ParseContent(data)
}

// TextShow is one string painted by a text-showing operator, positioned in
// user space (points from the bottom-left corner of the page).
type TextShow struct {
	Font string  // font resource name, e.g. "F1"
	Size float64 // as set by Tf, before any scaling
	X, Y float64 // start of the string
	Text string
}

// matrix is [a b c d e f], the PDF affine transform.
type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

// mul returns m × n.
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

// TextShows interprets the page's text operators and returns every string
// shown, in paint order. Strings are decoded as WinAnsiEncoding. Glyph
// advances are not tracked, so consecutive strings from one Tj sequence
// report the same start position.
func (p *Page) TextShows() ([]TextShow, error) {
	ops, err := p.Operations()
	if err != nil {
		return nil, err
	}
	return textShows(ops), nil
}

func textShows(ops []Operation) []TextShow {
	var (
		out     []TextShow
		ctm     = identity
		stack   []matrix
		tm, lm  = identity, identity
		font    string
		size    float64
		leading float64
	)
	nums := func(o Operation, n int) ([]float64, bool) {
		if len(o.Operands) < n {
			return nil, false
		}
		v := make([]float64, n)
		for i, x := range o.Operands[len(o.Operands)-n:] {
			f, ok := Number(x)
			if !ok {
				return nil, false
			}
			v[i] = f
		}
		return v, true
	}
	nextLine := func(tx, ty float64) {
		lm = translate(tx, ty).mul(lm)
		tm = lm
	}
	show := func(s String) {
		pos := tm.mul(ctm)
		out = append(out, TextShow{
			Font: font,
			Size: size,
			X:    pos[4],
			Y:    pos[5],
			Text: decodeWinAnsi(s.Value),
		})
	}

	for _, o := range ops {
		switch o.Operator {
		case "q":
			stack = append(stack, ctm)
		case "Q":
			if n := len(stack); n > 0 {
				ctm, stack = stack[n-1], stack[:n-1]
			}
		case "cm":
			if v, ok := nums(o, 6); ok {
				ctm = matrix(v).mul(ctm)
			}
		case "BT":
			tm, lm = identity, identity
		case "Tf":
			if len(o.Operands) == 2 {
				if n, ok := o.Operands[0].(Name); ok {
					font = string(n)
				}
				size, _ = Number(o.Operands[1])
			}
		case "TL":
			if v, ok := nums(o, 1); ok {
				leading = v[0]
			}
		case "Td":
			if v, ok := nums(o, 2); ok {
				nextLine(v[0], v[1])
			}
		case "TD":
			if v, ok := nums(o, 2); ok {
				leading = -v[1]
				nextLine(v[0], v[1])
			}
		case "Tm":
			if v, ok := nums(o, 6); ok {
				tm = matrix(v)
				lm = tm
			}
		case "T*":
			nextLine(0, -leading)
		case "Tj":
			if s, ok := lastString(o); ok {
				show(s)
			}
		case "'", "\"":
			nextLine(0, -leading)
			if s, ok := lastString(o); ok {
				show(s)
			}
		case "TJ":
			if len(o.Operands) == 1 {
				arr, _ := o.Operands[0].(Array)
				var text []byte
				for _, e := range arr {
					if s, ok := e.(String); ok {
						text = append(text, s.Value...)
					}
				}
				show(String{Value: text})
			}
		}
	}
	return out
}

func lastString(o Operation) (String, bool) {
	if len(o.Operands) == 0 {
		return String{}, false
	}
	s, ok := o.Operands[len(o.Operands)-1].(String)
	return s, ok
}

func decodeWinAnsi(b []byte) string {
	s, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}

// ExtractText returns the page's text, one shown string per line.
func (p *Page) ExtractText() (string, error) {
	shows, err := p.TextShows()
	if err != nil {
		return "", err
	}
	lines := make([]string, len(shows))
	for i, s := range shows {
		lines[i] = s.Text
	}
	return strings.Join(lines, "\n"), nil
}
