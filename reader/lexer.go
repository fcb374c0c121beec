package reader

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
)

// lexer reads PDF objects from a byte slice. In content mode references are
// not recognised and bare words come back as operator Keywords.
type lexer struct {
	data    []byte
	pos     int
	content bool
}

func newLexer(data []byte) *lexer {
	return &lexer{data: data}
}

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == 0
}

func isDelimiter(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isRegular(b byte) bool {
	return !isWhitespace(b) && !isDelimiter(b)
}

// skipSpace advances past whitespace and comments.
func (l *lexer) skipSpace() {
	for l.pos < len(l.data) {
		switch b := l.data[l.pos]; {
		case isWhitespace(b):
			l.pos++
		case b == '%':
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
		default:
			return
		}
	}
}

func (l *lexer) atEOF() bool {
	l.skipSpace()
	return l.pos >= len(l.data)
}

// word reads a run of regular characters.
func (l *lexer) word() string {
	l.skipSpace()
	start := l.pos
	for l.pos < len(l.data) && isRegular(l.data[l.pos]) {
		l.pos++
	}
	return string(l.data[start:l.pos])
}

// hasPrefix reports whether the unread input starts with s.
func (l *lexer) hasPrefix(s string) bool {
	return bytes.HasPrefix(l.data[l.pos:], []byte(s))
}

// object parses the next object.
func (l *lexer) object() (Object, error) {
	l.skipSpace()
	if l.pos >= len(l.data) {
		return nil, io.ErrUnexpectedEOF
	}

	switch b := l.data[l.pos]; {
	case l.hasPrefix("<<"):
		return l.dict()
	case b == '<':
		return l.hexString()
	case b == '(':
		return l.literalString()
	case b == '/':
		return l.name(), nil
	case b == '[':
		return l.array()
	case b >= '0' && b <= '9', b == '+', b == '-', b == '.':
		return l.number()
	case isRegular(b), b == '{', b == '}':
		return l.keyword()
	default:
		return nil, fmt.Errorf("reader: unexpected %q at offset %d", b, l.pos)
	}
}

func (l *lexer) keyword() (Object, error) {
	if b := l.data[l.pos]; b == '{' || b == '}' {
		l.pos++
		return Keyword(string(b)), nil
	}
	switch w := l.word(); w {
	case "true":
		return Boolean(true), nil
	case "false":
		return Boolean(false), nil
	case "null":
		return Null{}, nil
	default:
		return Keyword(w), nil
	}
}

func (l *lexer) name() Name {
	l.pos++ // '/'
	var buf bytes.Buffer
	for l.pos < len(l.data) && isRegular(l.data[l.pos]) {
		b := l.data[l.pos]
		if b == '#' && l.pos+2 < len(l.data) {
			hi, lo := unhex(l.data[l.pos+1]), unhex(l.data[l.pos+2])
			if hi >= 0 && lo >= 0 {
				buf.WriteByte(byte(hi<<4 | lo))
				l.pos += 3
				continue
			}
		}
		buf.WriteByte(b)
		l.pos++
	}
	return Name(buf.String())
}

// number parses an integer or real. Outside content streams "N G R" is read
// as a reference.
func (l *lexer) number() (Object, error) {
	start := l.pos
	tok := l.word()
	i, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(tok, 64)
		if ferr != nil {
			return nil, fmt.Errorf("reader: invalid number %q at offset %d", tok, start)
		}
		return Real(f), nil
	}
	if l.content || i < 0 {
		return Integer(i), nil
	}

	after := l.pos
	if gen, err := strconv.Atoi(l.word()); err == nil && gen >= 0 {
		if l.word() == "R" {
			return Reference{Number: int(i), Generation: gen}, nil
		}
	}
	l.pos = after
	return Integer(i), nil
}

func (l *lexer) literalString() (String, error) {
	l.pos++ // '('
	var buf bytes.Buffer
	depth := 1
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		l.pos++
		switch b {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return String{Value: buf.Bytes()}, nil
			}
		case '\\':
			if l.pos >= len(l.data) {
				return String{}, fmt.Errorf("reader: unterminated string escape")
			}
			b = l.data[l.pos]
			l.pos++
			switch b {
			case 'n':
				b = '\n'
			case 'r':
				b = '\r'
			case 't':
				b = '\t'
			case 'b':
				b = '\b'
			case 'f':
				b = '\f'
			case '\r':
				if l.pos < len(l.data) && l.data[l.pos] == '\n' {
					l.pos++
				}
				continue
			case '\n':
				continue
			case '0', '1', '2', '3', '4', '5', '6', '7':
				oct := int(b - '0')
				for k := 0; k < 2 && l.pos < len(l.data) && l.data[l.pos] >= '0' && l.data[l.pos] <= '7'; k++ {
					oct = oct*8 + int(l.data[l.pos]-'0')
					l.pos++
				}
				b = byte(oct)
			}
		}
		buf.WriteByte(b)
	}
	return String{}, fmt.Errorf("reader: unterminated literal string")
}

func (l *lexer) hexString() (String, error) {
	l.pos++ // '<'
	var buf bytes.Buffer
	hi := -1
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		l.pos++
		if b == '>' {
			if hi >= 0 {
				buf.WriteByte(byte(hi << 4))
			}
			return String{Value: buf.Bytes(), IsHex: true}, nil
		}
		if isWhitespace(b) {
			continue
		}
		v := unhex(b)
		if v < 0 {
			return String{}, fmt.Errorf("reader: invalid hex digit %q", b)
		}
		if hi < 0 {
			hi = v
		} else {
			buf.WriteByte(byte(hi<<4 | v))
			hi = -1
		}
	}
	return String{}, fmt.Errorf("reader: unterminated hex string")
}

func (l *lexer) array() (Array, error) {
	l.pos++ // '['
	arr := Array{}
	for {
		l.skipSpace()
		if l.pos >= len(l.data) {
			return nil, fmt.Errorf("reader: unterminated array")
		}
		if l.data[l.pos] == ']' {
			l.pos++
			return arr, nil
		}
		o, err := l.object()
		if err != nil {
			return nil, err
		}
		arr = append(arr, o)
	}
}

func (l *lexer) dict() (Dict, error) {
	l.pos += 2 // '<<'
	d := make(Dict)
	for {
		l.skipSpace()
		if l.pos >= len(l.data) {
			return nil, fmt.Errorf("reader: unterminated dictionary")
		}
		if l.hasPrefix(">>") {
			l.pos += 2
			return d, nil
		}
		if l.data[l.pos] != '/' {
			return nil, fmt.Errorf("reader: dictionary key at offset %d is not a name", l.pos)
		}
		key := l.name()
		val, err := l.object()
		if err != nil {
			return nil, fmt.Errorf("reader: value of /%s: %w", key, err)
		}
		d[key] = val
	}
}

// indirect parses "N G obj ... endobj" and returns the object's value. The
// length of a stream is taken from a direct /Length, or found by scanning for
// "endstream" when /Length is indirect.
func (l *lexer) indirect() (Reference, Object, error) {
	var ref Reference
	num, err1 := strconv.Atoi(l.word())
	gen, err2 := strconv.Atoi(l.word())
	if err1 != nil || err2 != nil || l.word() != "obj" {
		return ref, nil, fmt.Errorf("reader: expected object header at offset %d", l.pos)
	}
	ref = Reference{Number: num, Generation: gen}

	val, err := l.object()
	if err != nil {
		return ref, nil, fmt.Errorf("reader: object %d: %w", num, err)
	}

	l.skipSpace()
	if !l.hasPrefix("stream") {
		return ref, val, nil
	}
	dict, ok := val.(Dict)
	if !ok {
		return ref, nil, fmt.Errorf("reader: object %d: stream without dictionary", num)
	}
	l.pos += len("stream")
	if l.pos < len(l.data) && l.data[l.pos] == '\r' {
		l.pos++
	}
	if l.pos < len(l.data) && l.data[l.pos] == '\n' {
		l.pos++
	}

	rest := l.data[l.pos:]
	n, ok := dict.GetInt("Length")
	if !ok || n < 0 || int(n) > len(rest) || !bytes.HasPrefix(bytes.TrimLeft(rest[n:], "\r\n "), []byte("endstream")) {
		end := bytes.Index(rest, []byte("endstream"))
		if end < 0 {
			return ref, nil, fmt.Errorf("reader: object %d: unterminated stream", num)
		}
		n = int64(len(bytes.TrimRight(rest[:end], "\r\n")))
	}
	data := make([]byte, n)
	copy(data, rest[:n])
	return ref, Stream{Dict: dict, Data: data}, nil
}

// unhex returns the value of a hex digit, or -1.
func unhex(b byte) int {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0')
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10
	}
	return -1
}
