package render

import (
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

// EncodeWinAnsi encodes s for the built-in font's WinAnsiEncoding. Characters
// outside the encoding become '?'; the number of such substitutions is returned.
func EncodeWinAnsi(s string) ([]byte, int) {
	out := make([]byte, 0, len(s))
	substituted := 0
	for _, r := range s {
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			b = '?'
			substituted++
		}
		out = append(out, b)
	}
	return out, substituted
}

func checkEncodable(fieldName, fieldType, value string) []Diagnostic {
	if _, n := EncodeWinAnsi(value); n > 0 {
		return []Diagnostic{{
			Field:  fieldName,
			Type:   fieldType,
			Detail: fmt.Sprintf("%d character(s) outside WinAnsiEncoding drawn as '?'", n),
			Err:    ErrTextSubstituted,
		}}
	}
	return nil
}
