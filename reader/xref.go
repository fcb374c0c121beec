package reader

import (
	"bytes"
	"fmt"
	"strconv"
)

// xrefEntry locates one in-use object.
type xrefEntry struct {
	Offset     int64
	Generation int
}

// xrefTable maps object numbers to their file offsets. Free entries are not
// stored.
type xrefTable map[int]xrefEntry

// findStartXRef reads the offset after the last "startxref" keyword.
func findStartXRef(data []byte) (int64, error) {
	tail := data[max(0, len(data)-1024):]
	idx := bytes.LastIndex(tail, []byte("startxref"))
	if idx < 0 {
		return 0, fmt.Errorf("reader: startxref not found")
	}
	l := newLexer(tail[idx+len("startxref"):])
	tok := l.word()
	offset, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("reader: invalid startxref offset %q", tok)
	}
	return offset, nil
}

// parseXRef reads the cross-reference section at offset and every earlier
// section reachable through /Prev. The newest trailer is returned.
func parseXRef(data []byte, offset int64) (xrefTable, Dict, error) {
	table := make(xrefTable)
	var trailer Dict
	seen := make(map[int64]bool)

	for offset >= 0 {
		if seen[offset] {
			return nil, nil, fmt.Errorf("reader: /Prev loop at offset %d", offset)
		}
		seen[offset] = true

		section, t, err := parseXRefSection(data, offset)
		if err != nil {
			return nil, nil, err
		}
		// Newer sections win.
		for num, e := range section {
			if _, ok := table[num]; !ok {
				table[num] = e
			}
		}
		if trailer == nil {
			trailer = t
		}

		prev, ok := t.GetInt("Prev")
		if !ok {
			break
		}
		offset = prev
	}
	return table, trailer, nil
}

func parseXRefSection(data []byte, offset int64) (xrefTable, Dict, error) {
	if offset < 0 || offset >= int64(len(data)) {
		return nil, nil, fmt.Errorf("reader: xref offset %d out of bounds", offset)
	}
	l := newLexer(data[offset:])
	if l.word() != "xref" {
		return nil, nil, fmt.Errorf("reader: no xref table at offset %d (cross-reference streams are not supported)", offset)
	}

	table := make(xrefTable)
	for {
		tok := l.word()
		if tok == "trailer" {
			break
		}
		start, err1 := strconv.Atoi(tok)
		count, err2 := strconv.Atoi(l.word())
		if err1 != nil || err2 != nil {
			return nil, nil, fmt.Errorf("reader: malformed xref subsection header %q", tok)
		}
		for i := 0; i < count; i++ {
			off, err1 := strconv.ParseInt(l.word(), 10, 64)
			gen, err2 := strconv.Atoi(l.word())
			kind := l.word()
			if err1 != nil || err2 != nil || (kind != "n" && kind != "f") {
				return nil, nil, fmt.Errorf("reader: malformed xref entry for object %d", start+i)
			}
			if kind == "n" {
				table[start+i] = xrefEntry{Offset: off, Generation: gen}
			}
		}
	}

	obj, err := l.object()
	if err != nil {
		return nil, nil, fmt.Errorf("reader: trailer: %w", err)
	}
	trailer, ok := obj.(Dict)
	if !ok {
		return nil, nil, fmt.Errorf("reader: trailer is not a dictionary")
	}
	return table, trailer, nil
}
