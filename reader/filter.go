package reader

import (
	"bytes"
	"compress/zlib"
	"encoding/ascii85"
	"encoding/hex"
	"fmt"
	"io"
)

// Decode returns the stream data with its /Filter chain undone.
func (s Stream) Decode() ([]byte, error) {
	var filters []Name
	switch f := s.Dict["Filter"].(type) {
	case nil:
		return s.Data, nil
	case Name:
		filters = []Name{f}
	case Array:
		for _, item := range f {
			n, ok := item.(Name)
			if !ok {
				return nil, fmt.Errorf("reader: filter array holds %T", item)
			}
			filters = append(filters, n)
		}
	default:
		return nil, fmt.Errorf("reader: /Filter is %T", f)
	}

	data := s.Data
	for _, f := range filters {
		dec, ok := decoders[f]
		if !ok {
			return nil, fmt.Errorf("reader: unsupported filter /%s", f)
		}
		var err error
		if data, err = dec(data); err != nil {
			return nil, fmt.Errorf("reader: /%s: %w", f, err)
		}
	}
	return data, nil
}

var decoders = map[Name]func([]byte) ([]byte, error){
	"FlateDecode":    flateDecode,
	"ASCIIHexDecode": asciiHexDecode,
	"ASCII85Decode":  ascii85Decode,
}

func flateDecode(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func asciiHexDecode(data []byte) ([]byte, error) {
	if end := bytes.IndexByte(data, '>'); end >= 0 {
		data = data[:end]
	}
	digits := bytes.Map(func(r rune) rune {
		if r < 0x80 && isWhitespace(byte(r)) {
			return -1
		}
		return r
	}, data)
	if len(digits)%2 != 0 {
		digits = append(digits, '0')
	}
	return hex.DecodeString(string(digits))
}

func ascii85Decode(data []byte) ([]byte, error) {
	if end := bytes.Index(data, []byte("~>")); end >= 0 {
		data = data[:end]
	}
	return io.ReadAll(ascii85.NewDecoder(bytes.NewReader(data)))
}
