package assemble

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"strconv"
)

// binaryMarker follows the header so transfer tools treat the file as binary.
const binaryMarker = "%\xe2\xe3\xcf\xd3\n"

// compressStreams applies FlateDecode to every stream that has no filter yet.
// Imported objects are left alone.
func (a *arena) compressStreams() error {
	for id, o := range a.objs {
		s, ok := o.(*Stream)
		if !ok {
			continue
		}
		if _, filtered := s.Dict["Filter"]; filtered {
			continue
		}
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(s.Data); err != nil {
			return newEncodingError("object "+strconv.Itoa(id), err)
		}
		if err := zw.Close(); err != nil {
			return newEncodingError("object "+strconv.Itoa(id), err)
		}
		s.Dict["Filter"] = Name("FlateDecode")
		s.Data = buf.Bytes()
	}
	return nil
}

// serialize writes the whole file: header, objects in id order, a classic
// cross-reference table and the trailer.
func (a *arena) serialize(root, info int) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")
	buf.WriteString(binaryMarker)

	size := a.size()
	offsets := make([]int, size)
	for id := 1; id < size; id++ {
		o, ok := a.objs[id]
		if !ok {
			continue
		}
		offsets[id] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n", id)
		if err := o.writeTo(&buf); err != nil {
			return nil, newEncodingError("object "+strconv.Itoa(id), err)
		}
		buf.WriteString("\nendobj\n")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", size)
	buf.WriteString("0000000000 65535 f \n")
	for id := 1; id < size; id++ {
		if _, ok := a.objs[id]; !ok {
			buf.WriteString("0000000000 00001 f \n")
			continue
		}
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[id])
	}

	trailer := Dict{
		"Size": Int(size),
		"Root": Ref(root),
	}
	if info > 0 {
		trailer["Info"] = Ref(info)
	}
	buf.WriteString("trailer\n")
	if err := trailer.writeTo(&buf); err != nil {
		return nil, newEncodingError("trailer", err)
	}
	fmt.Fprintf(&buf, "\nstartxref\n%d\n%%%%EOF\n", xref)
	return buf.Bytes(), nil
}
