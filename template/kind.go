package template

// Kind is the closed set of field kinds. Adding a kind means adding a constant
// here, its tag in kindTags, and a handler in the render package.
type Kind int

const (
	KindUnknown Kind = iota // tag not recognised; never fatal
	KindText
	KindImage
	KindQRCode
	KindJapanPost
	KindEAN13
	KindEAN8
	KindCode39
	KindCode128
	KindNW7
	KindITF14
	KindUPCA
	KindUPCE
	KindGS1DataMatrix
	KindPDF417
)

var kindTags = map[Kind]string{
	KindText:          "text",
	KindImage:         "image",
	KindQRCode:        "qrcode",
	KindJapanPost:     "japanpost",
	KindEAN13:         "ean13",
	KindEAN8:          "ean8",
	KindCode39:        "code39",
	KindCode128:       "code128",
	KindNW7:           "nw7",
	KindITF14:         "itf14",
	KindUPCA:          "upca",
	KindUPCE:          "upce",
	KindGS1DataMatrix: "gs1datamatrix",
	KindPDF417:        "pdf417",
}

var tagKinds = func() map[string]Kind {
	m := make(map[string]Kind, len(kindTags))
	for k, tag := range kindTags {
		m[tag] = k
	}
	return m
}()

// ParseKind maps a kind tag to its Kind. Unrecognised tags yield KindUnknown.
func ParseKind(tag string) Kind {
	if k, ok := tagKinds[tag]; ok {
		return k
	}
	return KindUnknown
}

// String returns the kind tag, or "unknown".
func (k Kind) String() string {
	if tag, ok := kindTags[k]; ok {
		return tag
	}
	return "unknown"
}

// IsBarcode reports whether k is one of the barcode kinds.
func (k Kind) IsBarcode() bool {
	return k >= KindQRCode && k <= KindPDF417
}

// Kinds returns every kind, KindUnknown included, in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(kindTags)+1)
	for k := KindUnknown; k <= KindPDF417; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}
