package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/codabar"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/code39"
	"github.com/boombuler/barcode/datamatrix"
	"github.com/boombuler/barcode/ean"
	"github.com/boombuler/barcode/qr"
	"github.com/boombuler/barcode/twooffive"
	pdf417 "github.com/ruudk/golang-pdf417"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/lvillar/pdftpl/template"
)

// probeImage describes an image value (a data URI or bare base64) without
// drawing it.
func probeImage(value string) string {
	data := value
	if i := strings.Index(data, ";base64,"); i >= 0 {
		data = data[i+len(";base64,"):]
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(data))
	if err != nil {
		return "value is not base64 image data"
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return fmt.Sprintf("value is not a decodable image: %v", err)
	}
	return fmt.Sprintf("value is a %dx%d %s image", cfg.Width, cfg.Height, format)
}

type barcodeEncoder func(value string) (barcode.Barcode, error)

var barcodeEncoders = map[template.Kind]barcodeEncoder{
	template.KindQRCode: func(v string) (barcode.Barcode, error) {
		return qr.Encode(v, qr.M, qr.Auto)
	},
	template.KindEAN13: func(v string) (barcode.Barcode, error) {
		return ean.Encode(v)
	},
	template.KindEAN8: func(v string) (barcode.Barcode, error) {
		return ean.Encode(v)
	},
	// UPC-A is EAN-13 with a leading zero.
	template.KindUPCA: func(v string) (barcode.Barcode, error) {
		return ean.Encode("0" + v)
	},
	template.KindCode39: func(v string) (barcode.Barcode, error) {
		return code39.Encode(v, false, true)
	},
	template.KindCode128: func(v string) (barcode.Barcode, error) {
		return code128.Encode(v)
	},
	template.KindNW7: func(v string) (barcode.Barcode, error) {
		return codabar.Encode(v)
	},
	template.KindITF14: func(v string) (barcode.Barcode, error) {
		return twooffive.Encode(v, true)
	},
	template.KindGS1DataMatrix: func(v string) (barcode.Barcode, error) {
		return datamatrix.Encode(v)
	},
	template.KindPDF417: func(v string) (barcode.Barcode, error) {
		return pdf417.Encode(v, 10, 2), nil
	},
}

// probeBarcode reports whether value can be encoded as a barcode of kind k and,
// if so, the symbol size in modules.
func probeBarcode(k template.Kind, value string) (detail string) {
	enc, ok := barcodeEncoders[k]
	if !ok {
		return "no encoder available to check the value"
	}

	defer func() {
		if r := recover(); r != nil {
			detail = fmt.Sprintf("value is not encodable: %v", r)
		}
	}()

	bc, err := enc(value)
	if err != nil {
		return fmt.Sprintf("value is not encodable: %v", err)
	}
	b := bc.Bounds()
	return fmt.Sprintf("value encodes as a %dx%d %s symbol", b.Dx(), b.Dy(), bc.Metadata().CodeKind)
}
