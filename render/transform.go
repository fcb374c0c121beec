package render

import "github.com/lvillar/pdftpl/template"

// PtPerMM is the number of PDF points in one millimetre.
const PtPerMM = 72 / 25.4

// MMToPt converts millimetres to points.
func MMToPt(mm float64) float64 {
	return mm * PtPerMM
}

// PtToMM converts points to millimetres.
func PtToMM(pt float64) float64 {
	return pt / PtPerMM
}

// Transform maps a field's top-left design position to the PDF drawing
// position of its bottom-left corner. All values are millimetres; the design
// origin is the top-left page corner, the PDF origin the bottom-left one.
func Transform(pos template.Position, fieldHeight, pageHeight float64) (x, y float64) {
	return pos.X, pageHeight - pos.Y - fieldHeight
}
