package assemble

import (
	"bytes"
	"fmt"

	"github.com/lvillar/pdftpl/render"
)

// contentBuilder accumulates the operators of one page content stream.
type contentBuilder struct {
	buf   bytes.Buffer
	fonts map[string]Name // base font name -> resource name
}

func newContentBuilder(fonts map[string]Name) *contentBuilder {
	return &contentBuilder{fonts: fonts}
}

// drawForm paints the form XObject name scaled by (sx, sy) from the origin.
func (c *contentBuilder) drawForm(name Name, sx, sy float64) error {
	nums, err := formatReals(sx, sy)
	if err != nil {
		return err
	}
	fmt.Fprintf(&c.buf, "q %s 0 0 %s 0 0 cm ", nums[0], nums[1])
	name.writeTo(&c.buf)
	c.buf.WriteString(" Do Q\n")
	return nil
}

func (c *contentBuilder) op(o render.Op) error {
	switch v := o.(type) {
	case render.ShowText:
		return c.showText(v)
	default:
		return fmt.Errorf("unknown operation %T", o)
	}
}

func (c *contentBuilder) showText(t render.ShowText) error {
	res, ok := c.fonts[t.Font]
	if !ok {
		return fmt.Errorf("font %q is not registered", t.Font)
	}
	nums, err := formatReals(t.Size, t.X, t.Y)
	if err != nil {
		return err
	}
	text, _ := render.EncodeWinAnsi(t.Text)

	c.buf.WriteString("BT\n")
	res.writeTo(&c.buf)
	fmt.Fprintf(&c.buf, " %s Tf\n%s %s Td\n", nums[0], nums[1], nums[2])
	String(text).writeTo(&c.buf)
	c.buf.WriteString(" Tj\nET\n")
	return nil
}

func (c *contentBuilder) bytes() []byte {
	return c.buf.Bytes()
}

func formatReals(vs ...float64) ([]string, error) {
	out := make([]string, len(vs))
	for i, v := range vs {
		s, err := formatReal(v)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}
