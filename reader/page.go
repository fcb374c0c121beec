package reader

import (
	"fmt"
	"slices"
)

// Rectangle represents a PDF rectangle (typically [llx lly urx ury]).
type Rectangle struct {
	LLX, LLY, URX, URY float64
}

// Width returns the width of the rectangle.
func (r Rectangle) Width() float64 { return r.URX - r.LLX }

// Height returns the height of the rectangle.
func (r Rectangle) Height() float64 { return r.URY - r.LLY }

// Page represents a single page in a PDF document.
type Page struct {
	Number    int
	MediaBox  Rectangle
	Resources Dict
	Contents  []Stream
	dict      Dict
	doc       *Document
}

// Dict returns the page dictionary.
func (p *Page) Dict() Dict {
	return p.dict
}

// ContentStream returns the decoded content of the page. Multiple content
// streams are joined with a newline.
func (p *Page) ContentStream() ([]byte, error) {
	var out []byte
	for _, s := range p.Contents {
		data, err := s.Decode()
		if err != nil {
			return nil, fmt.Errorf("reader: page %d content: %w", p.Number, err)
		}
		out = append(out, data...)
		out = append(out, '\n')
	}
	return out, nil
}

// XObjects returns the names of the page's /XObject resources in order.
func (p *Page) XObjects() []Name {
	res, err := p.doc.Resolve(p.Resources["XObject"])
	if err != nil {
		return nil
	}
	dict, _ := res.(Dict)
	names := make([]Name, 0, len(dict))
	for n := range dict {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

func parseRectangle(o Object) (Rectangle, error) {
	arr, ok := o.(Array)
	if !ok || len(arr) != 4 {
		return Rectangle{}, fmt.Errorf("reader: rectangle must be a 4-element array")
	}
	var v [4]float64
	for i, e := range arr {
		n, ok := Number(e)
		if !ok {
			return Rectangle{}, fmt.Errorf("reader: rectangle element %d is %T", i, e)
		}
		v[i] = n
	}
	return Rectangle{LLX: v[0], LLY: v[1], URX: v[2], URY: v[3]}, nil
}

// buildPageList flattens the page tree in document order.
func (d *Document) buildPageList() error {
	catalog, err := d.Catalog()
	if err != nil {
		return err
	}
	root, err := d.Resolve(catalog["Pages"])
	if err != nil {
		return fmt.Errorf("reader: resolving /Pages: %w", err)
	}
	tree, ok := root.(Dict)
	if !ok {
		return fmt.Errorf("reader: /Pages is %T, not a dictionary", root)
	}
	d.pages = nil
	return d.walkPageTree(tree, nil, make(map[Reference]bool))
}

// inheritable page attributes.
var inheritable = []Name{"MediaBox", "Resources"}

func (d *Document) walkPageTree(node, inherited Dict, visited map[Reference]bool) error {
	attrs := make(Dict, len(inheritable))
	for _, key := range inheritable {
		if v, ok := node[key]; ok {
			attrs[key] = v
		} else if v, ok := inherited[key]; ok {
			attrs[key] = v
		}
	}

	if node.GetName("Type") == "Page" {
		return d.addPage(node, attrs)
	}

	kidsObj, err := d.Resolve(node["Kids"])
	if err != nil {
		return fmt.Errorf("reader: resolving /Kids: %w", err)
	}
	kids, _ := kidsObj.(Array)
	for _, kid := range kids {
		if ref, ok := kid.(Reference); ok {
			if visited[ref] {
				return fmt.Errorf("reader: page tree cycle at %s", ref)
			}
			visited[ref] = true
		}
		obj, err := d.Resolve(kid)
		if err != nil {
			return fmt.Errorf("reader: resolving page tree node: %w", err)
		}
		child, ok := obj.(Dict)
		if !ok {
			continue
		}
		if err := d.walkPageTree(child, attrs, visited); err != nil {
			return err
		}
	}
	return nil
}

func (d *Document) addPage(node, attrs Dict) error {
	page := &Page{Number: len(d.pages) + 1, dict: node, doc: d}

	if mb, err := d.Resolve(attrs["MediaBox"]); err == nil {
		if rect, err := parseRectangle(mb); err == nil {
			page.MediaBox = rect
		}
	}
	if res, err := d.Resolve(attrs["Resources"]); err == nil {
		page.Resources, _ = res.(Dict)
	}

	contents, err := d.Resolve(node["Contents"])
	if err != nil {
		return fmt.Errorf("reader: page %d contents: %w", page.Number, err)
	}
	switch c := contents.(type) {
	case Stream:
		page.Contents = []Stream{c}
	case Array:
		for _, item := range c {
			o, err := d.Resolve(item)
			if err != nil {
				return fmt.Errorf("reader: page %d contents: %w", page.Number, err)
			}
			if s, ok := o.(Stream); ok {
				page.Contents = append(page.Contents, s)
			}
		}
	}

	d.pages = append(d.pages, page)
	return nil
}
