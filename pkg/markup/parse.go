package markup

import (
	"bytes"
	"io"

	"golang.org/x/net/html"

	"github.com/loom-ui/loom/pkg/component"
)

// voidElements have no end tag; a region on one of them never has a
// body.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true,
	"embed": true, "hr": true, "img": true, "input": true,
	"link": true, "meta": true, "param": true, "source": true,
	"track": true, "wbr": true,
}

// frame is one level of open region nesting during a parse.
type frame struct {
	region *Region
	raw    bytes.Buffer
	segs   []Segment
	seen   map[string]bool
	depth  int
}

func (f *frame) flushRaw() {
	if f.raw.Len() == 0 {
		return
	}
	f.segs = append(f.segs, Raw{Bytes: append([]byte(nil), f.raw.Bytes()...)})
	f.raw.Reset()
}

// Parse tokenizes a template and splits it into raw runs and component
// regions. Content outside regions is preserved byte for byte,
// including comments, doctype, and whitespace.
func Parse(name string, r io.Reader) (*Markup, error) {
	z := html.NewTokenizer(r)
	root := &frame{seen: make(map[string]bool)}
	stack := []*frame{root}

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); err != io.EOF {
				return nil, &ParseError{Name: name, Err: err}
			}
			break
		}
		top := stack[len(stack)-1]

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			// Raw bytes are invalidated by Token, copy first.
			raw := append([]byte(nil), z.Raw()...)
			tok := z.Token()
			lid, bound := lidOf(tok)
			if !bound {
				if tt == html.StartTagToken && top.region != nil &&
					tok.Data == top.region.Elem && !voidElements[tok.Data] {
					top.depth++
				}
				top.raw.Write(raw)
				continue
			}
			if lid == "" {
				return nil, &ParseError{Name: name, Elem: tok.Data, Err: ErrEmptyID}
			}
			if top.seen[lid] {
				return nil, &ParseError{Name: name, Elem: tok.Data, LID: lid, Err: ErrDuplicateID}
			}
			top.seen[lid] = true
			region := &Region{LID: lid, Elem: tok.Data, Attrs: regionAttrs(tok)}
			top.flushRaw()
			if tt == html.SelfClosingTagToken || voidElements[tok.Data] {
				region.Void = true
				top.segs = append(top.segs, region)
				continue
			}
			stack = append(stack, &frame{region: region, seen: make(map[string]bool)})

		case html.EndTagToken:
			raw := append([]byte(nil), z.Raw()...)
			tok := z.Token()
			if top.region == nil || tok.Data != top.region.Elem {
				top.raw.Write(raw)
				continue
			}
			if top.depth > 0 {
				top.depth--
				top.raw.Write(raw)
				continue
			}
			top.flushRaw()
			top.region.Body = top.segs
			stack = stack[:len(stack)-1]
			parent := stack[len(stack)-1]
			parent.segs = append(parent.segs, top.region)

		default:
			top.raw.Write(z.Raw())
		}
	}

	if len(stack) > 1 {
		open := stack[len(stack)-1].region
		return nil, &ParseError{Name: name, Elem: open.Elem, LID: open.LID, Err: ErrUnclosed}
	}
	root.flushRaw()
	return &Markup{Name: name, Segments: root.segs}, nil
}

// lidOf extracts the data-lid value. The second return distinguishes
// an absent attribute from an empty one.
func lidOf(tok html.Token) (string, bool) {
	for _, a := range tok.Attr {
		if a.Key == Attribute {
			return a.Val, true
		}
	}
	return "", false
}

// regionAttrs converts the element attributes, minus data-lid, in
// source order.
func regionAttrs(tok html.Token) []component.Attr {
	var attrs []component.Attr
	for _, a := range tok.Attr {
		if a.Key == Attribute {
			continue
		}
		attrs = append(attrs, component.Attr{Key: a.Key, Value: a.Val})
	}
	return attrs
}
