package markup

import (
	"time"

	"github.com/loom-ui/loom/pkg/component"
)

// Attribute is the HTML attribute that binds an element to a
// component. Its value is the component id the element renders.
const Attribute = "data-lid"

// SlotID is the reserved lid marking where a border template receives
// the body written between the border's tags in the enclosing
// template. It contains the path separator, so it can never collide
// with a component id.
const SlotID = ":body"

// Markup is one parsed template.
type Markup struct {
	// Name is the logical template name the markup was requested as.
	Name string

	// Location is the resource name the template resolved to, which
	// can differ from Name through style and locale suffixes.
	Location string

	// ModTime is the resource modification time at parse.
	ModTime time.Time

	// Segments is the template content in document order.
	Segments []Segment
}

// Segment is one parsed piece of a template, either a Raw byte run or
// a component Region. The interface is sealed.
type Segment interface {
	seg()
}

// Raw is literal template content between component regions. It is
// written to the output exactly as it appeared in the source.
type Raw struct {
	Bytes []byte
}

func (Raw) seg() {}

// Region is an element bound to a component by its data-lid value.
type Region struct {
	// LID is the component id from the data-lid attribute.
	LID string

	// Elem is the lowercased element name ("div", "span", "input").
	Elem string

	// Attrs are the element's remaining attributes in source order,
	// with data-lid removed.
	Attrs []component.Attr

	// Void marks elements without a body (img, input, br).
	Void bool

	// Body is the element content, itself raw runs and nested regions.
	Body []Segment
}

func (*Region) seg() {}

// Region returns the top-level region with the given lid, or nil.
func (m *Markup) Region(lid string) *Region {
	return Find(m.Segments, lid)
}

// Find returns the region with the given lid among segs, not
// descending into region bodies. Regions inside plain elements sit at
// the same level as their surrounding raw runs, so one level is the
// sibling scope.
func Find(segs []Segment, lid string) *Region {
	for _, s := range segs {
		if r, ok := s.(*Region); ok && r.LID == lid {
			return r
		}
	}
	return nil
}

// RegionIDs lists the lids of the top-level regions in document order.
func (m *Markup) RegionIDs() []string {
	var ids []string
	for _, s := range m.Segments {
		if r, ok := s.(*Region); ok {
			ids = append(ids, r.LID)
		}
	}
	return ids
}
