package component

// Attr is one tag attribute. Order is preserved through mutation so
// output stays stable across passes.
type Attr struct {
	Key   string
	Value string
}

// Tag is the transient per-render representation of a markup element:
// a name and a mutable, ordered attribute list. A Tag is owned by the
// render pass that produced it and is never persisted; OnTag hooks and
// behaviors mutate it before the open tag is written.
type Tag struct {
	name  string
	attrs []Attr
}

// NewTag builds a Tag from the markup element's name and attributes.
// The attribute slice is copied.
func NewTag(name string, attrs []Attr) *Tag {
	t := &Tag{name: name}
	if len(attrs) > 0 {
		t.attrs = make([]Attr, len(attrs))
		copy(t.attrs, attrs)
	}
	return t
}

// Name returns the element name.
func (t *Tag) Name() string { return t.name }

// SetName renames the element ("a" to "span" for a disabled link).
func (t *Tag) SetName(name string) { t.name = name }

// Get returns the value of the named attribute and whether it is set.
func (t *Tag) Get(key string) (string, bool) {
	for _, a := range t.attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Set replaces the named attribute's value, or appends the attribute
// if absent.
func (t *Tag) Set(key, value string) {
	for i, a := range t.attrs {
		if a.Key == key {
			t.attrs[i].Value = value
			return
		}
	}
	t.attrs = append(t.attrs, Attr{Key: key, Value: value})
}

// Append joins value onto the named attribute's current value with
// sep, setting it if absent. Appending to "class" with a space
// separator is the common case.
func (t *Tag) Append(key, value, sep string) {
	for i, a := range t.attrs {
		if a.Key == key {
			if a.Value == "" {
				t.attrs[i].Value = value
			} else {
				t.attrs[i].Value = a.Value + sep + value
			}
			return
		}
	}
	t.attrs = append(t.attrs, Attr{Key: key, Value: value})
}

// Remove deletes the named attribute if present.
func (t *Tag) Remove(key string) {
	for i, a := range t.attrs {
		if a.Key == key {
			t.attrs = append(t.attrs[:i], t.attrs[i+1:]...)
			return
		}
	}
}

// Attrs returns a copy of the attributes in order.
func (t *Tag) Attrs() []Attr {
	out := make([]Attr, len(t.attrs))
	copy(out, t.attrs)
	return out
}
