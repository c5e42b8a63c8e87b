package component

// Behavior contributes cross-cutting render logic to a component
// without subclassing it. Behaviors live in an ordered collection on
// the component; the controller invokes their hooks in attachment
// order, after the component's own hook of the same phase. Sharing one
// Behavior value across components is allowed when the behavior is
// stateless.
type Behavior interface {
	// Bind fires once per component the behavior is attached to, at
	// attach time for initialized components and at initialization
	// otherwise.
	Bind(c Component)

	// OnConfigure runs each pass after the component's own configure
	// hook, invisible components included.
	OnConfigure(c Component)

	// OnTag runs after the component's own tag hook and may mutate the
	// tag; later behaviors see earlier behaviors' mutations.
	OnTag(c Component, tag *Tag)
}

// NopBehavior provides no-op Behavior methods for embedding, so
// concrete behaviors implement only the hooks they need.
type NopBehavior struct{}

// Bind implements Behavior.
func (NopBehavior) Bind(Component) {}

// OnConfigure implements Behavior.
func (NopBehavior) OnConfigure(Component) {}

// OnTag implements Behavior.
func (NopBehavior) OnTag(Component, *Tag) {}

// AttributeModifier is a Behavior that injects one attribute into the
// component's tag: the everyday cross-cutting tag customization that
// would otherwise need an OnTag override per component type.
type AttributeModifier struct {
	NopBehavior

	key    string
	value  string
	append bool
	sep    string
}

// ModifyAttribute returns a behavior that sets key to value on the
// tag, replacing any existing value.
func ModifyAttribute(key, value string) *AttributeModifier {
	return &AttributeModifier{key: key, value: value}
}

// AppendAttribute returns a behavior that joins value onto the tag's
// existing attribute value with sep.
func AppendAttribute(key, value, sep string) *AttributeModifier {
	return &AttributeModifier{key: key, value: value, append: true, sep: sep}
}

// AppendClass returns a behavior that appends a CSS class.
func AppendClass(class string) *AttributeModifier {
	return AppendAttribute("class", class, " ")
}

// OnTag implements Behavior.
func (m *AttributeModifier) OnTag(c Component, tag *Tag) {
	if m.append {
		tag.Append(m.key, m.value, m.sep)
		return
	}
	tag.Set(m.key, m.value)
}
