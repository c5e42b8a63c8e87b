package render

import (
	"github.com/valyala/bytebufferpool"

	"github.com/loom-ui/loom/pkg/component"
	"github.com/loom-ui/loom/pkg/markup"
)

// writeTag serializes an opening tag. Attributes with empty values
// render as bare keys (hidden, disabled, checked).
func writeTag(buf *bytebufferpool.ByteBuffer, tag *component.Tag) {
	buf.WriteByte('<')
	buf.WriteString(tag.Name())
	for _, a := range tag.Attrs() {
		buf.WriteByte(' ')
		buf.WriteString(a.Key)
		if a.Value == "" {
			continue
		}
		buf.WriteString(`="`)
		buf.WriteString(EscapeAttr(a.Value))
		buf.WriteByte('"')
	}
	buf.WriteByte('>')
}

func writeClose(buf *bytebufferpool.ByteBuffer, name string) {
	buf.WriteString("</")
	buf.WriteString(name)
	buf.WriteByte('>')
}

// writePlaceholder emits the hidden stand-in tag for an invisible
// component that asked to keep a spot in the output.
func writePlaceholder(buf *bytebufferpool.ByteBuffer, path string, reg *markup.Region) {
	buf.WriteByte('<')
	buf.WriteString(reg.Elem)
	buf.WriteByte(' ')
	buf.WriteString(PathAttribute)
	buf.WriteString(`="`)
	buf.WriteString(EscapeAttr(path))
	buf.WriteString(`" hidden>`)
	if !reg.Void {
		writeClose(buf, reg.Elem)
	}
}
