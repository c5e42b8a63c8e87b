package protocol

import "io"

// DirectiveOp tells the client what to do with one directive.
type DirectiveOp uint8

const (
	// OpReplace swaps the element addressed by Path with HTML.
	OpReplace DirectiveOp = 0x01

	// OpRemove deletes the element addressed by Path.
	OpRemove DirectiveOp = 0x02

	// OpReload instructs the client to reload the whole page over
	// HTTP. It carries no fragment; servers fall back to it when a
	// fragment cannot be shipped over the live channel.
	OpReload DirectiveOp = 0x03
)

// String returns the string representation of the directive op.
func (op DirectiveOp) String() string {
	switch op {
	case OpReplace:
		return "Replace"
	case OpRemove:
		return "Remove"
	case OpReload:
		return "Reload"
	default:
		return "Unknown"
	}
}

// Directive is one DOM instruction inside an update.
type Directive struct {
	Op   DirectiveOp
	Path string // component path, empty for OpReload
	HTML string // rendered fragment, only for OpReplace
}

// UpdateMessage carries the rendered consequences of one event: an
// ordered list of directives the client applies in sequence.
type UpdateMessage struct {
	Seq        uint64 // server-assigned, strictly increasing per session
	EventSeq   uint64 // the client event this update answers, 0 for server-initiated
	Directives []Directive
}

// EncodeUpdate encodes an UpdateMessage to bytes.
func EncodeUpdate(u *UpdateMessage) []byte {
	e := NewEncoder()
	e.WriteUvarint(u.Seq)
	e.WriteUvarint(u.EventSeq)
	e.WriteUvarint(uint64(len(u.Directives)))
	for i := range u.Directives {
		dir := &u.Directives[i]
		e.WriteByte(byte(dir.Op))
		switch dir.Op {
		case OpReplace:
			e.WriteString(dir.Path)
			e.WriteString(dir.HTML)
		case OpRemove:
			e.WriteString(dir.Path)
		case OpReload:
		}
	}
	return e.Bytes()
}

// DecodeUpdate decodes an UpdateMessage from bytes.
func DecodeUpdate(data []byte) (*UpdateMessage, error) {
	d := NewDecoder(data)
	u := &UpdateMessage{}
	var err error
	if u.Seq, err = d.ReadUvarint(); err != nil {
		return nil, err
	}
	if u.EventSeq, err = d.ReadUvarint(); err != nil {
		return nil, err
	}
	count, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}
	u.Directives = make([]Directive, count)
	for i := 0; i < count; i++ {
		op, err := d.ReadByte()
		if err != nil {
			return nil, err
		}
		dir := Directive{Op: DirectiveOp(op)}
		switch dir.Op {
		case OpReplace:
			if dir.Path, err = d.ReadString(); err != nil {
				return nil, err
			}
			if dir.HTML, err = d.ReadString(); err != nil {
				return nil, err
			}
		case OpRemove:
			if dir.Path, err = d.ReadString(); err != nil {
				return nil, err
			}
		case OpReload:
		default:
			return nil, io.ErrUnexpectedEOF
		}
		u.Directives[i] = dir
	}
	return u, nil
}

// ReplaceDirective builds an OpReplace directive.
func ReplaceDirective(path, html string) Directive {
	return Directive{Op: OpReplace, Path: path, HTML: html}
}

// RemoveDirective builds an OpRemove directive.
func RemoveDirective(path string) Directive {
	return Directive{Op: OpRemove, Path: path}
}

// ReloadDirective builds an OpReload directive.
func ReloadDirective() Directive {
	return Directive{Op: OpReload}
}
