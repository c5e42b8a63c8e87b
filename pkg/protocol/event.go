package protocol

import (
	"errors"
	"io"
)

// MaxArgDepth is the maximum nesting depth of event args. It keeps
// decoding of hostile payloads bounded.
const MaxArgDepth = 64

// ErrMaxDepthExceeded reports args nested beyond MaxArgDepth.
var ErrMaxDepthExceeded = errors.New("protocol: maximum nesting depth exceeded")

// argType tags one encoded arg value.
type argType uint8

const (
	argNull   argType = 0x00
	argBool   argType = 0x01
	argInt    argType = 0x02
	argFloat  argType = 0x03
	argString argType = 0x04
	argArray  argType = 0x05
	argObject argType = 0x06
)

// EventMessage is one client event addressed to a component. Args
// carry JSON-like values: integers decode as int64, floats as
// float64, objects as map[string]any.
type EventMessage struct {
	Seq  uint64         // client-assigned, echoed in the response frames
	Path string         // component path from the rendered path attribute
	Name string         // event name ("click", "change", "submit")
	Args map[string]any // event payload, empty for plain clicks
}

// EncodeEvent encodes an EventMessage to bytes.
func EncodeEvent(ev *EventMessage) []byte {
	e := NewEncoder()
	e.WriteUvarint(ev.Seq)
	e.WriteString(ev.Path)
	e.WriteString(ev.Name)
	e.WriteUvarint(uint64(len(ev.Args)))
	for k, v := range ev.Args {
		e.WriteString(k)
		encodeArgValue(e, v)
	}
	return e.Bytes()
}

func encodeArgValue(e *Encoder, v any) {
	switch val := v.(type) {
	case nil:
		e.WriteByte(byte(argNull))
	case bool:
		e.WriteByte(byte(argBool))
		e.WriteBool(val)
	case int:
		e.WriteByte(byte(argInt))
		e.WriteSvarint(int64(val))
	case int64:
		e.WriteByte(byte(argInt))
		e.WriteSvarint(val)
	case float64:
		e.WriteByte(byte(argFloat))
		e.WriteFloat64(val)
	case string:
		e.WriteByte(byte(argString))
		e.WriteString(val)
	case []any:
		e.WriteByte(byte(argArray))
		e.WriteUvarint(uint64(len(val)))
		for _, item := range val {
			encodeArgValue(e, item)
		}
	case map[string]any:
		e.WriteByte(byte(argObject))
		e.WriteUvarint(uint64(len(val)))
		for k, item := range val {
			e.WriteString(k)
			encodeArgValue(e, item)
		}
	default:
		// Unknown types encode as null.
		e.WriteByte(byte(argNull))
	}
}

// DecodeEvent decodes an EventMessage from bytes.
func DecodeEvent(data []byte) (*EventMessage, error) {
	d := NewDecoder(data)
	ev := &EventMessage{}
	var err error
	if ev.Seq, err = d.ReadUvarint(); err != nil {
		return nil, err
	}
	if ev.Path, err = d.ReadString(); err != nil {
		return nil, err
	}
	if ev.Name, err = d.ReadString(); err != nil {
		return nil, err
	}
	count, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}
	if count > 0 {
		ev.Args = make(map[string]any, count)
		for i := 0; i < count; i++ {
			k, err := d.ReadString()
			if err != nil {
				return nil, err
			}
			v, err := decodeArgValue(d, 0)
			if err != nil {
				return nil, err
			}
			ev.Args[k] = v
		}
	}
	return ev, nil
}

func decodeArgValue(d *Decoder, depth int) (any, error) {
	if depth > MaxArgDepth {
		return nil, ErrMaxDepthExceeded
	}
	typeByte, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	switch argType(typeByte) {
	case argNull:
		return nil, nil
	case argBool:
		return d.ReadBool()
	case argInt:
		return d.ReadSvarint()
	case argFloat:
		return d.ReadFloat64()
	case argString:
		return d.ReadString()
	case argArray:
		count, err := d.ReadCollectionCount()
		if err != nil {
			return nil, err
		}
		arr := make([]any, count)
		for i := 0; i < count; i++ {
			if arr[i], err = decodeArgValue(d, depth+1); err != nil {
				return nil, err
			}
		}
		return arr, nil
	case argObject:
		count, err := d.ReadCollectionCount()
		if err != nil {
			return nil, err
		}
		obj := make(map[string]any, count)
		for i := 0; i < count; i++ {
			k, err := d.ReadString()
			if err != nil {
				return nil, err
			}
			if obj[k], err = decodeArgValue(d, depth+1); err != nil {
				return nil, err
			}
		}
		return obj, nil
	default:
		return nil, io.ErrUnexpectedEOF
	}
}
