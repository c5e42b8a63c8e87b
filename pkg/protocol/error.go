package protocol

// ErrorCode identifies the kind of error reported over the wire.
type ErrorCode uint16

const (
	CodeUnknown        ErrorCode = 0x0000
	CodeInvalidFrame   ErrorCode = 0x0001 // malformed frame or payload
	CodeInvalidEvent   ErrorCode = 0x0002 // event failed to decode
	CodeNoTarget       ErrorCode = 0x0003 // no component at the event path
	CodeTargetRejected ErrorCode = 0x0004 // target hidden, disabled or not listening
	CodeHandlerFailed  ErrorCode = 0x0005 // listener returned an error
	CodeRenderFailed   ErrorCode = 0x0006 // re-render after the event failed
	CodeSessionExpired ErrorCode = 0x0007 // session no longer valid
	CodeRateLimited    ErrorCode = 0x0008 // too many events
	CodeInternal       ErrorCode = 0x0100 // internal server error
)

// String returns the string representation of the error code.
func (ec ErrorCode) String() string {
	switch ec {
	case CodeUnknown:
		return "Unknown"
	case CodeInvalidFrame:
		return "InvalidFrame"
	case CodeInvalidEvent:
		return "InvalidEvent"
	case CodeNoTarget:
		return "NoTarget"
	case CodeTargetRejected:
		return "TargetRejected"
	case CodeHandlerFailed:
		return "HandlerFailed"
	case CodeRenderFailed:
		return "RenderFailed"
	case CodeSessionExpired:
		return "SessionExpired"
	case CodeRateLimited:
		return "RateLimited"
	case CodeInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// ErrorMessage reports a failure to the peer. EventSeq names the
// client event that caused it, 0 when none. Fatal errors are followed
// by connection close.
type ErrorMessage struct {
	Code     ErrorCode
	EventSeq uint64
	Message  string
	Fatal    bool
}

// EncodeErrorMessage encodes an ErrorMessage to bytes.
func EncodeErrorMessage(em *ErrorMessage) []byte {
	e := NewEncoder()
	e.WriteUint16(uint16(em.Code))
	e.WriteUvarint(em.EventSeq)
	e.WriteString(em.Message)
	e.WriteBool(em.Fatal)
	return e.Bytes()
}

// DecodeErrorMessage decodes an ErrorMessage from bytes.
func DecodeErrorMessage(data []byte) (*ErrorMessage, error) {
	d := NewDecoder(data)
	em := &ErrorMessage{}
	code, err := d.ReadUint16()
	if err != nil {
		return nil, err
	}
	em.Code = ErrorCode(code)
	if em.EventSeq, err = d.ReadUvarint(); err != nil {
		return nil, err
	}
	if em.Message, err = d.ReadString(); err != nil {
		return nil, err
	}
	if em.Fatal, err = d.ReadBool(); err != nil {
		return nil, err
	}
	return em, nil
}
