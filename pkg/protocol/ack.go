package protocol

// DefaultWindow is the default receive window size.
const DefaultWindow = 100

// Ack is sent by the client to acknowledge applied updates. The
// server uses it to drop buffered updates a resync no longer needs
// and to notice a lagging client.
type Ack struct {
	LastSeq uint64 // last applied update sequence number
	Window  uint64 // how many more updates the client will buffer
}

// NewAck creates an Ack with the given sequence and window.
func NewAck(lastSeq, window uint64) *Ack {
	return &Ack{LastSeq: lastSeq, Window: window}
}

// EncodeAck encodes an Ack to bytes.
func EncodeAck(ack *Ack) []byte {
	e := NewEncoder()
	e.WriteUvarint(ack.LastSeq)
	e.WriteUvarint(ack.Window)
	return e.Bytes()
}

// DecodeAck decodes an Ack from bytes.
func DecodeAck(data []byte) (*Ack, error) {
	d := NewDecoder(data)
	lastSeq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	window, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	return &Ack{LastSeq: lastSeq, Window: window}, nil
}
