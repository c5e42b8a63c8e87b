package protocol

// HandshakeStatus is the result of a handshake.
type HandshakeStatus uint8

const (
	HandshakeOK              HandshakeStatus = 0x00
	HandshakeVersionMismatch HandshakeStatus = 0x01
	HandshakeInvalidCSRF     HandshakeStatus = 0x02
	HandshakeSessionExpired  HandshakeStatus = 0x03
	HandshakeUnknownPage     HandshakeStatus = 0x04
	HandshakeServerBusy      HandshakeStatus = 0x05
	HandshakeInternalError   HandshakeStatus = 0x06
)

// String returns the string representation of the handshake status.
func (hs HandshakeStatus) String() string {
	switch hs {
	case HandshakeOK:
		return "OK"
	case HandshakeVersionMismatch:
		return "VersionMismatch"
	case HandshakeInvalidCSRF:
		return "InvalidCSRF"
	case HandshakeSessionExpired:
		return "SessionExpired"
	case HandshakeUnknownPage:
		return "UnknownPage"
	case HandshakeServerBusy:
		return "ServerBusy"
	case HandshakeInternalError:
		return "InternalError"
	default:
		return "Unknown"
	}
}

// Version is the protocol version carried in the handshake. The
// server rejects clients with a different major version.
type Version struct {
	Major uint8
	Minor uint8
}

// CurrentVersion is the protocol version this package implements.
var CurrentVersion = Version{Major: 1, Minor: 0}

// ClientHello opens the live channel after the websocket upgrade. The
// session token and CSRF token come from the page bootstrap; the page
// id names the server-side tree the channel drives.
type ClientHello struct {
	Version      Version
	CSRFToken    string
	SessionToken string
	PageID       string
	LastSeq      uint64 // last update applied before a reconnect, 0 on first connect
}

// ServerHello answers a ClientHello. On success it carries the
// session token to present on the next connect and the sequence number
// the first update will use.
type ServerHello struct {
	Status       HandshakeStatus
	SessionToken string
	NextSeq      uint64
	ServerTime   uint64 // Unix milliseconds
}

// EncodeClientHello encodes a ClientHello to bytes.
func EncodeClientHello(ch *ClientHello) []byte {
	e := NewEncoder()
	e.WriteByte(ch.Version.Major)
	e.WriteByte(ch.Version.Minor)
	e.WriteString(ch.CSRFToken)
	e.WriteString(ch.SessionToken)
	e.WriteString(ch.PageID)
	e.WriteUvarint(ch.LastSeq)
	return e.Bytes()
}

// DecodeClientHello decodes a ClientHello from bytes.
func DecodeClientHello(data []byte) (*ClientHello, error) {
	d := NewDecoder(data)
	ch := &ClientHello{}
	var err error
	if ch.Version.Major, err = d.ReadByte(); err != nil {
		return nil, err
	}
	if ch.Version.Minor, err = d.ReadByte(); err != nil {
		return nil, err
	}
	if ch.CSRFToken, err = d.ReadString(); err != nil {
		return nil, err
	}
	if ch.SessionToken, err = d.ReadString(); err != nil {
		return nil, err
	}
	if ch.PageID, err = d.ReadString(); err != nil {
		return nil, err
	}
	if ch.LastSeq, err = d.ReadUvarint(); err != nil {
		return nil, err
	}
	return ch, nil
}

// EncodeServerHello encodes a ServerHello to bytes.
func EncodeServerHello(sh *ServerHello) []byte {
	e := NewEncoder()
	e.WriteByte(byte(sh.Status))
	e.WriteString(sh.SessionToken)
	e.WriteUvarint(sh.NextSeq)
	e.WriteUint64(sh.ServerTime)
	return e.Bytes()
}

// DecodeServerHello decodes a ServerHello from bytes.
func DecodeServerHello(data []byte) (*ServerHello, error) {
	d := NewDecoder(data)
	sh := &ServerHello{}
	status, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	sh.Status = HandshakeStatus(status)
	if sh.SessionToken, err = d.ReadString(); err != nil {
		return nil, err
	}
	if sh.NextSeq, err = d.ReadUvarint(); err != nil {
		return nil, err
	}
	if sh.ServerTime, err = d.ReadUint64(); err != nil {
		return nil, err
	}
	return sh, nil
}
