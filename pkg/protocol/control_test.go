package protocol

import (
	"io"
	"testing"
)

func TestControlPingPong(t *testing.T) {
	for _, ct := range []ControlType{ControlPing, ControlPong} {
		t.Run(ct.String(), func(t *testing.T) {
			encoded := EncodeControl(ct, &PingPong{Timestamp: 1702000000000})

			gotType, payload, err := DecodeControl(encoded)
			if err != nil {
				t.Fatalf("DecodeControl() error = %v", err)
			}
			if gotType != ct {
				t.Errorf("Type = %v, want %v", gotType, ct)
			}
			pp, ok := payload.(*PingPong)
			if !ok {
				t.Fatalf("Payload type = %T, want *PingPong", payload)
			}
			if pp.Timestamp != 1702000000000 {
				t.Errorf("Timestamp = %d, want 1702000000000", pp.Timestamp)
			}
		})
	}
}

func TestControlResync(t *testing.T) {
	encoded := EncodeControl(ControlResync, &ResyncRequest{LastSeq: 87})

	gotType, payload, err := DecodeControl(encoded)
	if err != nil {
		t.Fatalf("DecodeControl() error = %v", err)
	}
	if gotType != ControlResync {
		t.Errorf("Type = %v, want ControlResync", gotType)
	}
	rr, ok := payload.(*ResyncRequest)
	if !ok {
		t.Fatalf("Payload type = %T, want *ResyncRequest", payload)
	}
	if rr.LastSeq != 87 {
		t.Errorf("LastSeq = %d, want 87", rr.LastSeq)
	}
}

func TestControlClose(t *testing.T) {
	tests := []struct {
		name string
		cm   *CloseMessage
	}{
		{
			name: "normal",
			cm:   &CloseMessage{Reason: CloseNormal, Message: "bye"},
		},
		{
			name: "shutdown",
			cm:   &CloseMessage{Reason: CloseServerShutdown, Message: "maintenance window"},
		},
		{
			name: "expired_no_message",
			cm:   &CloseMessage{Reason: CloseSessionExpired},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			encoded := EncodeControl(ControlClose, tc.cm)

			gotType, payload, err := DecodeControl(encoded)
			if err != nil {
				t.Fatalf("DecodeControl() error = %v", err)
			}
			if gotType != ControlClose {
				t.Errorf("Type = %v, want ControlClose", gotType)
			}
			cm, ok := payload.(*CloseMessage)
			if !ok {
				t.Fatalf("Payload type = %T, want *CloseMessage", payload)
			}
			if cm.Reason != tc.cm.Reason {
				t.Errorf("Reason = %v, want %v", cm.Reason, tc.cm.Reason)
			}
			if cm.Message != tc.cm.Message {
				t.Errorf("Message = %q, want %q", cm.Message, tc.cm.Message)
			}
		})
	}
}

func TestControlNilPayloadEncodesZero(t *testing.T) {
	// Encoding with a nil payload still produces a decodable message.
	gotType, payload, err := DecodeControl(EncodeControl(ControlPing, nil))
	if err != nil {
		t.Fatalf("DecodeControl() error = %v", err)
	}
	if gotType != ControlPing {
		t.Errorf("Type = %v, want ControlPing", gotType)
	}
	if pp := payload.(*PingPong); pp.Timestamp != 0 {
		t.Errorf("Timestamp = %d, want 0", pp.Timestamp)
	}
}

func TestDecodeControlUnknownType(t *testing.T) {
	_, _, err := DecodeControl([]byte{0x7E})
	if err != io.ErrUnexpectedEOF {
		t.Errorf("DecodeControl(unknown type) = %v, want io.ErrUnexpectedEOF", err)
	}

	_, _, err = DecodeControl([]byte{})
	if err != io.ErrUnexpectedEOF {
		t.Errorf("DecodeControl(empty) = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestControlTypeString(t *testing.T) {
	tests := []struct {
		ct   ControlType
		want string
	}{
		{ControlPing, "Ping"},
		{ControlPong, "Pong"},
		{ControlResync, "Resync"},
		{ControlClose, "Close"},
		{ControlType(0xFF), "Unknown"},
	}

	for _, tc := range tests {
		if got := tc.ct.String(); got != tc.want {
			t.Errorf("ControlType(%d).String() = %q, want %q", tc.ct, got, tc.want)
		}
	}
}

func TestCloseReasonString(t *testing.T) {
	tests := []struct {
		cr   CloseReason
		want string
	}{
		{CloseNormal, "Normal"},
		{CloseGoingAway, "GoingAway"},
		{CloseSessionExpired, "SessionExpired"},
		{CloseServerShutdown, "ServerShutdown"},
		{CloseError, "Error"},
		{CloseReason(0xFF), "Unknown"},
	}

	for _, tc := range tests {
		if got := tc.cr.String(); got != tc.want {
			t.Errorf("CloseReason(%d).String() = %q, want %q", tc.cr, got, tc.want)
		}
	}
}
