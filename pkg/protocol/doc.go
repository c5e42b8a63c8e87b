// Package protocol defines the wire protocol between the thin client
// and the live endpoint.
//
// Every message travels in a frame with a fixed 4-byte header (type,
// flags, big-endian payload length) followed by a binary payload.
// Payloads are encoded with the package's varint-based Encoder and
// decoded with bounds and allocation checks, so a malicious peer
// cannot force large allocations or deep recursion.
//
// Frame types:
//
//	Handshake  ClientHello / ServerHello, CSRF check, session resume
//	Event      client event: component path, event name, args
//	Update     server update: rendered fragments, removals, reload
//	Control    ping/pong, resync, close
//	Ack        client acknowledgment of applied updates
//	Error      error report, possibly fatal to the connection
//
// The package also provides signed session tokens: msgpack bodies
// signed with HMAC-SHA256, printable and cookie-safe.
package protocol
