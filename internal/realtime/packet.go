// Package realtime implements the client side of the server's Socket.IO
// channel: the Engine.IO v4 websocket framing, connection management with
// reconnect backoff, and event fan-out to subscribers.
package realtime

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Engine.IO packet type bytes (the first character of every websocket
// text frame).
const (
	engineOpen    = '0'
	engineClose   = '1'
	enginePing    = '2'
	enginePong    = '3'
	engineMessage = '4'
	engineUpgrade = '5'
	engineNoop    = '6'
)

// handshake is the JSON payload of the Engine.IO open packet. Intervals
// are in milliseconds.
type handshake struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval int      `json:"pingInterval"`
	PingTimeout  int      `json:"pingTimeout"`
	MaxPayload   int      `json:"maxPayload"`
}

// PacketType enumerates Socket.IO packet kinds (carried inside Engine.IO
// message frames).
type PacketType int

const (
	Connect PacketType = iota
	Disconnect
	EventPacket
	Ack
	ConnectError
)

// defaultNamespace is the root Socket.IO namespace.
const defaultNamespace = "/"

// Packet is a decoded Socket.IO packet.
type Packet struct {
	Type      PacketType
	Namespace string
	// AckID is -1 when the packet carries no acknowledgement ID.
	AckID int64
	// Data is the raw JSON payload: an array for events/acks, an object
	// for connect/connect_error, possibly empty.
	Data json.RawMessage
}

// parsePacket decodes the Socket.IO layer of an Engine.IO message payload:
// <type>[/namespace,][ackId][json].
func parsePacket(raw []byte) (Packet, error) {
	if len(raw) == 0 {
		return Packet{}, fmt.Errorf("empty socket.io packet")
	}
	t := raw[0] - '0'
	if t > 6 {
		return Packet{}, fmt.Errorf("invalid socket.io packet type %q", raw[0])
	}
	if t > byte(ConnectError) {
		// Binary event/ack types are never produced by this server.
		return Packet{}, fmt.Errorf("unsupported socket.io packet type %d", t)
	}

	pkt := Packet{Type: PacketType(t), Namespace: defaultNamespace, AckID: -1}
	rest := raw[1:]

	if len(rest) > 0 && rest[0] == '/' {
		comma := strings.IndexByte(string(rest), ',')
		if comma < 0 {
			return Packet{}, fmt.Errorf("unterminated namespace in socket.io packet")
		}
		pkt.Namespace = string(rest[:comma])
		rest = rest[comma+1:]
	}

	digits := 0
	for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
		digits++
	}
	if digits > 0 {
		id, err := strconv.ParseInt(string(rest[:digits]), 10, 64)
		if err != nil {
			return Packet{}, fmt.Errorf("parse ack id: %w", err)
		}
		pkt.AckID = id
		rest = rest[digits:]
	}

	if len(rest) > 0 {
		if !json.Valid(rest) {
			return Packet{}, fmt.Errorf("invalid socket.io payload")
		}
		pkt.Data = json.RawMessage(rest)
	}
	return pkt, nil
}

// encodePacket produces the Socket.IO wire form of a packet.
func encodePacket(pkt Packet) []byte {
	var b strings.Builder
	b.WriteByte(byte('0' + pkt.Type))
	if pkt.Namespace != "" && pkt.Namespace != defaultNamespace {
		b.WriteString(pkt.Namespace)
		b.WriteByte(',')
	}
	if pkt.AckID >= 0 {
		b.WriteString(strconv.FormatInt(pkt.AckID, 10))
	}
	b.Write(pkt.Data)
	return []byte(b.String())
}

// encodeMessage wraps a Socket.IO packet in an Engine.IO message frame.
func encodeMessage(pkt Packet) []byte {
	return append([]byte{engineMessage}, encodePacket(pkt)...)
}

// Event is a named message received from (or sent to) the server. The
// ChitUI server sends exactly one JSON argument per event; Payload is nil
// for bare events.
type Event struct {
	Name    string
	Payload json.RawMessage
}

// marshalEvent builds the Engine.IO frame for emitting an event.
func marshalEvent(event string, payload any) ([]byte, error) {
	args := []any{event}
	if payload != nil {
		args = append(args, payload)
	}
	data, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", event, err)
	}
	return encodeMessage(Packet{Type: EventPacket, Namespace: defaultNamespace, AckID: -1, Data: data}), nil
}

// parseEvent extracts the event name and first argument from an EVENT
// packet payload.
func parseEvent(pkt Packet) (Event, error) {
	var args []json.RawMessage
	if err := json.Unmarshal(pkt.Data, &args); err != nil {
		return Event{}, fmt.Errorf("decode event payload: %w", err)
	}
	if len(args) == 0 {
		return Event{}, fmt.Errorf("event packet with no name")
	}
	var name string
	if err := json.Unmarshal(args[0], &name); err != nil {
		return Event{}, fmt.Errorf("decode event name: %w", err)
	}
	ev := Event{Name: name}
	if len(args) > 1 {
		ev.Payload = args[1]
	}
	return ev, nil
}
