package realtime

import (
	"bytes"
	"testing"
)

func TestParsePacket_RoundTrips(t *testing.T) {
	t.Parallel()

	frames := []string{
		`0`,
		`0{"sid":"abc"}`,
		`2["printers",{}]`,
		`213["printer_status",{"Id":"x"}]`,
		`2/admin,["toast",{"message":"hi"}]`,
		`1`,
		`4{"message":"unauthorized"}`,
	}

	for _, frame := range frames {
		pkt, err := parsePacket([]byte(frame))
		if err != nil {
			t.Fatalf("parsePacket(%q) returned error: %v", frame, err)
		}
		if got := encodePacket(pkt); !bytes.Equal(got, []byte(frame)) {
			t.Errorf("encode(parse(%q)) = %q, want identity", frame, got)
		}
	}
}

func TestParsePacket_Malformed(t *testing.T) {
	t.Parallel()

	frames := []string{
		``,
		`9`,
		`5["binary-event"]`,
		`2/admin["missing-comma"]`,
		`2{"not":"an array"`,
	}
	for _, frame := range frames {
		if _, err := parsePacket([]byte(frame)); err == nil {
			t.Errorf("parsePacket(%q) = nil error, want failure", frame)
		}
	}
}

func TestParseEvent(t *testing.T) {
	t.Parallel()

	pkt, err := parsePacket([]byte(`2["printer_status",{"Topic":"sdcp/status/001"}]`))
	if err != nil {
		t.Fatalf("parsePacket returned error: %v", err)
	}
	ev, err := parseEvent(pkt)
	if err != nil {
		t.Fatalf("parseEvent returned error: %v", err)
	}
	if ev.Name != "printer_status" {
		t.Errorf("event name = %q, want printer_status", ev.Name)
	}
	if string(ev.Payload) != `{"Topic":"sdcp/status/001"}` {
		t.Errorf("payload = %s", ev.Payload)
	}

	bare, err := parsePacket([]byte(`2["refresh_page"]`))
	if err != nil {
		t.Fatalf("parsePacket returned error: %v", err)
	}
	ev, err = parseEvent(bare)
	if err != nil {
		t.Fatalf("parseEvent returned error: %v", err)
	}
	if ev.Payload != nil {
		t.Errorf("bare event payload = %s, want nil", ev.Payload)
	}

	if _, err := parseEvent(Packet{Type: EventPacket, Data: []byte(`[]`)}); err == nil {
		t.Error("parseEvent accepted an event with no name")
	}
}

func TestMarshalEvent(t *testing.T) {
	t.Parallel()

	frame, err := marshalEvent("action_print", PrinterAction{ID: "p1", Data: "bust.goo"})
	if err != nil {
		t.Fatalf("marshalEvent returned error: %v", err)
	}
	want := `42["action_print",{"id":"p1","data":"bust.goo"}]`
	if string(frame) != want {
		t.Errorf("frame = %s, want %s", frame, want)
	}

	frame, err = marshalEvent("printers", nil)
	if err != nil {
		t.Fatalf("marshalEvent returned error: %v", err)
	}
	if string(frame) != `42["printers"]` {
		t.Errorf("bare frame = %s", frame)
	}
}
