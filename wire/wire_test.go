package wire

import (
	"errors"
	"testing"

	"github.com/dgnsrekt/revoltkit/model"
)

func TestControlFrameRoundTrip(t *testing.T) {
	frames := []ControlFrame{
		Authenticate{Token: "tok-123"},
		Authenticate{SessionID: "sess-1", ResumeToken: "res-456"},
		Ping{Nonce: 42},
		BeginTyping{Channel: "chan-1"},
		EndTyping{Channel: "chan-1"},
	}

	for _, f := range frames {
		data, err := Encode(f)
		if err != nil {
			t.Fatalf("encode %T: %v", f, err)
		}

		decoded, err := DecodeControl(data)
		if err != nil {
			t.Fatalf("decode %T: %v", f, err)
		}

		if decoded != f {
			t.Errorf("round trip mismatch: sent %#v, got %#v", f, decoded)
		}
	}
}

func TestAuthenticateResuming(t *testing.T) {
	if (Authenticate{Token: "t"}).Resuming() {
		t.Error("full-token authenticate should not report resuming")
	}
	if !(Authenticate{SessionID: "s", ResumeToken: "r"}).Resuming() {
		t.Error("resume authenticate should report resuming")
	}
}

func TestDecodeKnownEvents(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"Authenticated","session_id":"s1","resume_token":"r1","heartbeat_ms":15000}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	auth, ok := ev.(Authenticated)
	if !ok {
		t.Fatalf("expected Authenticated, got %T", ev)
	}
	if auth.SessionID != "s1" || auth.ResumeToken != "r1" || auth.HeartbeatMS != 15000 {
		t.Errorf("unexpected payload: %+v", auth)
	}

	ev, err = Decode([]byte(`{"type":"Message","_id":"m1","channel":"c1","author":"u1","content":"hello"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msg, ok := ev.(MessageCreate)
	if !ok {
		t.Fatalf("expected MessageCreate, got %T", ev)
	}
	if msg.ID != "m1" || msg.Content != "hello" {
		t.Errorf("unexpected message: %+v", msg)
	}

	ev, err = Decode([]byte(`{"type":"ChannelUpdate","id":"c1","data":{"name":"renamed"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	upd, ok := ev.(ChannelUpdate)
	if !ok {
		t.Fatalf("expected ChannelUpdate, got %T", ev)
	}
	if upd.Data.Name == nil || *upd.Data.Name != "renamed" {
		t.Errorf("expected partial name, got %+v", upd.Data)
	}
	if upd.Data.Description != nil {
		t.Error("absent field should stay nil in partial")
	}

	ev, err = Decode([]byte(`{"type":"ServerMemberUpdate","id":{"server":"s1","user":"u1"},"data":{"nickname":"nick"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mu, ok := ev.(ServerMemberUpdate)
	if !ok {
		t.Fatalf("expected ServerMemberUpdate, got %T", ev)
	}
	if mu.ID.Server != "s1" || mu.ID.User != "u1" {
		t.Errorf("unexpected member ref: %+v", mu.ID)
	}
}

func TestDecodeClearDirective(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"ServerUpdate","id":"s1","data":{"name":"renamed"},"clear":"Icon"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	upd, ok := ev.(ServerUpdate)
	if !ok {
		t.Fatalf("expected ServerUpdate, got %T", ev)
	}
	if upd.Clear != "Icon" {
		t.Errorf("expected clear directive Icon, got %q", upd.Clear)
	}

	p := upd.Patch()
	if p.Icon == nil || *p.Icon != "" {
		t.Error("clear directive must fold into an explicit empty value")
	}
	if p.Name == nil || *p.Name != "renamed" {
		t.Errorf("sent fields must survive the fold, got %+v", p)
	}
	if p.Banner != nil || p.Description != nil {
		t.Errorf("uncleared absent fields must stay nil, got %+v", p)
	}

	// Unrecognized clear names are ignored rather than guessed at.
	unk := ServerUpdate{Clear: "SomethingElse"}.Patch()
	if unk.Icon != nil || unk.Banner != nil || unk.Description != nil {
		t.Errorf("unknown clear name must not reset anything, got %+v", unk)
	}
}

func TestDecodeReady(t *testing.T) {
	raw := `{
		"type": "Ready",
		"users": [{"_id":"u1","username":"ana"}],
		"servers": [{"_id":"s1","owner":"u1","name":"home"}],
		"channels": [{"_id":"c1","channel_type":"TextChannel","server":"s1","name":"general"}],
		"members": [{"server":"s1","user":"u1"}]
	}`

	ev, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ready, ok := ev.(Ready)
	if !ok {
		t.Fatalf("expected Ready, got %T", ev)
	}
	if len(ready.Users) != 1 || len(ready.Servers) != 1 || len(ready.Channels) != 1 || len(ready.Members) != 1 {
		t.Errorf("unexpected bulk sizes: %+v", ready)
	}
	if ready.Channels[0].Type != model.ChannelText {
		t.Errorf("unexpected channel type: %s", ready.Channels[0].Type)
	}
}

func TestDecodeUnknownTag(t *testing.T) {
	raw := `{"type":"SomethingNew","payload":{"a":1}}`
	ev, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("unknown tag must not error, got %v", err)
	}
	unk, ok := ev.(Unknown)
	if !ok {
		t.Fatalf("expected Unknown, got %T", ev)
	}
	if unk.Type != "SomethingNew" {
		t.Errorf("unexpected tag: %s", unk.Type)
	}
	if string(unk.Raw) != raw {
		t.Errorf("raw payload not preserved: %s", unk.Raw)
	}
}

func TestDecodeMalformedKnownTag(t *testing.T) {
	_, err := Decode([]byte(`{"type":"Pong","nonce":"not-a-number"}`))
	if err == nil {
		t.Fatal("expected codec error for malformed known tag")
	}
	var ce *CodecError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CodecError, got %T", err)
	}
	if ce.Tag != "Pong" {
		t.Errorf("expected tag Pong, got %q", ce.Tag)
	}
}

func TestDecodeInvalidJSON(t *testing.T) {
	_, err := Decode([]byte(`{not json`))
	var ce *CodecError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CodecError, got %v", err)
	}
}

func TestDecodeIgnoresUnknownFields(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"Pong","nonce":7,"brand_new_field":true}`))
	if err != nil {
		t.Fatalf("unknown fields must be ignored, got %v", err)
	}
	if pong, ok := ev.(Pong); !ok || pong.Nonce != 7 {
		t.Errorf("unexpected result: %#v", ev)
	}
}
