package wire

import (
	"encoding/json"
	"fmt"
)

// ControlFrame is an outbound frame the client sends over the gateway.
type ControlFrame interface {
	frameType() string
}

// Authenticate opens a session. Exactly one credential form is sent:
// a full session token for a fresh session, or a resume token with the
// previous session id to continue an interrupted one.
type Authenticate struct {
	Token       string `json:"token,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
	ResumeToken string `json:"resume_token,omitempty"`
}

func (Authenticate) frameType() string { return "Authenticate" }

// Resuming reports whether the frame carries resume credentials.
func (a Authenticate) Resuming() bool { return a.ResumeToken != "" }

// Ping is the heartbeat frame. The server echoes the nonce back in a
// Pong.
type Ping struct {
	Nonce int64 `json:"nonce"`
}

func (Ping) frameType() string { return "Ping" }

// BeginTyping starts a typing indicator in a channel. Pass-through;
// it never touches the cache.
type BeginTyping struct {
	Channel string `json:"channel"`
}

func (BeginTyping) frameType() string { return "BeginTyping" }

// EndTyping stops a typing indicator in a channel.
type EndTyping struct {
	Channel string `json:"channel"`
}

func (EndTyping) frameType() string { return "EndTyping" }

type envelope struct {
	Type string `json:"type"`
}

// Encode serializes a control frame to its wire form.
func Encode(f ControlFrame) ([]byte, error) {
	switch fr := f.(type) {
	case Authenticate:
		return json.Marshal(struct {
			Type string `json:"type"`
			Authenticate
		}{fr.frameType(), fr})
	case Ping:
		return json.Marshal(struct {
			Type string `json:"type"`
			Ping
		}{fr.frameType(), fr})
	case BeginTyping:
		return json.Marshal(struct {
			Type string `json:"type"`
			BeginTyping
		}{fr.frameType(), fr})
	case EndTyping:
		return json.Marshal(struct {
			Type string `json:"type"`
			EndTyping
		}{fr.frameType(), fr})
	default:
		return nil, fmt.Errorf("encode: unsupported control frame %T", f)
	}
}

// DecodeControl parses a control frame from its wire form. Used by
// test harnesses acting as the server side of the gateway.
func DecodeControl(data []byte) (ControlFrame, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &CodecError{Err: err}
	}

	switch env.Type {
	case "Authenticate":
		var f Authenticate
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, &CodecError{Tag: env.Type, Err: err}
		}
		return f, nil
	case "Ping":
		var f Ping
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, &CodecError{Tag: env.Type, Err: err}
		}
		return f, nil
	case "BeginTyping":
		var f BeginTyping
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, &CodecError{Tag: env.Type, Err: err}
		}
		return f, nil
	case "EndTyping":
		var f EndTyping
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, &CodecError{Tag: env.Type, Err: err}
		}
		return f, nil
	default:
		return nil, fmt.Errorf("decode control: unknown frame type %q", env.Type)
	}
}
