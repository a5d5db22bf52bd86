// Package wire implements the gateway frame codec: control frames out,
// server events in. Decoding is permissive: unknown fields are
// ignored and unknown top-level tags come back as an Unknown event so
// new server-side event types never break the stream.
package wire

import (
	"encoding/json"

	"github.com/dgnsrekt/revoltkit/model"
)

// Event is a decoded inbound gateway event.
type Event interface {
	EventType() string
}

// ErrorEvent is a protocol-level error from the server. Auth failures
// arrive this way during the handshake.
type ErrorEvent struct {
	Reason string `json:"error"`
}

func (ErrorEvent) EventType() string { return "Error" }

// Authenticated acknowledges a successful handshake. It advertises the
// heartbeat cadence and, for fresh sessions, the credentials needed to
// resume this session after a drop.
type Authenticated struct {
	SessionID   string `json:"session_id,omitempty"`
	ResumeToken string `json:"resume_token,omitempty"`
	HeartbeatMS int64  `json:"heartbeat_ms,omitempty"`
}

func (Authenticated) EventType() string { return "Authenticated" }

// Pong acknowledges a heartbeat.
type Pong struct {
	Nonce int64 `json:"nonce"`
}

func (Pong) EventType() string { return "Pong" }

// Ready is the bulk state payload sent once per fresh session. It
// establishes the cache baseline; resumed sessions never receive one.
type Ready struct {
	Users    []model.User    `json:"users"`
	Servers  []model.Server  `json:"servers"`
	Channels []model.Channel `json:"channels"`
	Members  []model.Member  `json:"members"`
}

func (Ready) EventType() string { return "Ready" }

// MessageCreate delivers a new message.
type MessageCreate struct {
	model.Message
}

func (MessageCreate) EventType() string { return "Message" }

// MessageUpdate carries a sparse edit of an existing message.
type MessageUpdate struct {
	ID      string               `json:"id"`
	Channel string               `json:"channel"`
	Data    model.PartialMessage `json:"data"`
}

func (MessageUpdate) EventType() string { return "MessageUpdate" }

// MessageDelete removes a message.
type MessageDelete struct {
	ID      string `json:"id"`
	Channel string `json:"channel"`
}

func (MessageDelete) EventType() string { return "MessageDelete" }

// ChannelCreate delivers a new channel.
type ChannelCreate struct {
	model.Channel
}

func (ChannelCreate) EventType() string { return "ChannelCreate" }

// ChannelUpdate carries a sparse channel update. Clear, when set,
// names a field the server reset; it is honored even when data omits
// that field.
type ChannelUpdate struct {
	ID    string               `json:"id"`
	Data  model.PartialChannel `json:"data"`
	Clear string               `json:"clear,omitempty"`
}

func (ChannelUpdate) EventType() string { return "ChannelUpdate" }

// Patch folds the clear directive into the sparse data so one merge
// both overwrites sent fields and resets cleared ones.
func (e ChannelUpdate) Patch() model.PartialChannel {
	p := e.Data
	switch e.Clear {
	case "Description":
		p.Description = new(string)
	case "Icon":
		p.Icon = new(string)
	}
	return p
}

// ChannelDelete removes a channel.
type ChannelDelete struct {
	ID string `json:"id"`
}

func (ChannelDelete) EventType() string { return "ChannelDelete" }

// ServerUpdate carries a sparse server update.
type ServerUpdate struct {
	ID    string              `json:"id"`
	Data  model.PartialServer `json:"data"`
	Clear string              `json:"clear,omitempty"`
}

func (ServerUpdate) EventType() string { return "ServerUpdate" }

// Patch folds the clear directive into the sparse data.
func (e ServerUpdate) Patch() model.PartialServer {
	p := e.Data
	switch e.Clear {
	case "Icon":
		p.Icon = new(string)
	case "Banner":
		p.Banner = new(string)
	case "Description":
		p.Description = new(string)
	}
	return p
}

// ServerDelete removes a server.
type ServerDelete struct {
	ID string `json:"id"`
}

func (ServerDelete) EventType() string { return "ServerDelete" }

// ServerMemberJoin announces a user joining a server.
type ServerMemberJoin struct {
	ID   string `json:"id"`
	User string `json:"user"`
}

func (ServerMemberJoin) EventType() string { return "ServerMemberJoin" }

// ServerMemberLeave announces a user leaving a server.
type ServerMemberLeave struct {
	ID   string `json:"id"`
	User string `json:"user"`
}

func (ServerMemberLeave) EventType() string { return "ServerMemberLeave" }

// MemberRef is the composite identifier of a server member.
type MemberRef struct {
	Server string `json:"server"`
	User   string `json:"user"`
}

// ServerMemberUpdate carries a sparse member update.
type ServerMemberUpdate struct {
	ID    MemberRef           `json:"id"`
	Data  model.PartialMember `json:"data"`
	Clear string              `json:"clear,omitempty"`
}

func (ServerMemberUpdate) EventType() string { return "ServerMemberUpdate" }

// Patch folds the clear directive into the sparse data.
func (e ServerMemberUpdate) Patch() model.PartialMember {
	p := e.Data
	switch e.Clear {
	case "Nickname":
		p.Nickname = new(string)
	case "Avatar":
		p.Avatar = new(string)
	}
	return p
}

// UserUpdate carries a sparse user update.
type UserUpdate struct {
	ID    string            `json:"id"`
	Data  model.PartialUser `json:"data"`
	Clear string            `json:"clear,omitempty"`
}

func (UserUpdate) EventType() string { return "UserUpdate" }

// Patch folds the clear directive into the sparse data.
func (e UserUpdate) Patch() model.PartialUser {
	p := e.Data
	switch e.Clear {
	case "StatusText":
		p.StatusText = new(string)
	case "Avatar":
		p.Avatar = new(string)
	}
	return p
}

// ChannelStartTyping announces a typing indicator. Pass-through; not
// cache-relevant.
type ChannelStartTyping struct {
	ID   string `json:"id"`
	User string `json:"user"`
}

func (ChannelStartTyping) EventType() string { return "ChannelStartTyping" }

// ChannelStopTyping clears a typing indicator.
type ChannelStopTyping struct {
	ID   string `json:"id"`
	User string `json:"user"`
}

func (ChannelStopTyping) EventType() string { return "ChannelStopTyping" }

// Unknown wraps a frame whose tag this client does not recognize.
// Forwarded to subscribers untouched for forward compatibility.
type Unknown struct {
	Type string
	Raw  json.RawMessage
}

func (u Unknown) EventType() string { return u.Type }
