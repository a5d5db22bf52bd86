// Package model defines the entity snapshots mirrored by the cache:
// users, servers, channels, members, and messages. Snapshots are plain
// data; all mutation goes through the partial-update types in this
// package.
package model

// Kind identifies an entity family in the cache.
type Kind string

const (
	KindUser    Kind = "user"
	KindServer  Kind = "server"
	KindChannel Kind = "channel"
	KindMember  Kind = "member"
	KindMessage Kind = "message"
)

// Kinds lists every entity kind, in cache-clear order.
var Kinds = []Kind{KindUser, KindServer, KindChannel, KindMember, KindMessage}

// Snapshot is a full entity record with a stable identifier.
type Snapshot interface {
	SnapshotID() string
}

// Partial is a sparse update applied over an existing snapshot.
// Apply returns a new snapshot with only the populated fields
// overwritten; it never mutates its input.
type Partial interface {
	Apply(s Snapshot) Snapshot
}

// Presence is a user's advertised availability.
type Presence string

const (
	PresenceOnline    Presence = "Online"
	PresenceIdle      Presence = "Idle"
	PresenceBusy      Presence = "Busy"
	PresenceInvisible Presence = "Invisible"
)

// User is a platform account.
type User struct {
	ID         string   `json:"_id"`
	Username   string   `json:"username"`
	Avatar     string   `json:"avatar,omitempty"`
	StatusText string   `json:"status_text,omitempty"`
	Presence   Presence `json:"presence,omitempty"`
	Online     bool     `json:"online"`
	Badges     int      `json:"badges,omitempty"`
}

func (u User) SnapshotID() string { return u.ID }

// Server is a community containing channels and members.
type Server struct {
	ID          string   `json:"_id"`
	Owner       string   `json:"owner"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Channels    []string `json:"channels,omitempty"`
	Icon        string   `json:"icon,omitempty"`
	Banner      string   `json:"banner,omitempty"`
}

func (s Server) SnapshotID() string { return s.ID }

// ChannelType distinguishes the channel flavors the gateway delivers.
type ChannelType string

const (
	ChannelText          ChannelType = "TextChannel"
	ChannelVoice         ChannelType = "VoiceChannel"
	ChannelDM            ChannelType = "DirectMessage"
	ChannelGroup         ChannelType = "Group"
	ChannelSavedMessages ChannelType = "SavedMessages"
)

// Channel is a message container, either inside a server or direct.
type Channel struct {
	ID            string      `json:"_id"`
	Type          ChannelType `json:"channel_type"`
	Server        string      `json:"server,omitempty"`
	Name          string      `json:"name,omitempty"`
	Description   string      `json:"description,omitempty"`
	Icon          string      `json:"icon,omitempty"`
	Recipients    []string    `json:"recipients,omitempty"`
	LastMessageID string      `json:"last_message_id,omitempty"`
	NSFW          bool        `json:"nsfw,omitempty"`
}

func (c Channel) SnapshotID() string { return c.ID }

// ServerID returns the owning server, empty for direct channels.
func (c Channel) ServerID() string { return c.Server }

// Member is a user's per-server profile. Its cache identity is the
// composite server/user pair.
type Member struct {
	ServerID string   `json:"server"`
	UserID   string   `json:"user"`
	Nickname string   `json:"nickname,omitempty"`
	Avatar   string   `json:"avatar,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

func (m Member) SnapshotID() string { return MemberID(m.ServerID, m.UserID) }

// MemberID builds the composite cache key for a server member.
func MemberID(serverID, userID string) string {
	return serverID + "/" + userID
}

// Message is a single chat message.
type Message struct {
	ID       string   `json:"_id"`
	Channel  string   `json:"channel"`
	Author   string   `json:"author"`
	Content  string   `json:"content"`
	Edited   string   `json:"edited,omitempty"`
	Mentions []string `json:"mentions,omitempty"`
	Replies  []string `json:"replies,omitempty"`
	Nonce    string   `json:"nonce,omitempty"`
}

func (m Message) SnapshotID() string { return m.ID }
