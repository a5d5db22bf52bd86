package model

// Partial types carry only the fields present in an update event.
// Pointer fields distinguish "not sent" from "set to zero value";
// absent fields always retain their prior snapshot values.

// PartialUser is a sparse user update.
type PartialUser struct {
	Username   *string   `json:"username,omitempty"`
	Avatar     *string   `json:"avatar,omitempty"`
	StatusText *string   `json:"status_text,omitempty"`
	Presence   *Presence `json:"presence,omitempty"`
	Online     *bool     `json:"online,omitempty"`
	Badges     *int      `json:"badges,omitempty"`
}

func (p PartialUser) Apply(s Snapshot) Snapshot {
	u, ok := s.(User)
	if !ok {
		return s
	}
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	if p.StatusText != nil {
		u.StatusText = *p.StatusText
	}
	if p.Presence != nil {
		u.Presence = *p.Presence
	}
	if p.Online != nil {
		u.Online = *p.Online
	}
	if p.Badges != nil {
		u.Badges = *p.Badges
	}
	return u
}

// PartialServer is a sparse server update.
type PartialServer struct {
	Owner       *string  `json:"owner,omitempty"`
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Channels    []string `json:"channels,omitempty"`
	Icon        *string  `json:"icon,omitempty"`
	Banner      *string  `json:"banner,omitempty"`
}

func (p PartialServer) Apply(s Snapshot) Snapshot {
	sv, ok := s.(Server)
	if !ok {
		return s
	}
	if p.Owner != nil {
		sv.Owner = *p.Owner
	}
	if p.Name != nil {
		sv.Name = *p.Name
	}
	if p.Description != nil {
		sv.Description = *p.Description
	}
	if p.Channels != nil {
		sv.Channels = p.Channels
	}
	if p.Icon != nil {
		sv.Icon = *p.Icon
	}
	if p.Banner != nil {
		sv.Banner = *p.Banner
	}
	return sv
}

// PartialChannel is a sparse channel update.
type PartialChannel struct {
	Name          *string  `json:"name,omitempty"`
	Description   *string  `json:"description,omitempty"`
	Icon          *string  `json:"icon,omitempty"`
	Recipients    []string `json:"recipients,omitempty"`
	LastMessageID *string  `json:"last_message_id,omitempty"`
	NSFW          *bool    `json:"nsfw,omitempty"`
}

func (p PartialChannel) Apply(s Snapshot) Snapshot {
	c, ok := s.(Channel)
	if !ok {
		return s
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Icon != nil {
		c.Icon = *p.Icon
	}
	if p.Recipients != nil {
		c.Recipients = p.Recipients
	}
	if p.LastMessageID != nil {
		c.LastMessageID = *p.LastMessageID
	}
	if p.NSFW != nil {
		c.NSFW = *p.NSFW
	}
	return c
}

// PartialMember is a sparse member update.
type PartialMember struct {
	Nickname *string  `json:"nickname,omitempty"`
	Avatar   *string  `json:"avatar,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

func (p PartialMember) Apply(s Snapshot) Snapshot {
	m, ok := s.(Member)
	if !ok {
		return s
	}
	if p.Nickname != nil {
		m.Nickname = *p.Nickname
	}
	if p.Avatar != nil {
		m.Avatar = *p.Avatar
	}
	if p.Roles != nil {
		m.Roles = p.Roles
	}
	return m
}

// PartialMessage is a sparse message update.
type PartialMessage struct {
	Content  *string  `json:"content,omitempty"`
	Edited   *string  `json:"edited,omitempty"`
	Mentions []string `json:"mentions,omitempty"`
}

func (p PartialMessage) Apply(s Snapshot) Snapshot {
	m, ok := s.(Message)
	if !ok {
		return s
	}
	if p.Content != nil {
		m.Content = *p.Content
	}
	if p.Edited != nil {
		m.Edited = *p.Edited
	}
	if p.Mentions != nil {
		m.Mentions = p.Mentions
	}
	return m
}
