package discord

import "time"

// guild.go represents all structures for a discord guild.

// Guild represents a guild on discord.
type Guild struct {
	JoinedAt    *time.Time    `json:"joined_at,omitempty"`
	Icon        string        `json:"icon"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Roles       []Role        `json:"roles"`
	Emojis      []Emoji       `json:"emojis"`
	Channels    []Channel     `json:"channels,omitempty"`
	Members     []GuildMember `json:"members,omitempty"`
	Presences   []Presence    `json:"presences,omitempty"`
	ID          Snowflake     `json:"id"`
	OwnerID     Snowflake     `json:"owner_id"`
	MemberCount int32         `json:"member_count,omitempty"`
	Large       bool          `json:"large,omitempty"`
	Unavailable bool          `json:"unavailable,omitempty"`
}

// UnavailableGuild represents an unavailable guild.
type UnavailableGuild struct {
	ID          Snowflake `json:"id"`
	Unavailable bool      `json:"unavailable"`
}
