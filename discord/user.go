package discord

import "time"

// user.go represents all structures for a discord user.

// User represents a user on discord.
type User struct {
	GlobalName    string    `json:"global_name,omitempty"`
	Avatar        string    `json:"avatar,omitempty"`
	Username      string    `json:"username"`
	Discriminator string    `json:"discriminator,omitempty"`
	ID            Snowflake `json:"id"`
	Bot           bool      `json:"bot,omitempty"`
	System        bool      `json:"system,omitempty"`
}

// DisplayName returns the global name of a user, falling back to the username.
func (u User) DisplayName() string {
	if u.GlobalName != "" {
		return u.GlobalName
	}

	return u.Username
}

// Mention returns a string that mentions the user.
func (u User) Mention() string {
	return "<@" + u.ID.String() + ">"
}

// GuildMember represents a guild member on discord.
type GuildMember struct {
	User     *User       `json:"user,omitempty"`
	JoinedAt *time.Time  `json:"joined_at,omitempty"`
	Nick     string      `json:"nick,omitempty"`
	Avatar   string      `json:"avatar,omitempty"`
	Roles    []Snowflake `json:"roles"`
	GuildID  Snowflake   `json:"guild_id,omitempty"`
	Deaf     bool        `json:"deaf"`
	Mute     bool        `json:"mute"`
	Pending  bool        `json:"pending,omitempty"`
}
