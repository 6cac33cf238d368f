package discord

// Role represents a role on discord.
type Role struct {
	Name        string    `json:"name"`
	Icon        string    `json:"icon,omitempty"`
	ID          Snowflake `json:"id"`
	GuildID     Snowflake `json:"guild_id,omitempty"`
	Permissions Int64     `json:"permissions"`
	Color       int32     `json:"color"`
	Position    int32     `json:"position"`
	Hoist       bool      `json:"hoist"`
	Managed     bool      `json:"managed"`
	Mentionable bool      `json:"mentionable"`
}
