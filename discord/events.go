package discord

// events.go contains the structures of all received events from discord

// Hello represents a hello event when connecting.
type Hello struct {
	HeartbeatInterval int64 `json:"heartbeat_interval"`
}

// Ready represents when the client has completed the initial handshake.
type Ready struct {
	SessionID        string             `json:"session_id"`
	ResumeGatewayURL string             `json:"resume_gateway_url"`
	Guilds           []UnavailableGuild `json:"guilds"`
	Shard            []int32            `json:"shard,omitempty"`
	Application      Application        `json:"application"`
	User             User               `json:"user"`
	Version          int32              `json:"v"`
}

// GuildMemberRemove represents the guild member remove event.
type GuildMemberRemove struct {
	User    User      `json:"user"`
	GuildID Snowflake `json:"guild_id"`
}

// GuildMembersChunk represents the guild members chunk event.
type GuildMembersChunk struct {
	Members    []GuildMember `json:"members"`
	NotFound   []Snowflake   `json:"not_found,omitempty"`
	Presences  []Presence    `json:"presences,omitempty"`
	Nonce      string        `json:"nonce,omitempty"`
	GuildID    Snowflake     `json:"guild_id"`
	ChunkIndex int32         `json:"chunk_index"`
	ChunkCount int32         `json:"chunk_count"`
}

// GuildRoleUpdate represents the guild role create and update events.
type GuildRoleUpdate struct {
	Role    Role      `json:"role"`
	GuildID Snowflake `json:"guild_id"`
}

// GuildRoleDelete represents a guild role delete event.
type GuildRoleDelete struct {
	GuildID Snowflake `json:"guild_id"`
	RoleID  Snowflake `json:"role_id"`
}

// MessageDelete represents the message delete event.
type MessageDelete struct {
	ID        Snowflake `json:"id"`
	ChannelID Snowflake `json:"channel_id"`
	GuildID   Snowflake `json:"guild_id,omitempty"`
}

// MessageDeleteBulk represents a message delete bulk event.
type MessageDeleteBulk struct {
	IDs       []Snowflake `json:"ids"`
	ChannelID Snowflake   `json:"channel_id"`
	GuildID   Snowflake   `json:"guild_id,omitempty"`
}

// MessageReactionEvent represents both the message reaction add and remove events.
// Member is only present on add.
type MessageReactionEvent struct {
	Member    *GuildMember `json:"member,omitempty"`
	Emoji     Emoji        `json:"emoji"`
	UserID    Snowflake    `json:"user_id"`
	ChannelID Snowflake    `json:"channel_id"`
	MessageID Snowflake    `json:"message_id"`
	GuildID   Snowflake    `json:"guild_id,omitempty"`
}
