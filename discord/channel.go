package discord

// channel.go represents all structures for a discord channel.

// ChannelType represents a channel's type.
type ChannelType uint16

const (
	ChannelTypeGuildText ChannelType = iota
	ChannelTypeDM
	ChannelTypeGuildVoice
	ChannelTypeGroupDM
	ChannelTypeGuildCategory
	ChannelTypeGuildNews
	_
	_
	_
	_
	ChannelTypeGuildNewsThread
	ChannelTypeGuildPublicThread
	ChannelTypeGuildPrivateThread
	ChannelTypeGuildStageVoice
	ChannelTypeGuildDirectory
	ChannelTypeGuildForum
)

// Channel represents a discord channel.
type Channel struct {
	Name          string      `json:"name,omitempty"`
	Topic         string      `json:"topic,omitempty"`
	Recipients    []User      `json:"recipients,omitempty"`
	ID            Snowflake   `json:"id"`
	GuildID       Snowflake   `json:"guild_id,omitempty"`
	ParentID      Snowflake   `json:"parent_id,omitempty"`
	LastMessageID Snowflake   `json:"last_message_id,omitempty"`
	OwnerID       Snowflake   `json:"owner_id,omitempty"`
	Position      int32       `json:"position,omitempty"`
	Type          ChannelType `json:"type"`
	NSFW          bool        `json:"nsfw,omitempty"`
}
