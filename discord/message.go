package discord

import (
	"io"
	"time"
)

// message.go represents all structures for a discord message.

// MessageType represents the type of message that has been sent.
type MessageType uint8

const (
	MessageTypeDefault MessageType = iota
	MessageTypeRecipientAdd
	MessageTypeRecipientRemove
	MessageTypeCall
	MessageTypeChannelNameChange
	MessageTypeChannelIconChange
	MessageTypeChannelPinnedMessage
	MessageTypeGuildMemberJoin
)

const (
	MessageTypeReply              MessageType = 19
	MessageTypeApplicationCommand MessageType = 20
)

// MessageFlags represents the extra information on a message.
type MessageFlags uint32

const (
	MessageFlagCrossposted MessageFlags = 1 << iota
	MessageFlagIsCrosspost
	MessageFlagSuppressEmbeds
	MessageFlagSourceMessageDeleted
	MessageFlagUrgent
	MessageFlagHasThread
	MessageFlagEphemeral
	MessageFlagLoading
)

// Message represents a message on discord.
type Message struct {
	Timestamp       time.Time         `json:"timestamp"`
	EditedTimestamp *time.Time        `json:"edited_timestamp,omitempty"`
	Member          *GuildMember      `json:"member,omitempty"`
	Author          User              `json:"author"`
	Content         string            `json:"content"`
	Embeds          []Embed           `json:"embeds"`
	Reactions       []MessageReaction `json:"reactions,omitempty"`
	Mentions        []User            `json:"mentions"`
	Components      []Component       `json:"components,omitempty"`
	ID              Snowflake         `json:"id"`
	ChannelID       Snowflake         `json:"channel_id"`
	GuildID         Snowflake         `json:"guild_id,omitempty"`
	WebhookID       Snowflake         `json:"webhook_id,omitempty"`
	Flags           MessageFlags      `json:"flags,omitempty"`
	Type            MessageType       `json:"type"`
	Pinned          bool              `json:"pinned"`
	TTS             bool              `json:"tts"`
}

// MessageReaction represents a reaction to a message on discord.
type MessageReaction struct {
	Emoji Emoji `json:"emoji"`
	Count int32 `json:"count"`
	Me    bool  `json:"me"`
}

// Embed represents a message embed on discord.
type Embed struct {
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Color       int32        `json:"color,omitempty"`
}

// EmbedFooter represents the footer of an embed.
type EmbedFooter struct {
	Text    string `json:"text"`
	IconURL string `json:"icon_url,omitempty"`
}

// EmbedField represents a field in an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// AllowedMentions restricts which mentions in a message notify.
type AllowedMentions struct {
	Parse       []string    `json:"parse"`
	Roles       []Snowflake `json:"roles,omitempty"`
	Users       []Snowflake `json:"users,omitempty"`
	RepliedUser bool        `json:"replied_user,omitempty"`
}

// MessageReference references another message when replying.
type MessageReference struct {
	MessageID       Snowflake `json:"message_id,omitempty"`
	ChannelID       Snowflake `json:"channel_id,omitempty"`
	GuildID         Snowflake `json:"guild_id,omitempty"`
	FailIfNotExists bool      `json:"fail_if_not_exists"`
}

// MessageParams represents the payload used to create or edit a message.
type MessageParams struct {
	AllowedMentions  *AllowedMentions  `json:"allowed_mentions,omitempty"`
	MessageReference *MessageReference `json:"message_reference,omitempty"`
	Content          string            `json:"content,omitempty"`
	Embeds           []Embed           `json:"embeds,omitempty"`
	Components       []Component       `json:"components,omitempty"`
	Flags            MessageFlags      `json:"flags,omitempty"`
	TTS              bool              `json:"tts,omitempty"`
}

// File represents a file attachment uploaded alongside a payload.
type File struct {
	Reader      io.Reader
	Name        string
	ContentType string
}
