package discord

// ActivityType represents an activity's type.
type ActivityType uint8

const (
	ActivityTypeGame ActivityType = iota
	ActivityTypeStreaming
	ActivityTypeListening
	ActivityTypeWatching
	ActivityTypeCustom
	ActivityTypeCompeting
)

// Activity represents an activity as sent as part of other packets.
type Activity struct {
	Name  string       `json:"name"`
	State string       `json:"state,omitempty"`
	URL   string       `json:"url,omitempty"`
	Type  ActivityType `json:"type"`
}

// Presence represents a presence update event.
type Presence struct {
	User       PresenceUser `json:"user"`
	Status     string       `json:"status"`
	Activities []Activity   `json:"activities"`
	GuildID    Snowflake    `json:"guild_id,omitempty"`
}

// PresenceUser is the partial user sent with a presence.
type PresenceUser struct {
	ID Snowflake `json:"id"`
}
