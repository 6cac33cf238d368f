package discord

import (
	"encoding/json"
	"time"
)

// gateway.go contains all structures for interacting with discord's gateway and contains
// all events and structures we send to discord.

// GatewayOp represents the operation codes of a gateway message.
type GatewayOp uint8

const (
	GatewayOpDispatch GatewayOp = iota
	GatewayOpHeartbeat
	GatewayOpIdentify
	GatewayOpStatusUpdate
	GatewayOpVoiceStateUpdate
	_
	GatewayOpResume
	GatewayOpReconnect
	GatewayOpRequestGuildMembers
	GatewayOpInvalidSession
	GatewayOpHello
	GatewayOpHeartbeatACK
)

func (op GatewayOp) String() string {
	switch op {
	case GatewayOpDispatch:
		return "Dispatch"
	case GatewayOpHeartbeat:
		return "Heartbeat"
	case GatewayOpIdentify:
		return "Identify"
	case GatewayOpStatusUpdate:
		return "StatusUpdate"
	case GatewayOpVoiceStateUpdate:
		return "VoiceStateUpdate"
	case GatewayOpResume:
		return "Resume"
	case GatewayOpReconnect:
		return "Reconnect"
	case GatewayOpRequestGuildMembers:
		return "RequestGuildMembers"
	case GatewayOpInvalidSession:
		return "InvalidSession"
	case GatewayOpHello:
		return "Hello"
	case GatewayOpHeartbeatACK:
		return "HeartbeatACK"
	default:
		return "Unknown"
	}
}

// GatewayIntent represents a bitflag for intents.
type GatewayIntent int64

const (
	IntentGuilds GatewayIntent = 1 << iota
	IntentGuildMembers
	IntentGuildBans
	IntentGuildEmojis
	IntentGuildIntegrations
	IntentGuildWebhooks
	IntentGuildInvites
	IntentGuildVoiceStates
	IntentGuildPresences
	IntentGuildMessages
	IntentGuildMessageReactions
	IntentGuildMessageTyping
	IntentDirectMessages
	IntentDirectMessageReactions
	IntentDirectMessageTyping
	IntentMessageContent
)

// Gateway close codes.
const (
	CloseUnknownError = 4000 + iota
	CloseUnknownOpCode
	CloseDecodeError
	CloseNotAuthenticated
	CloseAuthenticationFailed
	CloseAlreadyAuthenticated
	_
	CloseInvalidSeq
	CloseRateLimited
	CloseSessionTimeout
	CloseInvalidShard
	CloseShardingRequired
	CloseInvalidAPIVersion
	CloseInvalidIntents
	CloseDisallowedIntents
)

// GatewayPayload represents the base payload received from discord gateway.
type GatewayPayload struct {
	Op       GatewayOp       `json:"op"`
	Data     json.RawMessage `json:"d"`
	Sequence int64           `json:"s"`
	Type     string          `json:"t"`
}

// SentPayload represents the base payload we send to discords gateway.
type SentPayload struct {
	Op   GatewayOp `json:"op"`
	Data any       `json:"d"`
}

// GatewayBot is the response of the get gateway bot endpoint.
type GatewayBot struct {
	URL               string `json:"url"`
	Shards            int32  `json:"shards"`
	SessionStartLimit struct {
		Total          int32 `json:"total"`
		Remaining      int32 `json:"remaining"`
		ResetAfter     int32 `json:"reset_after"`
		MaxConcurrency int32 `json:"max_concurrency"`
	} `json:"session_start_limit"`
}

// Gateway Commands

// Identify represents the initial handshake with the gateway.
type Identify struct {
	Token          string              `json:"token"`
	Properties     *IdentifyProperties `json:"properties"`
	Compress       bool                `json:"compress"`
	LargeThreshold int32               `json:"large_threshold,omitempty"`
	Shard          [2]int32            `json:"shard"`
	Presence       *UpdateStatus       `json:"presence,omitempty"`
	Intents        GatewayIntent       `json:"intents"`
}

// IdentifyProperties are the extra properties sent in the identify packet.
type IdentifyProperties struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Device  string `json:"device"`
}

// Resume resumes a dropped gateway connection.
type Resume struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	Sequence  int64  `json:"seq"`
}

// RequestGuildMembers requests members for a guild.
type RequestGuildMembers struct {
	GuildID   Snowflake   `json:"guild_id"`
	Query     string      `json:"query"`
	Limit     int32       `json:"limit"`
	Presences bool        `json:"presences,omitempty"`
	Nonce     string      `json:"nonce,omitempty"`
	UserIDs   []Snowflake `json:"user_ids,omitempty"`
}

// UpdateStatus updates a client's presence.
type UpdateStatus struct {
	Since      *int64     `json:"since"`
	Activities []Activity `json:"activities"`
	Status     string     `json:"status"`
	AFK        bool       `json:"afk"`
}

// Interval returns the heartbeat interval as a duration.
func (h Hello) Interval() time.Duration {
	return time.Duration(h.HeartbeatInterval) * time.Millisecond
}
