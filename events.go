package gamenight

import (
	"context"

	"github.com/WelcomerTeam/Gamenight/discord"
)

// List of handlers for gateway events.
var gatewayHandlers = make(map[discord.GatewayOp]func(ctx context.Context, sh *Shard, msg discord.GatewayPayload) error)

// List of handlers for dispatch events. A handler applies the cache effect of
// the event and returns the event to pass to bot handlers, or nil.
var dispatchHandlers = make(map[string]func(state *State, msg discord.GatewayPayload) (Event, error))

func registerGatewayEvent(op discord.GatewayOp, handler func(ctx context.Context, sh *Shard, msg discord.GatewayPayload) error) {
	gatewayHandlers[op] = handler
}

func registerDispatch(eventType string, handler func(state *State, msg discord.GatewayPayload) (Event, error)) {
	dispatchHandlers[eventType] = handler
}

// Event is an event that is forwarded to bot handlers. The set of
// implementations is closed.
type Event interface {
	EventType() string
	event()
}

type ReadyEvent struct {
	discord.Ready
	ShardID int32
}

type ResumedEvent struct {
	ShardID int32
}

type GuildCreateEvent struct {
	discord.Guild
}

type MessageCreateEvent struct {
	discord.Message
}

// MessageUpdateEvent carries the message after the update was applied. Before
// is nil when the message was not cached.
type MessageUpdateEvent struct {
	Before *discord.Message
	discord.Message
}

type InteractionCreateEvent struct {
	discord.Interaction
}

// ReactionUpdate is a normalized reaction add or remove.
type ReactionUpdate struct {
	Member    *discord.GuildMember
	Emoji     discord.Emoji
	UserID    discord.Snowflake
	ChannelID discord.Snowflake
	MessageID discord.Snowflake
	GuildID   discord.Snowflake
	Added     bool
}

func (*ReadyEvent) EventType() string             { return "READY" }
func (*ResumedEvent) EventType() string           { return "RESUMED" }
func (*GuildCreateEvent) EventType() string       { return "GUILD_CREATE" }
func (*MessageCreateEvent) EventType() string     { return "MESSAGE_CREATE" }
func (*MessageUpdateEvent) EventType() string     { return "MESSAGE_UPDATE" }
func (*InteractionCreateEvent) EventType() string { return "INTERACTION_CREATE" }

func (r *ReactionUpdate) EventType() string {
	if r.Added {
		return "MESSAGE_REACTION_ADD"
	}

	return "MESSAGE_REACTION_REMOVE"
}

func (*ReadyEvent) event()             {}
func (*ResumedEvent) event()           {}
func (*GuildCreateEvent) event()       {}
func (*MessageCreateEvent) event()     {}
func (*MessageUpdateEvent) event()     {}
func (*InteractionCreateEvent) event() {}
func (*ReactionUpdate) event()         {}
