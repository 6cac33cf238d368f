package gamenight

import (
	"fmt"

	"github.com/WelcomerTeam/Gamenight/discord"
	"github.com/WelcomerTeam/Gamenight/gamejson"
)

func decodeDispatch(msg discord.GatewayPayload, out any) error {
	if err := gamejson.Unmarshal(msg.Data, out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecode, msg.Type, err)
	}

	return nil
}

func OnReady(state *State, msg discord.GatewayPayload) (Event, error) {
	var ready discord.Ready

	if err := decodeDispatch(msg, &ready); err != nil {
		return nil, err
	}

	state.SetCurrentUser(ready.User)
	state.Users.Store(ready.User.ID, ready.User)
	state.SetApplicationID(ready.Application.ID)

	for _, guild := range ready.Guilds {
		state.Guilds.Upsert(guild.ID, func(existing discord.Guild, _ bool) discord.Guild {
			existing.ID = guild.ID
			existing.Unavailable = true

			return existing
		})
	}

	return &ReadyEvent{Ready: ready}, nil
}

func OnResumed(_ *State, _ discord.GatewayPayload) (Event, error) {
	return &ResumedEvent{}, nil
}

func OnGuildCreate(state *State, msg discord.GatewayPayload) (Event, error) {
	var guild discord.Guild

	if err := decodeDispatch(msg, &guild); err != nil {
		return nil, err
	}

	state.StoreGuild(guild)

	return &GuildCreateEvent{Guild: guild}, nil
}

func OnGuildUpdate(state *State, msg discord.GatewayPayload) (Event, error) {
	var partial struct {
		Roles []discord.Role    `json:"roles"`
		ID    discord.Snowflake `json:"id"`
	}

	if err := decodeDispatch(msg, &partial); err != nil {
		return nil, err
	}

	var err error

	state.Guilds.Upsert(partial.ID, func(existing discord.Guild, _ bool) discord.Guild {
		var patched discord.Guild

		patched, err = patch(existing, msg.Data)
		if err != nil {
			return existing
		}

		// Roles live in their own collection.
		patched.Roles = nil

		return patched
	})

	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, msg.Type, err)
	}

	for _, role := range partial.Roles {
		role.GuildID = partial.ID
		state.GuildRoles.Store(partial.ID, role.ID, role)
	}

	return nil, nil
}

func OnGuildDelete(state *State, msg discord.GatewayPayload) (Event, error) {
	var unavailable discord.UnavailableGuild

	if err := decodeDispatch(msg, &unavailable); err != nil {
		return nil, err
	}

	if unavailable.Unavailable {
		state.Guilds.Update(unavailable.ID, func(guild discord.Guild) discord.Guild {
			guild.Unavailable = true

			return guild
		})

		return nil, nil
	}

	state.RemoveGuild(unavailable.ID)

	return nil, nil
}

func OnChannelCreate(state *State, msg discord.GatewayPayload) (Event, error) {
	var channel discord.Channel

	if err := decodeDispatch(msg, &channel); err != nil {
		return nil, err
	}

	state.Channels.Store(channel.ID, channel)

	return nil, nil
}

func OnChannelUpdate(state *State, msg discord.GatewayPayload) (Event, error) {
	var partial struct {
		ID discord.Snowflake `json:"id"`
	}

	if err := decodeDispatch(msg, &partial); err != nil {
		return nil, err
	}

	return nil, upsertPatch(&state.Channels, partial.ID, msg)
}

func OnChannelDelete(state *State, msg discord.GatewayPayload) (Event, error) {
	var channel discord.Channel

	if err := decodeDispatch(msg, &channel); err != nil {
		return nil, err
	}

	state.Channels.Delete(channel.ID)

	return nil, nil
}

func OnGuildMemberAdd(state *State, msg discord.GatewayPayload) (Event, error) {
	var member discord.GuildMember

	if err := decodeDispatch(msg, &member); err != nil {
		return nil, err
	}

	state.StoreGuildMember(member.GuildID, member)

	state.Guilds.Update(member.GuildID, func(guild discord.Guild) discord.Guild {
		guild.MemberCount++

		return guild
	})

	return nil, nil
}

func OnGuildMemberUpdate(state *State, msg discord.GatewayPayload) (Event, error) {
	var partial struct {
		User    discord.User      `json:"user"`
		GuildID discord.Snowflake `json:"guild_id"`
	}

	if err := decodeDispatch(msg, &partial); err != nil {
		return nil, err
	}

	state.Users.Store(partial.User.ID, partial.User)

	var err error

	state.GuildMembers.Upsert(partial.GuildID, partial.User.ID, func(existing discord.GuildMember, _ bool) discord.GuildMember {
		var patched discord.GuildMember

		patched, err = patch(existing, msg.Data)
		if err != nil {
			return existing
		}

		patched.GuildID = partial.GuildID
		patched.User = nil

		return patched
	})

	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, msg.Type, err)
	}

	return nil, nil
}

func OnGuildMemberRemove(state *State, msg discord.GatewayPayload) (Event, error) {
	var remove discord.GuildMemberRemove

	if err := decodeDispatch(msg, &remove); err != nil {
		return nil, err
	}

	if _, ok := state.GuildMembers.Delete(remove.GuildID, remove.User.ID); ok {
		state.Guilds.Update(remove.GuildID, func(guild discord.Guild) discord.Guild {
			if guild.MemberCount > 0 {
				guild.MemberCount--
			}

			return guild
		})
	}

	return nil, nil
}

func OnGuildMembersChunk(state *State, msg discord.GatewayPayload) (Event, error) {
	var chunk discord.GuildMembersChunk

	if err := decodeDispatch(msg, &chunk); err != nil {
		return nil, err
	}

	for _, member := range chunk.Members {
		state.StoreGuildMember(chunk.GuildID, member)
	}

	for _, presence := range chunk.Presences {
		presence.GuildID = chunk.GuildID
		state.Presences.Store(presence.User.ID, presence)
	}

	return nil, nil
}

func OnGuildRoleUpdate(state *State, msg discord.GatewayPayload) (Event, error) {
	var update discord.GuildRoleUpdate

	if err := decodeDispatch(msg, &update); err != nil {
		return nil, err
	}

	update.Role.GuildID = update.GuildID
	state.GuildRoles.Store(update.GuildID, update.Role.ID, update.Role)

	return nil, nil
}

func OnGuildRoleDelete(state *State, msg discord.GatewayPayload) (Event, error) {
	var remove discord.GuildRoleDelete

	if err := decodeDispatch(msg, &remove); err != nil {
		return nil, err
	}

	state.GuildRoles.Delete(remove.GuildID, remove.RoleID)

	return nil, nil
}

func OnMessageCreate(state *State, msg discord.GatewayPayload) (Event, error) {
	var message discord.Message

	if err := decodeDispatch(msg, &message); err != nil {
		return nil, err
	}

	if !message.Author.ID.IsNil() && message.WebhookID.IsNil() {
		state.Users.Store(message.Author.ID, message.Author)
	}

	if state.CacheMessages {
		state.Messages.Store(message.ID, message)
	}

	state.Channels.Update(message.ChannelID, func(channel discord.Channel) discord.Channel {
		channel.LastMessageID = message.ID

		return channel
	})

	return &MessageCreateEvent{Message: message}, nil
}

func OnMessageUpdate(state *State, msg discord.GatewayPayload) (Event, error) {
	var partial discord.Message

	if err := decodeDispatch(msg, &partial); err != nil {
		return nil, err
	}

	before, ok := state.Messages.Load(partial.ID)
	if !ok {
		return &MessageUpdateEvent{Message: partial}, nil
	}

	after, err := patch(before, msg.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, msg.Type, err)
	}

	state.Messages.Update(partial.ID, func(discord.Message) discord.Message {
		return after
	})

	return &MessageUpdateEvent{Before: &before, Message: after}, nil
}

func OnMessageDelete(state *State, msg discord.GatewayPayload) (Event, error) {
	var remove discord.MessageDelete

	if err := decodeDispatch(msg, &remove); err != nil {
		return nil, err
	}

	state.Messages.Delete(remove.ID)

	return nil, nil
}

func OnMessageDeleteBulk(state *State, msg discord.GatewayPayload) (Event, error) {
	var remove discord.MessageDeleteBulk

	if err := decodeDispatch(msg, &remove); err != nil {
		return nil, err
	}

	for _, id := range remove.IDs {
		state.Messages.Delete(id)
	}

	return nil, nil
}

func onReaction(added bool) func(state *State, msg discord.GatewayPayload) (Event, error) {
	return func(state *State, msg discord.GatewayPayload) (Event, error) {
		var reaction discord.MessageReactionEvent

		if err := decodeDispatch(msg, &reaction); err != nil {
			return nil, err
		}

		if reaction.Member != nil && !reaction.GuildID.IsNil() {
			state.StoreGuildMember(reaction.GuildID, *reaction.Member)
		}

		return &ReactionUpdate{
			Member:    reaction.Member,
			Emoji:     reaction.Emoji,
			UserID:    reaction.UserID,
			ChannelID: reaction.ChannelID,
			MessageID: reaction.MessageID,
			GuildID:   reaction.GuildID,
			Added:     added,
		}, nil
	}
}

func OnPresenceUpdate(state *State, msg discord.GatewayPayload) (Event, error) {
	var partial struct {
		User discord.PresenceUser `json:"user"`
	}

	if err := decodeDispatch(msg, &partial); err != nil {
		return nil, err
	}

	return nil, upsertPatch(&state.Presences, partial.User.ID, msg)
}

func OnUserUpdate(state *State, msg discord.GatewayPayload) (Event, error) {
	var user discord.User

	if err := decodeDispatch(msg, &user); err != nil {
		return nil, err
	}

	state.SetCurrentUser(user)
	state.Users.Store(user.ID, user)

	return nil, nil
}

func OnInteractionCreate(state *State, msg discord.GatewayPayload) (Event, error) {
	var interaction discord.Interaction

	if err := decodeDispatch(msg, &interaction); err != nil {
		return nil, err
	}

	if interaction.Member != nil && !interaction.GuildID.IsNil() {
		member := *interaction.Member
		state.StoreGuildMember(interaction.GuildID, member)
	} else if interaction.User != nil {
		state.Users.Store(interaction.User.ID, *interaction.User)
	}

	return &InteractionCreateEvent{Interaction: interaction}, nil
}

// upsertPatch applies a partial update to a cached entity, creating it from the
// payload when it is not cached yet.
func upsertPatch[V any](cache *Cache[discord.Snowflake, V], id discord.Snowflake, msg discord.GatewayPayload) error {
	var err error

	cache.Upsert(id, func(existing V, _ bool) V {
		var patched V

		patched, err = patch(existing, msg.Data)
		if err != nil {
			return existing
		}

		return patched
	})

	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecode, msg.Type, err)
	}

	return nil
}

func init() {
	registerDispatch("READY", OnReady)
	registerDispatch("RESUMED", OnResumed)
	registerDispatch("GUILD_CREATE", OnGuildCreate)
	registerDispatch("GUILD_UPDATE", OnGuildUpdate)
	registerDispatch("GUILD_DELETE", OnGuildDelete)
	registerDispatch("CHANNEL_CREATE", OnChannelCreate)
	registerDispatch("CHANNEL_UPDATE", OnChannelUpdate)
	registerDispatch("CHANNEL_DELETE", OnChannelDelete)
	registerDispatch("THREAD_CREATE", OnChannelCreate)
	registerDispatch("THREAD_UPDATE", OnChannelUpdate)
	registerDispatch("THREAD_DELETE", OnChannelDelete)
	registerDispatch("GUILD_MEMBER_ADD", OnGuildMemberAdd)
	registerDispatch("GUILD_MEMBER_UPDATE", OnGuildMemberUpdate)
	registerDispatch("GUILD_MEMBER_REMOVE", OnGuildMemberRemove)
	registerDispatch("GUILD_MEMBERS_CHUNK", OnGuildMembersChunk)
	registerDispatch("GUILD_ROLE_CREATE", OnGuildRoleUpdate)
	registerDispatch("GUILD_ROLE_UPDATE", OnGuildRoleUpdate)
	registerDispatch("GUILD_ROLE_DELETE", OnGuildRoleDelete)
	registerDispatch("MESSAGE_CREATE", OnMessageCreate)
	registerDispatch("MESSAGE_UPDATE", OnMessageUpdate)
	registerDispatch("MESSAGE_DELETE", OnMessageDelete)
	registerDispatch("MESSAGE_DELETE_BULK", OnMessageDeleteBulk)
	registerDispatch("MESSAGE_REACTION_ADD", onReaction(true))
	registerDispatch("MESSAGE_REACTION_REMOVE", onReaction(false))
	registerDispatch("PRESENCE_UPDATE", OnPresenceUpdate)
	registerDispatch("USER_UPDATE", OnUserUpdate)
	registerDispatch("INTERACTION_CREATE", OnInteractionCreate)
}
