package gamenight

import (
	"fmt"
	"time"

	"github.com/WelcomerTeam/Gamenight/discord"
	"github.com/WelcomerTeam/Gamenight/gamejson"
	"go.uber.org/atomic"
)

// State is the local mirror of discord entities. Every collection is locked
// independently; there are no cross collection transactions.
type State struct {
	Guilds Cache[discord.Snowflake, discord.Guild]

	GuildMembers DoubleCache[discord.Snowflake, discord.Snowflake, discord.GuildMember]

	GuildRoles DoubleCache[discord.Snowflake, discord.Snowflake, discord.Role]

	Channels Cache[discord.Snowflake, discord.Channel]

	Messages Cache[discord.Snowflake, discord.Message]

	Users Cache[discord.Snowflake, discord.User]

	Presences Cache[discord.Snowflake, discord.Presence]

	// CacheMessages controls whether message events are stored.
	CacheMessages bool

	// GuildRemoved is called after a guild the bot left is removed.
	GuildRemoved func(guildID discord.Snowflake)

	currentUser   atomic.Pointer[discord.User]
	applicationID atomic.Int64
}

func NewState() *State {
	return &State{
		CacheMessages: true,
	}
}

// CurrentUser returns the user the bot is logged in as, or nil before READY.
func (s *State) CurrentUser() *discord.User {
	return s.currentUser.Load()
}

func (s *State) SetCurrentUser(user discord.User) {
	s.currentUser.Store(&user)
}

// ApplicationID returns the cached application id, or 0 when unknown.
func (s *State) ApplicationID() discord.Snowflake {
	return discord.Snowflake(s.applicationID.Load())
}

// SetApplicationID stores the application id if none is stored yet and
// returns the stored value.
func (s *State) SetApplicationID(applicationID discord.Snowflake) discord.Snowflake {
	if applicationID.IsNil() {
		return s.ApplicationID()
	}

	s.applicationID.CompareAndSwap(0, int64(applicationID))

	return s.ApplicationID()
}

// GetGuild returns a guild along with its cached roles.
func (s *State) GetGuild(guildID discord.Snowflake) (guild discord.Guild, ok bool) {
	guild, ok = s.Guilds.Load(guildID)
	if !ok {
		return guild, false
	}

	guild.Roles = s.GuildRoles.Values(guildID)

	return guild, true
}

// GetGuildMember returns a member, filling the user from the user cache.
func (s *State) GetGuildMember(guildID, userID discord.Snowflake) (member discord.GuildMember, ok bool) {
	member, ok = s.GuildMembers.Load(guildID, userID)
	if !ok {
		return member, false
	}

	if user, ok := s.Users.Load(userID); ok {
		member.User = &user
	}

	return member, true
}

// StoreGuild splits a guild into its collections. Channels, members,
// presences and roles are stored separately and stripped from the guild.
func (s *State) StoreGuild(guild discord.Guild) {
	for _, channel := range guild.Channels {
		channel.GuildID = guild.ID
		s.Channels.Store(channel.ID, channel)
	}

	for _, member := range guild.Members {
		s.StoreGuildMember(guild.ID, member)
	}

	for _, presence := range guild.Presences {
		presence.GuildID = guild.ID
		s.Presences.Store(presence.User.ID, presence)
	}

	for _, role := range guild.Roles {
		role.GuildID = guild.ID
		s.GuildRoles.Store(guild.ID, role.ID, role)
	}

	guild.Channels = nil
	guild.Members = nil
	guild.Presences = nil
	guild.Roles = nil

	s.Guilds.Store(guild.ID, guild)
}

// RemoveGuild removes a guild and everything scoped to it.
func (s *State) RemoveGuild(guildID discord.Snowflake) {
	s.Guilds.Delete(guildID)
	s.GuildMembers.DeleteKey(guildID)
	s.GuildRoles.DeleteKey(guildID)

	s.Channels.DeleteIf(func(_ discord.Snowflake, channel discord.Channel) bool {
		return channel.GuildID == guildID
	})

	if s.GuildRemoved != nil {
		s.GuildRemoved(guildID)
	}
}

// StoreGuildMember stores a member, moving its user into the user cache.
func (s *State) StoreGuildMember(guildID discord.Snowflake, member discord.GuildMember) {
	if member.User == nil {
		return
	}

	s.Users.Store(member.User.ID, *member.User)

	userID := member.User.ID
	member.GuildID = guildID
	member.User = nil

	s.GuildMembers.Store(guildID, userID, member)
}

// EjectMessages removes cached messages created before cutoff.
func (s *State) EjectMessages(cutoff time.Time) int {
	return s.Messages.DeleteIf(func(id discord.Snowflake, _ discord.Message) bool {
		return id.Time().Before(cutoff)
	})
}

// RecordMetrics reports the size of every collection.
func (s *State) RecordMetrics() {
	StateMetrics.Entries.WithLabelValues("guilds").Set(float64(s.Guilds.Count()))
	StateMetrics.Entries.WithLabelValues("members").Set(float64(s.GuildMembers.TotalCount()))
	StateMetrics.Entries.WithLabelValues("roles").Set(float64(s.GuildRoles.TotalCount()))
	StateMetrics.Entries.WithLabelValues("channels").Set(float64(s.Channels.Count()))
	StateMetrics.Entries.WithLabelValues("messages").Set(float64(s.Messages.Count()))
	StateMetrics.Entries.WithLabelValues("users").Set(float64(s.Users.Count()))
	StateMetrics.Entries.WithLabelValues("presences").Set(float64(s.Presences.Count()))
}

// patch overlays the fields present in data onto a deep copy of existing.
// The copy keeps readers holding the old value from seeing shared slices change.
func patch[T any](existing T, data []byte) (T, error) {
	var merged T

	raw, err := gamejson.Marshal(existing)
	if err != nil {
		return existing, fmt.Errorf("failed to copy: %w", err)
	}

	if err = gamejson.Unmarshal(raw, &merged); err != nil {
		return existing, fmt.Errorf("failed to copy: %w", err)
	}

	if err = gamejson.Unmarshal(data, &merged); err != nil {
		return existing, fmt.Errorf("failed to patch: %w", err)
	}

	return merged, nil
}
