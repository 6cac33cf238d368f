package discord

// application.go contains all structures for applications.

// Application represents a bot application.
type Application struct {
	Owner       *User     `json:"owner,omitempty"`
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
	ID          Snowflake `json:"id"`
	Flags       int32     `json:"flags,omitempty"`
	BotPublic   bool      `json:"bot_public,omitempty"`
}

// ApplicationCommandType represents the different types of application command.
type ApplicationCommandType uint8

const (
	ApplicationCommandTypeChatInput ApplicationCommandType = 1 + iota
	ApplicationCommandTypeUser
	ApplicationCommandTypeMessage
)

// ApplicationCommandOptionType represents the different types of options.
type ApplicationCommandOptionType uint8

const (
	ApplicationCommandOptionTypeSubCommand ApplicationCommandOptionType = 1 + iota
	ApplicationCommandOptionTypeSubCommandGroup
	ApplicationCommandOptionTypeString
	ApplicationCommandOptionTypeInteger
	ApplicationCommandOptionTypeBoolean
	ApplicationCommandOptionTypeUser
	ApplicationCommandOptionTypeChannel
	ApplicationCommandOptionTypeRole
	ApplicationCommandOptionTypeMentionable
	ApplicationCommandOptionTypeNumber
	ApplicationCommandOptionTypeAttachment
)

// ApplicationCommand represents an application's command.
type ApplicationCommand struct {
	DefaultMemberPermissions *Int64                     `json:"default_member_permissions,omitempty"`
	DMPermission             *bool                      `json:"dm_permission,omitempty"`
	Name                     string                     `json:"name"`
	Description              string                     `json:"description,omitempty"`
	Options                  []ApplicationCommandOption `json:"options,omitempty"`
	ID                       Snowflake                  `json:"id,omitempty"`
	ApplicationID            Snowflake                  `json:"application_id,omitempty"`
	GuildID                  Snowflake                  `json:"guild_id,omitempty"`
	Type                     ApplicationCommandType     `json:"type,omitempty"`
}

// ApplicationCommandOption represents an option for an application command.
type ApplicationCommandOption struct {
	Name        string                           `json:"name"`
	Description string                           `json:"description"`
	Choices     []ApplicationCommandOptionChoice `json:"choices,omitempty"`
	Options     []ApplicationCommandOption       `json:"options,omitempty"`
	Type        ApplicationCommandOptionType     `json:"type"`
	Required    bool                             `json:"required,omitempty"`
}

// ApplicationCommandOptionChoice represents a predefined choice for an option.
type ApplicationCommandOptionChoice struct {
	Value any    `json:"value"`
	Name  string `json:"name"`
}
