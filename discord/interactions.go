package discord

import "encoding/json"

// InteractionType represents the type of interaction.
type InteractionType uint8

const (
	InteractionTypePing InteractionType = 1 + iota
	InteractionTypeApplicationCommand
	InteractionTypeMessageComponent
	InteractionTypeApplicationCommandAutocomplete
	InteractionTypeModalSubmit
)

// InteractionCallbackType represents the type of interaction callbacks.
type InteractionCallbackType uint8

const (
	InteractionCallbackTypePong                         InteractionCallbackType = 1
	InteractionCallbackTypeChannelMessageSource         InteractionCallbackType = 4
	InteractionCallbackTypeDeferredChannelMessageSource InteractionCallbackType = 5
	InteractionCallbackTypeDeferredUpdateMessage        InteractionCallbackType = 6
	InteractionCallbackTypeUpdateMessage                InteractionCallbackType = 7
	InteractionCallbackTypeAutocompleteResult           InteractionCallbackType = 8
	InteractionCallbackTypeModal                        InteractionCallbackType = 9
)

// ComponentType represents the type of a message component.
type ComponentType uint8

const (
	ComponentTypeActionRow ComponentType = 1 + iota
	ComponentTypeButton
	ComponentTypeStringSelect
	ComponentTypeTextInput
)

// ButtonStyle represents the style of a button component.
type ButtonStyle uint8

const (
	ButtonStylePrimary ButtonStyle = 1 + iota
	ButtonStyleSecondary
	ButtonStyleSuccess
	ButtonStyleDanger
	ButtonStyleLink
)

// Component represents a message component.
type Component struct {
	Emoji      *Emoji        `json:"emoji,omitempty"`
	CustomID   string        `json:"custom_id,omitempty"`
	Label      string        `json:"label,omitempty"`
	URL        string        `json:"url,omitempty"`
	Components []Component   `json:"components,omitempty"`
	Type       ComponentType `json:"type"`
	Style      ButtonStyle   `json:"style,omitempty"`
	Disabled   bool          `json:"disabled,omitempty"`
}

// Interaction represents the structure of an interaction.
type Interaction struct {
	Member        *GuildMember     `json:"member,omitempty"`
	User          *User            `json:"user,omitempty"`
	Message       *Message         `json:"message,omitempty"`
	Data          *InteractionData `json:"data,omitempty"`
	Token         string           `json:"token"`
	Locale        string           `json:"locale,omitempty"`
	GuildLocale   string           `json:"guild_locale,omitempty"`
	ID            Snowflake        `json:"id"`
	ApplicationID Snowflake        `json:"application_id"`
	ChannelID     Snowflake        `json:"channel_id,omitempty"`
	GuildID       Snowflake        `json:"guild_id,omitempty"`
	Version       int32            `json:"version"`
	Type          InteractionType  `json:"type"`
}

// GetUser returns the invoking user. Guild interactions carry it on the member.
func (i Interaction) GetUser() *User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}

	return i.User
}

// InteractionData represents the structure of interaction data.
type InteractionData struct {
	Name          string                  `json:"name,omitempty"`
	CustomID      string                  `json:"custom_id,omitempty"`
	Options       []InteractionDataOption `json:"options,omitempty"`
	Values        []string                `json:"values,omitempty"`
	ID            Snowflake               `json:"id,omitempty"`
	TargetID      Snowflake               `json:"target_id,omitempty"`
	Type          ApplicationCommandType  `json:"type,omitempty"`
	ComponentType ComponentType           `json:"component_type,omitempty"`
}

// InteractionDataOption represents the structure of an interaction option.
type InteractionDataOption struct {
	Name    string                       `json:"name"`
	Value   json.RawMessage              `json:"value,omitempty"`
	Options []InteractionDataOption      `json:"options,omitempty"`
	Type    ApplicationCommandOptionType `json:"type"`
	Focused bool                         `json:"focused,omitempty"`
}

// InteractionResponse represents the interaction response object.
type InteractionResponse struct {
	Data *MessageParams          `json:"data,omitempty"`
	Type InteractionCallbackType `json:"type"`
}
