package gamenight

import (
	"context"
	"fmt"

	"github.com/WelcomerTeam/Gamenight/discord"
)

// actions.go contains the typed REST calls used by bots.

func (c *Client) GetGatewayBot(ctx context.Context) (*discord.GatewayBot, error) {
	var gateway discord.GatewayBot

	if err := c.REST.Request(ctx, RouteGetGatewayBot(), nil, nil, &gateway); err != nil {
		return nil, fmt.Errorf("failed to get gateway bot: %w", err)
	}

	return &gateway, nil
}

func (c *Client) GetCurrentApplication(ctx context.Context) (*discord.Application, error) {
	var application discord.Application

	if err := c.REST.Request(ctx, RouteGetCurrentApplication(), nil, nil, &application); err != nil {
		return nil, fmt.Errorf("failed to get current application: %w", err)
	}

	return &application, nil
}

func (c *Client) GetCurrentUser(ctx context.Context) (*discord.User, error) {
	var user discord.User

	if err := c.REST.Request(ctx, RouteGetCurrentUser(), nil, nil, &user); err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	return &user, nil
}

// GetChannel returns the cached channel, falling back to the API.
func (c *Client) GetChannel(ctx context.Context, channelID discord.Snowflake) (*discord.Channel, error) {
	if channel, ok := c.State.Channels.Load(channelID); ok {
		return &channel, nil
	}

	var channel discord.Channel

	if err := c.REST.Request(ctx, RouteGetChannel(channelID), nil, nil, &channel); err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}

	c.State.Channels.Store(channel.ID, channel)

	return &channel, nil
}

// GetGuildMember returns the cached member, falling back to the API.
func (c *Client) GetGuildMember(ctx context.Context, guildID, userID discord.Snowflake) (*discord.GuildMember, error) {
	if member, ok := c.State.GetGuildMember(guildID, userID); ok {
		return &member, nil
	}

	var member discord.GuildMember

	if err := c.REST.Request(ctx, RouteGetGuildMember(guildID, userID), nil, nil, &member); err != nil {
		return nil, fmt.Errorf("failed to get guild member: %w", err)
	}

	member.GuildID = guildID
	c.State.StoreGuildMember(guildID, member)

	return &member, nil
}

// CreateDM opens a direct message channel with a user.
func (c *Client) CreateDM(ctx context.Context, userID discord.Snowflake) (*discord.Channel, error) {
	var channel discord.Channel

	body := struct {
		RecipientID discord.Snowflake `json:"recipient_id"`
	}{RecipientID: userID}

	if err := c.REST.Request(ctx, RouteCreateDM(), body, nil, &channel); err != nil {
		return nil, fmt.Errorf("failed to create dm: %w", err)
	}

	return &channel, nil
}

func (c *Client) CreateMessage(ctx context.Context, channelID discord.Snowflake, params discord.MessageParams, files ...discord.File) (*discord.Message, error) {
	var message discord.Message

	if err := c.REST.Request(ctx, RouteCreateMessage(channelID), params, files, &message); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	return &message, nil
}

func (c *Client) EditMessage(ctx context.Context, channelID, messageID discord.Snowflake, params discord.MessageParams) (*discord.Message, error) {
	var message discord.Message

	if err := c.REST.Request(ctx, RouteEditMessage(channelID, messageID), params, nil, &message); err != nil {
		return nil, fmt.Errorf("failed to edit message: %w", err)
	}

	return &message, nil
}

func (c *Client) DeleteMessage(ctx context.Context, channelID, messageID discord.Snowflake) error {
	if err := c.REST.Request(ctx, RouteDeleteMessage(channelID, messageID), nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	return nil
}

// CreateReaction reacts to a message. Emoji is either a unicode emoji or name:id.
func (c *Client) CreateReaction(ctx context.Context, channelID, messageID discord.Snowflake, emoji string) error {
	if err := c.REST.Request(ctx, RouteCreateReaction(channelID, messageID, emoji), nil, nil, nil); err != nil {
		return fmt.Errorf("failed to create reaction: %w", err)
	}

	return nil
}

func (c *Client) DeleteOwnReaction(ctx context.Context, channelID, messageID discord.Snowflake, emoji string) error {
	if err := c.REST.Request(ctx, RouteDeleteOwnReaction(channelID, messageID, emoji), nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete own reaction: %w", err)
	}

	return nil
}

func (c *Client) DeleteUserReaction(ctx context.Context, channelID, messageID discord.Snowflake, emoji string, userID discord.Snowflake) error {
	if err := c.REST.Request(ctx, RouteDeleteUserReaction(channelID, messageID, emoji, userID), nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete user reaction: %w", err)
	}

	return nil
}

// Respond sends the initial response to an interaction.
func (c *Client) Respond(ctx context.Context, interaction discord.Interaction, response discord.InteractionResponse, files ...discord.File) error {
	route := RouteCreateInteractionResponse(interaction.ID, interaction.Token)

	if err := c.REST.Request(ctx, route, response, files, nil); err != nil {
		return fmt.Errorf("failed to respond to interaction: %w", err)
	}

	return nil
}

func (c *Client) EditOriginalResponse(ctx context.Context, interaction discord.Interaction, params discord.MessageParams) (*discord.Message, error) {
	var message discord.Message

	route := RouteEditOriginalInteractionResponse(interaction.ApplicationID, interaction.Token)

	if err := c.REST.Request(ctx, route, params, nil, &message); err != nil {
		return nil, fmt.Errorf("failed to edit original response: %w", err)
	}

	return &message, nil
}

func (c *Client) CreateFollowup(ctx context.Context, interaction discord.Interaction, params discord.MessageParams, files ...discord.File) (*discord.Message, error) {
	var message discord.Message

	route := RouteCreateFollowupMessage(interaction.ApplicationID, interaction.Token)

	if err := c.REST.Request(ctx, route, params, files, &message); err != nil {
		return nil, fmt.Errorf("failed to create followup: %w", err)
	}

	return &message, nil
}

// BulkOverwriteCommands replaces the command set. A zero guildID targets the
// global commands.
func (c *Client) BulkOverwriteCommands(ctx context.Context, guildID discord.Snowflake, commands []discord.ApplicationCommand) ([]discord.ApplicationCommand, error) {
	applicationID, err := c.ApplicationID(ctx)
	if err != nil {
		return nil, err
	}

	route := RouteBulkOverwriteGlobalCommands(applicationID)
	if !guildID.IsNil() {
		route = RouteBulkOverwriteGuildCommands(applicationID, guildID)
	}

	if commands == nil {
		commands = []discord.ApplicationCommand{}
	}

	var registered []discord.ApplicationCommand

	if err := c.REST.Request(ctx, route, commands, nil, &registered); err != nil {
		return nil, fmt.Errorf("failed to overwrite commands: %w", err)
	}

	return registered, nil
}
