package gamenight

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/WelcomerTeam/Gamenight/discord"
)

// Parameters that discord scopes rate limits by. Any other parameter collapses
// into its placeholder when building a bucket key.
var majorParameters = map[string]bool{
	"channel_id":        true,
	"guild_id":          true,
	"webhook_id":        true,
	"interaction_token": true,
}

const (
	routeCreateReaction = "/channels/{channel_id}/messages/{message_id}/reactions/{emoji}/@me"
)

// Route is a resolved REST endpoint.
type Route struct {
	// Method is the HTTP verb.
	Method string
	// Path is the escaped path with every parameter filled in.
	Path string
	// Bucket is the rate limit classification of the route.
	Bucket string
	// Name is the unfilled template, used for logs and metrics.
	Name string
}

// NewRoute fills the placeholders of template with params, in order.
func NewRoute(method, template string, params ...string) Route {
	var path, bucket strings.Builder

	path.Grow(len(template) + 32)
	bucket.Grow(len(method) + len(template) + 32)

	bucket.WriteString(method)
	bucket.WriteByte(' ')

	next := 0
	rest := template

	for {
		start := strings.IndexByte(rest, '{')
		if start < 0 {
			break
		}

		end := strings.IndexByte(rest[start:], '}')
		if end < 0 {
			break
		}

		end += start

		path.WriteString(rest[:start])
		bucket.WriteString(rest[:start])

		name := rest[start+1 : end]
		value := ""

		if next < len(params) {
			value = url.PathEscape(params[next])
			next++
		}

		path.WriteString(value)

		if majorParameters[name] {
			bucket.WriteString(value)
		} else {
			bucket.WriteString(rest[start : end+1])
		}

		rest = rest[end+1:]
	}

	path.WriteString(rest)
	bucket.WriteString(rest)

	return Route{
		Method: method,
		Path:   path.String(),
		Bucket: bucket.String(),
		Name:   template,
	}
}

// IsCreateReaction reports whether the route adds a reaction as the bot.
func (r Route) IsCreateReaction() bool {
	return r.Method == http.MethodPut && r.Name == routeCreateReaction
}

func RouteGetGatewayBot() Route {
	return NewRoute(http.MethodGet, "/gateway/bot")
}

func RouteGetCurrentApplication() Route {
	return NewRoute(http.MethodGet, "/oauth2/applications/@me")
}

func RouteGetCurrentUser() Route {
	return NewRoute(http.MethodGet, "/users/@me")
}

func RouteCreateDM() Route {
	return NewRoute(http.MethodPost, "/users/@me/channels")
}

func RouteGetChannel(channelID discord.Snowflake) Route {
	return NewRoute(http.MethodGet, "/channels/{channel_id}", channelID.String())
}

func RouteGetGuildMember(guildID, userID discord.Snowflake) Route {
	return NewRoute(http.MethodGet, "/guilds/{guild_id}/members/{user_id}", guildID.String(), userID.String())
}

func RouteCreateMessage(channelID discord.Snowflake) Route {
	return NewRoute(http.MethodPost, "/channels/{channel_id}/messages", channelID.String())
}

func RouteEditMessage(channelID, messageID discord.Snowflake) Route {
	return NewRoute(http.MethodPatch, "/channels/{channel_id}/messages/{message_id}", channelID.String(), messageID.String())
}

func RouteDeleteMessage(channelID, messageID discord.Snowflake) Route {
	return NewRoute(http.MethodDelete, "/channels/{channel_id}/messages/{message_id}", channelID.String(), messageID.String())
}

func RouteCreateReaction(channelID, messageID discord.Snowflake, emoji string) Route {
	return NewRoute(http.MethodPut, routeCreateReaction, channelID.String(), messageID.String(), emoji)
}

func RouteDeleteOwnReaction(channelID, messageID discord.Snowflake, emoji string) Route {
	return NewRoute(http.MethodDelete, "/channels/{channel_id}/messages/{message_id}/reactions/{emoji}/@me",
		channelID.String(), messageID.String(), emoji)
}

func RouteDeleteUserReaction(channelID, messageID discord.Snowflake, emoji string, userID discord.Snowflake) Route {
	return NewRoute(http.MethodDelete, "/channels/{channel_id}/messages/{message_id}/reactions/{emoji}/{user_id}",
		channelID.String(), messageID.String(), emoji, userID.String())
}

func RouteCreateInteractionResponse(interactionID discord.Snowflake, token string) Route {
	return NewRoute(http.MethodPost, "/interactions/{interaction_id}/{interaction_token}/callback", interactionID.String(), token)
}

func RouteEditOriginalInteractionResponse(applicationID discord.Snowflake, token string) Route {
	return NewRoute(http.MethodPatch, "/webhooks/{application_id}/{interaction_token}/messages/@original", applicationID.String(), token)
}

func RouteCreateFollowupMessage(applicationID discord.Snowflake, token string) Route {
	return NewRoute(http.MethodPost, "/webhooks/{application_id}/{interaction_token}", applicationID.String(), token)
}

func RouteBulkOverwriteGlobalCommands(applicationID discord.Snowflake) Route {
	return NewRoute(http.MethodPut, "/applications/{application_id}/commands", applicationID.String())
}

func RouteBulkOverwriteGuildCommands(applicationID, guildID discord.Snowflake) Route {
	return NewRoute(http.MethodPut, "/applications/{application_id}/guilds/{guild_id}/commands", applicationID.String(), guildID.String())
}
