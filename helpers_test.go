package gamenight_test

import (
	"testing"

	gamenight "github.com/WelcomerTeam/Gamenight"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handlers gamenight.EventHandlers, options ...func(*gamenight.Configuration)) *gamenight.Client {
	t.Helper()

	configuration := gamenight.DefaultConfiguration()
	configuration.Token = "token"

	for _, option := range options {
		option(configuration)
	}

	client, err := gamenight.NewClient(zerolog.Nop(), configuration, handlers)
	require.NoError(t, err)

	return client
}
