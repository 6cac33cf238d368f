package gamenight_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	gamenight "github.com/WelcomerTeam/Gamenight"
	"github.com/WelcomerTeam/Gamenight/discord"
	"github.com/WelcomerTeam/Gamenight/gamejson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func noopCommand(name string) gamenight.Command {
	return gamenight.Command{
		Definition: discord.ApplicationCommand{Name: name, Description: name},
		Handler: func(context.Context, *gamenight.Client, *gamenight.InteractionCreateEvent) error {
			return nil
		},
	}
}

func commandInteraction(name string, guildID discord.Snowflake) *gamenight.InteractionCreateEvent {
	return &gamenight.InteractionCreateEvent{
		Interaction: discord.Interaction{
			ID:      1,
			Type:    discord.InteractionTypeApplicationCommand,
			GuildID: guildID,
			Data:    &discord.InteractionData{Name: name},
		},
	}
}

func TestRegisterCommands(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, gamenight.EventHandlers{})

	require.NoError(t, client.Commands.Register(noopCommand("roll"), noopCommand("draw")))

	err := client.Commands.Register(noopCommand("roll"))
	assert.ErrorIs(t, err, gamenight.ErrDuplicateCommand)

	err = client.Commands.Register(gamenight.Command{Definition: discord.ApplicationCommand{Name: "empty"}})
	assert.ErrorIs(t, err, gamenight.ErrInvalidCommand)

	err = client.Commands.Register(noopCommand(""))
	assert.ErrorIs(t, err, gamenight.ErrInvalidCommand)

	definitions := client.Commands.Definitions()
	require.Len(t, definitions, 2)
	assert.Equal(t, "draw", definitions[0].Name)
	assert.Equal(t, "roll", definitions[1].Name)

	client.Commands.Seal()

	err = client.Commands.Register(noopCommand("shuffle"))
	assert.ErrorIs(t, err, gamenight.ErrCommandsSealed)

	_, ok := client.Commands.Get("shuffle")
	assert.False(t, ok)
}

func TestDispatchCommand(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, gamenight.EventHandlers{})

	var got string

	require.NoError(t, client.Commands.Register(gamenight.Command{
		Definition: discord.ApplicationCommand{Name: "roll"},
		Handler: func(_ context.Context, _ *gamenight.Client, event *gamenight.InteractionCreateEvent) error {
			got = event.Data.Name

			return nil
		},
	}))

	handled, err := client.Commands.Dispatch(context.Background(), client, commandInteraction("roll", 0))
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, "roll", got)

	handled, err = client.Commands.Dispatch(context.Background(), client, commandInteraction("missing", 0))
	assert.False(t, handled)
	assert.ErrorIs(t, err, gamenight.ErrUnknownCommand)

	component := commandInteraction("roll", 0)
	component.Type = discord.InteractionTypeMessageComponent

	handled, err = client.Commands.Dispatch(context.Background(), client, component)
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestGuildSerializedCommands(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, gamenight.EventHandlers{})

	active := atomic.NewInt32(0)
	overlapped := atomic.NewBool(false)

	require.NoError(t, client.Commands.Register(gamenight.Command{
		Definition:      discord.ApplicationCommand{Name: "move"},
		GuildSerialized: true,
		Handler: func(context.Context, *gamenight.Client, *gamenight.InteractionCreateEvent) error {
			if active.Inc() > 1 {
				overlapped.Store(true)
			}

			time.Sleep(5 * time.Millisecond)
			active.Dec()

			return nil
		},
	}))

	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := client.Commands.Dispatch(context.Background(), client, commandInteraction("move", 42))
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	assert.False(t, overlapped.Load())
}

func TestUnknownCommandFallsThrough(t *testing.T) {
	t.Parallel()

	interactions := make(chan *gamenight.InteractionCreateEvent, 1)

	client := newTestClient(t, gamenight.EventHandlers{
		OnInteractionCreate: func(_ context.Context, _ *gamenight.Client, event *gamenight.InteractionCreateEvent) error {
			interactions <- event

			return nil
		},
	})

	_, err := client.Router.Dispatch(context.Background(), 0, discord.GatewayPayload{
		Type: "INTERACTION_CREATE",
		Data: []byte(`{"id": "1", "type": 2, "token": "tok", "data": {"name": "missing"}}`),
	})
	require.NoError(t, err)

	client.Router.Wait()

	event := <-interactions
	assert.Equal(t, "missing", event.Data.Name)
}

func TestUnknownCommandIsReported(t *testing.T) {
	t.Parallel()

	errs, onError := errorRecorder()

	client := newTestClient(t, gamenight.EventHandlers{OnError: onError})

	_, err := client.Router.Dispatch(context.Background(), 0, discord.GatewayPayload{
		Type: "INTERACTION_CREATE",
		Data: []byte(`{"id": "1", "type": 2, "token": "tok", "data": {"name": "missing"}}`),
	})
	require.NoError(t, err)

	client.Router.Wait()

	reported := <-errs
	assert.ErrorIs(t, reported.err, gamenight.ErrUnknownCommand)
}

func TestSyncCommandsFetchesApplicationOnce(t *testing.T) {
	t.Parallel()

	applicationCalls := atomic.NewInt32(0)

	var (
		mu     sync.Mutex
		synced []discord.ApplicationCommand
		path   string
	)

	client, _ := newRESTClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/oauth2/applications/@me":
			applicationCalls.Inc()
			writeJSON(w, http.StatusOK, `{"id": "7", "name": "Gamenight"}`)
		case r.Method == http.MethodPut:
			mu.Lock()
			path = r.URL.Path
			_ = gamejson.UnmarshalReader(r.Body, &synced)
			mu.Unlock()

			writeJSON(w, http.StatusOK, `[]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	require.NoError(t, client.Commands.Register(noopCommand("roll")))

	var wg sync.WaitGroup

	for i := 0; i < 4; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			applicationID, err := client.ApplicationID(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, discord.Snowflake(7), applicationID)
		}()
	}

	wg.Wait()

	_, err := client.SyncCommands(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(1), applicationCalls.Load())

	mu.Lock()
	defer mu.Unlock()

	assert.Equal(t, "/applications/7/commands", path)
	require.Len(t, synced, 1)
	assert.Equal(t, "roll", synced[0].Name)
}
