package gamenight_test

import (
	"context"
	"errors"
	"testing"
	"time"

	gamenight "github.com/WelcomerTeam/Gamenight"
	"github.com/WelcomerTeam/Gamenight/discord"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

type handlerError struct {
	event gamenight.Event
	err   error
}

func errorRecorder() (chan handlerError, func(context.Context, *gamenight.Client, gamenight.Event, error)) {
	errs := make(chan handlerError, 16)

	return errs, func(_ context.Context, _ *gamenight.Client, event gamenight.Event, err error) {
		errs <- handlerError{event: event, err: err}
	}
}

func messagePayload(id string) discord.GatewayPayload {
	return discord.GatewayPayload{
		Op:   discord.GatewayOpDispatch,
		Type: "MESSAGE_CREATE",
		Data: []byte(`{"id": "` + id + `", "channel_id": "2", "content": "!roll", "author": {"id": "4"}}`),
	}
}

func TestDispatchSetsReadyShard(t *testing.T) {
	t.Parallel()

	readies := make(chan *gamenight.ReadyEvent, 1)

	client := newTestClient(t, gamenight.EventHandlers{
		OnReady: func(_ context.Context, _ *gamenight.Client, event *gamenight.ReadyEvent) error {
			readies <- event

			return nil
		},
	})

	_, err := client.Router.Dispatch(context.Background(), 3, discord.GatewayPayload{
		Type: "READY",
		Data: []byte(`{"session_id": "abc", "user": {"id": "1"}, "application": {"id": "2"}}`),
	})
	require.NoError(t, err)

	select {
	case ready := <-readies:
		assert.Equal(t, int32(3), ready.ShardID)
		assert.Equal(t, "abc", ready.SessionID)
	case <-time.After(time.Second):
		t.Fatal("ready handler was not called")
	}
}

func TestDispatchRecoversPanics(t *testing.T) {
	t.Parallel()

	errs, onError := errorRecorder()

	client := newTestClient(t, gamenight.EventHandlers{
		OnMessageCreate: func(context.Context, *gamenight.Client, *gamenight.MessageCreateEvent) error {
			panic("bad dice")
		},
		OnError: onError,
	})

	_, err := client.Router.Dispatch(context.Background(), 0, messagePayload("100"))
	require.NoError(t, err)

	client.Router.Wait()

	reported := <-errs
	assert.ErrorIs(t, reported.err, gamenight.ErrHandlerPanic)
	assert.Contains(t, reported.err.Error(), "bad dice")
	assert.Equal(t, "MESSAGE_CREATE", reported.event.EventType())

	// The cache effect is applied before the handler runs.
	_, ok := client.State.Messages.Load(100)
	assert.True(t, ok)
}

func TestDispatchReportsHandlerErrors(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")
	errs, onError := errorRecorder()

	client := newTestClient(t, gamenight.EventHandlers{
		OnMessageCreate: func(context.Context, *gamenight.Client, *gamenight.MessageCreateEvent) error {
			return errBoom
		},
		OnError: onError,
	})

	_, err := client.Router.Dispatch(context.Background(), 0, messagePayload("100"))
	require.NoError(t, err)

	client.Router.Wait()

	reported := <-errs
	assert.ErrorIs(t, reported.err, errBoom)
}

func TestDispatchSurvivesPanickingErrorHook(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, gamenight.EventHandlers{
		OnMessageCreate: func(context.Context, *gamenight.Client, *gamenight.MessageCreateEvent) error {
			return errors.New("boom")
		},
		OnError: func(context.Context, *gamenight.Client, gamenight.Event, error) {
			panic("hook")
		},
	})

	_, err := client.Router.Dispatch(context.Background(), 0, messagePayload("100"))
	require.NoError(t, err)

	client.Router.Wait()
}

func TestDispatchIgnoresBlacklistedAndUnknown(t *testing.T) {
	t.Parallel()

	calls := atomic.NewInt32(0)

	client := newTestClient(t, gamenight.EventHandlers{
		OnMessageCreate: func(context.Context, *gamenight.Client, *gamenight.MessageCreateEvent) error {
			calls.Inc()

			return nil
		},
	}, func(configuration *gamenight.Configuration) {
		configuration.Events.Blacklist = []string{"MESSAGE_CREATE"}
	})

	event, err := client.Router.Dispatch(context.Background(), 0, messagePayload("100"))
	require.NoError(t, err)
	assert.Nil(t, event)

	event, err = client.Router.Dispatch(context.Background(), 0, discord.GatewayPayload{Type: "VOICE_STATE_UPDATE", Data: []byte(`{}`)})
	require.NoError(t, err)
	assert.Nil(t, event)

	client.Router.Wait()

	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, 0, client.State.Messages.Count())
}

func TestDispatchDecodeError(t *testing.T) {
	t.Parallel()

	calls := atomic.NewInt32(0)

	client := newTestClient(t, gamenight.EventHandlers{
		OnMessageCreate: func(context.Context, *gamenight.Client, *gamenight.MessageCreateEvent) error {
			calls.Inc()

			return nil
		},
	})

	_, err := client.Router.Dispatch(context.Background(), 0, discord.GatewayPayload{
		Type: "MESSAGE_CREATE",
		Data: []byte(`{"id": [`),
	})
	assert.ErrorIs(t, err, gamenight.ErrDecode)

	client.Router.Wait()
	assert.Equal(t, int32(0), calls.Load())
}

func TestDispatchBoundsConcurrency(t *testing.T) {
	t.Parallel()

	active := atomic.NewInt32(0)
	peak := atomic.NewInt32(0)
	calls := atomic.NewInt32(0)

	client := newTestClient(t, gamenight.EventHandlers{
		OnMessageCreate: func(context.Context, *gamenight.Client, *gamenight.MessageCreateEvent) error {
			current := active.Inc()
			defer active.Dec()

			for {
				seen := peak.Load()
				if current <= seen || peak.CompareAndSwap(seen, current) {
					break
				}
			}

			time.Sleep(10 * time.Millisecond)
			calls.Inc()

			return nil
		},
	}, func(configuration *gamenight.Configuration) {
		configuration.Events.HandlerConcurrency = 2
	})

	for i := 1; i <= 10; i++ {
		_, err := client.Router.Dispatch(context.Background(), 0, messagePayload(discord.Snowflake(i).String()))
		require.NoError(t, err)
	}

	client.Router.Wait()

	assert.Equal(t, int32(10), calls.Load())
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestDispatchQueuesWhenSaturated(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})

	client := newTestClient(t, gamenight.EventHandlers{
		OnMessageCreate: func(context.Context, *gamenight.Client, *gamenight.MessageCreateEvent) error {
			<-release

			return nil
		},
	}, func(configuration *gamenight.Configuration) {
		configuration.Events.HandlerConcurrency = 1
	})

	for i := 1; i <= 3; i++ {
		_, err := client.Router.Dispatch(context.Background(), 0, messagePayload(discord.Snowflake(i).String()))
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		return client.Router.Running() == 1 && client.Router.Waiting() == 2
	}, time.Second, 5*time.Millisecond)

	close(release)
	client.Router.Wait()

	assert.Equal(t, int32(0), client.Router.Running())
	assert.Equal(t, int32(0), client.Router.Waiting())
}

func TestDispatchSplitsReactions(t *testing.T) {
	t.Parallel()

	added := make(chan *gamenight.ReactionUpdate, 1)
	removed := make(chan *gamenight.ReactionUpdate, 1)

	client := newTestClient(t, gamenight.EventHandlers{
		OnReactionAdd: func(_ context.Context, _ *gamenight.Client, event *gamenight.ReactionUpdate) error {
			added <- event

			return nil
		},
		OnReactionRemove: func(_ context.Context, _ *gamenight.Client, event *gamenight.ReactionUpdate) error {
			removed <- event

			return nil
		},
	})

	data := []byte(`{"user_id": "4", "channel_id": "2", "message_id": "100", "emoji": {"name": "🎲"}}`)

	_, err := client.Router.Dispatch(context.Background(), 0, discord.GatewayPayload{Type: "MESSAGE_REACTION_ADD", Data: data})
	require.NoError(t, err)
	_, err = client.Router.Dispatch(context.Background(), 0, discord.GatewayPayload{Type: "MESSAGE_REACTION_REMOVE", Data: data})
	require.NoError(t, err)

	client.Router.Wait()

	assert.True(t, (<-added).Added)
	assert.False(t, (<-removed).Added)
}

func TestEventsAreCounted(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, gamenight.EventHandlers{})

	for i := 1; i <= 3; i++ {
		_, err := client.Router.Update(messagePayload(discord.Snowflake(i).String()))
		require.NoError(t, err)
	}

	client.Router.Events.RunOnce(time.Now())

	samples := client.Router.Events.Last(1)
	require.Len(t, samples, 1)
	assert.Equal(t, int64(3), samples[0].Value)
}
