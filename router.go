package gamenight

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/WelcomerTeam/Gamenight/discord"
	"github.com/WelcomerTeam/Gamenight/pkg/accumulator"
	"github.com/WelcomerTeam/Gamenight/pkg/limiter"
	"github.com/rs/zerolog"
	gotils_strconv "github.com/savsgio/gotils/strconv"
)

// Number of per second event samples kept.
const EventSamples = 300

// EventHandlers are the bot level callbacks. Nil handlers are skipped.
type EventHandlers struct {
	OnReady             func(ctx context.Context, client *Client, event *ReadyEvent) error
	OnResumed           func(ctx context.Context, client *Client, event *ResumedEvent) error
	OnGuildCreate       func(ctx context.Context, client *Client, event *GuildCreateEvent) error
	OnMessageCreate     func(ctx context.Context, client *Client, event *MessageCreateEvent) error
	OnMessageUpdate     func(ctx context.Context, client *Client, event *MessageUpdateEvent) error
	OnInteractionCreate func(ctx context.Context, client *Client, event *InteractionCreateEvent) error
	OnReactionAdd       func(ctx context.Context, client *Client, event *ReactionUpdate) error
	OnReactionRemove    func(ctx context.Context, client *Client, event *ReactionUpdate) error

	// OnError receives every error returned by, or panic recovered from, a handler.
	OnError func(ctx context.Context, client *Client, event Event, err error)
}

// EventRouter applies dispatch events to the state and fans them out to the
// bot handlers on a bounded pool.
type EventRouter struct {
	Logger zerolog.Logger

	// Events counts dispatches per second for the last few minutes.
	Events *accumulator.Accumulator

	client    *Client
	handlers  EventHandlers
	pool      *limiter.ConcurrencyLimiter
	blacklist map[string]struct{}

	inflight sync.WaitGroup
}

func NewEventRouter(client *Client, handlers EventHandlers, concurrency int, blacklist []string) *EventRouter {
	router := &EventRouter{
		Logger:    client.Logger.With().Str("component", "router").Logger(),
		Events:    accumulator.New(EventSamples, time.Second),
		client:    client,
		handlers:  handlers,
		pool:      limiter.NewConcurrencyLimiter(concurrency),
		blacklist: make(map[string]struct{}, len(blacklist)),
	}

	for _, eventType := range blacklist {
		router.blacklist[eventType] = struct{}{}
	}

	return router
}

// Update applies the cache effect of a dispatch. It must be called in the
// order events are received.
func (r *EventRouter) Update(msg discord.GatewayPayload) (Event, error) {
	if _, blacklisted := r.blacklist[msg.Type]; blacklisted {
		return nil, ErrEventBlacklisted
	}

	handler, ok := dispatchHandlers[msg.Type]
	if !ok {
		return nil, ErrNoDispatchHandler
	}

	EventMetrics.EventsTotal.WithLabelValues(msg.Type).Inc()
	r.Events.Increment()

	return handler(r.client.State, msg)
}

// Dispatch updates the state and spawns the matching bot handler.
func (r *EventRouter) Dispatch(ctx context.Context, shardID int32, msg discord.GatewayPayload) (Event, error) {
	event, err := r.Update(msg)
	if err != nil {
		if errors.Is(err, ErrNoDispatchHandler) || errors.Is(err, ErrEventBlacklisted) {
			r.Logger.Trace().Str("type", msg.Type).Msg("Ignoring dispatch")

			return nil, nil
		}

		r.Logger.Error().
			Err(err).
			Str("type", msg.Type).
			Str("data", gotils_strconv.B2S(msg.Data)).
			Msg("Failed to apply dispatch")

		return nil, err
	}

	switch e := event.(type) {
	case nil:
		return nil, nil
	case *ReadyEvent:
		e.ShardID = shardID
	case *ResumedEvent:
		e.ShardID = shardID
	}

	r.Spawn(ctx, event)

	return event, nil
}

// Spawn runs the handler for event on its own goroutine once a pool ticket is
// available. Handlers are unordered relative to each other. The read loop is
// never blocked: when the pool is saturated goroutines queue for a ticket and
// are counted by Waiting.
func (r *EventRouter) Spawn(ctx context.Context, event Event) {
	r.inflight.Add(1)

	go func() {
		defer r.inflight.Done()

		EventMetrics.HandlersWaiting.Inc()
		ticket, err := r.pool.Wait(ctx)
		EventMetrics.HandlersWaiting.Dec()

		if err != nil {
			return
		}

		defer r.pool.FreeTicket(ticket)

		EventMetrics.HandlersInFlight.Inc()
		defer EventMetrics.HandlersInFlight.Dec()

		if err := r.invoke(ctx, event); err != nil {
			r.reportError(ctx, event, err)
		}
	}()
}

// Running returns how many handlers hold a pool ticket.
func (r *EventRouter) Running() int32 {
	return r.pool.InProgress()
}

// Waiting returns how many spawned handlers are queued for a pool ticket.
func (r *EventRouter) Waiting() int32 {
	return r.pool.Waiting()
}

// Wait blocks until every spawned handler has returned.
func (r *EventRouter) Wait() {
	r.inflight.Wait()
}

func (r *EventRouter) invoke(ctx context.Context, event Event) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("%w: %v\n%s", ErrHandlerPanic, recovered, debug.Stack())
		}
	}()

	switch e := event.(type) {
	case *ReadyEvent:
		if r.handlers.OnReady != nil {
			return r.handlers.OnReady(ctx, r.client, e)
		}
	case *ResumedEvent:
		if r.handlers.OnResumed != nil {
			return r.handlers.OnResumed(ctx, r.client, e)
		}
	case *GuildCreateEvent:
		if r.handlers.OnGuildCreate != nil {
			return r.handlers.OnGuildCreate(ctx, r.client, e)
		}
	case *MessageCreateEvent:
		if r.handlers.OnMessageCreate != nil {
			return r.handlers.OnMessageCreate(ctx, r.client, e)
		}
	case *MessageUpdateEvent:
		if r.handlers.OnMessageUpdate != nil {
			return r.handlers.OnMessageUpdate(ctx, r.client, e)
		}
	case *InteractionCreateEvent:
		handled, err := r.client.Commands.Dispatch(ctx, r.client, e)
		if handled {
			return err
		}

		if r.handlers.OnInteractionCreate != nil {
			return r.handlers.OnInteractionCreate(ctx, r.client, e)
		}

		return err
	case *ReactionUpdate:
		if e.Added && r.handlers.OnReactionAdd != nil {
			return r.handlers.OnReactionAdd(ctx, r.client, e)
		}

		if !e.Added && r.handlers.OnReactionRemove != nil {
			return r.handlers.OnReactionRemove(ctx, r.client, e)
		}
	}

	return nil
}

func (r *EventRouter) reportError(ctx context.Context, event Event, err error) {
	EventMetrics.HandlerErrors.WithLabelValues(event.EventType()).Inc()

	if r.handlers.OnError != nil {
		func() {
			defer func() {
				if recovered := recover(); recovered != nil {
					r.Logger.Error().Interface("panic", recovered).Msg("Error hook panicked")
				}
			}()

			r.handlers.OnError(ctx, r.client, event, err)
		}()

		return
	}

	r.Logger.Error().Err(err).Str("type", event.EventType()).Msg("Event handler failed")
}
