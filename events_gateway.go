package gamenight

import (
	"context"
	"fmt"
	"time"

	"github.com/WelcomerTeam/Gamenight/discord"
	"github.com/WelcomerTeam/Gamenight/gamejson"
)

// OnEvent runs the handler for a gateway op. A non nil error ends the
// current connection.
func (sh *Shard) OnEvent(ctx context.Context, msg discord.GatewayPayload) error {
	handler, ok := gatewayHandlers[msg.Op]
	if !ok {
		sh.Logger.Debug().Int("op", int(msg.Op)).Msg(ErrNoGatewayHandler.Error())

		return nil
	}

	return handler(ctx, sh, msg)
}

func gatewayOpHello(ctx context.Context, sh *Shard, msg discord.GatewayPayload) error {
	var hello discord.Hello

	if err := gamejson.Unmarshal(msg.Data, &hello); err != nil {
		return fmt.Errorf("%w: hello: %w", ErrDecode, err)
	}

	sh.session.HeartbeatInterval = hello.Interval()
	sh.session.LastHeartbeatAck = time.Now()

	if sh.identified {
		sh.Logger.Debug().Msg("Ignoring duplicate hello")

		return nil
	}

	sh.identified = true

	var err error

	if sh.session.CanResume() {
		err = sh.Resume(ctx)
	} else {
		err = sh.Identify(ctx)
	}

	if err != nil {
		return fmt.Errorf("%w: failed to authenticate: %w", ErrTransport, err)
	}

	return nil
}

func gatewayOpDispatch(ctx context.Context, sh *Shard, msg discord.GatewayPayload) error {
	if skipped := sh.session.ObserveSequence(msg.Sequence); skipped > 0 {
		EventMetrics.SequenceGaps.WithLabelValues(shardLabel(sh.ShardID)).Add(float64(skipped))

		sh.Logger.Warn().
			Int64("sequence", msg.Sequence).
			Int64("skipped", skipped).
			Str("type", msg.Type).
			Msg("Gateway skipped events")
	}

	switch msg.Type {
	case "READY":
		var ready struct {
			SessionID        string `json:"session_id"`
			ResumeGatewayURL string `json:"resume_gateway_url"`
		}

		if err := gamejson.Unmarshal(msg.Data, &ready); err != nil {
			return fmt.Errorf("%w: ready: %w", ErrDecode, err)
		}

		sh.session.ID = ready.SessionID
		sh.session.ResumeGatewayURL = ready.ResumeGatewayURL

		sh.SetStatus(ShardStatusReady)
		sh.Logger.Info().Msg("Shard is ready")
	case "RESUMED":
		sh.SetStatus(ShardStatusReady)
		sh.Logger.Info().Int64("sequence", msg.Sequence).Msg("Shard resumed")
	}

	sh.mirrorSession()

	// Cache and handler failures are reported by the router and never end
	// the connection.
	_, _ = sh.client.Router.Dispatch(ctx, sh.ShardID, msg)

	return nil
}

func gatewayOpHeartbeat(_ context.Context, sh *Shard, _ discord.GatewayPayload) error {
	sh.Logger.Debug().Msg("Received heartbeat request")

	return nil
}

func gatewayOpHeartbeatACK(_ context.Context, sh *Shard, _ discord.GatewayPayload) error {
	now := time.Now()

	sh.session.LastHeartbeatAck = now

	if !sh.session.LastHeartbeatSent.IsZero() {
		latency := now.Sub(sh.session.LastHeartbeatSent)

		sh.latency.Store(latency)
		EventMetrics.GatewayLatency.WithLabelValues(shardLabel(sh.ShardID)).Set(latency.Seconds())
	}

	return nil
}

func gatewayOpReconnect(_ context.Context, sh *Shard, _ discord.GatewayPayload) error {
	sh.Logger.Info().Msg("Shard has been requested to reconnect")

	return ErrReconnectRequested
}

func gatewayOpInvalidSession(_ context.Context, sh *Shard, msg discord.GatewayPayload) error {
	var resumable bool

	if err := gamejson.Unmarshal(msg.Data, &resumable); err != nil {
		return fmt.Errorf("%w: invalid session: %w", ErrDecode, err)
	}

	if resumable {
		sh.Logger.Warn().Msg("Received resumable invalid session")

		return nil
	}

	sh.Logger.Warn().Str("session_id", sh.session.ID).Msg("Session is no longer valid")

	sh.session.Reset()
	sh.mirrorSession()

	return ErrInvalidSession
}

func init() {
	registerGatewayEvent(discord.GatewayOpHello, gatewayOpHello)
	registerGatewayEvent(discord.GatewayOpDispatch, gatewayOpDispatch)
	registerGatewayEvent(discord.GatewayOpHeartbeat, gatewayOpHeartbeat)
	registerGatewayEvent(discord.GatewayOpHeartbeatACK, gatewayOpHeartbeatACK)
	registerGatewayEvent(discord.GatewayOpReconnect, gatewayOpReconnect)
	registerGatewayEvent(discord.GatewayOpInvalidSession, gatewayOpInvalidSession)
}
