package gamenight

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"runtime"
	"sync"
	"time"

	"github.com/WelcomerTeam/Gamenight/discord"
	"github.com/WelcomerTeam/Gamenight/gamejson"
	"github.com/WelcomerTeam/Gamenight/pkg/limiter"
	"github.com/klauspost/compress/zlib"
	"github.com/rs/zerolog"
	gotils_strconv "github.com/savsgio/gotils/strconv"
	"go.uber.org/atomic"
	"nhooyr.io/websocket"
)

const (
	GatewayVersion = "10"

	WebsocketReadLimit          = 512 << 20
	WebsocketReconnectCloseCode = 4000

	MessageChannelBuffer = 64

	// Discord allows 120 sends per minute. Heartbeats bypass the limiter so
	// some headroom is kept for them.
	ShardWSRateLimit       = 110
	ShardWSRateLimitWindow = time.Minute

	InitialReconnectWait = time.Second
)

// Delay before reconnecting after a non resumable invalid session.
var invalidSessionDelay = func() time.Duration {
	return randomDelay(time.Second, 5*time.Second)
}

// Shard owns one gateway connection. The session and all protocol decisions
// belong to the goroutine running Open.
type Shard struct {
	Logger zerolog.Logger

	client *Client

	ShardID    int32
	ShardCount int32

	session    Session
	identified bool

	Start  *atomic.Time
	status *atomic.Int32

	// Mirrors of session state for readers outside the control loop.
	sequence  *atomic.Int64
	sessionID *atomic.String
	latency   *atomic.Duration

	wsConnMu sync.RWMutex
	wsConn   *websocket.Conn

	wsRatelimit *limiter.DurationLimiter
}

func NewShard(client *Client, shardID, shardCount int32) *Shard {
	return &Shard{
		Logger: client.Logger.With().Int32("shard_id", shardID).Logger(),

		client: client,

		ShardID:    shardID,
		ShardCount: shardCount,

		Start:  atomic.NewTime(time.Time{}),
		status: atomic.NewInt32(int32(ShardStatusIdle)),

		sequence:  atomic.NewInt64(0),
		sessionID: atomic.NewString(""),
		latency:   atomic.NewDuration(0),

		wsRatelimit: limiter.NewDurationLimiter(ShardWSRateLimit, ShardWSRateLimitWindow),
	}
}

// Open keeps the shard connected until ctx is cancelled or discord closes
// the connection with a code that cannot be recovered from.
func (sh *Shard) Open(ctx context.Context) error {
	sh.Start.Store(time.Now())

	wait := InitialReconnectWait
	maxWait := sh.client.Configuration.Gateway.MaxReconnectWait

	for {
		err := sh.connect(ctx)

		if ctx.Err() != nil {
			sh.SetStatus(ShardStatusStopped)

			return nil
		}

		if sh.identified {
			wait = InitialReconnectWait
		}

		switch {
		case errors.Is(err, ErrShardFatalClose):
			sh.Logger.Error().Err(err).Msg("Shard closed with fatal code")
			sh.SetStatus(ShardStatusFailed)

			return err
		case errors.Is(err, ErrReconnectRequested):
			sh.reconnecting("reconnect")

			continue
		case errors.Is(err, ErrHeartbeatTimeout):
			sh.reconnecting("heartbeat")

			continue
		case errors.Is(err, ErrInvalidSession):
			sh.reconnecting("invalid_session")

			delay := invalidSessionDelay()
			sh.Logger.Info().Dur("delay", delay).Msg("Session invalidated, identifying after delay")

			if !sleepContext(ctx, delay) {
				sh.SetStatus(ShardStatusStopped)

				return nil
			}
		default:
			sh.session.Reset()
			sh.mirrorSession()
			sh.reconnecting("transport")

			sh.Logger.Warn().Err(err).Dur("wait", wait).Msg("Gateway connection lost")

			if !sleepContext(ctx, wait) {
				sh.SetStatus(ShardStatusStopped)

				return nil
			}

			wait = min(wait*2, maxWait)
		}
	}
}

func (sh *Shard) reconnecting(reason string) {
	ShardMetrics.Reconnects.WithLabelValues(shardLabel(sh.ShardID), reason).Inc()
	sh.SetStatus(ShardStatusReconnecting)
}

// connect runs a single connection and returns why it ended.
func (sh *Shard) connect(ctx context.Context) error {
	sh.SetStatus(ShardStatusConnecting)

	sh.identified = false
	sh.session.ResetHeartbeat()

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errorCh, messageCh, err := sh.FeedWebsocket(connCtx, sh.gatewayURL())
	if err != nil {
		return err
	}

	sh.SetStatus(ShardStatusConnected)

	err = sh.listen(ctx, errorCh, messageCh)

	sh.CloseWS(closeCodeFor(ctx, err))

	return err
}

func closeCodeFor(ctx context.Context, err error) websocket.StatusCode {
	switch {
	case ctx.Err() != nil:
		return websocket.StatusNormalClosure
	case errors.Is(err, ErrReconnectRequested):
		return WebsocketReconnectCloseCode
	case errors.Is(err, ErrHeartbeatTimeout):
		return websocket.StatusServiceRestart
	default:
		return websocket.StatusNormalClosure
	}
}

func (sh *Shard) listen(ctx context.Context, errorCh chan error, messageCh chan discord.GatewayPayload) error {
	ticker := time.NewTicker(sh.client.Configuration.Gateway.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errorCh:
			return sh.readError(err)
		case msg := <-messageCh:
			if err := sh.OnEvent(ctx, msg); err != nil {
				return err
			}
		case <-ticker.C:
		}

		if err := sh.heartbeat(ctx, time.Now()); err != nil {
			return err
		}
	}
}

// heartbeat sends a heartbeat when one is due. Liveness is judged once per
// heartbeat cycle, before sending.
func (sh *Shard) heartbeat(ctx context.Context, now time.Time) error {
	if !sh.session.HeartbeatDue(now) {
		return nil
	}

	maxStrikes := sh.client.Configuration.Gateway.MaxHeartbeatStrikes

	if sh.session.CheckLiveness(maxStrikes) {
		sh.Logger.Warn().Int("strikes", sh.session.Strikes).Msg("Gateway stopped acknowledging heartbeats")

		sh.session.Reset()
		sh.mirrorSession()

		return ErrHeartbeatTimeout
	}

	if sh.session.Strikes > 0 {
		ShardMetrics.HeartbeatStrikes.WithLabelValues(shardLabel(sh.ShardID)).Inc()
		sh.Logger.Debug().Int("strikes", sh.session.Strikes).Msg("Heartbeat was not acknowledged")
	}

	sh.session.LastHeartbeatSent = now

	if err := sh.SendEvent(ctx, discord.GatewayOpHeartbeat, sh.session.Sequence); err != nil {
		return fmt.Errorf("%w: failed to send heartbeat: %w", ErrTransport, err)
	}

	return nil
}

func (sh *Shard) readError(err error) error {
	switch code := websocket.CloseStatus(err); code {
	case discord.CloseAuthenticationFailed,
		discord.CloseInvalidShard,
		discord.CloseShardingRequired,
		discord.CloseInvalidAPIVersion,
		discord.CloseInvalidIntents,
		discord.CloseDisallowedIntents:
		return fmt.Errorf("%w: %d: %w", ErrShardFatalClose, code, err)
	case -1:
	default:
		sh.Logger.Warn().Int("code", int(code)).Msg("Websocket was closed")
	}

	return fmt.Errorf("%w: %w", ErrTransport, err)
}

func (sh *Shard) gatewayURL() string {
	base := sh.client.GatewayURL()
	if sh.session.CanResume() && sh.session.ResumeGatewayURL != "" {
		base = sh.session.ResumeGatewayURL
	}

	u, err := url.Parse(base)
	if err != nil {
		return base
	}

	query := u.Query()
	query.Set("v", GatewayVersion)
	query.Set("encoding", "json")
	u.RawQuery = query.Encode()

	return u.String()
}

// FeedWebsocket dials the gateway and reads frames on a separate goroutine
// so the control loop can keep heartbeating between frames. Cancelling ctx
// stops the reader and closes the connection.
func (sh *Shard) FeedWebsocket(ctx context.Context, u string) (errorCh chan error, messageCh chan discord.GatewayPayload, err error) {
	messageCh = make(chan discord.GatewayPayload, MessageChannelBuffer)
	errorCh = make(chan error, 1)

	sh.Logger.Debug().Str("url", u).Msg("Connecting to gateway")

	conn, _, err := websocket.Dial(ctx, u, nil)
	if err != nil {
		return errorCh, messageCh, fmt.Errorf("%w: failed to connect to websocket: %w", ErrTransport, err)
	}

	conn.SetReadLimit(WebsocketReadLimit)

	sh.wsConnMu.Lock()
	sh.wsConn = conn
	sh.wsConnMu.Unlock()

	go func() {
		for {
			messageType, data, readErr := conn.Read(ctx)
			if readErr != nil {
				errorCh <- readErr

				return
			}

			if messageType == websocket.MessageBinary {
				data, readErr = decompress(data)
				if readErr != nil {
					errorCh <- readErr

					return
				}
			}

			sh.Logger.Trace().Msg(">>> " + gotils_strconv.B2S(data))

			var msg discord.GatewayPayload

			if readErr = gamejson.Unmarshal(data, &msg); readErr != nil {
				sh.Logger.Error().Err(readErr).Msg("Failed to unmarshal gateway payload")

				continue
			}

			select {
			case messageCh <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	return errorCh, messageCh, nil
}

func decompress(data []byte) ([]byte, error) {
	reader, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress payload: %w", err)
	}

	defer reader.Close()

	data, err = io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress payload: %w", err)
	}

	return data, nil
}

// Identify starts a new session.
func (sh *Shard) Identify(ctx context.Context) error {
	if err := sh.client.identifyLimiter.Wait(ctx, sh.ShardID); err != nil {
		return fmt.Errorf("failed to wait for identify: %w", err)
	}

	configuration := sh.client.Configuration

	var presence *discord.UpdateStatus
	if configuration.Presence.Status != "" || len(configuration.Presence.Activities) > 0 {
		presence = &configuration.Presence
	}

	sh.Logger.Debug().Msg("Sending identify")

	return sh.SendEvent(ctx, discord.GatewayOpIdentify, discord.Identify{
		Token: configuration.Token,
		Properties: &discord.IdentifyProperties{
			OS:      runtime.GOOS,
			Browser: "Gamenight",
			Device:  "Gamenight",
		},
		Compress:       configuration.Gateway.Compress,
		LargeThreshold: configuration.Gateway.LargeThreshold,
		Shard:          [2]int32{sh.ShardID, sh.ShardCount},
		Presence:       presence,
		Intents:        configuration.Intents,
	})
}

// Resume continues the current session.
func (sh *Shard) Resume(ctx context.Context) error {
	if !sh.session.CanResume() {
		return ErrMissingSessionState
	}

	sh.Logger.Debug().Int64("sequence", sh.session.Sequence).Msg("Sending resume")

	return sh.SendEvent(ctx, discord.GatewayOpResume, discord.Resume{
		Token:     sh.client.Configuration.Token,
		SessionID: sh.session.ID,
		Sequence:  sh.session.Sequence,
	})
}

func (sh *Shard) UpdatePresence(ctx context.Context, presence discord.UpdateStatus) error {
	return sh.SendEvent(ctx, discord.GatewayOpStatusUpdate, presence)
}

func (sh *Shard) RequestGuildMembers(ctx context.Context, request discord.RequestGuildMembers) error {
	return sh.SendEvent(ctx, discord.GatewayOpRequestGuildMembers, request)
}

// SendEvent writes a payload to the gateway. Everything but heartbeats is
// paced by the send limiter.
func (sh *Shard) SendEvent(ctx context.Context, op discord.GatewayOp, data any) error {
	if op != discord.GatewayOpHeartbeat {
		if err := sh.wsRatelimit.Lock(ctx); err != nil {
			return err
		}
	}

	res, err := gamejson.Marshal(discord.SentPayload{Op: op, Data: data})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	sh.wsConnMu.RLock()
	wsConn := sh.wsConn
	sh.wsConnMu.RUnlock()

	if wsConn == nil {
		return ErrNotConnected
	}

	if op != discord.GatewayOpIdentify && op != discord.GatewayOpResume {
		sh.Logger.Trace().Msg("<<< " + gotils_strconv.B2S(res))
	}

	if err = wsConn.Write(ctx, websocket.MessageText, res); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (sh *Shard) CloseWS(statusCode websocket.StatusCode) {
	sh.wsConnMu.Lock()
	wsConn := sh.wsConn
	sh.wsConn = nil
	sh.wsConnMu.Unlock()

	if wsConn == nil {
		return
	}

	sh.Logger.Debug().Int("code", int(statusCode)).Msg("Closing websocket connection")

	if err := wsConn.Close(statusCode, ""); err != nil && !errors.Is(err, context.Canceled) {
		sh.Logger.Debug().Err(err).Msg("Failed to close websocket connection")
	}
}

func (sh *Shard) SetStatus(status ShardStatus) {
	if ShardStatus(sh.status.Swap(int32(status))) == status {
		return
	}

	ShardMetrics.ShardStatus.WithLabelValues(shardLabel(sh.ShardID)).Set(float64(status))
	sh.Logger.Debug().Str("status", status.String()).Msg("Shard status updated")
}

func (sh *Shard) Status() ShardStatus {
	return ShardStatus(sh.status.Load())
}

// Latency is the round trip of the last acknowledged heartbeat.
func (sh *Shard) Latency() time.Duration {
	return sh.latency.Load()
}

// Sequence is the last sequence received on this shard.
func (sh *Shard) Sequence() int64 {
	return sh.sequence.Load()
}

func (sh *Shard) SessionID() string {
	return sh.sessionID.Load()
}

func (sh *Shard) mirrorSession() {
	sh.sequence.Store(sh.session.Sequence)
	sh.sessionID.Store(sh.session.ID)
}
