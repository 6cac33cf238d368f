package gamenight

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/WelcomerTeam/Gamenight/discord"
	"github.com/WelcomerTeam/Gamenight/gamejson"
	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// StatusResponse is served on /status.
type StatusResponse struct {
	Uptime          string            `json:"uptime"`
	Shards          []ShardStatusInfo `json:"shards"`
	Guilds          int               `json:"guilds"`
	EventsPerSecond float64           `json:"events_per_second"`
	ApplicationID   discord.Snowflake `json:"application_id"`
	HandlersRunning int32             `json:"handlers_running"`
	HandlersWaiting int32             `json:"handlers_waiting"`
}

// ShardStatusInfo never carries the session id since it allows resuming the
// session.
type ShardStatusInfo struct {
	Resumable bool        `json:"resumable"`
	Status    ShardStatus `json:"status"`
	LatencyMS int64       `json:"latency_ms"`
	Sequence  int64       `json:"sequence"`
	ShardID   int32       `json:"shard_id"`
}

// StatusServer exposes metrics and shard status over HTTP.
type StatusServer struct {
	client  *Client
	started time.Time
	server  *fasthttp.Server
}

func NewStatusServer(client *Client) *StatusServer {
	s := &StatusServer{
		client:  client,
		started: time.Now(),
	}

	r := router.New()
	r.GET("/metrics", fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()))
	r.GET("/status", s.handleStatus)

	s.server = &fasthttp.Server{
		Handler: r.Handler,
		Name:    "gamenight",
	}

	return s
}

// ListenAndServe serves on address until ctx is cancelled.
func (s *StatusServer) ListenAndServe(ctx context.Context, address string) error {
	errCh := make(chan error, 1)

	go func() {
		s.client.Logger.Info().Str("address", address).Msg("Serving status")

		errCh <- s.server.ListenAndServe(address)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to serve status: %w", err)
		}

		return nil
	case <-ctx.Done():
		return s.server.Shutdown()
	}
}

func (s *StatusServer) Status() StatusResponse {
	response := StatusResponse{
		Uptime:          time.Since(s.started).Round(time.Second).String(),
		Guilds:          s.client.State.Guilds.Count(),
		EventsPerSecond: s.client.Router.Events.Rate(60),
		ApplicationID:   s.client.State.ApplicationID(),
		HandlersRunning: s.client.Router.Running(),
		HandlersWaiting: s.client.Router.Waiting(),
	}

	s.client.shardsMu.RLock()
	for _, sh := range s.client.shards {
		response.Shards = append(response.Shards, ShardStatusInfo{
			Resumable: sh.SessionID() != "",
			Status:    sh.Status(),
			LatencyMS: sh.Latency().Milliseconds(),
			Sequence:  sh.Sequence(),
			ShardID:   sh.ShardID,
		})
	}
	s.client.shardsMu.RUnlock()

	sort.Slice(response.Shards, func(i, j int) bool {
		return response.Shards[i].ShardID < response.Shards[j].ShardID
	})

	return response
}

func (s *StatusServer) handleStatus(ctx *fasthttp.RequestCtx) {
	body, err := gamejson.Marshal(s.Status())
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)

		return
	}

	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}
