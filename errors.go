package gamenight

import (
	"errors"
	"fmt"
)

var (
	ErrMissingToken        = errors.New("configuration missing bot token")
	ErrInvalidShardCount   = errors.New("shard count must be positive")
	ErrNoShards            = errors.New("no shards to start")
	ErrReadConfiguration   = errors.New("failed to read configuration")
	ErrDecodeConfiguration = errors.New("failed to decode configuration")

	ErrShardFatalClose     = errors.New("shard received a fatal close code")
	ErrInvalidSession      = errors.New("session invalidated")
	ErrReconnectRequested  = errors.New("reconnect requested by gateway")
	ErrHeartbeatTimeout    = errors.New("missed too many heartbeat acks")
	ErrNotConnected        = errors.New("shard is not connected")
	ErrNoGatewayHandler    = errors.New("no gateway handler found")
	ErrNoDispatchHandler   = errors.New("no dispatch handler found")
	ErrEventBlacklisted    = errors.New("event is blacklisted")
	ErrMissingSessionState = errors.New("resume attempted without session")

	ErrTransport    = errors.New("transport failure")
	ErrDecode       = errors.New("decode failure")
	ErrHandlerPanic = errors.New("handler panicked")

	ErrUnknownCommand   = errors.New("no command registered with this name")
	ErrDuplicateCommand = errors.New("command is already registered")
	ErrInvalidCommand   = errors.New("command needs a name and handler")
	ErrCommandsSealed   = errors.New("commands cannot be registered after open")
)

// StatusError is returned when a request fails with a status code and the
// body is not a structured discord error.
type StatusError struct {
	Method     string
	Route      string
	Body       []byte
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Route, e.StatusCode)
}
