package gamenight

type ShardStatus int32

const (
	ShardStatusIdle ShardStatus = iota
	ShardStatusConnecting
	ShardStatusConnected
	ShardStatusReady
	ShardStatusReconnecting
	ShardStatusStopping
	ShardStatusStopped
	ShardStatusFailed
)

func (status ShardStatus) String() string {
	switch status {
	case ShardStatusIdle:
		return "Idle"
	case ShardStatusConnecting:
		return "Connecting"
	case ShardStatusConnected:
		return "Connected"
	case ShardStatusReady:
		return "Ready"
	case ShardStatusReconnecting:
		return "Reconnecting"
	case ShardStatusStopping:
		return "Stopping"
	case ShardStatusStopped:
		return "Stopped"
	case ShardStatusFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

func (status ShardStatus) MarshalText() ([]byte, error) {
	return []byte(status.String()), nil
}
