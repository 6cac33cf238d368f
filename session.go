package gamenight

import "time"

// Session is the resumable state of a gateway connection. It is owned by the
// shard's control loop and is never shared between goroutines.
type Session struct {
	ID               string
	ResumeGatewayURL string

	Sequence    int64
	HasSequence bool

	HeartbeatInterval time.Duration
	LastHeartbeatSent time.Time
	LastHeartbeatAck  time.Time
	Strikes           int
}

// CanResume reports whether a Resume may be sent instead of an Identify.
func (s *Session) CanResume() bool {
	return s.ID != "" && s.HasSequence
}

// Reset clears everything, forcing the next connection to identify.
func (s *Session) Reset() {
	*s = Session{}
}

// ResetHeartbeat clears per-connection heartbeat state and keeps the session.
func (s *Session) ResetHeartbeat() {
	s.HeartbeatInterval = 0
	s.LastHeartbeatSent = time.Time{}
	s.LastHeartbeatAck = time.Time{}
	s.Strikes = 0
}

// ObserveSequence stores a dispatch sequence and returns how many events were
// skipped since the previous one. The stored sequence always becomes seq.
func (s *Session) ObserveSequence(seq int64) (skipped int64) {
	if s.HasSequence && seq > s.Sequence+1 {
		skipped = seq - s.Sequence - 1
	}

	s.Sequence = seq
	s.HasSequence = true

	return skipped
}

// HeartbeatDue reports whether a heartbeat should be sent at now.
func (s *Session) HeartbeatDue(now time.Time) bool {
	if !s.HasSequence || s.HeartbeatInterval <= 0 {
		return false
	}

	return s.LastHeartbeatSent.IsZero() || now.Sub(s.LastHeartbeatSent) >= s.HeartbeatInterval
}

// CheckLiveness counts a strike when the previous heartbeat is still
// unacknowledged and clears strikes otherwise. It reports whether maxStrikes
// has been reached.
func (s *Session) CheckLiveness(maxStrikes int) (dead bool) {
	if !s.LastHeartbeatSent.IsZero() && !s.LastHeartbeatAck.IsZero() &&
		s.LastHeartbeatSent.After(s.LastHeartbeatAck) {
		s.Strikes++
	} else {
		s.Strikes = 0
	}

	return s.Strikes >= maxStrikes
}
