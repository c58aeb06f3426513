package domain

import "time"

type SessionStatus string

const (
	SessionStatusOpen   SessionStatus = "OPEN"
	SessionStatusClosed SessionStatus = "CLOSED"
)

// IsTerminal reports whether the session can no longer accept requests.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusClosed
}

// String representation (for logging)
func (s SessionStatus) String() string {
	return string(s)
}

// Session is a time-bounded chat scope identified by a UUID string.
type Session struct {
	ID           string        `json:"id" bson:"_id"`
	Status       SessionStatus `json:"status" bson:"status"`
	CreatedAt    time.Time     `json:"created_at" bson:"created_at"`
	LastActivity time.Time     `json:"last_activity" bson:"last_activity"`
}

// ExpiresAt returns the instant after which the session is considered idle.
func (s *Session) ExpiresAt(timeout time.Duration) time.Time {
	return s.LastActivity.Add(timeout)
}

// IsExpired reports whether now is strictly past the inactivity window.
func (s *Session) IsExpired(now time.Time, timeout time.Duration) bool {
	return now.After(s.ExpiresAt(timeout))
}

// Touch moves LastActivity forward to now. It never moves it backwards.
func (s *Session) Touch(now time.Time) {
	if now.After(s.LastActivity) {
		s.LastActivity = now
	}
}

// Close marks the session closed. Closing twice is a no-op.
func (s *Session) Close() {
	s.Status = SessionStatusClosed
}
