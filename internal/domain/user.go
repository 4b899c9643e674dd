package domain

import "time"

// User represents a registered examinee or room creator.
type User struct {
	Username     string
	PasswordHash string // hex-encoded SHA-256 digest
	Locked       bool
}

// Session is a server-side authentication token tied to a single
// logged-in user at a time: at most one active session per username.
type Session struct {
	Token      string
	Username   string
	LastActive time.Time
	Active     bool
}
