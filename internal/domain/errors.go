package domain

import "errors"

// Sentinel errors returned by the store adapter and session state checks.
// Handlers translate these into wire response codes; the strings here
// never reach the client directly (see internal/examserver's handlers
// and codes.go).
var (
	// Auth / session errors
	ErrUserNotFound    = errors.New("user not found")
	ErrUsernameTaken   = errors.New("username already exists")
	ErrAccountLocked   = errors.New("account is locked")
	ErrWrongPassword   = errors.New("wrong password")
	ErrAlreadyLoggedIn = errors.New("user already has an active session")
	ErrSessionNotFound = errors.New("session not found")

	// Room errors
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomInProgress = errors.New("room already in progress")
	ErrRoomFinished   = errors.New("room already finished")
	ErrRoomFull       = errors.New("room is full")
	ErrNotCreator     = errors.New("caller is not the room creator")
	ErrNotParticipant = errors.New("caller is not a participant of this room")

	// Exam errors
	ErrAlreadySubmitted = errors.New("exam already submitted")
	ErrTimeExpired      = errors.New("exam deadline has passed")
	ErrInvalidState     = errors.New("operation invalid in current state")

	// Practice errors
	ErrPracticeNotFound = errors.New("practice session not found or expired")
)
