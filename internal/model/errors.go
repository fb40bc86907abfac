package model

import "errors"

// Common errors used across the application.
// Gateway-facing errors carry the reason strings the wire protocol
// reports in negative acknowledgments.
var (
	// Player errors
	ErrPlayerNotFound   = errors.New("player not found")
	ErrPlayerOffline    = errors.New("target unreachable")
	ErrDuplicateSession = errors.New("duplicate session")

	// Room errors
	ErrRoomNotFound     = errors.New("not-found")
	ErrRoomFull         = errors.New("full")
	ErrAlreadyInGame    = errors.New("already-in-game")
	ErrNotInGame        = errors.New("player is not in a game")
	ErrSideNotAssigned  = errors.New("no side assigned")
	ErrRoomEnded        = errors.New("room has ended")
	ErrUnknownDirection = errors.New("unknown move direction")

	// Invite errors
	ErrInviteNotFound = errors.New("invite not found or already answered")
	ErrInviteExpired  = errors.New("invite expired")

	// Tournament errors
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrTournamentStarted  = errors.New("tournament already started")
	ErrTournamentFull     = errors.New("tournament is full")
	ErrAlreadyRegistered  = errors.New("player already registered in tournament")
	ErrNotRegistered      = errors.New("player is not registered in tournament")

	// Storage errors
	ErrMatchResultNotFound      = errors.New("match result not found")
	ErrTournamentRecordNotFound = errors.New("tournament record not found")
)
