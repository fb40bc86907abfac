package model

import "time"

// Invite is an ephemeral request for a target player to join a room.
// It lives until the target replies or the TTL elapses; never persisted.
type Invite struct {
	FromID    PlayerID
	TargetID  PlayerID
	GameID    GameID
	CreatedAt time.Time
	ExpiresAt time.Time
}
