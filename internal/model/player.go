package model

import "time"

// PlayerID uniquely identifies a player across the system
type PlayerID string

// PlayerState represents a player's position in the session lifecycle
type PlayerState string

const (
	PlayerStateInit           PlayerState = "init"            // Connected, not placed anywhere
	PlayerStateWaiting        PlayerState = "waiting"         // In a room, waiting for opponents
	PlayerStatePlaying        PlayerState = "playing"         // In a running match
	PlayerStateDisconnected   PlayerState = "disconnected"    // Transport lost, grace timer running
	PlayerStateEvicted        PlayerState = "evicted"         // Grace period expired, terminal
	PlayerStateTournamentWait PlayerState = "tournament_wait" // Registered in a tournament, between rounds
	PlayerStateTournamentPlay PlayerState = "tournament_play" // Playing a tournament match
)

// Side is a paddle's mounting edge in a room
type Side string

const (
	SideLeft   Side = "left"
	SideRight  Side = "right"
	SideTop    Side = "top"
	SideBottom Side = "bottom"
)

// SideOrder is the deterministic order in which free sides are assigned
var SideOrder = []Side{SideLeft, SideRight, SideTop, SideBottom}

// Player represents a session participant.
// Owned by the connection registry; rooms and tournaments hold PlayerIDs
// as back-references, never the Player itself.
type Player struct {
	ID       PlayerID
	Username string
	State    PlayerState

	// nil while the player is not in a room / tournament
	GameID       *GameID
	TournamentID *TournamentID

	Side  Side
	Score int

	ConnectedAt time.Time
}

// InGame returns true if the player is currently placed in a room
func (p *Player) InGame() bool {
	return p.GameID != nil
}

// InTournament returns true if the player is registered in a tournament
func (p *Player) InTournament() bool {
	return p.TournamentID != nil
}
