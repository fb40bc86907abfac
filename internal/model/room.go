package model

import "time"

// GameID uniquely identifies a game room
type GameID string

// GameMode selects how many sides a room has
type GameMode string

const (
	ModeTwoPlayer  GameMode = "2p" // left and right sides
	ModeFourPlayer GameMode = "4p" // all four sides
)

// WinCondition selects how a room decides its winner
type WinCondition string

const (
	WinByScore WinCondition = "score" // first side to reach Limit points
	WinByTime  WinCondition = "time"  // highest score after Limit seconds
)

// RoomState represents the current phase of a room
type RoomState string

const (
	RoomStateWaiting RoomState = "waiting" // Sides still unassigned
	RoomStatePlaying RoomState = "playing" // Simulation running
	RoomStatePaused  RoomState = "paused"  // Simulation suspended (tournament disconnect policy)
	RoomStateEnded   RoomState = "ended"   // Terminal, reached exactly once
)

// End reasons reported in endMatch / room teardown
const (
	EndReasonScoreLimit = "score_limit"
	EndReasonTimeLimit  = "time_limit"
	EndReasonAbandoned  = "abandoned"
	EndReasonShutdown   = "server_shutdown"
)

// RoomSettings holds the configurable rules of a single match
type RoomSettings struct {
	Mode         GameMode
	WinCondition WinCondition
	// Limit is points for WinByScore, seconds for WinByTime
	Limit int
	// Tournament rooms pause while a participant is disconnected
	PauseOnDisconnect bool
}

// DefaultRoomSettings returns the standard quick-match rules
func DefaultRoomSettings() RoomSettings {
	return RoomSettings{
		Mode:         ModeTwoPlayer,
		WinCondition: WinByScore,
		Limit:        5,
	}
}

// Sides returns the sides this mode plays with, in assignment order
func (s RoomSettings) Sides() []Side {
	if s.Mode == ModeFourPlayer {
		return SideOrder
	}
	return SideOrder[:2]
}

// MinPlayers is the number of occupied sides below which a room is abandoned
func (s RoomSettings) MinPlayers() int {
	return 2
}

// Paddle is the state of one occupied side
type Paddle struct {
	Side     Side
	PlayerID PlayerID
	// Pos is the centre of the paddle along its mounting edge
	Pos       float64
	Velocity  float64
	Score     int
	Connected bool
}

// Ball is a ball's position and velocity in court coordinates
type Ball struct {
	X  float64
	Y  float64
	VX float64
	VY float64
}

// Room is the authoritative record of one match. The live simulation
// state (paddles, balls, clocks) is owned exclusively by the gameroom
// engine; this struct is what other components and snapshots see.
type Room struct {
	ID       GameID
	Settings RoomSettings
	State    RoomState

	// TournamentID is set for bracket matches, nil for quick matches
	TournamentID *TournamentID

	CreatedAt time.Time
}

// MatchResult is the terminal record of a room, handed to the
// persistence collaborator and the tournament coordinator.
type MatchResult struct {
	GameID       GameID
	TournamentID *TournamentID
	Mode         GameMode
	WinnerID     PlayerID
	Scores       map[PlayerID]int
	Reason       string
	Elapsed      time.Duration
	EndedAt      time.Time
}
