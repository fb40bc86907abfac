package model

import "time"

// TournamentID uniquely identifies a tournament
type TournamentID string

// TournamentState represents the current phase of a tournament
type TournamentState string

const (
	TournamentStateForming   TournamentState = "forming"   // Roster open
	TournamentStateActive    TournamentState = "active"    // Rounds in progress, roster frozen
	TournamentStateComplete  TournamentState = "complete"  // Champion decided
	TournamentStateAbandoned TournamentState = "abandoned" // Insufficient players
)

// Pairing is one match slot in a bracket round
type Pairing struct {
	Home PlayerID
	// Away is empty for a bye
	Away PlayerID
	// GameID is set once the broker has created the room
	GameID GameID
	// Winner is empty until the room ends or the slot is forfeited
	Winner PlayerID
	Bye    bool
}

// Decided returns true once this pairing has produced a winner
func (p *Pairing) Decided() bool {
	return p.Winner != ""
}

// Tournament groups rooms into bracketed rounds.
// Invariant: CurrentRound only advances when every pairing of the
// current round is decided; Roster is frozen once the state is active.
type Tournament struct {
	ID         TournamentID
	Name       string
	MaxPlayers int

	State TournamentState

	// Roster in stable join order; pairing is deterministic over it
	Roster []PlayerID

	// CurrentRound is 0 while forming, 1..MaxRound while active
	CurrentRound int
	MaxRound     int

	// Bracket maps round number to its pairings
	Bracket map[int][]*Pairing

	Champion  PlayerID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasPlayer returns true if the player is on the roster
func (t *Tournament) HasPlayer(id PlayerID) bool {
	for _, p := range t.Roster {
		if p == id {
			return true
		}
	}
	return false
}

// CurrentPairings returns the pairings of the round in progress
func (t *Tournament) CurrentPairings() []*Pairing {
	return t.Bracket[t.CurrentRound]
}

// RoundComplete returns true once every pairing of the current round is decided
func (t *Tournament) RoundComplete() bool {
	pairings := t.CurrentPairings()
	if len(pairings) == 0 {
		return false
	}
	for _, p := range pairings {
		if !p.Decided() {
			return false
		}
	}
	return true
}

// RoundWinners returns the winners of the current round in pairing order
func (t *Tournament) RoundWinners() []PlayerID {
	var winners []PlayerID
	for _, p := range t.CurrentPairings() {
		if p.Winner != "" {
			winners = append(winners, p.Winner)
		}
	}
	return winners
}

// TournamentRecord is the terminal record of a tournament, handed to
// the persistence collaborator.
type TournamentRecord struct {
	TournamentID TournamentID
	Name         string
	Champion     PlayerID
	Rounds       int
	PlayerCount  int
	CompletedAt  time.Time
}
