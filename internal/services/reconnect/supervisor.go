// Package reconnect gives disconnected players a grace window to come
// back before their session is forfeited. Each disconnected player gets
// one timer; reconnection cancels it, expiry evicts exactly once.
package reconnect

import (
	"log/slog"
	"sync"
	"time"

	"github.com/debsndprgs5/transcendence-game/internal/dependencies/clock"
	"github.com/debsndprgs5/transcendence-game/internal/model"
	"github.com/debsndprgs5/transcendence-game/internal/protocol"
)

// DefaultGracePeriod is the reconnection window
const DefaultGracePeriod = 30 * time.Second

// Rooms is the slice of the room controller the supervisor drives
type Rooms interface {
	HandleDisconnect(playerID model.PlayerID)
	HandleReconnect(playerID model.PlayerID) (model.GameID, int, bool)
	RemovePlayer(playerID model.PlayerID, reason string)
}

// Tournaments forfeits evicted players out of their bracket
type Tournaments interface {
	ForfeitPlayer(playerID model.PlayerID)
}

// Directory is the slice of the connection registry the supervisor needs
type Directory interface {
	Player(id model.PlayerID) (model.Player, bool)
	Mutate(id model.PlayerID, fn func(*model.Player)) bool
	Send(id model.PlayerID, msg protocol.Message) bool
	Remove(id model.PlayerID)
}

// Supervisor tracks grace timers for disconnected players
type Supervisor struct {
	mu      sync.Mutex
	pending map[model.PlayerID]clock.Timer

	rooms       Rooms
	tournaments Tournaments
	directory   Directory
	clock       clock.Clock
	logger      *slog.Logger
	grace       time.Duration
}

// New creates a reconnection supervisor
func New(rooms Rooms, directory Directory, clk clock.Clock, grace time.Duration, logger *slog.Logger) *Supervisor {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	return &Supervisor{
		pending:   make(map[model.PlayerID]clock.Timer),
		rooms:     rooms,
		directory: directory,
		clock:     clk,
		grace:     grace,
		logger:    logger.With(slog.String("component", "reconnect")),
	}
}

// SetTournaments wires the tournament forfeit hook; call once during setup
func (s *Supervisor) SetTournaments(t Tournaments) {
	s.tournaments = t
}

// PlayerDisconnected starts the grace window. Idle players have nothing
// to come back to and are removed immediately.
func (s *Supervisor) PlayerDisconnected(playerID model.PlayerID) {
	p, ok := s.directory.Player(playerID)
	if !ok {
		return
	}
	if !p.InGame() && !p.InTournament() {
		s.directory.Remove(playerID)
		return
	}

	s.rooms.HandleDisconnect(playerID)

	s.mu.Lock()
	if prev, exists := s.pending[playerID]; exists {
		prev.Stop()
	}
	s.pending[playerID] = s.clock.AfterFunc(s.grace, func() { s.evict(playerID) })
	s.mu.Unlock()

	s.logger.Info("grace period started",
		slog.String("player_id", string(playerID)),
		slog.Duration("grace", s.grace),
	)
}

// PlayerConnected cancels any pending eviction and reintegrates the
// player into their in-flight game. Cancelling is idempotent; a timer
// that already fired has removed itself from the pending set.
func (s *Supervisor) PlayerConnected(playerID model.PlayerID, resumed bool) {
	s.mu.Lock()
	timer, wasPending := s.pending[playerID]
	if wasPending {
		timer.Stop()
		delete(s.pending, playerID)
	}
	s.mu.Unlock()

	if !wasPending && !resumed {
		return
	}

	p, ok := s.directory.Player(playerID)
	if !ok {
		return
	}

	msg := &protocol.Reconnected{TournamentID: p.TournamentID}
	state := model.PlayerStateInit
	if gameID, score, inGame := s.rooms.HandleReconnect(playerID); inGame {
		msg.GameID = &gameID
		msg.Score = score
		state = model.PlayerStatePlaying
		if p.InTournament() {
			state = model.PlayerStateTournamentPlay
		}
	} else if p.InTournament() {
		state = model.PlayerStateTournamentWait
	}
	msg.State = state

	s.directory.Mutate(playerID, func(p *model.Player) { p.State = state })
	s.directory.Send(playerID, msg)

	s.logger.Info("player reintegrated",
		slog.String("player_id", string(playerID)),
		slog.String("state", string(state)),
	)
}

// evict runs when the grace window elapses without a reconnection. The
// pending-set check makes eviction race-free against a concurrent
// cancel: whoever deletes the entry wins.
func (s *Supervisor) evict(playerID model.PlayerID) {
	s.mu.Lock()
	_, stillPending := s.pending[playerID]
	if stillPending {
		delete(s.pending, playerID)
	}
	s.mu.Unlock()
	if !stillPending {
		return
	}

	s.logger.Info("grace period expired, evicting",
		slog.String("player_id", string(playerID)),
	)

	s.directory.Mutate(playerID, func(p *model.Player) { p.State = model.PlayerStateEvicted })
	s.rooms.RemovePlayer(playerID, "player evicted")

	p, ok := s.directory.Player(playerID)
	if ok && p.InTournament() && s.tournaments != nil {
		s.tournaments.ForfeitPlayer(playerID)
	}

	s.directory.Remove(playerID)
}

// PendingCount returns the number of players inside their grace window
func (s *Supervisor) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
