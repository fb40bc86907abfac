// Package tournament runs single-elimination brackets over game rooms.
// Pairing is deterministic over the roster's join order; the roster
// freezes when the bracket starts and rounds only move forward.
package tournament

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/debsndprgs5/transcendence-game/internal/dependencies/clock"
	"github.com/debsndprgs5/transcendence-game/internal/dependencies/random"
	"github.com/debsndprgs5/transcendence-game/internal/events"
	"github.com/debsndprgs5/transcendence-game/internal/model"
	"github.com/debsndprgs5/transcendence-game/internal/protocol"
	"github.com/debsndprgs5/transcendence-game/internal/storage"
)

const tournamentIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// EndedTournamentTTL is how long a completed tournament stays listed
// before its record is dropped; history lives in storage.
const EndedTournamentTTL = 2 * time.Minute

// Rooms is the slice of the room controller the coordinator drives
type Rooms interface {
	CreateRoom(settings model.RoomSettings, tournamentID *model.TournamentID) (*model.Room, error)
	Join(gameID model.GameID, playerID model.PlayerID) (model.Side, error)
	EndRoom(gameID model.GameID, winner model.PlayerID, reason string) error
}

// Directory is the slice of the connection registry the coordinator needs
type Directory interface {
	Send(id model.PlayerID, msg protocol.Message) bool
	SendAll(ids []model.PlayerID, msg protocol.Message)
	Player(id model.PlayerID) (model.Player, bool)
	Mutate(id model.PlayerID, fn func(*model.Player)) bool
	ConnectedIDs() []model.PlayerID
}

// MatchSettings are the rules every bracket match is played with.
// Tournament rooms pause while a participant is inside their grace
// window instead of playing on.
func MatchSettings() model.RoomSettings {
	s := model.DefaultRoomSettings()
	s.PauseOnDisconnect = true
	return s
}

// Coordinator owns every live tournament
type Coordinator struct {
	mu          sync.Mutex
	tournaments map[model.TournamentID]*model.Tournament

	rooms     Rooms
	directory Directory
	store     storage.Storage
	publisher events.Publisher
	clock     clock.Clock
	random    random.Random
	logger    *slog.Logger
}

// New creates a tournament coordinator
func New(
	rooms Rooms,
	directory Directory,
	store storage.Storage,
	publisher events.Publisher,
	clk clock.Clock,
	rnd random.Random,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		tournaments: make(map[model.TournamentID]*model.Tournament),
		rooms:       rooms,
		directory:   directory,
		store:       store,
		publisher:   publisher,
		clock:       clk,
		random:      rnd,
		logger:      logger.With(slog.String("component", "tournament")),
	}
}

// Create opens a new tournament and registers the creator as its first
// entrant.
func (c *Coordinator) Create(creatorID model.PlayerID, name string, maxPlayers int) (*model.Tournament, error) {
	if maxPlayers < 2 {
		maxPlayers = 2
	}

	c.mu.Lock()
	var id model.TournamentID
	for {
		id = model.TournamentID(c.random.String(8, tournamentIDAlphabet))
		if _, exists := c.tournaments[id]; !exists {
			break
		}
	}

	now := c.clock.Now()
	t := &model.Tournament{
		ID:         id,
		Name:       name,
		MaxPlayers: maxPlayers,
		State:      model.TournamentStateForming,
		MaxRound:   int(math.Ceil(math.Log2(float64(maxPlayers)))),
		Bracket:    make(map[int][]*model.Pairing),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	c.tournaments[id] = t
	c.mu.Unlock()

	c.logger.Info("tournament created",
		slog.String("tournament_id", string(id)),
		slog.String("name", name),
		slog.Int("max_players", maxPlayers),
	)

	if err := c.Join(creatorID, id); err != nil {
		// Nobody ever saw the tournament; drop the empty record
		c.mu.Lock()
		delete(c.tournaments, id)
		c.mu.Unlock()
		return nil, err
	}
	return c.snapshot(id)
}

// Join registers a player on a forming tournament's roster. The roster
// is frozen once the tournament starts; a full roster starts it.
func (c *Coordinator) Join(playerID model.PlayerID, id model.TournamentID) error {
	p, ok := c.directory.Player(playerID)
	if !ok {
		return model.ErrPlayerNotFound
	}
	if p.InTournament() {
		return model.ErrAlreadyRegistered
	}
	if p.InGame() {
		return model.ErrAlreadyInGame
	}

	c.mu.Lock()
	t, ok := c.tournaments[id]
	if !ok {
		c.mu.Unlock()
		return model.ErrTournamentNotFound
	}
	if t.State != model.TournamentStateForming {
		c.mu.Unlock()
		return model.ErrTournamentStarted
	}
	if t.HasPlayer(playerID) {
		c.mu.Unlock()
		return model.ErrAlreadyRegistered
	}
	if len(t.Roster) >= t.MaxPlayers {
		c.mu.Unlock()
		return model.ErrTournamentFull
	}

	t.Roster = append(t.Roster, playerID)
	t.UpdatedAt = c.clock.Now()
	full := len(t.Roster) == t.MaxPlayers
	c.mu.Unlock()

	c.directory.Mutate(playerID, func(p *model.Player) {
		p.TournamentID = &id
		p.State = model.PlayerStateTournamentWait
	})

	c.logger.Info("player joined tournament",
		slog.String("tournament_id", string(id)),
		slog.String("player_id", string(playerID)),
	)

	if full {
		c.start(id)
	}
	c.broadcastRoster(id)
	c.broadcastTourList()
	return nil
}

// Leave withdraws a player. Before the start this shrinks the roster;
// after it the slot is forfeited instead, the roster being frozen.
func (c *Coordinator) Leave(playerID model.PlayerID) error {
	p, ok := c.directory.Player(playerID)
	if !ok || !p.InTournament() {
		return model.ErrNotRegistered
	}
	id := *p.TournamentID

	c.mu.Lock()
	t, ok := c.tournaments[id]
	if !ok {
		c.mu.Unlock()
		return model.ErrTournamentNotFound
	}

	if t.State == model.TournamentStateForming {
		for i, rid := range t.Roster {
			if rid == playerID {
				t.Roster = append(t.Roster[:i], t.Roster[i+1:]...)
				break
			}
		}
		t.UpdatedAt = c.clock.Now()
		c.mu.Unlock()

		c.directory.Mutate(playerID, func(p *model.Player) {
			p.TournamentID = nil
			p.State = model.PlayerStateInit
		})
		c.broadcastRoster(id)
		c.broadcastTourList()
		return nil
	}
	c.mu.Unlock()

	c.ForfeitPlayer(playerID)
	return nil
}

// ForfeitPlayer resolves an active player's current pairing against
// them. Their in-flight match, if any, ends in the opponent's favour;
// an undecided future slot is awarded to the opponent directly.
func (c *Coordinator) ForfeitPlayer(playerID model.PlayerID) {
	p, ok := c.directory.Player(playerID)
	if !ok || !p.InTournament() {
		return
	}
	id := *p.TournamentID

	c.mu.Lock()
	t, ok := c.tournaments[id]
	if !ok || t.State != model.TournamentStateActive {
		c.mu.Unlock()
		return
	}

	var liveGame model.GameID
	var opponent model.PlayerID
	decided := false
	for _, pairing := range t.CurrentPairings() {
		if pairing.Decided() || (pairing.Home != playerID && pairing.Away != playerID) {
			continue
		}
		opponent = pairing.Home
		if opponent == playerID {
			opponent = pairing.Away
		}
		if pairing.GameID != "" {
			// Let the room's terminal result flow back through
			// HandleRoomEnded so the bracket advances once.
			liveGame = pairing.GameID
		} else {
			pairing.Winner = opponent
			decided = true
		}
		break
	}
	c.mu.Unlock()

	c.directory.Mutate(playerID, func(p *model.Player) {
		p.TournamentID = nil
	})

	c.logger.Info("player forfeited",
		slog.String("tournament_id", string(id)),
		slog.String("player_id", string(playerID)),
	)

	if liveGame != "" {
		if err := c.rooms.EndRoom(liveGame, opponent, model.EndReasonAbandoned); err != nil {
			c.logger.Warn("failed to end forfeited match",
				slog.String("game_id", string(liveGame)),
				slog.String("error", err.Error()),
			)
		}
		return
	}
	if decided {
		c.advanceIfRoundDone(id)
	}
	c.broadcastRoster(id)
}

// HandleRoomEnded records a bracket match result and advances the round
// once every pairing is decided. Wired as the room controller's ended
// hook.
func (c *Coordinator) HandleRoomEnded(result *model.MatchResult) {
	if result.TournamentID == nil {
		return
	}
	id := *result.TournamentID

	c.mu.Lock()
	t, ok := c.tournaments[id]
	if !ok || t.State != model.TournamentStateActive {
		c.mu.Unlock()
		return
	}
	for _, pairing := range t.CurrentPairings() {
		if pairing.GameID != result.GameID || pairing.Decided() {
			continue
		}
		winner := result.WinnerID
		if winner == "" {
			// Both sides gone; the home seat advances to keep the
			// bracket total.
			winner = pairing.Home
		}
		pairing.Winner = winner
		break
	}
	t.UpdatedAt = c.clock.Now()
	c.mu.Unlock()

	c.advanceIfRoundDone(id)
	c.broadcastRoster(id)
}

// start freezes the roster and launches round one
func (c *Coordinator) start(id model.TournamentID) {
	c.mu.Lock()
	t, ok := c.tournaments[id]
	if !ok || t.State != model.TournamentStateForming {
		c.mu.Unlock()
		return
	}
	if len(t.Roster) < 2 {
		// Terminal with no bracket to play; drop the record outright
		t.State = model.TournamentStateAbandoned
		delete(c.tournaments, id)
		c.mu.Unlock()
		return
	}
	t.State = model.TournamentStateActive
	t.CurrentRound = 1
	t.Bracket[1] = pairUp(t.Roster)
	t.UpdatedAt = c.clock.Now()
	c.mu.Unlock()

	c.logger.Info("tournament started",
		slog.String("tournament_id", string(id)),
		slog.Int("players", c.rosterSize(id)),
	)

	c.playRound(id)
}

// pairUp builds a round's pairings from an ordered field: adjacent
// entries meet, an odd tail gets a bye.
func pairUp(field []model.PlayerID) []*model.Pairing {
	pairings := make([]*model.Pairing, 0, (len(field)+1)/2)
	for i := 0; i+1 < len(field); i += 2 {
		pairings = append(pairings, &model.Pairing{Home: field[i], Away: field[i+1]})
	}
	if len(field)%2 == 1 {
		last := field[len(field)-1]
		pairings = append(pairings, &model.Pairing{Home: last, Winner: last, Bye: true})
	}
	return pairings
}

// playRound creates a room per undecided pairing and seats both players
func (c *Coordinator) playRound(id model.TournamentID) {
	c.mu.Lock()
	t, ok := c.tournaments[id]
	if !ok {
		c.mu.Unlock()
		return
	}
	pairings := t.CurrentPairings()
	c.mu.Unlock()

	for _, pairing := range pairings {
		if pairing.Bye || pairing.Decided() {
			continue
		}
		room, err := c.rooms.CreateRoom(MatchSettings(), &id)
		if err != nil {
			c.logger.Error("failed to create bracket room",
				slog.String("tournament_id", string(id)),
				slog.String("error", err.Error()),
			)
			continue
		}

		c.mu.Lock()
		pairing.GameID = room.ID
		c.mu.Unlock()

		// A player who cannot be seated forfeits the slot
		if _, err := c.rooms.Join(room.ID, pairing.Home); err != nil {
			c.settleSeatFailure(id, pairing, pairing.Away)
			continue
		}
		if _, err := c.rooms.Join(room.ID, pairing.Away); err != nil {
			c.settleSeatFailure(id, pairing, pairing.Home)
			continue
		}
	}

	c.advanceIfRoundDone(id)
}

func (c *Coordinator) settleSeatFailure(id model.TournamentID, pairing *model.Pairing, winner model.PlayerID) {
	c.mu.Lock()
	pairing.Winner = winner
	gameID := pairing.GameID
	c.mu.Unlock()

	if gameID != "" {
		_ = c.rooms.EndRoom(gameID, winner, model.EndReasonAbandoned)
	}
	c.logger.Warn("pairing settled by seat failure",
		slog.String("tournament_id", string(id)),
		slog.String("winner", string(winner)),
	)
}

// advanceIfRoundDone moves to the next round or crowns the champion
func (c *Coordinator) advanceIfRoundDone(id model.TournamentID) {
	c.mu.Lock()
	t, ok := c.tournaments[id]
	if !ok || t.State != model.TournamentStateActive || !t.RoundComplete() {
		c.mu.Unlock()
		return
	}

	winners := t.RoundWinners()
	if len(winners) == 1 {
		t.State = model.TournamentStateComplete
		t.Champion = winners[0]
		t.UpdatedAt = c.clock.Now()
		record := &model.TournamentRecord{
			TournamentID: t.ID,
			Name:         t.Name,
			Champion:     t.Champion,
			Rounds:       t.CurrentRound,
			PlayerCount:  len(t.Roster),
			CompletedAt:  t.UpdatedAt,
		}
		roster := append([]model.PlayerID(nil), t.Roster...)
		c.mu.Unlock()

		c.complete(id, record, roster)
		return
	}

	t.CurrentRound++
	t.Bracket[t.CurrentRound] = pairUp(winners)
	t.UpdatedAt = c.clock.Now()
	round := t.CurrentRound
	c.mu.Unlock()

	c.logger.Info("round advanced",
		slog.String("tournament_id", string(id)),
		slog.Int("round", round),
	)
	c.playRound(id)
}

// complete persists the record, publishes the terminal event and
// releases the participants.
func (c *Coordinator) complete(id model.TournamentID, record *model.TournamentRecord, roster []model.PlayerID) {
	c.logger.Info("tournament complete",
		slog.String("tournament_id", string(id)),
		slog.String("champion", string(record.Champion)),
	)

	for _, playerID := range roster {
		c.directory.Mutate(playerID, func(p *model.Player) {
			if p.TournamentID != nil && *p.TournamentID == id {
				p.TournamentID = nil
				p.State = model.PlayerStateInit
			}
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.store.SaveTournamentRecord(ctx, record); err != nil {
		c.logger.Error("failed to persist tournament record",
			slog.String("tournament_id", string(id)),
			slog.String("error", err.Error()),
		)
	}
	c.publisher.TournamentComplete(record)

	c.broadcastRoster(id)
	c.broadcastTourList()

	c.clock.AfterFunc(EndedTournamentTTL, func() {
		c.mu.Lock()
		delete(c.tournaments, id)
		c.mu.Unlock()
	})
}

// snapshot returns a copy of the tournament safe to share
func (c *Coordinator) snapshot(id model.TournamentID) (*model.Tournament, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tournaments[id]
	if !ok {
		return nil, model.ErrTournamentNotFound
	}
	cp := *t
	cp.Roster = append([]model.PlayerID(nil), t.Roster...)
	return &cp, nil
}

// Get returns the tournament by id
func (c *Coordinator) Get(id model.TournamentID) (*model.Tournament, error) {
	return c.snapshot(id)
}

// List returns summaries of every tracked tournament
func (c *Coordinator) List() []protocol.TourSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	summaries := make([]protocol.TourSummary, 0, len(c.tournaments))
	for _, t := range c.tournaments {
		summaries = append(summaries, protocol.TourSummary{
			TournamentID: t.ID,
			Name:         t.Name,
			State:        t.State,
			PlayerCount:  len(t.Roster),
			MaxPlayers:   t.MaxPlayers,
			CurrentRound: t.CurrentRound,
		})
	}
	return summaries
}

func (c *Coordinator) rosterSize(id model.TournamentID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tournaments[id]
	if !ok {
		return 0
	}
	return len(t.Roster)
}

// broadcastRoster pushes the roster and bracket progress to participants
func (c *Coordinator) broadcastRoster(id model.TournamentID) {
	c.mu.Lock()
	t, ok := c.tournaments[id]
	if !ok {
		c.mu.Unlock()
		return
	}
	msg := &protocol.UpdateTourPlayerList{
		TournamentID: t.ID,
		State:        t.State,
		CurrentRound: t.CurrentRound,
		MaxRound:     t.MaxRound,
		Champion:     t.Champion,
		Players:      make([]protocol.TourPlayer, 0, len(t.Roster)),
	}
	roster := append([]model.PlayerID(nil), t.Roster...)
	c.mu.Unlock()

	for _, playerID := range roster {
		entry := protocol.TourPlayer{PlayerID: playerID}
		if p, ok := c.directory.Player(playerID); ok {
			entry.Username = p.Username
			entry.State = p.State
		}
		msg.Players = append(msg.Players, entry)
	}
	c.directory.SendAll(roster, msg)
}

// broadcastTourList pushes the tournament list to every connected player
func (c *Coordinator) broadcastTourList() {
	c.directory.SendAll(c.directory.ConnectedIDs(), &protocol.UpdateTourList{
		Tournaments: c.List(),
	})
}
