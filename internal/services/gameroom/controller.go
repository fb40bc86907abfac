package gameroom

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/debsndprgs5/transcendence-game/internal/dependencies/clock"
	"github.com/debsndprgs5/transcendence-game/internal/dependencies/random"
	"github.com/debsndprgs5/transcendence-game/internal/events"
	"github.com/debsndprgs5/transcendence-game/internal/model"
	"github.com/debsndprgs5/transcendence-game/internal/protocol"
	"github.com/debsndprgs5/transcendence-game/internal/storage"
)

const gameIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Directory is the slice of the connection registry the controller
// needs: message delivery and player record access.
type Directory interface {
	Send(id model.PlayerID, msg protocol.Message) bool
	SendAll(ids []model.PlayerID, msg protocol.Message)
	Player(id model.PlayerID) (model.Player, bool)
	Mutate(id model.PlayerID, fn func(*model.Player)) bool
}

// Controller manages the set of live rooms and runs their tick loops
type Controller struct {
	mu    sync.Mutex
	rooms map[model.GameID]*room

	cfg       Config
	directory Directory
	store     storage.Storage
	publisher events.Publisher
	clock     clock.Clock
	random    random.Random
	logger    *slog.Logger

	// onRoomEnded is invoked after a room reaches its terminal state;
	// the tournament coordinator hooks bracket advancement here.
	onRoomEnded func(result *model.MatchResult)
}

// New creates a room controller
func New(
	cfg Config,
	directory Directory,
	store storage.Storage,
	publisher events.Publisher,
	clk clock.Clock,
	rnd random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		rooms:     make(map[model.GameID]*room),
		cfg:       cfg,
		directory: directory,
		store:     store,
		publisher: publisher,
		clock:     clk,
		random:    rnd,
		logger:    logger.With(slog.String("component", "gameroom")),
	}
}

// SetRoomEndedHook wires the terminal-result callback; call once during setup
func (c *Controller) SetRoomEndedHook(fn func(result *model.MatchResult)) {
	c.onRoomEnded = fn
}

// CreateRoom allocates a new room with the given rules
func (c *Controller) CreateRoom(settings model.RoomSettings, tournamentID *model.TournamentID) (*model.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var id model.GameID
	for {
		id = model.GameID(c.random.String(8, gameIDAlphabet))
		if _, exists := c.rooms[id]; !exists {
			break
		}
	}

	r := newRoom(id, settings, tournamentID, c.cfg, c.clock.Now())
	c.rooms[id] = r

	c.logger.Info("room created",
		slog.String("game_id", string(id)),
		slog.String("mode", string(settings.Mode)),
		slog.Bool("tournament", tournamentID != nil),
	)
	return r.view(), nil
}

// Room returns the visible record of a room
func (c *Controller) Room(id model.GameID) (*model.Room, error) {
	r, err := c.lookup(id)
	if err != nil {
		return nil, err
	}
	return r.view(), nil
}

func (c *Controller) lookup(id model.GameID) (*room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return r, nil
}

// Join seats the player in the room and tells them their side. When the
// last side fills, the match starts and every occupant receives the
// roster announcement.
func (c *Controller) Join(gameID model.GameID, playerID model.PlayerID) (model.Side, error) {
	r, err := c.lookup(gameID)
	if err != nil {
		return "", err
	}

	side, err := r.addPlayer(playerID)
	if err != nil {
		return "", err
	}

	waitState := model.PlayerStateWaiting
	if r.tournamentID != nil {
		waitState = model.PlayerStateTournamentWait
	}
	c.directory.Mutate(playerID, func(p *model.Player) {
		p.GameID = &gameID
		p.Side = side
		p.State = waitState
	})
	c.directory.Send(playerID, &protocol.GiveSide{GameID: gameID, Side: side})

	// The engine claims the start transition under its own lock, so
	// exactly one of two racing joiners into the last seats runs
	// startRoom.
	if r.start() {
		c.startRoom(r)
	}
	return side, nil
}

// startRoom announces the roster and launches the tick loop; the caller
// holds the start claim.
func (c *Controller) startRoom(r *room) {
	occupants := r.occupants()

	playState := model.PlayerStatePlaying
	if r.tournamentID != nil {
		playState = model.PlayerStateTournamentPlay
	}

	roster := make([]protocol.RosterEntry, 0, len(occupants))
	for _, id := range occupants {
		entry := protocol.RosterEntry{PlayerID: id}
		if p, ok := c.directory.Player(id); ok {
			entry.Username = p.Username
		}
		if side, ok := r.side(id); ok {
			entry.Side = side
		}
		roster = append(roster, entry)
	}

	for _, id := range occupants {
		side, _ := r.side(id)
		c.directory.Mutate(id, func(p *model.Player) { p.State = playState })
		c.directory.Send(id, &protocol.StartGame{
			GameID:       r.id,
			Mode:         r.settings.Mode,
			WinCondition: r.settings.WinCondition,
			Limit:        r.settings.Limit,
			Side:         side,
			Roster:       roster,
		})
	}

	go c.runLoop(r)

	c.logger.Info("room started",
		slog.String("game_id", string(r.id)),
		slog.Int("players", len(occupants)),
	)
}

// runLoop drives the room at the fixed tick cadence until it ends
func (c *Controller) runLoop(r *room) {
	ticker := time.NewTicker(c.cfg.TickInterval)
	defer ticker.Stop()

	dt := c.cfg.TickInterval.Seconds()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			result := r.step(dt, c.clock.Now())
			c.directory.SendAll(r.occupants(), r.snapshot())
			if result != nil {
				c.endRoom(r, result)
				return
			}
		}
	}
}

// ApplyMove routes a paddle move to the player's current room
func (c *Controller) ApplyMove(playerID model.PlayerID, direction string) error {
	p, ok := c.directory.Player(playerID)
	if !ok || !p.InGame() {
		return model.ErrNotInGame
	}
	r, err := c.lookup(*p.GameID)
	if err != nil {
		return err
	}
	return r.applyMove(playerID, direction)
}

// HandleDisconnect marks the player's seat disconnected; tournament
// rooms pause until everyone is back.
func (c *Controller) HandleDisconnect(playerID model.PlayerID) {
	p, ok := c.directory.Player(playerID)
	if !ok || !p.InGame() {
		return
	}
	r, err := c.lookup(*p.GameID)
	if err != nil {
		return
	}
	r.setConnected(playerID, false)
}

// HandleReconnect reattaches the player to their in-flight room and
// returns their current score.
func (c *Controller) HandleReconnect(playerID model.PlayerID) (model.GameID, int, bool) {
	p, ok := c.directory.Player(playerID)
	if !ok || !p.InGame() {
		return "", 0, false
	}
	r, err := c.lookup(*p.GameID)
	if err != nil {
		return "", 0, false
	}
	r.setConnected(playerID, true)
	return r.id, r.playerScore(playerID), true
}

// RemovePlayer unseats the player, notifying the remaining occupants.
// A room left below its minimum occupancy ends as abandoned.
func (c *Controller) RemovePlayer(playerID model.PlayerID, reason string) {
	p, ok := c.directory.Player(playerID)
	if !ok || !p.InGame() {
		return
	}
	gameID := *p.GameID
	r, err := c.lookup(gameID)
	if err != nil {
		return
	}

	result := r.removeOccupant(playerID, c.clock.Now())
	c.directory.Mutate(playerID, func(p *model.Player) {
		p.GameID = nil
		p.Side = ""
		if p.State == model.PlayerStateWaiting || p.State == model.PlayerStatePlaying {
			p.State = model.PlayerStateInit
		}
	})

	c.directory.SendAll(r.occupants(), &protocol.LeaveGame{
		GameID:   gameID,
		PlayerID: playerID,
		Reason:   reason,
	})

	c.logger.Info("player left room",
		slog.String("game_id", string(gameID)),
		slog.String("player_id", string(playerID)),
		slog.String("reason", reason),
	)

	if result != nil {
		c.endRoom(r, result)
	}
}

// endRoom delivers the terminal result, persists it, publishes the
// event and hands the result to the ended hook. Runs at most once per
// room; the engine's terminal state guards re-entry.
func (c *Controller) endRoom(r *room, result *model.MatchResult) {
	occupants := r.occupants()

	endState := model.PlayerStateInit
	if r.tournamentID != nil {
		endState = model.PlayerStateTournamentWait
	}
	for _, id := range occupants {
		c.directory.Mutate(id, func(p *model.Player) {
			p.GameID = nil
			p.Side = ""
			p.Score = 0
			p.State = endState
		})
		c.directory.Send(id, &protocol.EndMatch{
			GameID:       result.GameID,
			IsWinner:     id == result.WinnerID,
			WinnerID:     result.WinnerID,
			PlayerScores: result.Scores,
			Reason:       result.Reason,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.store.SaveMatchResult(ctx, result); err != nil {
		c.logger.Error("failed to persist match result",
			slog.String("game_id", string(result.GameID)),
			slog.String("error", err.Error()),
		)
	}
	c.publisher.MatchEnded(result)

	c.logger.Info("room ended",
		slog.String("game_id", string(result.GameID)),
		slog.String("winner", string(result.WinnerID)),
		slog.String("reason", result.Reason),
	)

	if c.onRoomEnded != nil {
		c.onRoomEnded(result)
	}

	c.clock.AfterFunc(c.cfg.EndedRoomTTL, func() {
		c.mu.Lock()
		delete(c.rooms, r.id)
		c.mu.Unlock()
	})
}

// EndRoom force-terminates a room, e.g. on a tournament forfeit
func (c *Controller) EndRoom(gameID model.GameID, winner model.PlayerID, reason string) error {
	r, err := c.lookup(gameID)
	if err != nil {
		return err
	}
	if result := r.forceEnd(winner, reason, c.clock.Now()); result != nil {
		c.endRoom(r, result)
	}
	return nil
}

// Shutdown terminates every live room with a shutdown result
func (c *Controller) Shutdown() {
	c.mu.Lock()
	live := make([]*room, 0, len(c.rooms))
	for _, r := range c.rooms {
		live = append(live, r)
	}
	c.mu.Unlock()

	for _, r := range live {
		if result := r.forceEnd("", model.EndReasonShutdown, c.clock.Now()); result != nil {
			c.endRoom(r, result)
		}
	}
}

// RoomCount returns the number of rooms currently tracked
func (c *Controller) RoomCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rooms)
}
