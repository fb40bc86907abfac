// Package gameroom owns the authoritative match simulation. Each room
// runs a fixed-cadence tick loop; all mutation of a room's state goes
// through its mutex, so moves and ticks are strictly serialized.
package gameroom

import (
	"math"
	"sync"
	"time"

	"github.com/debsndprgs5/transcendence-game/internal/model"
	"github.com/debsndprgs5/transcendence-game/internal/protocol"
)

// room is the live state of one match. The controller is the only
// entry point; nothing outside this package sees a *room.
type room struct {
	mu sync.Mutex

	id           model.GameID
	settings     model.RoomSettings
	state        model.RoomState
	tournamentID *model.TournamentID
	createdAt    time.Time

	cfg Config

	paddles map[model.Side]*model.Paddle
	sides   map[model.PlayerID]model.Side
	balls   []*model.Ball

	// lastTouch decides the scorer in four-player mode
	lastTouch model.Side
	elapsed   float64

	stop     chan struct{}
	stopOnce sync.Once
}

func newRoom(id model.GameID, settings model.RoomSettings, tournamentID *model.TournamentID, cfg Config, now time.Time) *room {
	return &room{
		id:           id,
		settings:     settings,
		state:        model.RoomStateWaiting,
		tournamentID: tournamentID,
		createdAt:    now,
		cfg:          cfg,
		paddles:      make(map[model.Side]*model.Paddle),
		sides:        make(map[model.PlayerID]model.Side),
		stop:         make(chan struct{}),
	}
}

// addPlayer seats the player on the first free side in assignment order
func (r *room) addPlayer(playerID model.PlayerID) (model.Side, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == model.RoomStateEnded {
		return "", model.ErrRoomEnded
	}
	if _, ok := r.sides[playerID]; ok {
		return "", model.ErrAlreadyInGame
	}

	for _, side := range r.settings.Sides() {
		if _, taken := r.paddles[side]; taken {
			continue
		}
		r.paddles[side] = &model.Paddle{
			Side:      side,
			PlayerID:  playerID,
			Pos:       r.cfg.CourtSize / 2,
			Connected: true,
		}
		r.sides[playerID] = side
		return side, nil
	}
	return "", model.ErrRoomFull
}

// full reports whether every side of the mode is occupied
func (r *room) full() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paddles) == len(r.settings.Sides())
}

// occupants returns the seated players in side assignment order
func (r *room) occupants() []model.PlayerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.occupantsLocked()
}

func (r *room) occupantsLocked() []model.PlayerID {
	ids := make([]model.PlayerID, 0, len(r.paddles))
	for _, side := range r.settings.Sides() {
		if p, ok := r.paddles[side]; ok {
			ids = append(ids, p.PlayerID)
		}
	}
	return ids
}

// start performs the waiting to playing transition once every side is
// occupied and serves the first ball. It reports whether this caller
// made the transition; only that caller announces the roster and spawns
// the tick loop, so a room is never started twice by racing joiners.
func (r *room) start() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != model.RoomStateWaiting || len(r.paddles) != len(r.settings.Sides()) {
		return false
	}
	r.state = model.RoomStatePlaying
	r.balls = []*model.Ball{r.serve(model.SideLeft)}
	return true
}

// serve returns a fresh centre ball heading toward the given side
func (r *room) serve(toward model.Side) *model.Ball {
	c := r.cfg.CourtSize / 2
	// 45 degree serve, axis-major toward the conceding side
	v := r.cfg.BallSpeed * math.Sqrt2 / 2
	b := &model.Ball{X: c, Y: c}
	switch toward {
	case model.SideLeft:
		b.VX, b.VY = -v, v
	case model.SideRight:
		b.VX, b.VY = v, -v
	case model.SideTop:
		b.VX, b.VY = v, -v
	case model.SideBottom:
		b.VX, b.VY = -v, v
	}
	return b
}

// applyMove sets the paddle velocity for the player's assigned side.
// Unknown directions are a protocol error; directions along the wrong
// axis for the side are ignored.
func (r *room) applyMove(playerID model.PlayerID, direction string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	side, ok := r.sides[playerID]
	if !ok {
		return model.ErrSideNotAssigned
	}
	if r.state != model.RoomStatePlaying {
		return nil
	}
	paddle := r.paddles[side]

	vertical := side == model.SideLeft || side == model.SideRight
	switch direction {
	case protocol.DirStop:
		paddle.Velocity = 0
	case protocol.DirUp:
		if vertical {
			paddle.Velocity = -r.cfg.PaddleSpeed
		}
	case protocol.DirDown:
		if vertical {
			paddle.Velocity = r.cfg.PaddleSpeed
		}
	case protocol.DirLeft:
		if !vertical {
			paddle.Velocity = -r.cfg.PaddleSpeed
		}
	case protocol.DirRight:
		if !vertical {
			paddle.Velocity = r.cfg.PaddleSpeed
		}
	default:
		return model.ErrUnknownDirection
	}
	return nil
}

// setConnected flips a seat's connected flag; tournament rooms pause
// while any seat is disconnected.
func (r *room) setConnected(playerID model.PlayerID, connected bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	side, ok := r.sides[playerID]
	if !ok {
		return
	}
	r.paddles[side].Connected = connected
	if !connected {
		r.paddles[side].Velocity = 0
	}

	if !r.settings.PauseOnDisconnect {
		return
	}
	if connected {
		if r.state == model.RoomStatePaused && r.allConnectedLocked() {
			r.state = model.RoomStatePlaying
		}
	} else if r.state == model.RoomStatePlaying {
		r.state = model.RoomStatePaused
	}
}

func (r *room) allConnectedLocked() bool {
	for _, p := range r.paddles {
		if !p.Connected {
			return false
		}
	}
	return true
}

// removeOccupant unseats the player. When fewer sides remain occupied
// than the minimum the match ends as abandoned, in favour of the last
// remaining occupant if there is exactly one.
func (r *room) removeOccupant(playerID model.PlayerID, now time.Time) *model.MatchResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	side, ok := r.sides[playerID]
	if !ok {
		return nil
	}
	delete(r.sides, playerID)
	delete(r.paddles, side)

	if r.state == model.RoomStateWaiting || r.state == model.RoomStateEnded {
		return nil
	}
	if len(r.paddles) >= r.settings.MinPlayers() {
		return nil
	}

	var winner model.PlayerID
	if len(r.paddles) == 1 {
		for _, p := range r.paddles {
			winner = p.PlayerID
		}
	}
	return r.finishLocked(winner, model.EndReasonAbandoned, now)
}

// playerScore returns the current score of the player's side
func (r *room) playerScore(playerID model.PlayerID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	side, ok := r.sides[playerID]
	if !ok {
		return 0
	}
	return r.paddles[side].Score
}

// side returns the player's assigned side
func (r *room) side(playerID model.PlayerID) (model.Side, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sides[playerID]
	return s, ok
}

// snapshot builds the renderData view of the current state
func (r *room) snapshot() *protocol.RenderData {
	r.mu.Lock()
	defer r.mu.Unlock()

	rd := &protocol.RenderData{
		GameID:  r.id,
		Paddles: make([]protocol.PaddleView, 0, len(r.paddles)),
		Balls:   make([]protocol.BallView, 0, len(r.balls)),
		Elapsed: r.elapsed,
		Paused:  r.state == model.RoomStatePaused,
	}
	for _, side := range r.settings.Sides() {
		p, ok := r.paddles[side]
		if !ok {
			continue
		}
		rd.Paddles = append(rd.Paddles, protocol.PaddleView{
			Side:      p.Side,
			Pos:       p.Pos,
			Score:     p.Score,
			Connected: p.Connected,
		})
	}
	for _, b := range r.balls {
		rd.Balls = append(rd.Balls, protocol.BallView{X: b.X, Y: b.Y, VX: b.VX, VY: b.VY})
	}
	return rd
}

// view returns the externally visible Room record
func (r *room) view() *model.Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &model.Room{
		ID:           r.id,
		Settings:     r.settings,
		State:        r.state,
		TournamentID: r.tournamentID,
		CreatedAt:    r.createdAt,
	}
}

// step advances the simulation by dt seconds. It returns a non-nil
// result exactly once, on the tick the match ends.
func (r *room) step(dt float64, now time.Time) *model.MatchResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != model.RoomStatePlaying {
		return nil
	}
	r.elapsed += dt

	half := r.cfg.PaddleLength / 2
	for _, p := range r.paddles {
		p.Pos += p.Velocity * dt
		if p.Pos < half {
			p.Pos = half
		}
		if p.Pos > r.cfg.CourtSize-half {
			p.Pos = r.cfg.CourtSize - half
		}
	}

	for i, b := range r.balls {
		if conceded, ok := r.moveBall(b, dt); ok {
			scorer := r.scorerFor(conceded)
			if p, occupied := r.paddles[scorer]; occupied {
				p.Score++
			}
			r.balls[i] = r.serve(conceded)
			r.lastTouch = ""
		}
	}

	if winner, reason, done := r.winnerLocked(); done {
		return r.finishLocked(winner, reason, now)
	}
	return nil
}

// moveBall integrates one ball over dt and resolves wall and paddle
// collisions. It reports the conceding side when the ball went out.
func (r *room) moveBall(b *model.Ball, dt float64) (model.Side, bool) {
	b.X += b.VX * dt
	b.Y += b.VY * dt

	size := r.cfg.CourtSize
	hitX := b.X <= 0 || b.X >= size
	hitY := b.Y <= 0 || b.Y >= size

	// A corner hit resolves as a horizontal reflection only
	if hitX && hitY {
		r.reflectX(b)
		return "", false
	}

	if hitX {
		side := model.SideLeft
		if b.X >= size {
			side = model.SideRight
		}
		return r.resolveEdge(b, side)
	}
	if hitY {
		side := model.SideTop
		if b.Y >= size {
			side = model.SideBottom
		}
		return r.resolveEdge(b, side)
	}
	return "", false
}

// resolveEdge handles the ball reaching one edge: bounce off the wall,
// bounce off the defending paddle, or score against the side.
func (r *room) resolveEdge(b *model.Ball, side model.Side) (model.Side, bool) {
	p, defended := r.paddles[side]
	if !defended {
		// Walls: top/bottom in two-player mode, vacated seats otherwise
		r.reflect(b, side)
		return "", false
	}

	along := b.Y
	if side == model.SideTop || side == model.SideBottom {
		along = b.X
	}
	half := r.cfg.PaddleLength / 2
	if along >= p.Pos-half && along <= p.Pos+half {
		r.reflect(b, side)
		r.lastTouch = side
		return "", false
	}
	return side, true
}

func (r *room) reflect(b *model.Ball, side model.Side) {
	if side == model.SideLeft || side == model.SideRight {
		r.reflectX(b)
	} else {
		r.reflectY(b)
	}
}

func (r *room) reflectX(b *model.Ball) {
	size := r.cfg.CourtSize
	if b.X <= 0 {
		b.X = -b.X
		b.VX = math.Abs(b.VX)
	} else if b.X >= size {
		b.X = 2*size - b.X
		b.VX = -math.Abs(b.VX)
	}
}

func (r *room) reflectY(b *model.Ball) {
	size := r.cfg.CourtSize
	if b.Y <= 0 {
		b.Y = -b.Y
		b.VY = math.Abs(b.VY)
	} else if b.Y >= size {
		b.Y = 2*size - b.Y
		b.VY = -math.Abs(b.VY)
	}
}

// scorerFor picks who gets the point when a side concedes: the last
// paddle to touch the ball, falling back to the opposite side.
func (r *room) scorerFor(conceded model.Side) model.Side {
	if r.lastTouch != "" && r.lastTouch != conceded {
		return r.lastTouch
	}
	switch conceded {
	case model.SideLeft:
		return model.SideRight
	case model.SideRight:
		return model.SideLeft
	case model.SideTop:
		return model.SideBottom
	default:
		return model.SideTop
	}
}

// winnerLocked checks the room's win condition
func (r *room) winnerLocked() (model.PlayerID, string, bool) {
	switch r.settings.WinCondition {
	case model.WinByScore:
		for _, side := range r.settings.Sides() {
			if p, ok := r.paddles[side]; ok && p.Score >= r.settings.Limit {
				return p.PlayerID, model.EndReasonScoreLimit, true
			}
		}
	case model.WinByTime:
		if r.elapsed < float64(r.settings.Limit) {
			return "", "", false
		}
		// Highest score wins; ties fall to the earlier side in
		// assignment order.
		var winner model.PlayerID
		best := -1
		for _, side := range r.settings.Sides() {
			if p, ok := r.paddles[side]; ok && p.Score > best {
				best = p.Score
				winner = p.PlayerID
			}
		}
		return winner, model.EndReasonTimeLimit, true
	}
	return "", "", false
}

// finishLocked moves the room to its terminal state and builds the result
func (r *room) finishLocked(winner model.PlayerID, reason string, now time.Time) *model.MatchResult {
	if r.state == model.RoomStateEnded {
		return nil
	}
	r.state = model.RoomStateEnded
	r.stopOnce.Do(func() { close(r.stop) })

	scores := make(map[model.PlayerID]int, len(r.paddles))
	for _, p := range r.paddles {
		scores[p.PlayerID] = p.Score
	}
	return &model.MatchResult{
		GameID:       r.id,
		TournamentID: r.tournamentID,
		Mode:         r.settings.Mode,
		WinnerID:     winner,
		Scores:       scores,
		Reason:       reason,
		Elapsed:      time.Duration(r.elapsed * float64(time.Second)),
		EndedAt:      now,
	}
}

// forceEnd terminates the room with the given winner and reason
func (r *room) forceEnd(winner model.PlayerID, reason string, now time.Time) *model.MatchResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finishLocked(winner, reason, now)
}
