// Package matchmaking places players into rooms: direct creation,
// joining by id, and the invite handshake. Invites are not queued; one
// pending invite exists per (target, game) pair and replying consumes
// it, so a second reply is a state conflict.
package matchmaking

import (
	"log/slog"
	"sync"
	"time"

	"github.com/debsndprgs5/transcendence-game/internal/dependencies/clock"
	"github.com/debsndprgs5/transcendence-game/internal/model"
	"github.com/debsndprgs5/transcendence-game/internal/protocol"
)

// DefaultInviteTTL is how long an unanswered invite stays pending
const DefaultInviteTTL = time.Minute

// Rooms is the slice of the room controller the broker drives
type Rooms interface {
	CreateRoom(settings model.RoomSettings, tournamentID *model.TournamentID) (*model.Room, error)
	Join(gameID model.GameID, playerID model.PlayerID) (model.Side, error)
	Room(gameID model.GameID) (*model.Room, error)
}

// Directory is the slice of the connection registry the broker needs
type Directory interface {
	Send(id model.PlayerID, msg protocol.Message) bool
	Player(id model.PlayerID) (model.Player, bool)
}

type inviteKey struct {
	target model.PlayerID
	gameID model.GameID
}

type pendingInvite struct {
	invite model.Invite
	timer  clock.Timer
}

// Broker coordinates room placement and the invite lifecycle
type Broker struct {
	mu      sync.Mutex
	invites map[inviteKey]*pendingInvite

	rooms     Rooms
	directory Directory
	clock     clock.Clock
	logger    *slog.Logger
	inviteTTL time.Duration
}

// New creates a matchmaking broker
func New(rooms Rooms, directory Directory, clk clock.Clock, inviteTTL time.Duration, logger *slog.Logger) *Broker {
	if inviteTTL <= 0 {
		inviteTTL = DefaultInviteTTL
	}
	return &Broker{
		invites:   make(map[inviteKey]*pendingInvite),
		rooms:     rooms,
		directory: directory,
		clock:     clk,
		inviteTTL: inviteTTL,
		logger:    logger.With(slog.String("component", "matchmaking")),
	}
}

// CreateRoom creates a room with the given rules and seats the creator.
// Players already placed in a room cannot create another.
func (b *Broker) CreateRoom(playerID model.PlayerID, settings model.RoomSettings) (*model.Room, model.Side, error) {
	p, ok := b.directory.Player(playerID)
	if !ok {
		return nil, "", model.ErrPlayerNotFound
	}
	if p.InGame() {
		return nil, "", model.ErrAlreadyInGame
	}

	room, err := b.rooms.CreateRoom(settings, nil)
	if err != nil {
		return nil, "", err
	}
	side, err := b.rooms.Join(room.ID, playerID)
	if err != nil {
		return nil, "", err
	}
	return room, side, nil
}

// JoinGame seats the player in an existing room
func (b *Broker) JoinGame(playerID model.PlayerID, gameID model.GameID) (model.Side, error) {
	p, ok := b.directory.Player(playerID)
	if !ok {
		return "", model.ErrPlayerNotFound
	}
	if p.InGame() {
		return "", model.ErrAlreadyInGame
	}
	return b.rooms.Join(gameID, playerID)
}

// Invite delivers a game invite to the target. The target must be
// reachable right now; there is no queueing for offline players. A
// repeat invite for the same target and game resets the pending one.
func (b *Broker) Invite(fromID, targetID model.PlayerID, gameID model.GameID) error {
	from, ok := b.directory.Player(fromID)
	if !ok {
		return model.ErrPlayerNotFound
	}
	room, err := b.rooms.Room(gameID)
	if err != nil {
		return err
	}
	if room.State == model.RoomStateEnded {
		return model.ErrRoomEnded
	}

	key := inviteKey{target: targetID, gameID: gameID}
	now := b.clock.Now()

	b.mu.Lock()
	if prev, exists := b.invites[key]; exists {
		prev.timer.Stop()
	}
	pending := &pendingInvite{
		invite: model.Invite{
			FromID:    fromID,
			TargetID:  targetID,
			GameID:    gameID,
			CreatedAt: now,
			ExpiresAt: now.Add(b.inviteTTL),
		},
	}
	pending.timer = b.clock.AfterFunc(b.inviteTTL, func() { b.expire(key) })
	b.invites[key] = pending
	b.mu.Unlock()

	delivered := b.directory.Send(targetID, &protocol.Invite{
		Action:   protocol.InviteActionReceive,
		FromID:   fromID,
		FromName: from.Username,
		TargetID: targetID,
		GameID:   gameID,
	})
	if !delivered {
		b.mu.Lock()
		if cur, exists := b.invites[key]; exists && cur == pending {
			cur.timer.Stop()
			delete(b.invites, key)
		}
		b.mu.Unlock()
		return model.ErrPlayerOffline
	}

	b.logger.Info("invite sent",
		slog.String("from", string(fromID)),
		slog.String("target", string(targetID)),
		slog.String("game_id", string(gameID)),
	)
	return nil
}

// ReplyInvite consumes the pending invite and forwards the decision to
// the inviter. Accepting joins the target into the game; a reply to an
// already-consumed invite fails with ErrInviteNotFound.
func (b *Broker) ReplyInvite(targetID model.PlayerID, gameID model.GameID, accept bool) (model.Side, error) {
	key := inviteKey{target: targetID, gameID: gameID}

	b.mu.Lock()
	pending, ok := b.invites[key]
	if ok {
		pending.timer.Stop()
		delete(b.invites, key)
	}
	b.mu.Unlock()

	if !ok {
		return "", model.ErrInviteNotFound
	}

	reply := &protocol.Invite{
		Action:   protocol.InviteActionReply,
		FromID:   pending.invite.FromID,
		TargetID: targetID,
		GameID:   gameID,
	}
	if !accept {
		b.directory.Send(pending.invite.FromID, reply)
		return "", nil
	}

	// Seat the target before confirming. A seat that fell through in
	// the meantime (room filled, target already placed) reads as a
	// decline to the inviter.
	side, err := b.JoinGame(targetID, gameID)
	if err != nil {
		b.directory.Send(pending.invite.FromID, reply)
		return "", err
	}
	reply.Accept = true
	b.directory.Send(pending.invite.FromID, reply)
	return side, nil
}

// expire drops a pending invite whose TTL elapsed
func (b *Broker) expire(key inviteKey) {
	b.mu.Lock()
	pending, ok := b.invites[key]
	if ok {
		delete(b.invites, key)
	}
	b.mu.Unlock()
	if !ok {
		return
	}

	b.logger.Info("invite expired",
		slog.String("from", string(pending.invite.FromID)),
		slog.String("target", string(key.target)),
		slog.String("game_id", string(key.gameID)),
	)
	b.directory.Send(pending.invite.FromID, &protocol.Invite{
		Action:   protocol.InviteActionReply,
		FromID:   pending.invite.FromID,
		TargetID: key.target,
		GameID:   key.gameID,
		Accept:   false,
	})
}

// PendingInvites returns the number of unanswered invites
func (b *Broker) PendingInvites() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.invites)
}
