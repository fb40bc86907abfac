// Package registry maps authenticated player identities to their
// single live connection and owns the Player records everything else
// back-references.
package registry

import (
	"log/slog"
	"sync"

	"github.com/debsndprgs5/transcendence-game/internal/dependencies/clock"
	"github.com/debsndprgs5/transcendence-game/internal/model"
	"github.com/debsndprgs5/transcendence-game/internal/protocol"
)

// Conn is the transport handle the registry holds per player. Send is
// best-effort and must never block; Kick delivers a terminal reason
// before closing.
type Conn interface {
	ID() string
	Send(msg protocol.Message) bool
	Kick(reason string)
}

// Listener observes connection lifecycle changes. The reconnection
// supervisor registers itself here.
type Listener interface {
	PlayerConnected(playerID model.PlayerID, resumed bool)
	PlayerDisconnected(playerID model.PlayerID)
}

type entry struct {
	player *model.Player
	conn   Conn
}

// Registry guarantees at most one active connection per player
type Registry struct {
	mu       sync.RWMutex
	entries  map[model.PlayerID]*entry
	listener Listener
	clock    clock.Clock
	logger   *slog.Logger
}

// New creates an empty registry
func New(clk clock.Clock, logger *slog.Logger) *Registry {
	return &Registry{
		entries: make(map[model.PlayerID]*entry),
		clock:   clk,
		logger:  logger.With(slog.String("component", "registry")),
	}
}

// SetListener wires the lifecycle listener; call once during setup
func (r *Registry) SetListener(l Listener) {
	r.listener = l
}

// Register associates a verified identity with a live connection.
// A second concurrent login forcibly supersedes the first: the old
// connection is kicked with a "duplicate session" reason. Returns the
// player record and whether an existing session was resumed. The
// lifecycle listener is not notified here; the caller announces the
// connection once its handshake frames are queued.
func (r *Registry) Register(id model.PlayerID, username string, conn Conn) (model.Player, bool) {
	r.mu.Lock()

	var superseded Conn
	resumed := false

	e, ok := r.entries[id]
	if ok {
		if e.conn != nil {
			superseded = e.conn
		}
		resumed = e.player.State == model.PlayerStateDisconnected || superseded != nil
		e.conn = conn
		e.player.Username = username
		e.player.ConnectedAt = r.clock.Now()
		if e.player.State == model.PlayerStateDisconnected {
			// The supervisor restores the in-game state on reconnection
			e.player.State = model.PlayerStateInit
		}
	} else {
		e = &entry{
			player: &model.Player{
				ID:          id,
				Username:    username,
				State:       model.PlayerStateInit,
				ConnectedAt: r.clock.Now(),
			},
			conn: conn,
		}
		r.entries[id] = e
	}
	player := *e.player
	r.mu.Unlock()

	if superseded != nil {
		superseded.Kick(model.ErrDuplicateSession.Error())
		r.logger.Info("superseded duplicate session",
			slog.String("player_id", string(id)),
			slog.String("old_conn", superseded.ID()),
			slog.String("new_conn", conn.ID()),
		)
	}

	r.logger.Info("player registered",
		slog.String("player_id", string(id)),
		slog.String("username", username),
		slog.String("conn", conn.ID()),
		slog.Bool("resumed", resumed),
	)
	return player, resumed
}

// AnnounceConnected notifies the lifecycle listener of a registered
// connection. Kept separate from Register so session-restore messages
// queued by the listener follow the init frame on the wire.
func (r *Registry) AnnounceConnected(id model.PlayerID, resumed bool) {
	if r.listener != nil {
		r.listener.PlayerConnected(id, resumed)
	}
}

// Detach records a transport loss for the given connection. It is a
// no-op when the connection is no longer the player's current one
// (e.g. it was superseded by a new login).
func (r *Registry) Detach(id model.PlayerID, connID string) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok || e.conn == nil || e.conn.ID() != connID {
		r.mu.Unlock()
		return
	}
	e.conn = nil
	e.player.State = model.PlayerStateDisconnected
	r.mu.Unlock()

	r.logger.Info("player disconnected",
		slog.String("player_id", string(id)),
		slog.String("conn", connID),
	)

	if r.listener != nil {
		r.listener.PlayerDisconnected(id)
	}
}

// Remove destroys the player record (logout or terminal eviction)
func (r *Registry) Remove(id model.PlayerID) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	r.mu.Unlock()

	if ok && e.conn != nil {
		e.conn.Kick("session closed")
	}
}

// Lookup returns the player's live connection, if any
func (r *Registry) Lookup(id model.PlayerID) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok || e.conn == nil {
		return nil, false
	}
	return e.conn, true
}

// Player returns a snapshot of the player record
func (r *Registry) Player(id model.PlayerID) (model.Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return model.Player{}, false
	}
	return *e.player, true
}

// Mutate applies fn to the player record under the registry lock
func (r *Registry) Mutate(id model.PlayerID, fn func(*model.Player)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return false
	}
	fn(e.player)
	return true
}

// Send delivers a message to the player's live connection, best-effort
func (r *Registry) Send(id model.PlayerID, msg protocol.Message) bool {
	conn, ok := r.Lookup(id)
	if !ok {
		return false
	}
	return conn.Send(msg)
}

// SendAll delivers a message to each of the given players, best-effort
func (r *Registry) SendAll(ids []model.PlayerID, msg protocol.Message) {
	for _, id := range ids {
		r.Send(id, msg)
	}
}

// ConnectedIDs returns the ids of all players with a live connection
func (r *Registry) ConnectedIDs() []model.PlayerID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]model.PlayerID, 0, len(r.entries))
	for id, e := range r.entries {
		if e.conn != nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// Count returns the number of live connections
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, e := range r.entries {
		if e.conn != nil {
			n++
		}
	}
	return n
}
