// Package gateway terminates websocket connections and translates
// between the wire protocol and the coordination services.
package gateway

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/debsndprgs5/transcendence-game/internal/model"
	"github.com/debsndprgs5/transcendence-game/internal/protocol"
	"github.com/debsndprgs5/transcendence-game/internal/services/gameroom"
	"github.com/debsndprgs5/transcendence-game/internal/services/matchmaking"
	"github.com/debsndprgs5/transcendence-game/internal/services/registry"
	"github.com/debsndprgs5/transcendence-game/internal/services/tournament"
)

// Gateway serves the websocket endpoint and dispatches decoded
// messages to the coordination services.
type Gateway struct {
	registry    *registry.Registry
	broker      *matchmaking.Broker
	rooms       *gameroom.Controller
	tournaments *tournament.Coordinator
	identity    IdentityProvider

	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// New creates a gateway over the given services
func New(
	reg *registry.Registry,
	broker *matchmaking.Broker,
	rooms *gameroom.Controller,
	tournaments *tournament.Coordinator,
	identity IdentityProvider,
	logger *slog.Logger,
) *Gateway {
	return &Gateway{
		registry:    reg,
		broker:      broker,
		rooms:       rooms,
		tournaments: tournaments,
		identity:    identity,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin policy is enforced by the fronting proxy
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger.With(slog.String("component", "gateway")),
	}
}

// ServeWS upgrades the request and runs the connection until it drops.
// Registration supersedes any previous connection for the same player;
// the handshake ends with an init frame describing the session.
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	playerID, username, err := g.identity.Identify(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := newClient(playerID, conn, g.logger)
	go c.writePump()

	player, resumed := g.registry.Register(playerID, username, c)

	c.Send(&protocol.Init{
		PlayerID:     player.ID,
		Username:     player.Username,
		State:        player.State,
		GameID:       player.GameID,
		TournamentID: player.TournamentID,
	})
	c.Send(&protocol.UpdateTourList{Tournaments: g.tournaments.List()})

	// Announced after the handshake frames so a reconnected message
	// never precedes init on the wire
	g.registry.AnnounceConnected(playerID, resumed)

	c.readPump(g.dispatch)

	c.close()
	g.registry.Detach(playerID, c.id)
}

// statsView is the payload of the stats endpoint
type statsView struct {
	Connections    int `json:"connections"`
	Rooms          int `json:"rooms"`
	Tournaments    int `json:"tournaments"`
	PendingInvites int `json:"pendingInvites"`
}

func (g *Gateway) stats() statsView {
	return statsView{
		Connections:    g.registry.Count(),
		Rooms:          g.rooms.RoomCount(),
		Tournaments:    len(g.tournaments.List()),
		PendingInvites: g.broker.PendingInvites(),
	}
}

// playerFor returns the sender's current record
func (g *Gateway) playerFor(c *client) (model.Player, bool) {
	return g.registry.Player(c.playerID)
}
