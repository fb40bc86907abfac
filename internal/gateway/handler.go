package gateway

import (
	"errors"
	"log/slog"

	"github.com/debsndprgs5/transcendence-game/internal/model"
	"github.com/debsndprgs5/transcendence-game/internal/protocol"
)

// dispatch routes one inbound frame. Unknown and malformed frames are
// logged and the connection stays open.
func (g *Gateway) dispatch(c *client, data []byte) {
	msg, err := protocol.Decode(data)
	if err != nil {
		var unknown *protocol.UnknownTypeError
		if errors.As(err, &unknown) {
			c.logger.Warn("unknown message type", slog.String("type", string(unknown.Type)))
			return
		}
		c.logger.Warn("malformed message", slog.String("error", err.Error()))
		return
	}

	switch m := msg.(type) {
	case *protocol.CreateRoom:
		g.handleCreateRoom(c, m)
	case *protocol.JoinGame:
		g.handleJoinGame(c, m)
	case *protocol.Invite:
		g.handleInvite(c, m)
	case *protocol.PlayerMove:
		g.handlePlayerMove(c, m)
	case *protocol.LeaveGame:
		g.handleLeaveGame(c)
	case *protocol.JoinTournament:
		g.handleJoinTournament(c, m)
	case *protocol.LeaveTournament:
		g.handleLeaveTournament(c)
	default:
		c.logger.Warn("unhandled message type", slog.String("type", string(msg.MessageType())))
	}
}

func (g *Gateway) handleCreateRoom(c *client, m *protocol.CreateRoom) {
	settings := model.DefaultRoomSettings()
	if m.Mode != "" {
		settings.Mode = m.Mode
	}
	if m.WinCondition != "" {
		settings.WinCondition = m.WinCondition
	}
	if m.Limit > 0 {
		settings.Limit = m.Limit
	}

	room, side, err := g.broker.CreateRoom(c.playerID, settings)
	if err != nil {
		c.Send(&protocol.CreateRoomAck{OK: false, Reason: err.Error()})
		return
	}
	c.Send(&protocol.CreateRoomAck{OK: true, GameID: room.ID, Side: side})
}

func (g *Gateway) handleJoinGame(c *client, m *protocol.JoinGame) {
	side, err := g.broker.JoinGame(c.playerID, m.GameID)
	if err != nil {
		c.Send(&protocol.JoinGameAck{OK: false, GameID: m.GameID, Reason: err.Error()})
		return
	}
	c.Send(&protocol.JoinGameAck{OK: true, GameID: m.GameID, Side: side})
}

func (g *Gateway) handleInvite(c *client, m *protocol.Invite) {
	switch m.Action {
	case protocol.InviteActionSend:
		err := g.broker.Invite(c.playerID, m.TargetID, m.GameID)
		g.ack(c, protocol.TypeInvite, err)
	case protocol.InviteActionReply:
		_, err := g.broker.ReplyInvite(c.playerID, m.GameID, m.Accept)
		g.ack(c, protocol.TypeInvite, err)
	default:
		c.logger.Warn("unknown invite action", slog.String("action", m.Action))
	}
}

func (g *Gateway) handlePlayerMove(c *client, m *protocol.PlayerMove) {
	// Moves are fire-and-forget; failures are only logged
	if err := g.rooms.ApplyMove(c.playerID, m.Direction); err != nil {
		c.logger.Debug("move rejected",
			slog.String("direction", m.Direction),
			slog.String("error", err.Error()),
		)
	}
}

func (g *Gateway) handleLeaveGame(c *client) {
	p, ok := g.playerFor(c)
	if !ok || !p.InGame() {
		g.ack(c, protocol.TypeLeaveGame, model.ErrNotInGame)
		return
	}
	g.rooms.RemovePlayer(c.playerID, "player left")
	g.ack(c, protocol.TypeLeaveGame, nil)
}

func (g *Gateway) handleJoinTournament(c *client, m *protocol.JoinTournament) {
	var err error
	if m.TournamentID == "" {
		_, err = g.tournaments.Create(c.playerID, m.Name, m.MaxPlayers)
	} else {
		err = g.tournaments.Join(c.playerID, m.TournamentID)
	}
	g.ack(c, protocol.TypeJoinTournament, err)
}

func (g *Gateway) handleLeaveTournament(c *client) {
	g.ack(c, protocol.TypeLeaveTournament, g.tournaments.Leave(c.playerID))
}

// ack answers a request with a typed status update
func (g *Gateway) ack(c *client, request protocol.Type, err error) {
	if err != nil {
		c.Send(&protocol.StatusUpdate{Request: request, OK: false, Reason: err.Error()})
		return
	}
	c.Send(&protocol.StatusUpdate{Request: request, OK: true})
}
