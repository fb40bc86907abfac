// Package protocol defines the tagged-union JSON messages exchanged
// over a player's persistent connection. Every message carries a "type"
// discriminant; Decode handles the client-to-server set and the gateway
// routes decoded messages with an exhaustive switch.
package protocol

import "github.com/debsndprgs5/transcendence-game/internal/model"

// Type is the wire discriminant of a message
type Type string

const (
	TypeInit                 Type = "init"
	TypeCreateRoom           Type = "createRoom"
	TypeJoinGame             Type = "joinGame"
	TypeInvite               Type = "invite"
	TypeStartGame            Type = "startGame"
	TypeStatusUpdate         Type = "statusUpdate"
	TypePlayerMove           Type = "playerMove"
	TypeRenderData           Type = "renderData"
	TypeEndMatch             Type = "endMatch"
	TypeReconnected          Type = "reconnected"
	TypeLeaveGame            Type = "leaveGame"
	TypeGiveSide             Type = "giveSide"
	TypeKicked               Type = "kicked"
	TypeJoinTournament       Type = "joinTournament"
	TypeUpdateTourPlayerList Type = "updateTourPlayerList"
	TypeLeaveTournament      Type = "leaveTournament"
	TypeUpdateTourList       Type = "updateTourList"
)

// Invite actions
const (
	InviteActionSend    = "send"    // inviter -> server
	InviteActionReceive = "receive" // server -> target
	InviteActionReply   = "reply"   // target -> server, and server -> inviter
)

// Paddle movement directions. Left/right paddles accept up/down,
// top/bottom paddles accept left/right; stop halts the paddle.
const (
	DirUp    = "up"
	DirDown  = "down"
	DirLeft  = "left"
	DirRight = "right"
	DirStop  = "stop"
)

// Message is implemented by every wire message
type Message interface {
	MessageType() Type
}

// Init is the handshake result sent once after the connection is admitted
type Init struct {
	PlayerID     model.PlayerID      `json:"playerId"`
	Username     string              `json:"username"`
	State        model.PlayerState   `json:"state"`
	GameID       *model.GameID       `json:"gameId,omitempty"`
	TournamentID *model.TournamentID `json:"tournamentId,omitempty"`
}

func (Init) MessageType() Type { return TypeInit }

// CreateRoom asks the broker for a new room with the given rules
type CreateRoom struct {
	Mode         model.GameMode     `json:"mode"`
	WinCondition model.WinCondition `json:"winCondition"`
	Limit        int                `json:"limit"`
}

func (CreateRoom) MessageType() Type { return TypeCreateRoom }

// CreateRoomAck answers a createRoom request on the same wire type
type CreateRoomAck struct {
	OK     bool         `json:"ok"`
	GameID model.GameID `json:"gameId,omitempty"`
	Side   model.Side   `json:"side,omitempty"`
	Reason string       `json:"reason,omitempty"`
}

func (CreateRoomAck) MessageType() Type { return TypeCreateRoom }

// JoinGame asks to join an existing room
type JoinGame struct {
	GameID model.GameID `json:"gameId"`
}

func (JoinGame) MessageType() Type { return TypeJoinGame }

// JoinGameAck answers a joinGame request on the same wire type
type JoinGameAck struct {
	OK     bool         `json:"ok"`
	GameID model.GameID `json:"gameId,omitempty"`
	Side   model.Side   `json:"side,omitempty"`
	Reason string       `json:"reason,omitempty"`
}

func (JoinGameAck) MessageType() Type { return TypeJoinGame }

// Invite carries the whole invite negotiation: send (inviter to
// server), receive (server to target) and reply (target to server,
// forwarded to the inviter).
type Invite struct {
	Action   string         `json:"action"`
	FromID   model.PlayerID `json:"fromId,omitempty"`
	FromName string         `json:"fromName,omitempty"`
	TargetID model.PlayerID `json:"targetId,omitempty"`
	GameID   model.GameID   `json:"gameId"`
	Accept   bool           `json:"accept,omitempty"`
}

func (Invite) MessageType() Type { return TypeInvite }

// StartGame announces the initial roster, the recipient's side and the rules
type StartGame struct {
	GameID       model.GameID       `json:"gameId"`
	Mode         model.GameMode     `json:"mode"`
	WinCondition model.WinCondition `json:"winCondition"`
	Limit        int                `json:"limit"`
	Side         model.Side         `json:"side"`
	Roster       []RosterEntry      `json:"roster"`
}

func (StartGame) MessageType() Type { return TypeStartGame }

// RosterEntry is one occupant in a startGame roster
type RosterEntry struct {
	PlayerID model.PlayerID `json:"playerId"`
	Username string         `json:"username"`
	Side     model.Side     `json:"side"`
}

// StatusUpdate is the generic typed acknowledgment; rejected actions
// answer with ok=false and a reason the client can display.
type StatusUpdate struct {
	Request Type   `json:"request"`
	OK      bool   `json:"ok"`
	Reason  string `json:"reason,omitempty"`
}

func (StatusUpdate) MessageType() Type { return TypeStatusUpdate }

// PlayerMove updates the sender's paddle direction; no reply is sent
type PlayerMove struct {
	Direction string `json:"direction"`
}

func (PlayerMove) MessageType() Type { return TypePlayerMove }

// PaddleView is one side's state in a renderData broadcast
type PaddleView struct {
	Side      model.Side `json:"side"`
	Pos       float64    `json:"pos"`
	Score     int        `json:"score"`
	Connected bool       `json:"connected"`
}

// BallView is one ball's state in a renderData broadcast
type BallView struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
}

// RenderData is the periodic authoritative state broadcast
type RenderData struct {
	GameID  model.GameID `json:"gameId"`
	Paddles []PaddleView `json:"paddles"`
	Balls   []BallView   `json:"balls"`
	Elapsed float64      `json:"elapsed"`
	Paused  bool         `json:"paused"`
}

func (RenderData) MessageType() Type { return TypeRenderData }

// EndMatch reports the terminal result; IsWinner is personalized per recipient
type EndMatch struct {
	GameID       model.GameID           `json:"gameId"`
	IsWinner     bool                   `json:"isWinner"`
	WinnerID     model.PlayerID         `json:"winnerId"`
	PlayerScores map[model.PlayerID]int `json:"playerScores"`
	Reason       string                 `json:"reason"`
}

func (EndMatch) MessageType() Type { return TypeEndMatch }

// Reconnected restores a returning player's context without replaying history
type Reconnected struct {
	GameID       *model.GameID       `json:"gameId,omitempty"`
	TournamentID *model.TournamentID `json:"tournamentId,omitempty"`
	Score        int                 `json:"score"`
	State        model.PlayerState   `json:"state"`
}

func (Reconnected) MessageType() Type { return TypeReconnected }

// LeaveGame is both the inbound request to leave and the outbound
// notification that another occupant left.
type LeaveGame struct {
	GameID   model.GameID   `json:"gameId,omitempty"`
	PlayerID model.PlayerID `json:"playerId,omitempty"`
	Reason   string         `json:"reason,omitempty"`
}

func (LeaveGame) MessageType() Type { return TypeLeaveGame }

// GiveSide tells a client which side it was assigned
type GiveSide struct {
	GameID model.GameID `json:"gameId"`
	Side   model.Side   `json:"side"`
}

func (GiveSide) MessageType() Type { return TypeGiveSide }

// Kicked is a terminal notification delivered before the server closes
// the connection.
type Kicked struct {
	Reason string `json:"reason"`
}

func (Kicked) MessageType() Type { return TypeKicked }

// JoinTournament registers in a tournament; with an empty TournamentID
// and MaxPlayers > 0 it creates a new one with the sender as organizer.
type JoinTournament struct {
	TournamentID model.TournamentID `json:"tournamentId,omitempty"`
	Name         string             `json:"name,omitempty"`
	MaxPlayers   int                `json:"maxPlayers,omitempty"`
}

func (JoinTournament) MessageType() Type { return TypeJoinTournament }

// TourPlayer is one roster entry in an updateTourPlayerList broadcast
type TourPlayer struct {
	PlayerID model.PlayerID    `json:"playerId"`
	Username string            `json:"username"`
	State    model.PlayerState `json:"state"`
}

// UpdateTourPlayerList broadcasts roster and bracket progress to participants
type UpdateTourPlayerList struct {
	TournamentID model.TournamentID    `json:"tournamentId"`
	State        model.TournamentState `json:"state"`
	CurrentRound int                   `json:"currentRound"`
	MaxRound     int                   `json:"maxRound"`
	Players      []TourPlayer          `json:"players"`
	Champion     model.PlayerID        `json:"champion,omitempty"`
}

func (UpdateTourPlayerList) MessageType() Type { return TypeUpdateTourPlayerList }

// LeaveTournament withdraws the sender from their tournament
type LeaveTournament struct {
	TournamentID model.TournamentID `json:"tournamentId,omitempty"`
	PlayerID     model.PlayerID     `json:"playerId,omitempty"`
}

func (LeaveTournament) MessageType() Type { return TypeLeaveTournament }

// TourSummary is one entry in an updateTourList broadcast
type TourSummary struct {
	TournamentID model.TournamentID    `json:"tournamentId"`
	Name         string                `json:"name"`
	State        model.TournamentState `json:"state"`
	PlayerCount  int                   `json:"playerCount"`
	MaxPlayers   int                   `json:"maxPlayers"`
	CurrentRound int                   `json:"currentRound"`
}

// UpdateTourList broadcasts the open/active tournaments to lobby observers
type UpdateTourList struct {
	Tournaments []TourSummary `json:"tournaments"`
}

func (UpdateTourList) MessageType() Type { return TypeUpdateTourList }
