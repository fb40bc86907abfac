package reconnect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/debsndprgs5/transcendence-game/internal/dependencies/mocks"
	"github.com/debsndprgs5/transcendence-game/internal/model"
	"github.com/debsndprgs5/transcendence-game/internal/protocol"
	"github.com/debsndprgs5/transcendence-game/internal/testutil"
)

type fakeRooms struct {
	disconnected []model.PlayerID
	reconnected  []model.PlayerID
	removed      []model.PlayerID

	// gameFor answers HandleReconnect
	gameFor map[model.PlayerID]model.GameID
	scores  map[model.PlayerID]int
}

func newFakeRooms() *fakeRooms {
	return &fakeRooms{
		gameFor: make(map[model.PlayerID]model.GameID),
		scores:  make(map[model.PlayerID]int),
	}
}

func (f *fakeRooms) HandleDisconnect(id model.PlayerID) {
	f.disconnected = append(f.disconnected, id)
}

func (f *fakeRooms) HandleReconnect(id model.PlayerID) (model.GameID, int, bool) {
	f.reconnected = append(f.reconnected, id)
	gameID, ok := f.gameFor[id]
	return gameID, f.scores[id], ok
}

func (f *fakeRooms) RemovePlayer(id model.PlayerID, reason string) {
	f.removed = append(f.removed, id)
}

type fakeTournaments struct {
	forfeited []model.PlayerID
}

func (f *fakeTournaments) ForfeitPlayer(id model.PlayerID) {
	f.forfeited = append(f.forfeited, id)
}

type fakeDirectory struct {
	players map[model.PlayerID]*model.Player
	sent    map[model.PlayerID][]protocol.Message
	removed []model.PlayerID
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		players: make(map[model.PlayerID]*model.Player),
		sent:    make(map[model.PlayerID][]protocol.Message),
	}
}

func (f *fakeDirectory) Player(id model.PlayerID) (model.Player, bool) {
	p, ok := f.players[id]
	if !ok {
		return model.Player{}, false
	}
	return *p, true
}

func (f *fakeDirectory) Mutate(id model.PlayerID, fn func(*model.Player)) bool {
	p, ok := f.players[id]
	if !ok {
		return false
	}
	fn(p)
	return true
}

func (f *fakeDirectory) Send(id model.PlayerID, msg protocol.Message) bool {
	f.sent[id] = append(f.sent[id], msg)
	return true
}

func (f *fakeDirectory) Remove(id model.PlayerID) {
	f.removed = append(f.removed, id)
	delete(f.players, id)
}

type SupervisorTestSuite struct {
	suite.Suite
	supervisor  *Supervisor
	rooms       *fakeRooms
	tournaments *fakeTournaments
	directory   *fakeDirectory
	clock       *mocks.MockClock
}

func TestSupervisorTestSuite(t *testing.T) {
	suite.Run(t, new(SupervisorTestSuite))
}

func (s *SupervisorTestSuite) SetupTest() {
	s.rooms = newFakeRooms()
	s.tournaments = &fakeTournaments{}
	s.directory = newFakeDirectory()
	s.clock = mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	s.supervisor = New(s.rooms, s.directory, s.clock, DefaultGracePeriod, testutil.NopLogger())
	s.supervisor.SetTournaments(s.tournaments)
}

func (s *SupervisorTestSuite) addPlayer(id model.PlayerID, gameID *model.GameID, tournamentID *model.TournamentID) {
	state := model.PlayerStateInit
	if gameID != nil {
		state = model.PlayerStatePlaying
	}
	s.directory.players[id] = &model.Player{
		ID:           id,
		Username:     string(id),
		State:        state,
		GameID:       gameID,
		TournamentID: tournamentID,
	}
	if gameID != nil {
		s.rooms.gameFor[id] = *gameID
	}
}

func (s *SupervisorTestSuite) TestIdlePlayerRemovedImmediately() {
	s.addPlayer("alice", nil, nil)

	s.supervisor.PlayerDisconnected("alice")

	s.Equal([]model.PlayerID{"alice"}, s.directory.removed)
	s.Equal(0, s.supervisor.PendingCount())
	s.Empty(s.rooms.disconnected)
}

func (s *SupervisorTestSuite) TestInGameDisconnectStartsGrace() {
	gameID := model.GameID("g1")
	s.addPlayer("alice", &gameID, nil)

	s.supervisor.PlayerDisconnected("alice")

	s.Equal([]model.PlayerID{"alice"}, s.rooms.disconnected)
	s.Equal(1, s.supervisor.PendingCount())
	s.Empty(s.directory.removed)
}

func (s *SupervisorTestSuite) TestReconnectWithinGraceReintegrates() {
	gameID := model.GameID("g1")
	s.addPlayer("alice", &gameID, nil)
	s.rooms.scores["alice"] = 3

	s.supervisor.PlayerDisconnected("alice")
	s.clock.Advance(DefaultGracePeriod / 3)

	s.supervisor.PlayerConnected("alice", true)
	s.Equal(0, s.supervisor.PendingCount())
	s.Equal([]model.PlayerID{"alice"}, s.rooms.reconnected)

	msgs := s.directory.sent["alice"]
	s.Require().Len(msgs, 1)
	rec := msgs[0].(*protocol.Reconnected)
	s.Require().NotNil(rec.GameID)
	s.Equal(gameID, *rec.GameID)
	s.Equal(3, rec.Score)
	s.Equal(model.PlayerStatePlaying, rec.State)

	// The cancelled timer never evicts
	s.clock.Advance(DefaultGracePeriod * 2)
	s.Empty(s.rooms.removed)
	s.Empty(s.directory.removed)
}

func (s *SupervisorTestSuite) TestGraceExpiryEvictsExactlyOnce() {
	gameID := model.GameID("g1")
	tourID := model.TournamentID("t1")
	s.addPlayer("alice", &gameID, &tourID)

	s.supervisor.PlayerDisconnected("alice")
	s.clock.Advance(DefaultGracePeriod)

	s.Equal([]model.PlayerID{"alice"}, s.rooms.removed)
	s.Equal([]model.PlayerID{"alice"}, s.tournaments.forfeited)
	s.Equal([]model.PlayerID{"alice"}, s.directory.removed)
	s.Equal(0, s.supervisor.PendingCount())

	// Nothing fires a second time
	s.clock.Advance(DefaultGracePeriod)
	s.Len(s.rooms.removed, 1)
	s.Len(s.directory.removed, 1)
}

func (s *SupervisorTestSuite) TestConnectAfterEvictionIsFreshSession() {
	gameID := model.GameID("g1")
	s.addPlayer("alice", &gameID, nil)

	s.supervisor.PlayerDisconnected("alice")
	s.clock.Advance(DefaultGracePeriod)

	// The record is gone; a later connect has nothing to restore
	s.supervisor.PlayerConnected("alice", false)
	s.Empty(s.directory.sent["alice"])
}

func (s *SupervisorTestSuite) TestRepeatDisconnectResetsTimer() {
	gameID := model.GameID("g1")
	s.addPlayer("alice", &gameID, nil)

	s.supervisor.PlayerDisconnected("alice")
	s.clock.Advance(DefaultGracePeriod / 2)
	s.supervisor.PlayerDisconnected("alice")

	// The first timer was replaced; half the window is not enough
	s.clock.Advance(DefaultGracePeriod / 2)
	s.Empty(s.directory.removed)

	s.clock.Advance(DefaultGracePeriod / 2)
	s.Equal([]model.PlayerID{"alice"}, s.directory.removed)
}

func (s *SupervisorTestSuite) TestTournamentWaiterReconnects() {
	tourID := model.TournamentID("t1")
	s.addPlayer("alice", nil, &tourID)
	s.directory.players["alice"].State = model.PlayerStateTournamentWait

	s.supervisor.PlayerDisconnected("alice")
	s.supervisor.PlayerConnected("alice", true)

	msgs := s.directory.sent["alice"]
	s.Require().Len(msgs, 1)
	rec := msgs[0].(*protocol.Reconnected)
	s.Nil(rec.GameID)
	s.Require().NotNil(rec.TournamentID)
	s.Equal(tourID, *rec.TournamentID)
	s.Equal(model.PlayerStateTournamentWait, rec.State)
}
