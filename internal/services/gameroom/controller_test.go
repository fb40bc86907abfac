package gameroom

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/debsndprgs5/transcendence-game/internal/dependencies/mocks"
	"github.com/debsndprgs5/transcendence-game/internal/events"
	"github.com/debsndprgs5/transcendence-game/internal/model"
	"github.com/debsndprgs5/transcendence-game/internal/protocol"
	"github.com/debsndprgs5/transcendence-game/internal/storage/memory"
	"github.com/debsndprgs5/transcendence-game/internal/testutil"
)

type fakeDirectory struct {
	mu      sync.Mutex
	players map[model.PlayerID]*model.Player
	sent    map[model.PlayerID][]protocol.Message
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		players: make(map[model.PlayerID]*model.Player),
		sent:    make(map[model.PlayerID][]protocol.Message),
	}
}

func (d *fakeDirectory) add(id model.PlayerID, username string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.players[id] = &model.Player{ID: id, Username: username, State: model.PlayerStateInit}
}

func (d *fakeDirectory) Send(id model.PlayerID, msg protocol.Message) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent[id] = append(d.sent[id], msg)
	return true
}

func (d *fakeDirectory) SendAll(ids []model.PlayerID, msg protocol.Message) {
	for _, id := range ids {
		d.Send(id, msg)
	}
}

func (d *fakeDirectory) Player(id model.PlayerID) (model.Player, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.players[id]
	if !ok {
		return model.Player{}, false
	}
	return *p, true
}

func (d *fakeDirectory) Mutate(id model.PlayerID, fn func(*model.Player)) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.players[id]
	if !ok {
		return false
	}
	fn(p)
	return true
}

// messagesOfType returns the messages delivered to a player with the
// given wire type.
func (d *fakeDirectory) messagesOfType(id model.PlayerID, t protocol.Type) []protocol.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []protocol.Message
	for _, msg := range d.sent[id] {
		if msg.MessageType() == t {
			out = append(out, msg)
		}
	}
	return out
}

type ControllerTestSuite struct {
	suite.Suite
	controller *Controller
	directory  *fakeDirectory
	store      *memory.Storage
	clock      *mocks.MockClock
	random     *mocks.MockRandom

	ended []*model.MatchResult
}

func TestControllerTestSuite(t *testing.T) {
	suite.Run(t, new(ControllerTestSuite))
}

func (s *ControllerTestSuite) SetupTest() {
	s.directory = newFakeDirectory()
	s.store = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.ended = nil

	s.controller = New(
		DefaultConfig(),
		s.directory,
		s.store,
		events.NewNopPublisher(),
		s.clock,
		s.random,
		testutil.NopLogger(),
	)
	s.controller.SetRoomEndedHook(func(result *model.MatchResult) {
		s.ended = append(s.ended, result)
	})

	s.directory.add("alice", "Alice")
	s.directory.add("bob", "Bob")
	s.directory.add("carol", "Carol")
}

func (s *ControllerTestSuite) TestCreateRoomUsesGeneratedID() {
	s.random.QueueString("game0001")
	room, err := s.controller.CreateRoom(model.DefaultRoomSettings(), nil)
	s.Require().NoError(err)
	s.Equal(model.GameID("game0001"), room.ID)
	s.Equal(model.RoomStateWaiting, room.State)
	s.Equal(1, s.controller.RoomCount())
}

func (s *ControllerTestSuite) TestJoinUnknownRoom() {
	_, err := s.controller.Join("nope", "alice")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *ControllerTestSuite) TestJoinAssignsSideAndStartsWhenFull() {
	room, err := s.controller.CreateRoom(model.DefaultRoomSettings(), nil)
	s.Require().NoError(err)

	side, err := s.controller.Join(room.ID, "alice")
	s.Require().NoError(err)
	s.Equal(model.SideLeft, side)

	// The first joiner waits and knows their side
	p, _ := s.directory.Player("alice")
	s.Equal(model.PlayerStateWaiting, p.State)
	s.Require().NotNil(p.GameID)
	s.Equal(room.ID, *p.GameID)
	s.Len(s.directory.messagesOfType("alice", protocol.TypeGiveSide), 1)

	side, err = s.controller.Join(room.ID, "bob")
	s.Require().NoError(err)
	s.Equal(model.SideRight, side)

	// Filling the last side starts the match for everyone
	for _, id := range []model.PlayerID{"alice", "bob"} {
		starts := s.directory.messagesOfType(id, protocol.TypeStartGame)
		s.Require().Len(starts, 1)
		start := starts[0].(*protocol.StartGame)
		s.Equal(room.ID, start.GameID)
		s.Len(start.Roster, 2)

		p, _ := s.directory.Player(id)
		s.Equal(model.PlayerStatePlaying, p.State)
	}

	got, err := s.controller.Room(room.ID)
	s.Require().NoError(err)
	s.Equal(model.RoomStatePlaying, got.State)

	// A third player bounces off the full room
	_, err = s.controller.Join(room.ID, "carol")
	s.ErrorIs(err, model.ErrRoomFull)

	s.Require().NoError(s.controller.EndRoom(room.ID, "alice", model.EndReasonScoreLimit))
}

func (s *ControllerTestSuite) TestConcurrentJoinsStartRoomOnce() {
	settings := model.DefaultRoomSettings()
	settings.Mode = model.ModeFourPlayer
	room, err := s.controller.CreateRoom(settings, nil)
	s.Require().NoError(err)
	s.directory.add("dave", "Dave")

	players := []model.PlayerID{"alice", "bob", "carol", "dave"}
	var wg sync.WaitGroup
	for _, id := range players {
		wg.Add(1)
		go func(id model.PlayerID) {
			defer wg.Done()
			_, err := s.controller.Join(room.ID, id)
			s.NoError(err)
		}(id)
	}
	wg.Wait()

	// Racing joiners into the last seats must not both start the room
	for _, id := range players {
		s.Len(s.directory.messagesOfType(id, protocol.TypeStartGame), 1)
	}

	s.Require().NoError(s.controller.EndRoom(room.ID, "alice", model.EndReasonScoreLimit))
}

func (s *ControllerTestSuite) TestApplyMoveOutsideGame() {
	s.ErrorIs(s.controller.ApplyMove("alice", protocol.DirUp), model.ErrNotInGame)
}

func (s *ControllerTestSuite) TestEndRoomDeliversPersistsAndHooks() {
	room, _ := s.controller.CreateRoom(model.DefaultRoomSettings(), nil)
	s.controller.Join(room.ID, "alice")
	s.controller.Join(room.ID, "bob")

	s.Require().NoError(s.controller.EndRoom(room.ID, "alice", model.EndReasonScoreLimit))

	// Personalized terminal message
	aliceEnd := s.directory.messagesOfType("alice", protocol.TypeEndMatch)
	s.Require().Len(aliceEnd, 1)
	s.True(aliceEnd[0].(*protocol.EndMatch).IsWinner)
	bobEnd := s.directory.messagesOfType("bob", protocol.TypeEndMatch)
	s.Require().Len(bobEnd, 1)
	s.False(bobEnd[0].(*protocol.EndMatch).IsWinner)

	// Players are released
	p, _ := s.directory.Player("alice")
	s.Nil(p.GameID)
	s.Equal(model.PlayerStateInit, p.State)

	// Result persisted and handed to the hook
	saved, err := s.store.GetMatchResult(context.Background(), room.ID)
	s.Require().NoError(err)
	s.Equal(model.PlayerID("alice"), saved.WinnerID)
	s.Require().Len(s.ended, 1)
	s.Equal(room.ID, s.ended[0].GameID)

	// Ended rooms are cleaned up after their grace window
	s.Equal(1, s.controller.RoomCount())
	s.clock.Advance(DefaultConfig().EndedRoomTTL)
	s.Equal(0, s.controller.RoomCount())
}

func (s *ControllerTestSuite) TestRemovePlayerAbandonsRoom() {
	room, _ := s.controller.CreateRoom(model.DefaultRoomSettings(), nil)
	s.controller.Join(room.ID, "alice")
	s.controller.Join(room.ID, "bob")

	s.controller.RemovePlayer("bob", "player left")

	// The remaining occupant is told about the departure and wins
	leaves := s.directory.messagesOfType("alice", protocol.TypeLeaveGame)
	s.Require().Len(leaves, 1)
	s.Equal(model.PlayerID("bob"), leaves[0].(*protocol.LeaveGame).PlayerID)

	ends := s.directory.messagesOfType("alice", protocol.TypeEndMatch)
	s.Require().Len(ends, 1)
	end := ends[0].(*protocol.EndMatch)
	s.True(end.IsWinner)
	s.Equal(model.EndReasonAbandoned, end.Reason)
}

func (s *ControllerTestSuite) TestDisconnectAndReconnectRoundTrip() {
	room, _ := s.controller.CreateRoom(model.DefaultRoomSettings(), nil)
	s.controller.Join(room.ID, "alice")
	s.controller.Join(room.ID, "bob")

	s.controller.HandleDisconnect("bob")
	gameID, score, ok := s.controller.HandleReconnect("bob")
	s.Require().True(ok)
	s.Equal(room.ID, gameID)
	s.Equal(0, score)

	s.Require().NoError(s.controller.EndRoom(room.ID, "alice", model.EndReasonScoreLimit))
}

func (s *ControllerTestSuite) TestShutdownEndsEverything() {
	r1, _ := s.controller.CreateRoom(model.DefaultRoomSettings(), nil)
	s.controller.Join(r1.ID, "alice")
	s.controller.Join(r1.ID, "bob")

	s.controller.Shutdown()

	ends := s.directory.messagesOfType("alice", protocol.TypeEndMatch)
	s.Require().Len(ends, 1)
	s.Equal(model.EndReasonShutdown, ends[0].(*protocol.EndMatch).Reason)
}
