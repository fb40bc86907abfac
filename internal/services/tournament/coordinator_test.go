package tournament

import (
	"context"
	"fmt"
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

type createdRoom struct {
	id      model.GameID
	players []model.PlayerID
}

type fakeRooms struct {
	created []*createdRoom
	ended   map[model.GameID]model.PlayerID
	nextID  int
}

func newFakeRooms() *fakeRooms {
	return &fakeRooms{ended: make(map[model.GameID]model.PlayerID)}
}

func (f *fakeRooms) CreateRoom(settings model.RoomSettings, tournamentID *model.TournamentID) (*model.Room, error) {
	f.nextID++
	room := &createdRoom{id: model.GameID(fmt.Sprintf("game%d", f.nextID))}
	f.created = append(f.created, room)
	return &model.Room{ID: room.id, Settings: settings, TournamentID: tournamentID}, nil
}

func (f *fakeRooms) Join(gameID model.GameID, playerID model.PlayerID) (model.Side, error) {
	for _, room := range f.created {
		if room.id == gameID {
			room.players = append(room.players, playerID)
			return model.SideLeft, nil
		}
	}
	return "", model.ErrRoomNotFound
}

func (f *fakeRooms) EndRoom(gameID model.GameID, winner model.PlayerID, reason string) error {
	f.ended[gameID] = winner
	return nil
}

type fakeDirectory struct {
	players map[model.PlayerID]*model.Player
	sent    map[model.PlayerID][]protocol.Message
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		players: make(map[model.PlayerID]*model.Player),
		sent:    make(map[model.PlayerID][]protocol.Message),
	}
}

func (f *fakeDirectory) add(id model.PlayerID) {
	f.players[id] = &model.Player{ID: id, Username: string(id), State: model.PlayerStateInit}
}

func (f *fakeDirectory) Send(id model.PlayerID, msg protocol.Message) bool {
	f.sent[id] = append(f.sent[id], msg)
	return true
}

func (f *fakeDirectory) SendAll(ids []model.PlayerID, msg protocol.Message) {
	for _, id := range ids {
		f.Send(id, msg)
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

func (f *fakeDirectory) ConnectedIDs() []model.PlayerID {
	ids := make([]model.PlayerID, 0, len(f.players))
	for id := range f.players {
		ids = append(ids, id)
	}
	return ids
}

type CoordinatorTestSuite struct {
	suite.Suite
	coordinator *Coordinator
	rooms       *fakeRooms
	directory   *fakeDirectory
	store       *memory.Storage
	clock       *mocks.MockClock
	random      *mocks.MockRandom
}

func TestCoordinatorTestSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorTestSuite))
}

func (s *CoordinatorTestSuite) SetupTest() {
	s.rooms = newFakeRooms()
	s.directory = newFakeDirectory()
	s.store = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.coordinator = New(
		s.rooms,
		s.directory,
		s.store,
		events.NewNopPublisher(),
		s.clock,
		s.random,
		testutil.NopLogger(),
	)

	for _, id := range []model.PlayerID{"p1", "p2", "p3", "p4", "p5"} {
		s.directory.add(id)
	}
}

// fillTournament creates a tournament and registers players up to its cap
func (s *CoordinatorTestSuite) fillTournament(maxPlayers int, players ...model.PlayerID) model.TournamentID {
	t, err := s.coordinator.Create(players[0], "cup", maxPlayers)
	s.Require().NoError(err)
	for _, id := range players[1:] {
		s.Require().NoError(s.coordinator.Join(id, t.ID))
	}
	return t.ID
}

// finishMatch plays the controller's part: report a bracket room as ended
func (s *CoordinatorTestSuite) finishMatch(tourID model.TournamentID, gameID model.GameID, winner model.PlayerID) {
	s.coordinator.HandleRoomEnded(&model.MatchResult{
		GameID:       gameID,
		TournamentID: &tourID,
		WinnerID:     winner,
		Reason:       model.EndReasonScoreLimit,
		EndedAt:      s.clock.Now(),
	})
}

func (s *CoordinatorTestSuite) TestCreateRegistersCreator() {
	s.random.QueueString("cup00001")
	t, err := s.coordinator.Create("p1", "cup", 4)
	s.Require().NoError(err)

	s.Equal(model.TournamentID("cup00001"), t.ID)
	s.Equal(model.TournamentStateForming, t.State)
	s.Equal([]model.PlayerID{"p1"}, t.Roster)
	s.Equal(2, t.MaxRound)

	p, _ := s.directory.Player("p1")
	s.Equal(model.PlayerStateTournamentWait, p.State)
	s.Require().NotNil(p.TournamentID)
}

func (s *CoordinatorTestSuite) TestJoinValidation() {
	t, _ := s.coordinator.Create("p1", "cup", 4)

	s.ErrorIs(s.coordinator.Join("p1", t.ID), model.ErrAlreadyRegistered)
	s.ErrorIs(s.coordinator.Join("p2", "missing"), model.ErrTournamentNotFound)

	gameID := model.GameID("g1")
	s.directory.players["p3"].GameID = &gameID
	s.ErrorIs(s.coordinator.Join("p3", t.ID), model.ErrAlreadyInGame)
}

func (s *CoordinatorTestSuite) TestFullRosterStartsRoundOne() {
	id := s.fillTournament(4, "p1", "p2", "p3", "p4")

	t, err := s.coordinator.Get(id)
	s.Require().NoError(err)
	s.Equal(model.TournamentStateActive, t.State)
	s.Equal(1, t.CurrentRound)

	// Deterministic pairing over join order: p1-p2 and p3-p4
	s.Require().Len(s.rooms.created, 2)
	s.Equal([]model.PlayerID{"p1", "p2"}, s.rooms.created[0].players)
	s.Equal([]model.PlayerID{"p3", "p4"}, s.rooms.created[1].players)

	// The roster is frozen once the bracket starts
	s.ErrorIs(s.coordinator.Join("p5", id), model.ErrTournamentStarted)
}

func (s *CoordinatorTestSuite) TestBracketRunsToChampion() {
	id := s.fillTournament(4, "p1", "p2", "p3", "p4")

	s.finishMatch(id, s.rooms.created[0].id, "p1")
	t, _ := s.coordinator.Get(id)
	s.Equal(1, t.CurrentRound)

	s.finishMatch(id, s.rooms.created[1].id, "p3")
	t, _ = s.coordinator.Get(id)
	s.Equal(2, t.CurrentRound)

	// The final pairs the round winners
	s.Require().Len(s.rooms.created, 3)
	s.Equal([]model.PlayerID{"p1", "p3"}, s.rooms.created[2].players)

	s.finishMatch(id, s.rooms.created[2].id, "p3")
	t, _ = s.coordinator.Get(id)
	s.Equal(model.TournamentStateComplete, t.State)
	s.Equal(model.PlayerID("p3"), t.Champion)

	// Participants are released
	p, _ := s.directory.Player("p3")
	s.Nil(p.TournamentID)
	s.Equal(model.PlayerStateInit, p.State)

	// The record is persisted
	record, err := s.store.GetTournamentRecord(context.Background(), id)
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p3"), record.Champion)
	s.Equal(2, record.Rounds)
	s.Equal(4, record.PlayerCount)
}

func (s *CoordinatorTestSuite) TestOddFieldGetsBye() {
	id := s.fillTournament(3, "p1", "p2", "p3")

	t, _ := s.coordinator.Get(id)
	s.Equal(model.TournamentStateActive, t.State)

	// One real match; p3 sits the round out with a bye
	s.Require().Len(s.rooms.created, 1)
	s.Equal([]model.PlayerID{"p1", "p2"}, s.rooms.created[0].players)

	s.finishMatch(id, s.rooms.created[0].id, "p2")

	// The final pairs the match winner against the bye
	s.Require().Len(s.rooms.created, 2)
	s.Equal([]model.PlayerID{"p2", "p3"}, s.rooms.created[1].players)

	s.finishMatch(id, s.rooms.created[1].id, "p2")
	t, _ = s.coordinator.Get(id)
	s.Equal(model.PlayerID("p2"), t.Champion)
}

func (s *CoordinatorTestSuite) TestLeaveWhileFormingShrinksRoster() {
	t, _ := s.coordinator.Create("p1", "cup", 4)
	s.Require().NoError(s.coordinator.Join("p2", t.ID))

	s.Require().NoError(s.coordinator.Leave("p2"))

	got, _ := s.coordinator.Get(t.ID)
	s.Equal([]model.PlayerID{"p1"}, got.Roster)

	p, _ := s.directory.Player("p2")
	s.Nil(p.TournamentID)

	// p2 can register again
	s.Require().NoError(s.coordinator.Join("p2", t.ID))
}

func (s *CoordinatorTestSuite) TestForfeitDuringLiveMatch() {
	id := s.fillTournament(4, "p1", "p2", "p3", "p4")

	s.coordinator.ForfeitPlayer("p1")

	// The live room is ended in the opponent's favour; the bracket
	// advances through the room's terminal result as usual.
	game := s.rooms.created[0].id
	s.Equal(model.PlayerID("p2"), s.rooms.ended[game])
	s.finishMatch(id, game, "p2")

	t, _ := s.coordinator.Get(id)
	pairings := t.Bracket[1]
	s.Equal(model.PlayerID("p2"), pairings[0].Winner)
}

func (s *CoordinatorTestSuite) TestLeaveWhenNotRegistered() {
	s.ErrorIs(s.coordinator.Leave("p1"), model.ErrNotRegistered)
}

func (s *CoordinatorTestSuite) TestRosterBroadcasts() {
	t, _ := s.coordinator.Create("p1", "cup", 4)
	s.Require().NoError(s.coordinator.Join("p2", t.ID))

	var rosters []*protocol.UpdateTourPlayerList
	for _, msg := range s.directory.sent["p1"] {
		if list, ok := msg.(*protocol.UpdateTourPlayerList); ok {
			rosters = append(rosters, list)
		}
	}
	s.Require().NotEmpty(rosters)
	last := rosters[len(rosters)-1]
	s.Len(last.Players, 2)
	s.Equal(model.TournamentStateForming, last.State)
}

func (s *CoordinatorTestSuite) TestCompletedTournamentExpiresFromList() {
	id := s.fillTournament(2, "p1", "p2")
	s.finishMatch(id, s.rooms.created[0].id, "p1")

	t, _ := s.coordinator.Get(id)
	s.Equal(model.TournamentStateComplete, t.State)
	s.Require().Len(s.coordinator.List(), 1)

	// Completed tournaments drop off the list; history stays in storage
	s.clock.Advance(EndedTournamentTTL)
	s.Empty(s.coordinator.List())
	_, err := s.coordinator.Get(id)
	s.ErrorIs(err, model.ErrTournamentNotFound)

	_, err = s.store.GetTournamentRecord(context.Background(), id)
	s.NoError(err)
}

func (s *CoordinatorTestSuite) TestCreateRollsBackWhenCreatorCannotJoin() {
	gameID := model.GameID("g1")
	s.directory.players["p1"].GameID = &gameID

	_, err := s.coordinator.Create("p1", "cup", 4)
	s.ErrorIs(err, model.ErrAlreadyInGame)
	s.Empty(s.coordinator.List())
}

func (s *CoordinatorTestSuite) TestListSummaries() {
	s.fillTournament(4, "p1", "p2", "p3", "p4")

	list := s.coordinator.List()
	s.Require().Len(list, 1)
	s.Equal(model.TournamentStateActive, list[0].State)
	s.Equal(4, list[0].PlayerCount)
	s.Equal(4, list[0].MaxPlayers)
}
