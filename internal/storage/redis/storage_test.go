package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/debsndprgs5/transcendence-game/internal/model"
)

type RedisStorageTestSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestRedisStorageTestSuite(t *testing.T) {
	suite.Run(t, new(RedisStorageTestSuite))
}

func (s *RedisStorageTestSuite) SetupTest() {
	mini, err := miniredis.Run()
	s.Require().NoError(err)
	s.mini = mini

	client := goredis.NewClient(&goredis.Options{Addr: mini.Addr()})
	s.storage = NewWithClient(client, DefaultConfig())
	s.ctx = context.Background()
}

func (s *RedisStorageTestSuite) TearDownTest() {
	s.storage.Close()
	s.mini.Close()
}

func (s *RedisStorageTestSuite) matchAt(id model.GameID, endedAt time.Time, players ...model.PlayerID) *model.MatchResult {
	scores := make(map[model.PlayerID]int)
	for i, p := range players {
		scores[p] = i
	}
	return &model.MatchResult{
		GameID:   id,
		Mode:     model.ModeTwoPlayer,
		WinnerID: players[0],
		Scores:   scores,
		Reason:   model.EndReasonScoreLimit,
		EndedAt:  endedAt,
	}
}

func (s *RedisStorageTestSuite) TestSaveAndGetMatchResult() {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.storage.SaveMatchResult(s.ctx, s.matchAt("g1", now, "alice", "bob")))

	got, err := s.storage.GetMatchResult(s.ctx, "g1")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("alice"), got.WinnerID)
	s.Equal(model.EndReasonScoreLimit, got.Reason)

	_, err = s.storage.GetMatchResult(s.ctx, "missing")
	s.ErrorIs(err, model.ErrMatchResultNotFound)
}

func (s *RedisStorageTestSuite) TestListMatchResultsForPlayer() {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.storage.SaveMatchResult(s.ctx, s.matchAt("g1", base, "alice", "bob")))
	s.Require().NoError(s.storage.SaveMatchResult(s.ctx, s.matchAt("g2", base.Add(time.Hour), "alice", "carol")))

	results, err := s.storage.ListMatchResultsForPlayer(s.ctx, "alice", 0)
	s.Require().NoError(err)
	s.Require().Len(results, 2)
	// Most recent first via the sorted-set index
	s.Equal(model.GameID("g2"), results[0].GameID)

	limited, err := s.storage.ListMatchResultsForPlayer(s.ctx, "alice", 1)
	s.Require().NoError(err)
	s.Require().Len(limited, 1)
	s.Equal(model.GameID("g2"), limited[0].GameID)
}

func (s *RedisStorageTestSuite) TestListSkipsExpiredRecords() {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.storage.SaveMatchResult(s.ctx, s.matchAt("g1", base, "alice", "bob")))
	s.Require().NoError(s.storage.SaveMatchResult(s.ctx, s.matchAt("g2", base.Add(time.Hour), "alice", "bob")))

	// Simulate the record expiring ahead of its index entry
	s.mini.Del(matchKey("g1"))

	results, err := s.storage.ListMatchResultsForPlayer(s.ctx, "alice", 0)
	s.Require().NoError(err)
	s.Require().Len(results, 1)
	s.Equal(model.GameID("g2"), results[0].GameID)
}

func (s *RedisStorageTestSuite) TestTournamentRecords() {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.storage.SaveTournamentRecord(s.ctx, &model.TournamentRecord{
		TournamentID: "t1", Name: "cup", Champion: "alice", Rounds: 2, PlayerCount: 4, CompletedAt: base,
	}))
	s.Require().NoError(s.storage.SaveTournamentRecord(s.ctx, &model.TournamentRecord{
		TournamentID: "t2", Name: "open", Champion: "bob", Rounds: 3, PlayerCount: 8, CompletedAt: base.Add(time.Hour),
	}))

	got, err := s.storage.GetTournamentRecord(s.ctx, "t1")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("alice"), got.Champion)

	_, err = s.storage.GetTournamentRecord(s.ctx, "missing")
	s.ErrorIs(err, model.ErrTournamentRecordNotFound)

	records, err := s.storage.ListTournamentRecords(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal(model.TournamentID("t2"), records[0].TournamentID)
}
