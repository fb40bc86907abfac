package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/debsndprgs5/transcendence-game/internal/model"
	"github.com/debsndprgs5/transcendence-game/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Match results

func (s *Storage) SaveMatchResult(ctx context.Context, result *model.MatchResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	// Pipeline the record and the per-player indexes
	pipe := s.client.Pipeline()
	pipe.Set(ctx, matchKey(result.GameID), data, s.cfg.MatchResultTTL)
	score := float64(result.EndedAt.Unix())
	for playerID := range result.Scores {
		idxKey := playerMatchesIndexKey(playerID)
		pipe.ZAdd(ctx, idxKey, redis.Z{Score: score, Member: string(result.GameID)})
		if s.cfg.MatchResultTTL > 0 {
			pipe.Expire(ctx, idxKey, s.cfg.MatchResultTTL)
		}
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetMatchResult(ctx context.Context, gameID model.GameID) (*model.MatchResult, error) {
	data, err := s.client.Get(ctx, matchKey(gameID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrMatchResultNotFound
		}
		return nil, err
	}

	var result model.MatchResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Storage) ListMatchResultsForPlayer(ctx context.Context, playerID model.PlayerID, limit int) ([]*model.MatchResult, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	// Most recent first
	ids, err := s.client.ZRevRange(ctx, playerMatchesIndexKey(playerID), 0, stop).Result()
	if err != nil {
		return nil, err
	}

	results := make([]*model.MatchResult, 0, len(ids))
	for _, id := range ids {
		result, err := s.GetMatchResult(ctx, model.GameID(id))
		if err != nil {
			if errors.Is(err, model.ErrMatchResultNotFound) {
				// Record expired ahead of its index entry
				continue
			}
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// Tournament records

func (s *Storage) SaveTournamentRecord(ctx context.Context, record *model.TournamentRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, tournamentRecordKey(record.TournamentID), data, s.cfg.TournamentRecordTTL)
	pipe.ZAdd(ctx, tournamentRecordsIndexKey(), redis.Z{
		Score:  float64(record.CompletedAt.Unix()),
		Member: string(record.TournamentID),
	})
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetTournamentRecord(ctx context.Context, id model.TournamentID) (*model.TournamentRecord, error) {
	data, err := s.client.Get(ctx, tournamentRecordKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrTournamentRecordNotFound
		}
		return nil, err
	}

	var record model.TournamentRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *Storage) ListTournamentRecords(ctx context.Context, limit int) ([]*model.TournamentRecord, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	ids, err := s.client.ZRevRange(ctx, tournamentRecordsIndexKey(), 0, stop).Result()
	if err != nil {
		return nil, err
	}

	records := make([]*model.TournamentRecord, 0, len(ids))
	for _, id := range ids {
		record, err := s.GetTournamentRecord(ctx, model.TournamentID(id))
		if err != nil {
			if errors.Is(err, model.ErrTournamentRecordNotFound) {
				continue
			}
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
