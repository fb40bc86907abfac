package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/debsndprgs5/transcendence-game/internal/model"
	"github.com/debsndprgs5/transcendence-game/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	matches     map[model.GameID]*model.MatchResult
	tournaments map[model.TournamentID]*model.TournamentRecord
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		matches:     make(map[model.GameID]*model.MatchResult),
		tournaments: make(map[model.TournamentID]*model.TournamentRecord),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Match results

func (s *Storage) SaveMatchResult(ctx context.Context, result *model.MatchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[result.GameID] = result
	return nil
}

func (s *Storage) GetMatchResult(ctx context.Context, gameID model.GameID) (*model.MatchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.matches[gameID]
	if !ok {
		return nil, model.ErrMatchResultNotFound
	}
	return result, nil
}

func (s *Storage) ListMatchResultsForPlayer(ctx context.Context, playerID model.PlayerID, limit int) ([]*model.MatchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*model.MatchResult
	for _, r := range s.matches {
		if _, ok := r.Scores[playerID]; ok {
			results = append(results, r)
		}
	}

	// Most recent first
	sort.Slice(results, func(i, j int) bool {
		return results[i].EndedAt.After(results[j].EndedAt)
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Tournament records

func (s *Storage) SaveTournamentRecord(ctx context.Context, record *model.TournamentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tournaments[record.TournamentID] = record
	return nil
}

func (s *Storage) GetTournamentRecord(ctx context.Context, id model.TournamentID) (*model.TournamentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.tournaments[id]
	if !ok {
		return nil, model.ErrTournamentRecordNotFound
	}
	return record, nil
}

func (s *Storage) ListTournamentRecords(ctx context.Context, limit int) ([]*model.TournamentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*model.TournamentRecord, 0, len(s.tournaments))
	for _, r := range s.tournaments {
		records = append(records, r)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CompletedAt.After(records[j].CompletedAt)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
