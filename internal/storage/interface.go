// Package storage persists historical match and tournament records.
// Game logic never depends on it; terminal events are recorded
// fire-and-forget.
package storage

import (
	"context"

	"github.com/debsndprgs5/transcendence-game/internal/model"
)

// Storage defines the interface for historical record persistence
type Storage interface {
	// Match results
	SaveMatchResult(ctx context.Context, result *model.MatchResult) error
	GetMatchResult(ctx context.Context, gameID model.GameID) (*model.MatchResult, error)
	ListMatchResultsForPlayer(ctx context.Context, playerID model.PlayerID, limit int) ([]*model.MatchResult, error)

	// Tournament records
	SaveTournamentRecord(ctx context.Context, record *model.TournamentRecord) error
	GetTournamentRecord(ctx context.Context, id model.TournamentID) (*model.TournamentRecord, error)
	ListTournamentRecords(ctx context.Context, limit int) ([]*model.TournamentRecord, error)
}
