package redis

import (
	"fmt"

	"github.com/debsndprgs5/transcendence-game/internal/model"
)

// Key prefix for all coordinator data
const keyPrefix = "pong"

// matchKey returns the Redis key for a MatchResult
func matchKey(id model.GameID) string {
	return fmt.Sprintf("%s:match:%s", keyPrefix, id)
}

// playerMatchesIndexKey returns the Redis key for the per-player
// sorted set of match ids (scored by end time).
func playerMatchesIndexKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:idx:player_matches:%s", keyPrefix, id)
}

// tournamentRecordKey returns the Redis key for a TournamentRecord
func tournamentRecordKey(id model.TournamentID) string {
	return fmt.Sprintf("%s:tournament:%s", keyPrefix, id)
}

// tournamentRecordsIndexKey returns the Redis key for the sorted set
// of completed tournament ids (scored by completion time).
func tournamentRecordsIndexKey() string {
	return fmt.Sprintf("%s:idx:tournaments", keyPrefix)
}
