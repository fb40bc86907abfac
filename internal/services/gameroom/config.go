package gameroom

import "time"

// Config holds the simulation tuning for all rooms
type Config struct {
	// TickInterval is the fixed simulation cadence
	TickInterval time.Duration

	// Court geometry; the court is a CourtSize x CourtSize square
	CourtSize    float64
	PaddleLength float64

	// Speeds in court units per second
	PaddleSpeed float64
	BallSpeed   float64

	// EndedRoomTTL is how long an ended room stays queryable before cleanup
	EndedRoomTTL time.Duration
}

// DefaultConfig returns the standard simulation settings
func DefaultConfig() Config {
	return Config{
		TickInterval: 50 * time.Millisecond,
		CourtSize:    100,
		PaddleLength: 20,
		PaddleSpeed:  60,
		BallSpeed:    50,
		EndedRoomTTL: 2 * time.Minute,
	}
}
