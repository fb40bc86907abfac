// Package events notifies downstream consumers of terminal game
// events. Publication is fire-and-forget: failures are logged, never
// surfaced to game logic.
package events

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/debsndprgs5/transcendence-game/internal/model"
)

// Subjects for published events
const (
	SubjectMatchEnded         = "pong.match.ended"
	SubjectTournamentComplete = "pong.tournament.complete"
)

// Publisher notifies external consumers of terminal events
type Publisher interface {
	MatchEnded(result *model.MatchResult)
	TournamentComplete(record *model.TournamentRecord)
	Close()
}

// NATSPublisher publishes events as JSON over NATS
type NATSPublisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// Ensure implementations satisfy the interface
var (
	_ Publisher = (*NATSPublisher)(nil)
	_ Publisher = (*NopPublisher)(nil)
)

// NewNATSPublisher connects to the given NATS URL
func NewNATSPublisher(url string, logger *slog.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, err
	}

	return &NATSPublisher{
		conn:   conn,
		logger: logger.With(slog.String("component", "events")),
	}, nil
}

// MatchEnded publishes a match result to pong.match.ended
func (p *NATSPublisher) MatchEnded(result *model.MatchResult) {
	p.publish(SubjectMatchEnded, result)
}

// TournamentComplete publishes a tournament record to pong.tournament.complete
func (p *NATSPublisher) TournamentComplete(record *model.TournamentRecord) {
	p.publish(SubjectTournamentComplete, record)
}

func (p *NATSPublisher) publish(subject string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("failed to marshal event",
			slog.String("subject", subject),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Warn("failed to publish event",
			slog.String("subject", subject),
			slog.String("error", err.Error()),
		)
	}
}

// Close drains and closes the NATS connection
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("failed to drain nats connection", slog.String("error", err.Error()))
	}
}

// NopPublisher discards all events; used when NATS is not configured
type NopPublisher struct{}

// NewNopPublisher creates a publisher that does nothing
func NewNopPublisher() *NopPublisher { return &NopPublisher{} }

func (*NopPublisher) MatchEnded(*model.MatchResult)              {}
func (*NopPublisher) TournamentComplete(*model.TournamentRecord) {}
func (*NopPublisher) Close()                                     {}
