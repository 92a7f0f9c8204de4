package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/Digital-Creators-Team/bingo-game-module/pkg/providers"
	"github.com/rs/zerolog"
)

// MessageSender queues a keyed message on a topic. *kafka.Producer implements it.
type MessageSender interface {
	SendMessage(topic string, key string, value interface{}) error
}

// ScoreEvent is a leaderboard submission
type ScoreEvent struct {
	LeaderboardID string    `json:"leaderboard_id"`
	PlayerID      string    `json:"player_id"`
	Score         int64     `json:"score"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// LeaderboardProvider implements providers.LeaderboardProvider by publishing
// score events
type LeaderboardProvider struct {
	sender MessageSender
	topic  string
	logger zerolog.Logger
}

var _ providers.LeaderboardProvider = (*LeaderboardProvider)(nil)

// NewLeaderboardProvider creates a new leaderboard provider
func NewLeaderboardProvider(sender MessageSender, topic string, logger zerolog.Logger) *LeaderboardProvider {
	return &LeaderboardProvider{
		sender: sender,
		topic:  topic,
		logger: logger.With().Str("component", "leaderboard_provider").Logger(),
	}
}

// SubmitScore publishes a score. It does not wait for delivery.
func (p *LeaderboardProvider) SubmitScore(_ context.Context, leaderboardID, playerID string, score int64) error {
	if p.sender == nil {
		p.logger.Warn().Msg("Kafka producer not configured, skipping score")
		return nil
	}
	event := ScoreEvent{
		LeaderboardID: leaderboardID,
		PlayerID:      playerID,
		Score:         score,
		SubmittedAt:   time.Now().UTC(),
	}
	if err := p.sender.SendMessage(p.topic, playerID, event); err != nil {
		return fmt.Errorf("failed to submit score: %w", err)
	}
	return nil
}

// EventPublisher implements providers.EventPublisher on a Kafka topic
type EventPublisher struct {
	sender MessageSender
	topic  string
	logger zerolog.Logger
}

var _ providers.EventPublisher = (*EventPublisher)(nil)

// NewEventPublisher creates a new event publisher
func NewEventPublisher(sender MessageSender, topic string, logger zerolog.Logger) *EventPublisher {
	return &EventPublisher{
		sender: sender,
		topic:  topic,
		logger: logger.With().Str("component", "event_publisher").Logger(),
	}
}

// Publish queues a game event keyed by player
func (p *EventPublisher) Publish(_ context.Context, event *providers.GameEvent) error {
	if p.sender == nil {
		p.logger.Warn().Msg("Kafka producer not configured, skipping event")
		return nil
	}
	if err := p.sender.SendMessage(p.topic, event.PlayerID, event); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}
	return nil
}
