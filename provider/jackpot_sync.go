package provider

import (
	"context"

	"github.com/Digital-Creators-Team/bingo-game-module/events/kafka"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/jackpot"
	"github.com/rs/zerolog"
)

// JackpotSync announces local ledger changes on Kafka and relays the changes
// announced by other instances into the local ledger, so every instance
// pushes the same jackpot values to its clients.
type JackpotSync struct {
	ledger     *jackpot.Ledger
	sender     MessageSender
	topic      string
	instanceID string
	gameCode   string
	logger     zerolog.Logger
}

// NewJackpotSync creates a sync for one instance of a game.
func NewJackpotSync(ledger *jackpot.Ledger, sender MessageSender, topic, instanceID, gameCode string, logger zerolog.Logger) *JackpotSync {
	return &JackpotSync{
		ledger:     ledger,
		sender:     sender,
		topic:      topic,
		instanceID: instanceID,
		gameCode:   gameCode,
		logger:     logger.With().Str("component", "jackpot_sync").Logger(),
	}
}

// Run forwards local updates until ctx is done or the ledger closes.
func (s *JackpotSync) Run(ctx context.Context) {
	updates, cancel := s.ledger.Listen(ctx)
	defer cancel()
	for u := range updates {
		if u.Reason == jackpot.ReasonSync {
			continue
		}
		event := kafka.JackpotUpdateEvent{
			InstanceID: s.instanceID,
			GameCode:   s.gameCode,
			Multiplier: u.Multiplier,
			Count:      u.Count,
			Reason:     string(u.Reason),
			UpdatedAt:  u.Timestamp,
		}
		if err := s.sender.SendMessage(s.topic, s.gameCode, event); err != nil {
			s.logger.Warn().Err(err).Int("bet_multiplier", u.Multiplier).Msg("Failed to announce jackpot update")
		}
	}
}

// Accept filters out this instance's own updates and other games.
func (s *JackpotSync) Accept(event kafka.JackpotUpdateEvent) bool {
	return event.InstanceID != s.instanceID && event.GameCode == s.gameCode
}

// Handle relays a remote update to local listeners.
func (s *JackpotSync) Handle(event kafka.JackpotUpdateEvent) {
	s.ledger.Relay(jackpot.Update{
		Multiplier: event.Multiplier,
		Count:      event.Count,
		Timestamp:  event.UpdatedAt,
	})
}
