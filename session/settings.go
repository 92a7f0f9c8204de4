package session

import (
	"context"

	"github.com/Digital-Creators-Team/bingo-game-module/errors"
	"github.com/Digital-Creators-Team/bingo-game-module/game"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/engine"
	"github.com/mitchellh/mapstructure"
)

// Settings returns the current settings.
func (s *Session) Settings() game.Settings {
	s.mu.Lock()
	defer s.unlock()
	return s.machine.Settings()
}

// UpdateSettings applies a partial settings patch keyed by the mapstructure
// names (auto_mark, speak_spaces, game_speed, vibration_enabled,
// graceful_bingos). Unknown keys and unknown speeds are rejected.
func (s *Session) UpdateSettings(ctx context.Context, patch map[string]interface{}) (game.Settings, error) {
	s.mu.Lock()
	defer s.unlock()
	if s.closed {
		return game.Settings{}, errClosed
	}
	prev := s.machine.Settings()
	next := prev
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &next,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return prev, errors.Wrap(err, errors.ErrInternalServerError, "failed to build settings decoder")
	}
	if err := decoder.Decode(patch); err != nil {
		return prev, errors.Wrap(err, errors.ErrInvalidRequest, "invalid settings")
	}
	if !next.GameSpeed.Valid() {
		return prev, errors.New(errors.ErrInvalidRequest, "unknown game speed "+string(next.GameSpeed))
	}
	if next.GameSpeed != prev.GameSpeed && next.GameSpeed.SilencesSpeech() {
		next.SpeakSpaces = false
	}
	s.applySettings(ctx, next)
	return next, nil
}

// SetGameSpeed changes the reveal speed. Fast speeds turn speaking off.
func (s *Session) SetGameSpeed(ctx context.Context, speed game.GameSpeed) error {
	if !speed.Valid() {
		return errors.New(errors.ErrInvalidRequest, "unknown game speed "+string(speed))
	}
	s.mu.Lock()
	defer s.unlock()
	if s.closed {
		return errClosed
	}
	next := s.machine.Settings()
	next.GameSpeed = speed
	if speed.SilencesSpeech() {
		next.SpeakSpaces = false
	}
	s.applySettings(ctx, next)
	return nil
}

// SelectGameMode applies a settings preset and records that the player has
// made the first-launch choice.
func (s *Session) SelectGameMode(ctx context.Context, mode game.GameMode) error {
	s.mu.Lock()
	defer s.unlock()
	if s.closed {
		return errClosed
	}
	next, err := s.machine.Settings().ApplyMode(mode)
	if err != nil {
		return errors.Wrap(err, errors.ErrInvalidRequest, "invalid game mode")
	}
	s.applySettings(ctx, next)
	s.seenModes = true
	s.save(ctx, KeySeenModeSelection, true)
	return nil
}

// applySettings must be called with mu held.
func (s *Session) applySettings(ctx context.Context, next game.Settings) {
	_ = s.execute(ctx, s.machine.Apply(engine.UpdateSettings{Settings: next}))
	s.saveSettings(ctx, next)
	s.emit(EventSettingsChanged, next)
}
