package session

import (
	"context"
	stderrors "errors"

	"github.com/Digital-Creators-Team/bingo-game-module/errors"
	"github.com/Digital-Creators-Team/bingo-game-module/game"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/engine"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/providers"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Storage keys. They match the keys the mobile client persisted, so a
// migrated save reads back unchanged.
const (
	KeyCredits           = "userCredits"
	KeyBetMultiplier     = "betMultiplier"
	KeySavedCards        = "savedBingoCards"
	KeyFavoriteCards     = "favoriteBingoCards"
	KeyGamesPlayed       = "numberOfGamesPlayed"
	KeyBingos            = "numberOfBingos"
	KeyAutoMark          = "autoMark"
	KeySpeakSpaces       = "speakSpaces"
	KeyGameSpeed         = "gameSpeed"
	KeyVibrationEnabled  = "vibrationEnabled"
	KeyGracefulBingos    = "gracefulBingos"
	KeySeenModeSelection = "hasSeenGameModeSelection"
)

// load decodes key into v. Missing keys report false. Unreadable values are
// logged and also report false, so the caller keeps its default.
func (s *Session) load(ctx context.Context, key string, v interface{}) (bool, error) {
	raw, err := s.store.Get(ctx, key)
	if stderrors.Is(err, providers.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, errors.ErrStoreError, "failed to load "+key)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Ignoring corrupt saved value")
		return false, nil
	}
	return true, nil
}

// save persists v under key. Failures are logged; the in-memory state stays
// authoritative for the rest of the session.
func (s *Session) save(ctx context.Context, key string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to encode value")
		return
	}
	if err := s.store.Set(ctx, key, raw); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to persist value")
	}
}

func (s *Session) saveCards(ctx context.Context, key string, cards []*game.Card) {
	raw, err := game.EncodeCards(cards)
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to encode cards")
		return
	}
	if err := s.store.Set(ctx, key, raw); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to persist cards")
	}
}

// loadCards returns nil for missing, corrupt or empty saves. Cards that do not
// fit the variant count as corrupt.
func (s *Session) loadCards(ctx context.Context, key string) ([]*game.Card, error) {
	raw, err := s.store.Get(ctx, key)
	if stderrors.Is(err, providers.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrStoreError, "failed to load "+key)
	}
	cards, err := game.DecodeCards(raw)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Ignoring corrupt saved cards")
		return nil, nil
	}
	for _, c := range cards {
		if err := s.fits(c); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("Ignoring saved cards of another variant")
			return nil, nil
		}
	}
	return cards, nil
}

// restore reads every persisted value, falling back to defaults.
func (s *Session) restore(ctx context.Context) error {
	s.credits = s.variant.StartingCredits
	if _, err := s.load(ctx, KeyCredits, &s.credits); err != nil {
		return err
	}
	if s.credits < 0 {
		s.credits = 0
	}

	s.betMultiplier = s.variant.BetMultipliers[0]
	var bet int
	ok, err := s.load(ctx, KeyBetMultiplier, &bet)
	if err != nil {
		return err
	}
	if ok && s.variant.HasMultiplier(bet) {
		s.betMultiplier = bet
	}

	for key, dst := range map[string]*int{KeyGamesPlayed: &s.gamesPlayed, KeyBingos: &s.totalBingos} {
		if _, err := s.load(ctx, key, dst); err != nil {
			return err
		}
	}
	if _, err := s.load(ctx, KeySeenModeSelection, &s.seenModes); err != nil {
		return err
	}

	settings, err := s.loadSettings(ctx)
	if err != nil {
		return err
	}
	s.machine.Apply(engine.UpdateSettings{Settings: settings})

	cards, err := s.loadCards(ctx, KeySavedCards)
	if err != nil {
		return err
	}
	if len(cards) == 0 {
		cards = []*game.Card{s.generator.Generate()}
		s.saveCards(ctx, KeySavedCards, cards)
	}
	s.machine.Apply(engine.SetCards{Cards: cards})

	favorites, err := s.loadCards(ctx, KeyFavoriteCards)
	if err != nil {
		return err
	}
	s.favorites = favorites
	return nil
}

func (s *Session) loadSettings(ctx context.Context) (game.Settings, error) {
	st := game.DefaultSettings()
	for key, dst := range map[string]*bool{
		KeyAutoMark:         &st.AutoMark,
		KeySpeakSpaces:      &st.SpeakSpaces,
		KeyVibrationEnabled: &st.VibrationEnabled,
		KeyGracefulBingos:   &st.GracefulBingos,
	} {
		if _, err := s.load(ctx, key, dst); err != nil {
			return st, err
		}
	}
	var speed game.GameSpeed
	ok, err := s.load(ctx, KeyGameSpeed, &speed)
	if err != nil {
		return st, err
	}
	if ok && speed.Valid() {
		st.GameSpeed = speed
	}
	return st, nil
}

func (s *Session) saveSettings(ctx context.Context, st game.Settings) {
	s.save(ctx, KeyAutoMark, st.AutoMark)
	s.save(ctx, KeySpeakSpaces, st.SpeakSpaces)
	s.save(ctx, KeyGameSpeed, st.GameSpeed)
	s.save(ctx, KeyVibrationEnabled, st.VibrationEnabled)
	s.save(ctx, KeyGracefulBingos, st.GracefulBingos)
}
