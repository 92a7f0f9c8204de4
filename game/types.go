package game

import (
	"fmt"
	"time"

	"github.com/samber/lo"
)

// Layout names the card generation rule of a variant.
type Layout string

const (
	// LayoutBonus is a square card with a designated bonus label forced into the center.
	LayoutBonus Layout = "bonus"
	// LayoutLines is an N×N card filled column by column, optionally with a free center.
	LayoutLines Layout = "lines"
)

// GameSpeed selects the reveal interval.
type GameSpeed string

const (
	SpeedSlow      GameSpeed = "slow"
	SpeedNormal    GameSpeed = "normal"
	SpeedFast      GameSpeed = "fast"
	SpeedLightning GameSpeed = "lightning"
)

// GameSpeeds lists the speeds from slowest to fastest.
var GameSpeeds = []GameSpeed{SpeedSlow, SpeedNormal, SpeedFast, SpeedLightning}

// Interval returns the time between reveals. Unknown speeds run at normal speed.
func (s GameSpeed) Interval() time.Duration {
	switch s {
	case SpeedSlow:
		return 3500 * time.Millisecond
	case SpeedFast:
		return 500 * time.Millisecond
	case SpeedLightning:
		return 150 * time.Millisecond
	default:
		return 2 * time.Second
	}
}

// Valid reports whether s is a known speed.
func (s GameSpeed) Valid() bool {
	return lo.Contains(GameSpeeds, s)
}

// SilencesSpeech reports whether numbers are too quick to be spoken at this speed.
func (s GameSpeed) SilencesSpeech() bool {
	return s == SpeedFast || s == SpeedLightning
}

// GameMode is a preset of settings offered on first launch.
type GameMode string

const (
	ModeClassic GameMode = "classic"
	ModeAuto    GameMode = "auto"
)

// Settings are the player's persisted preferences.
type Settings struct {
	AutoMark         bool      `mapstructure:"auto_mark" json:"autoMark"`
	SpeakSpaces      bool      `mapstructure:"speak_spaces" json:"speakSpaces"`
	GameSpeed        GameSpeed `mapstructure:"game_speed" json:"gameSpeed"`
	VibrationEnabled bool      `mapstructure:"vibration_enabled" json:"vibrationEnabled"`
	GracefulBingos   bool      `mapstructure:"graceful_bingos" json:"gracefulBingos"`
}

// DefaultSettings matches a fresh install.
func DefaultSettings() Settings {
	return Settings{
		AutoMark:         false,
		SpeakSpaces:      true,
		GameSpeed:        SpeedNormal,
		VibrationEnabled: true,
		GracefulBingos:   false,
	}
}

// ApplyMode overwrites the settings a mode controls.
func (s Settings) ApplyMode(mode GameMode) (Settings, error) {
	switch mode {
	case ModeClassic:
		s.AutoMark = false
		s.SpeakSpaces = true
		s.GameSpeed = SpeedNormal
	case ModeAuto:
		s.AutoMark = true
		s.SpeakSpaces = false
		s.GameSpeed = SpeedLightning
	default:
		return s, fmt.Errorf("unknown game mode %q", mode)
	}
	return s, nil
}

// CreditPack is a purchasable bundle of credits.
type CreditPack struct {
	ProductID string `mapstructure:"product_id" json:"productId"`
	Credits   int    `mapstructure:"credits" json:"credits"`
}

// PayoutTier is a fixed multiple of the bet paid for an exact bingo count.
type PayoutTier struct {
	Bingos     int `mapstructure:"bingos" json:"bingos"`
	Multiplier int `mapstructure:"multiplier" json:"multiplier"`
}

// PayoutConfig shapes the piecewise payout curve.
type PayoutConfig struct {
	// PartialPercent is the share of the bet paid per bingo up to PartialMax bingos.
	PartialPercent int          `mapstructure:"partial_percent" json:"partialPercent"`
	PartialMax     int          `mapstructure:"partial_max" json:"partialMax"`
	Tiers          []PayoutTier `mapstructure:"tiers" json:"tiers"`
	// Counts above the last tier pay bet × 2^(bingos-ExponentOffset).
	ExponentOffset int `mapstructure:"exponent_offset" json:"exponentOffset"`
}

// JackpotConfig shapes the progressive jackpot.
type JackpotConfig struct {
	Enabled        *bool `mapstructure:"enabled" json:"enabled,omitempty"`
	Multiplier     int64 `mapstructure:"multiplier" json:"multiplier"`
	BaselineFactor int64 `mapstructure:"baseline_factor" json:"baselineFactor"`
}

// BonusOfferConfig shapes the rewarded bonus-draw offers.
type BonusOfferConfig struct {
	Sizes       []int `mapstructure:"sizes" json:"sizes"`
	Games       int   `mapstructure:"games" json:"games"`
	CooldownMin int   `mapstructure:"cooldown_min" json:"cooldownMin"`
	CooldownMax int   `mapstructure:"cooldown_max" json:"cooldownMax"`
}

// BonusBallsConfig shapes the consolation draws granted after a round.
type BonusBallsConfig struct {
	ChancePercent int   `mapstructure:"chance_percent" json:"chancePercent"`
	Sizes         []int `mapstructure:"sizes" json:"sizes"`
}

// Config holds the configuration of one game variant
type Config struct {
	GameCode        string           `mapstructure:"game_code" json:"gameCode"`
	GameName        string           `mapstructure:"game_name" json:"gameName"`
	Layout          Layout           `mapstructure:"layout" json:"layout"`
	Rows            int              `mapstructure:"rows" json:"rows"`
	Cols            int              `mapstructure:"cols" json:"cols"`
	Labels          []string         `mapstructure:"labels" json:"labels"`
	BonusLabel      string           `mapstructure:"bonus_label" json:"bonusLabel"`
	FreeSpace       bool             `mapstructure:"free_space" json:"freeSpace"`
	FreeSpaceLabel  string           `mapstructure:"free_space_label" json:"freeSpaceLabel"`
	Patterns        [][]int          `mapstructure:"patterns" json:"patterns"`
	BaseBet         int              `mapstructure:"base_bet" json:"baseBet"`
	BaseDraws       int              `mapstructure:"base_draws" json:"baseDraws"`
	BetMultipliers  []int            `mapstructure:"bet_multipliers" json:"betMultipliers"`
	LastCallSeconds int              `mapstructure:"last_call_seconds" json:"lastCallSeconds"`
	StartDelay      time.Duration    `mapstructure:"start_delay" json:"startDelay"`
	StartingCredits int              `mapstructure:"starting_credits" json:"startingCredits"`
	RefillAmount    int              `mapstructure:"refill_amount" json:"refillAmount"`
	CreditPacks     []CreditPack     `mapstructure:"credit_packs" json:"creditPacks"`
	Payout          PayoutConfig     `mapstructure:"payout" json:"payout"`
	Jackpot         JackpotConfig    `mapstructure:"jackpot" json:"jackpot"`
	BonusOffer      BonusOfferConfig `mapstructure:"bonus_offer" json:"bonusOffer"`
	BonusBalls      BonusBallsConfig `mapstructure:"bonus_balls" json:"bonusBalls"`
	LeaderboardID   string           `mapstructure:"leaderboard_id" json:"leaderboardId"`
}

// ConfigNormalizer exposes normalized config for responses.
type ConfigNormalizer interface {
	Normalize() map[string]interface{}
}

// Normalize converts Config to a response-friendly map.
func (c *Config) Normalize() map[string]interface{} {
	return map[string]interface{}{
		"gameCode":        c.GameCode,
		"gameName":        c.GameName,
		"rows":            c.Rows,
		"cols":            c.Cols,
		"baseBet":         c.BaseBet,
		"baseDraws":       c.BaseDraws,
		"betMultipliers":  c.BetMultipliers,
		"bonusLabel":      c.BonusLabel,
		"jackpotEnabled":  c.JackpotEnabled(),
		"lastCallSeconds": c.LastCallSeconds,
		"creditPacks":     c.CreditPacks,
	}
}

// CardSize is the number of cells on one card.
func (c *Config) CardSize() int {
	return c.Rows * c.Cols
}

// CenterIndex is the index reserved for the bonus or free cell.
func (c *Config) CenterIndex() int {
	return c.CardSize() / 2
}

// Bet returns the credits wagered at a multiplier.
func (c *Config) Bet(multiplier int) int {
	return c.BaseBet * multiplier
}

// AllSpaces returns every space that can be called, in label order.
func (c *Config) AllSpaces() []Space {
	return lo.Map(c.Labels, func(l string, _ int) Space { return NewSpace(l) })
}

// FreeSpaceCell returns the free space placed at the center of lines cards.
func (c *Config) FreeSpaceCell() Space {
	label := c.FreeSpaceLabel
	if label == "" {
		label = "FREE"
	}
	return Space{ID: label, IsFreeSpace: true, Label: label}
}

// Pack returns the credit pack sold under productID.
func (c *Config) Pack(productID string) (CreditPack, bool) {
	return lo.Find(c.CreditPacks, func(p CreditPack) bool { return p.ProductID == productID })
}

// IsBonusSpace reports whether the space is the jackpot bonus space.
func (c *Config) IsBonusSpace(spaceID string) bool {
	return c.BonusLabel != "" && spaceID == c.BonusLabel
}

// HasMultiplier reports whether m is one of the configured bet multipliers.
func (c *Config) HasMultiplier(m int) bool {
	return lo.Contains(c.BetMultipliers, m)
}

// JackpotEnabled reports whether the progressive jackpot is in play.
func (c *Config) JackpotEnabled() bool {
	return c.Jackpot.Enabled != nil && *c.Jackpot.Enabled
}

// JackpotBaseline is the value an entry resets to, and the value unseen entries read as.
func (c *Config) JackpotBaseline(multiplier int) int64 {
	return int64(multiplier) * c.Jackpot.BaselineFactor
}

// ApplyDefaults fills zero-valued fields from base, typically the registered
// variant with the same game code.
func (c *Config) ApplyDefaults(base *Config) {
	if base == nil {
		return
	}
	if c.GameCode == "" {
		c.GameCode = base.GameCode
	}
	if c.GameName == "" {
		c.GameName = base.GameName
	}
	if c.Layout == "" {
		c.Layout = base.Layout
	}
	if c.Rows == 0 {
		c.Rows = base.Rows
	}
	if c.Cols == 0 {
		c.Cols = base.Cols
	}
	if len(c.Labels) == 0 {
		c.Labels = append([]string(nil), base.Labels...)
	}
	if c.BonusLabel == "" {
		c.BonusLabel = base.BonusLabel
	}
	if !c.FreeSpace {
		c.FreeSpace = base.FreeSpace
	}
	if c.FreeSpaceLabel == "" {
		c.FreeSpaceLabel = base.FreeSpaceLabel
	}
	if len(c.Patterns) == 0 {
		c.Patterns = base.Patterns
	}
	if c.BaseBet == 0 {
		c.BaseBet = base.BaseBet
	}
	if c.BaseDraws == 0 {
		c.BaseDraws = base.BaseDraws
	}
	if len(c.BetMultipliers) == 0 {
		c.BetMultipliers = append([]int(nil), base.BetMultipliers...)
	}
	if c.LastCallSeconds == 0 {
		c.LastCallSeconds = base.LastCallSeconds
	}
	if c.StartDelay == 0 {
		c.StartDelay = base.StartDelay
	}
	if c.StartingCredits == 0 {
		c.StartingCredits = base.StartingCredits
	}
	if c.RefillAmount == 0 {
		c.RefillAmount = base.RefillAmount
	}
	if len(c.CreditPacks) == 0 {
		c.CreditPacks = append([]CreditPack(nil), base.CreditPacks...)
	}
	if c.Payout.PartialPercent == 0 {
		c.Payout.PartialPercent = base.Payout.PartialPercent
	}
	if c.Payout.PartialMax == 0 {
		c.Payout.PartialMax = base.Payout.PartialMax
	}
	if len(c.Payout.Tiers) == 0 {
		c.Payout.Tiers = append([]PayoutTier(nil), base.Payout.Tiers...)
	}
	if c.Payout.ExponentOffset == 0 {
		c.Payout.ExponentOffset = base.Payout.ExponentOffset
	}
	if c.Jackpot.Enabled == nil && base.Jackpot.Enabled != nil {
		enabled := *base.Jackpot.Enabled
		c.Jackpot.Enabled = &enabled
	}
	if c.Jackpot.Multiplier == 0 {
		c.Jackpot.Multiplier = base.Jackpot.Multiplier
	}
	if c.Jackpot.BaselineFactor == 0 {
		c.Jackpot.BaselineFactor = base.Jackpot.BaselineFactor
	}
	if len(c.BonusOffer.Sizes) == 0 {
		c.BonusOffer.Sizes = append([]int(nil), base.BonusOffer.Sizes...)
	}
	if c.BonusOffer.Games == 0 {
		c.BonusOffer.Games = base.BonusOffer.Games
	}
	if c.BonusOffer.CooldownMin == 0 {
		c.BonusOffer.CooldownMin = base.BonusOffer.CooldownMin
	}
	if c.BonusOffer.CooldownMax == 0 {
		c.BonusOffer.CooldownMax = base.BonusOffer.CooldownMax
	}
	if c.BonusBalls.ChancePercent == 0 {
		c.BonusBalls.ChancePercent = base.BonusBalls.ChancePercent
	}
	if len(c.BonusBalls.Sizes) == 0 {
		c.BonusBalls.Sizes = append([]int(nil), base.BonusBalls.Sizes...)
	}
	if c.LeaderboardID == "" {
		c.LeaderboardID = base.LeaderboardID
	}
}

// Validate checks that the variant can generate cards and pay out.
func (c *Config) Validate() error {
	if c.GameCode == "" {
		return fmt.Errorf("game_code is required")
	}
	if c.Rows <= 0 || c.Cols <= 0 {
		return fmt.Errorf("%s: invalid card size %dx%d", c.GameCode, c.Rows, c.Cols)
	}
	if len(lo.Uniq(c.Labels)) != len(c.Labels) {
		return fmt.Errorf("%s: labels must be unique", c.GameCode)
	}
	switch c.Layout {
	case LayoutBonus:
		if c.BonusLabel == "" || !lo.Contains(c.Labels, c.BonusLabel) {
			return fmt.Errorf("%s: bonus_label %q must be one of the labels", c.GameCode, c.BonusLabel)
		}
		if len(c.Labels) < c.CardSize() {
			return fmt.Errorf("%s: %d labels cannot fill a %dx%d card", c.GameCode, len(c.Labels), c.Rows, c.Cols)
		}
	case LayoutLines:
		if len(c.Labels)%c.Cols != 0 {
			return fmt.Errorf("%s: %d labels do not split into %d columns", c.GameCode, len(c.Labels), c.Cols)
		}
		if len(c.Labels)/c.Cols < c.Rows {
			return fmt.Errorf("%s: each column needs at least %d labels", c.GameCode, c.Rows)
		}
		if c.FreeSpace && lo.Contains(c.Labels, c.FreeSpaceCell().ID) {
			return fmt.Errorf("%s: free space label collides with a callable label", c.GameCode)
		}
	default:
		return fmt.Errorf("%s: unknown layout %q", c.GameCode, c.Layout)
	}
	for i, p := range c.Patterns {
		if len(p) == 0 {
			return fmt.Errorf("%s: pattern %d is empty", c.GameCode, i)
		}
		for _, idx := range p {
			if idx < 0 || idx >= c.CardSize() {
				return fmt.Errorf("%s: pattern %d index %d out of range", c.GameCode, i, idx)
			}
		}
	}
	if c.BaseBet <= 0 {
		return fmt.Errorf("%s: base_bet must be positive", c.GameCode)
	}
	if c.BaseDraws <= 0 {
		return fmt.Errorf("%s: base_draws must be positive", c.GameCode)
	}
	if len(c.BetMultipliers) == 0 {
		return fmt.Errorf("%s: bet_multipliers is required", c.GameCode)
	}
	for _, m := range c.BetMultipliers {
		if m <= 0 {
			return fmt.Errorf("%s: bet multiplier %d must be positive", c.GameCode, m)
		}
	}
	if c.LastCallSeconds <= 0 {
		return fmt.Errorf("%s: last_call_seconds must be positive", c.GameCode)
	}
	for _, tier := range c.Payout.Tiers {
		if tier.Bingos <= c.Payout.PartialMax || tier.Multiplier < 0 {
			return fmt.Errorf("%s: payout tier %+v overlaps the partial range", c.GameCode, tier)
		}
	}
	if c.JackpotEnabled() && (c.Jackpot.Multiplier <= 0 || c.Jackpot.BaselineFactor <= 0) {
		return fmt.Errorf("%s: jackpot multiplier and baseline_factor must be positive", c.GameCode)
	}
	for _, p := range c.CreditPacks {
		if p.ProductID == "" || p.Credits <= 0 {
			return fmt.Errorf("%s: invalid credit pack %+v", c.GameCode, p)
		}
	}
	if c.BonusOffer.CooldownMax < c.BonusOffer.CooldownMin {
		return fmt.Errorf("%s: bonus_offer cooldown range is inverted", c.GameCode)
	}
	return nil
}
