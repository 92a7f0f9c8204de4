package providers

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Store.Get for keys that were never set.
var ErrNotFound = errors.New("key not found")

// Store interface for opaque key/value persistence
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Product is a purchasable SKU
type Product struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Price       string `json:"price"`
}

// PurchaseResult reports a completed purchase
type PurchaseResult struct {
	TransactionID string    `json:"transactionId"`
	ProductID     string    `json:"productId"`
	PurchasedAt   time.Time `json:"purchasedAt"`
}

// PurchaseProvider interface for in-app purchases.
// Purchase returns an error for failed or cancelled purchases.
type PurchaseProvider interface {
	Products(ctx context.Context) ([]Product, error)
	Purchase(ctx context.Context, playerID, productID string) (*PurchaseResult, error)
}

// LeaderboardProvider interface for score submission
type LeaderboardProvider interface {
	SubmitScore(ctx context.Context, leaderboardID, playerID string, score int64) error
}

// AdProvider interface for rewarded ads.
// PresentReward returns once the ad is dismissed; an error means it could not be shown.
type AdProvider interface {
	IsRewardAvailable(ctx context.Context) bool
	PresentReward(ctx context.Context) error
}

// Sound names a sound effect
type Sound string

const (
	SoundBingo           Sound = "bingo"
	SoundGo              Sound = "go"
	SoundCalled          Sound = "called"
	SoundWelcome         Sound = "welcome"
	SoundMarkedNotCalled Sound = "markedNotCalled"
	SoundFreeChips       Sound = "freeChips"
	SoundPurchasedChips  Sound = "purchasedChips"
	SoundAdReward        Sound = "adReward"
	SoundBeepUp          Sound = "beepUp"
	SoundBeepDown        Sound = "beepDown"
)

// Haptic names a haptic pattern
type Haptic string

const (
	HapticWrongNumber   Haptic = "wrongNumber"
	HapticCorrectNumber Haptic = "correctNumber"
	HapticBingo         Haptic = "bingo"
	HapticChoose        Haptic = "choose"
	HapticSoft          Haptic = "soft"
	HapticLight         Haptic = "light"
)

// CuePlayer interface for sound and haptic feedback
type CuePlayer interface {
	PlaySound(sound Sound)
	PlayHaptic(haptic Haptic)
}

// Speaker interface for calling numbers aloud
type Speaker interface {
	Speak(text string)
}

// EventType names a published game event
type EventType string

const (
	EventRoundFinished EventType = "round_finished"
	EventJackpotWon    EventType = "jackpot_won"
)

// GameEvent is a round or jackpot event published to external systems
type GameEvent struct {
	Type          EventType `json:"type"`
	PlayerID      string    `json:"playerId"`
	GameCode      string    `json:"gameCode"`
	RoundID       string    `json:"roundId"`
	BetMultiplier int       `json:"betMultiplier"`
	Bet           int       `json:"bet"`
	Bingos        int       `json:"bingos,omitempty"`
	Winnings      int       `json:"winnings,omitempty"`
	JackpotCount  int64     `json:"jackpotCount,omitempty"`
	JackpotAmount int64     `json:"jackpotAmount,omitempty"`
	Credits       int       `json:"credits"`
	Timestamp     time.Time `json:"timestamp"`
}

// EventPublisher interface for publishing game events
type EventPublisher interface {
	Publish(ctx context.Context, event *GameEvent) error
}
