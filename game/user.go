package game

// Player represents the current player in the game context
type Player struct {
	playerID string
	username string
}

// ID returns the player ID
func (p *Player) ID() string {
	return p.playerID
}

// Username returns the display name
func (p *Player) Username() string {
	return p.username
}

// NewPlayer creates a new Player instance
func NewPlayer(playerID, username string) *Player {
	return &Player{
		playerID: playerID,
		username: username,
	}
}
