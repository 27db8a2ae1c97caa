package config

// Game identifies which wager game a bet belongs to.
type Game string

const (
	Dice  Game = "dice"
	Poker Game = "poker"
)

// BalanceType labels the direction of a balance movement on the event
// channel: Income credits the player, Outcome debits.
type BalanceType string

const (
	Income  BalanceType = "income"
	Outcome BalanceType = "outcome"
)
