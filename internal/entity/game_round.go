package entity

import (
	"github.com/goldenreel/backend/pkg/enum"
	"github.com/shopspring/decimal"
)

type GameRoundStatus string

var (
	GameRoundActive     = enum.New(GameRoundStatus("active"))
	GameRoundCompleted  = enum.New(GameRoundStatus("completed"))
	GameRoundRolledBack = enum.New(GameRoundStatus("rolled_back"))
)

// GameRound groups the transactions of one provider round for one user.
// It is created by the first debit or credit naming a new round reference.
type GameRound struct {
	Base

	UserID string `gorm:"uniqueIndex:idx_game_rounds_user_round;not null"`
	User   User   `gorm:"foreignKey:UserID"`

	// RoundReference is the provider's round id, unique per user.
	RoundReference string `gorm:"uniqueIndex:idx_game_rounds_user_round;not null"`

	GameID string
	Status GameRoundStatus `gorm:"not null"`

	TotalBet decimal.Decimal `gorm:"type:decimal(24,6);not null;default:0"`
	TotalWin decimal.Decimal `gorm:"type:decimal(24,6);not null;default:0"`
}

// RoundAction links a committed transaction to its round. Exactly one row
// per transaction; replayed callbacks never add another.
type RoundAction struct {
	SnowFlakeBase

	GameRoundID string    `gorm:"index;not null"`
	GameRound   GameRound `gorm:"foreignKey:GameRoundID"`

	TransactionID string      `gorm:"uniqueIndex;not null"`
	Transaction   Transaction `gorm:"foreignKey:TransactionID"`

	ActionID   string
	ActionType TransactionType `gorm:"not null"`
}
