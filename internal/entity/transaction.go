package entity

import (
	"database/sql"

	"github.com/goldenreel/backend/pkg/enum"
	"github.com/shopspring/decimal"
)

type TransactionType string

var (
	TransactionDebit        = enum.New(TransactionType("debit"))
	TransactionCredit       = enum.New(TransactionType("credit"))
	TransactionRollback     = enum.New(TransactionType("rollback"))
	TransactionPromotionWin = enum.New(TransactionType("promotion_win"))
)

type TransactionSubtype string

var (
	SubtypeBet          = enum.New(TransactionSubtype("bet"))
	SubtypeWin          = enum.New(TransactionSubtype("win"))
	SubtypeRefund       = enum.New(TransactionSubtype("refund"))
	SubtypeJackpotGrand = enum.New(TransactionSubtype("jackpot_grand"))
	SubtypeJackpotMajor = enum.New(TransactionSubtype("jackpot_major"))
	SubtypeJackpotMinor = enum.New(TransactionSubtype("jackpot_minor"))
)

// Transaction is the append-only ledger row. Rows are never updated or
// deleted after commit; a rollback is a new row referencing the original
// through RollbackTID.
type Transaction struct {
	Base

	// TID is the provider-supplied idempotency key. The unique index is
	// what converts a concurrent replay into a duplicate result instead
	// of a double application.
	TID string `gorm:"column:tid;uniqueIndex;not null"`

	UserID string `gorm:"index;not null"`
	User   User   `gorm:"foreignKey:UserID"`

	Currency string             `gorm:"not null;size:8"`
	Type     TransactionType    `gorm:"not null"`
	Subtype  TransactionSubtype `gorm:"not null"`

	// Amount is signed: negative for debits, positive for credits.
	// BalanceAfter always equals BalanceBefore plus Amount.
	Amount        decimal.Decimal `gorm:"type:decimal(24,6);not null"`
	BalanceBefore decimal.Decimal `gorm:"type:decimal(24,6);not null"`
	BalanceAfter  decimal.Decimal `gorm:"type:decimal(24,6);not null"`

	GameRoundID sql.NullString
	GameRound   GameRound `gorm:"foreignKey:GameRoundID"`

	GameID   string
	ActionID string

	// RollbackTID references the TID of the transaction this row
	// reverses. Only set for rows of type rollback.
	RollbackTID sql.NullString `gorm:"column:rollback_tid"`
}
