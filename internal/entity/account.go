package entity

import "github.com/shopspring/decimal"

// Account is the balance record for one (user, currency) pair. It is
// written only by the ledger; the version counter increases on every
// successful write and guards against lost updates.
type Account struct {
	Base

	UserID string `gorm:"uniqueIndex:idx_accounts_user_currency;not null"`
	User   User   `gorm:"foreignKey:UserID"`

	Currency string `gorm:"uniqueIndex:idx_accounts_user_currency;not null;size:8"`

	Balance      decimal.Decimal `gorm:"type:decimal(24,6);not null;default:0"`
	BonusBalance decimal.Decimal `gorm:"type:decimal(24,6);not null;default:0"`
	LockedBonus  decimal.Decimal `gorm:"type:decimal(24,6);not null;default:0"`

	Version int64 `gorm:"not null;default:0"`
}
