package entity

type User struct {
	Base

	// WalletLogin is the external id the game provider uses in wallet
	// callbacks. Users are created lazily on their first callback.
	WalletLogin string `gorm:"uniqueIndex;not null"`
	Name        string
}
