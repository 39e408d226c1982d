package entity

import (
	"context"

	"github.com/goldenreel/backend/pkg/xcontext"
)

// MigrateTable creates every table at the latest schema. Production uses
// the versioned runner in the migration package; this is for tests and
// fresh local databases.
func MigrateTable(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&User{},
		&Account{},
		&Transaction{},
		&GameRound{},
		&RoundAction{},
		&JackpotPool{},
		&PrizeTier{},
		&JackpotTicket{},
		&JackpotDraw{},
		&JackpotWinner{},
		&Migration{},
	)
}
