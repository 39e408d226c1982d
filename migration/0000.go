package migration

import (
	"context"

	"github.com/goldenreel/backend/internal/entity"
	"github.com/goldenreel/backend/pkg/xcontext"
)

// migrate0000 creates the database at the latest schema.
func migrate0000(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&entity.User{},
		&entity.Account{},
		&entity.Transaction{},
		&entity.GameRound{},
		&entity.RoundAction{},
		&entity.JackpotPool{},
		&entity.PrizeTier{},
		&entity.JackpotTicket{},
		&entity.JackpotDraw{},
		&entity.JackpotWinner{},
	)
}
