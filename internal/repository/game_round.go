package repository

import (
	"context"

	"github.com/goldenreel/backend/internal/entity"
	"github.com/goldenreel/backend/pkg/xcontext"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GameRoundRepository interface {
	Upsert(ctx context.Context, round *entity.GameRound) error
	GetByID(ctx context.Context, id string) (*entity.GameRound, error)
	GetByUserRound(ctx context.Context, userID, roundReference string) (*entity.GameRound, error)
	AddBet(ctx context.Context, id string, amount decimal.Decimal) error
	AddWin(ctx context.Context, id string, amount decimal.Decimal) error
	SetStatus(ctx context.Context, id string, status entity.GameRoundStatus) error
	CreateAction(ctx context.Context, action *entity.RoundAction) error
	GetActions(ctx context.Context, gameRoundID string) ([]entity.RoundAction, error)
}

type gameRoundRepository struct{}

func NewGameRoundRepository() *gameRoundRepository {
	return &gameRoundRepository{}
}

// Upsert inserts the round unless a row for (user, round reference)
// already exists. Losing the insert race is not an error; callers
// re-read to get the canonical row.
func (r *gameRoundRepository) Upsert(ctx context.Context, round *entity.GameRound) error {
	return xcontext.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "round_reference"}},
			DoNothing: true,
		}).Create(round).Error
}

func (r *gameRoundRepository) GetByID(ctx context.Context, id string) (*entity.GameRound, error) {
	var result entity.GameRound
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *gameRoundRepository) GetByUserRound(
	ctx context.Context, userID, roundReference string,
) (*entity.GameRound, error) {
	var result entity.GameRound
	err := xcontext.DB(ctx).
		Take(&result, "user_id=? AND round_reference=?", userID, roundReference).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *gameRoundRepository) AddBet(ctx context.Context, id string, amount decimal.Decimal) error {
	tx := xcontext.DB(ctx).
		Model(&entity.GameRound{}).
		Where("id=?", id).
		Update("total_bet", gorm.Expr("total_bet+?", amount))
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *gameRoundRepository) AddWin(ctx context.Context, id string, amount decimal.Decimal) error {
	tx := xcontext.DB(ctx).
		Model(&entity.GameRound{}).
		Where("id=?", id).
		Update("total_win", gorm.Expr("total_win+?", amount))
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *gameRoundRepository) SetStatus(
	ctx context.Context, id string, status entity.GameRoundStatus,
) error {
	return xcontext.DB(ctx).
		Model(&entity.GameRound{}).
		Where("id=?", id).
		Update("status", status).Error
}

// CreateAction records one ledger transaction against a round. The
// unique index on transaction_id suppresses replays.
func (r *gameRoundRepository) CreateAction(ctx context.Context, action *entity.RoundAction) error {
	return xcontext.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "transaction_id"}},
			DoNothing: true,
		}).Create(action).Error
}

func (r *gameRoundRepository) GetActions(
	ctx context.Context, gameRoundID string,
) ([]entity.RoundAction, error) {
	var result []entity.RoundAction
	err := xcontext.DB(ctx).
		Where("game_round_id=?", gameRoundID).
		Order("id ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}
