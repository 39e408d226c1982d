package repository

import (
	"context"

	"github.com/goldenreel/backend/internal/entity"
	"github.com/goldenreel/backend/pkg/xcontext"
	"gorm.io/gorm/clause"
)

type TransactionRepository interface {
	Create(ctx context.Context, tx *entity.Transaction) error
	GetByTID(ctx context.Context, tid string) (*entity.Transaction, error)
	GetByTIDForUpdate(ctx context.Context, tid string) (*entity.Transaction, error)
	GetByUserID(ctx context.Context, userID string, offset, limit int) ([]entity.Transaction, error)
	GetByGameRoundID(ctx context.Context, gameRoundID string) ([]entity.Transaction, error)
}

type transactionRepository struct{}

func NewTransactionRepository() *transactionRepository {
	return &transactionRepository{}
}

func (r *transactionRepository) Create(ctx context.Context, tx *entity.Transaction) error {
	return xcontext.DB(ctx).Create(tx).Error
}

func (r *transactionRepository) GetByTID(ctx context.Context, tid string) (*entity.Transaction, error) {
	var result entity.Transaction
	if err := xcontext.DB(ctx).Take(&result, "tid=?", tid).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

// GetByTIDForUpdate reads the row with a locking read, which sees rows
// committed after the enclosing transaction's snapshot began. Must be
// called inside a transaction.
func (r *transactionRepository) GetByTIDForUpdate(
	ctx context.Context, tid string,
) (*entity.Transaction, error) {
	var result entity.Transaction
	err := xcontext.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Take(&result, "tid=?", tid).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *transactionRepository) GetByUserID(
	ctx context.Context, userID string, offset, limit int,
) ([]entity.Transaction, error) {
	var result []entity.Transaction
	err := xcontext.DB(ctx).
		Where("user_id=?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *transactionRepository) GetByGameRoundID(
	ctx context.Context, gameRoundID string,
) ([]entity.Transaction, error) {
	var result []entity.Transaction
	err := xcontext.DB(ctx).
		Where("game_round_id=?", gameRoundID).
		Order("created_at ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}
