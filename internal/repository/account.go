package repository

import (
	"context"

	"github.com/goldenreel/backend/internal/entity"
	"github.com/goldenreel/backend/pkg/xcontext"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AccountRepository interface {
	Create(ctx context.Context, account *entity.Account) error
	Upsert(ctx context.Context, account *entity.Account) error
	GetByID(ctx context.Context, id string) (*entity.Account, error)
	GetByUserCurrency(ctx context.Context, userID, currency string) (*entity.Account, error)
	GetByUserCurrencyForUpdate(ctx context.Context, userID, currency string) (*entity.Account, error)
	CheckAndSetBalance(ctx context.Context, id string, fromVersion int64, balance decimal.Decimal) error
}

type accountRepository struct{}

func NewAccountRepository() *accountRepository {
	return &accountRepository{}
}

func (r *accountRepository) Create(ctx context.Context, account *entity.Account) error {
	return xcontext.DB(ctx).Create(account).Error
}

// Upsert inserts the account unless a row for (user, currency) already
// exists. Losing the insert race is not an error.
func (r *accountRepository) Upsert(ctx context.Context, account *entity.Account) error {
	return xcontext.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "currency"}},
			DoNothing: true,
		}).Create(account).Error
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	var result entity.Account
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *accountRepository) GetByUserCurrency(
	ctx context.Context, userID, currency string,
) (*entity.Account, error) {
	var result entity.Account
	err := xcontext.DB(ctx).
		Take(&result, "user_id=? AND currency=?", userID, currency).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// GetByUserCurrencyForUpdate locks the account row until the enclosing
// transaction commits. Must be called inside a transaction.
func (r *accountRepository) GetByUserCurrencyForUpdate(
	ctx context.Context, userID, currency string,
) (*entity.Account, error) {
	var result entity.Account
	err := xcontext.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Take(&result, "user_id=? AND currency=?", userID, currency).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// CheckAndSetBalance writes the new balance only if the row version is
// still fromVersion, then bumps the version. A gorm.ErrRecordNotFound
// means another writer got there first and the caller must re-read.
func (r *accountRepository) CheckAndSetBalance(
	ctx context.Context, id string, fromVersion int64, balance decimal.Decimal,
) error {
	tx := xcontext.DB(ctx).
		Model(&entity.Account{}).
		Where("id=? AND version=?", id, fromVersion).
		Updates(map[string]interface{}{
			"balance": balance,
			"version": gorm.Expr("version+?", 1),
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
