package repository

import (
	"context"

	"github.com/goldenreel/backend/internal/entity"
	"github.com/goldenreel/backend/pkg/xcontext"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	Upsert(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByWalletLogin(ctx context.Context, login string) (*entity.User, error)
}

type userRepository struct{}

func NewUserRepository() *userRepository {
	return &userRepository{}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	return xcontext.DB(ctx).Create(user).Error
}

// Upsert inserts the user unless another row already owns the wallet
// login. Losing the insert race is not an error; callers re-read by
// login to get the canonical row.
func (r *userRepository) Upsert(ctx context.Context, user *entity.User) error {
	return xcontext.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "wallet_login"}},
			DoNothing: true,
		}).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var result entity.User
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *userRepository) GetByWalletLogin(ctx context.Context, login string) (*entity.User, error) {
	var result entity.User
	if err := xcontext.DB(ctx).Take(&result, "wallet_login=?", login).Error; err != nil {
		return nil, err
	}

	return &result, nil
}
