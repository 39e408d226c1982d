package repository_test

import (
	"testing"

	"github.com/goldenreel/backend/internal/entity"
	"github.com/goldenreel/backend/internal/repository"
	"github.com/goldenreel/backend/pkg/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func Test_accountRepository_CheckAndSetBalance(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	accountRepo := repository.NewAccountRepository()

	account, err := accountRepo.GetByID(ctx, testutil.Account1.ID)
	require.NoError(t, err)
	require.Zero(t, account.Version)

	err = accountRepo.CheckAndSetBalance(
		ctx, account.ID, account.Version, decimal.RequireFromString("80"))
	require.NoError(t, err)

	account, err = accountRepo.GetByID(ctx, testutil.Account1.ID)
	require.NoError(t, err)
	require.True(t, account.Balance.Equal(decimal.RequireFromString("80")))
	require.Equal(t, int64(1), account.Version)

	// A write carrying a stale version must lose, leaving the row as the
	// winner left it.
	err = accountRepo.CheckAndSetBalance(ctx, account.ID, 0, decimal.RequireFromString("999"))
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	account, err = accountRepo.GetByID(ctx, testutil.Account1.ID)
	require.NoError(t, err)
	require.True(t, account.Balance.Equal(decimal.RequireFromString("80")))
	require.Equal(t, int64(1), account.Version)
}

func Test_accountRepository_Upsert(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	accountRepo := repository.NewAccountRepository()

	// Losing the (user, currency) insert race is not an error and does
	// not touch the existing row.
	err := accountRepo.Upsert(ctx, &entity.Account{
		Base:     entity.Base{ID: "account-duplicate"},
		UserID:   testutil.User1.ID,
		Currency: "USD",
		Balance:  decimal.RequireFromString("777"),
	})
	require.NoError(t, err)

	account, err := accountRepo.GetByUserCurrency(ctx, testutil.User1.ID, "USD")
	require.NoError(t, err)
	require.Equal(t, testutil.Account1.ID, account.ID)
	require.True(t, account.Balance.Equal(decimal.RequireFromString("100")))
}
