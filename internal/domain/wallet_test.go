package domain

import (
	"context"
	"testing"

	"github.com/goldenreel/backend/internal/domain/ledger"
	"github.com/goldenreel/backend/internal/entity"
	"github.com/goldenreel/backend/internal/model"
	"github.com/goldenreel/backend/internal/repository"
	"github.com/goldenreel/backend/pkg/testutil"
	"github.com/goldenreel/backend/pkg/xcontext"
	"github.com/goldenreel/backend/pkg/xredis"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestWalletDomain(redisClient xredis.Client) *walletDomain {
	engine := ledger.NewEngine(
		repository.NewAccountRepository(),
		repository.NewTransactionRepository(),
		&testutil.MockPublisher{},
	)
	jackpotDomain := NewJackpotDomain(
		repository.NewJackpotRepository(), engine, redisClient, &testutil.MockPublisher{})

	return NewWalletDomain(
		repository.NewUserRepository(),
		repository.NewAccountRepository(),
		repository.NewTransactionRepository(),
		repository.NewGameRoundRepository(),
		engine,
		jackpotDomain,
	)
}

func Test_walletDomain_Callback_Balance(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	walletDomain := newTestWalletDomain(&testutil.MockRedisClient{})

	// A first-time login is created on the fly with a zero balance.
	resp, err := walletDomain.Callback(ctx, &model.WalletCallbackRequest{
		Action:   model.WalletActionBalance,
		Login:    "newcomer",
		Currency: "USD",
	})
	require.NoError(t, err)
	require.Equal(t, model.WalletResultOK, resp.Result)
	require.Equal(t, "0", resp.Balance)

	user, err := repository.NewUserRepository().GetByWalletLogin(ctx, "newcomer")
	require.NoError(t, err)
	require.Equal(t, "newcomer", user.WalletLogin)

	resp, err = walletDomain.Callback(ctx, &model.WalletCallbackRequest{
		Action:   model.WalletActionBalance,
		Login:    testutil.User1.WalletLogin,
		Currency: "USD",
	})
	require.NoError(t, err)
	require.Equal(t, model.WalletResultOK, resp.Result)
	require.Equal(t, "100", resp.Balance)
}

func Test_walletDomain_Callback_DebitIdempotent(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)

	cachedTickets := int64(0)
	walletDomain := newTestWalletDomain(&testutil.MockRedisClient{
		ZIncrByFunc: func(ctx context.Context, key string, incr int64, member string) error {
			cachedTickets += incr
			return nil
		},
	})

	req := &model.WalletCallbackRequest{
		Action:      model.WalletActionDebit,
		Login:       testutil.User1.WalletLogin,
		Currency:    "USD",
		Amount:      "10",
		TID:         "bet1",
		GameID:      "game-7",
		ActionID:    "action-1",
		GameRoundID: "round-1",
	}

	resp, err := walletDomain.Callback(ctx, req)
	require.NoError(t, err)
	require.Equal(t, model.WalletResultOK, resp.Result)
	require.Equal(t, "90", resp.Balance)
	require.Equal(t, "bet1", resp.TID)

	// The bet accrued one ticket and raked one percent into the pool.
	pool, err := repository.NewJackpotRepository().GetPoolByID(ctx, testutil.Pool1.ID)
	require.NoError(t, err)
	require.True(t, pool.CurrentAmount.Equal(decimal.RequireFromString("100000.1")))
	require.Equal(t, int64(1), pool.IssuedTickets)
	require.Equal(t, int64(1), cachedTickets)

	round, err := repository.NewGameRoundRepository().
		GetByUserRound(ctx, testutil.User1.ID, "round-1")
	require.NoError(t, err)
	require.True(t, round.TotalBet.Equal(decimal.RequireFromString("10")))

	actions, err := repository.NewGameRoundRepository().GetActions(ctx, round.ID)
	require.NoError(t, err)
	require.Len(t, actions, 1)

	// A provider retry replays the same result and adds nothing: no
	// round action, no ticket, no contribution.
	resp, err = walletDomain.Callback(ctx, req)
	require.NoError(t, err)
	require.Equal(t, model.WalletResultOK, resp.Result)
	require.Equal(t, "90", resp.Balance)

	pool, err = repository.NewJackpotRepository().GetPoolByID(ctx, testutil.Pool1.ID)
	require.NoError(t, err)
	require.True(t, pool.CurrentAmount.Equal(decimal.RequireFromString("100000.1")))
	require.Equal(t, int64(1), pool.IssuedTickets)
	require.Equal(t, int64(1), cachedTickets)

	actions, err = repository.NewGameRoundRepository().GetActions(ctx, round.ID)
	require.NoError(t, err)
	require.Len(t, actions, 1)

	round, err = repository.NewGameRoundRepository().
		GetByUserRound(ctx, testutil.User1.ID, "round-1")
	require.NoError(t, err)
	require.True(t, round.TotalBet.Equal(decimal.RequireFromString("10")))
}

func Test_walletDomain_Callback_InsufficientFunds(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	walletDomain := newTestWalletDomain(&testutil.MockRedisClient{})

	resp, err := walletDomain.Callback(ctx, &model.WalletCallbackRequest{
		Action:      model.WalletActionDebit,
		Login:       testutil.User1.WalletLogin,
		Currency:    "USD",
		Amount:      "1000",
		TID:         "bet-too-big",
		GameRoundID: "round-1",
	})
	require.NoError(t, err)
	require.Equal(t, model.WalletResultInsufficientFunds, resp.Result)
	require.Equal(t, "100", resp.Balance)

	var count int64
	require.NoError(t, xcontext.DB(ctx).
		Model(&entity.Transaction{}).Where("tid=?", "bet-too-big").Count(&count).Error)
	require.Zero(t, count)
}

func Test_walletDomain_Callback_CreditAndRollback(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	walletDomain := newTestWalletDomain(&testutil.MockRedisClient{})

	resp, err := walletDomain.Callback(ctx, &model.WalletCallbackRequest{
		Action:      model.WalletActionDebit,
		Login:       testutil.User1.WalletLogin,
		Currency:    "USD",
		Amount:      "40",
		TID:         "bet1",
		GameRoundID: "round-1",
	})
	require.NoError(t, err)
	require.Equal(t, "60", resp.Balance)

	resp, err = walletDomain.Callback(ctx, &model.WalletCallbackRequest{
		Action:      model.WalletActionCredit,
		Login:       testutil.User1.WalletLogin,
		Currency:    "USD",
		Amount:      "25",
		TID:         "win1",
		GameRoundID: "round-1",
	})
	require.NoError(t, err)
	require.Equal(t, model.WalletResultOK, resp.Result)
	require.Equal(t, "85", resp.Balance)

	round, err := repository.NewGameRoundRepository().
		GetByUserRound(ctx, testutil.User1.ID, "round-1")
	require.NoError(t, err)
	require.Equal(t, entity.GameRoundCompleted, round.Status)
	require.True(t, round.TotalWin.Equal(decimal.RequireFromString("25")))

	// A rollback reverses the referenced bet; its net effect together
	// with the original is zero.
	resp, err = walletDomain.Callback(ctx, &model.WalletCallbackRequest{
		Action:      model.WalletActionCredit,
		Login:       testutil.User1.WalletLogin,
		Currency:    "USD",
		TID:         "rb1",
		GameRoundID: "round-1",
		Rollback:    "bet1",
	})
	require.NoError(t, err)
	require.Equal(t, model.WalletResultOK, resp.Result)
	require.Equal(t, "125", resp.Balance)

	round, err = repository.NewGameRoundRepository().
		GetByUserRound(ctx, testutil.User1.ID, "round-1")
	require.NoError(t, err)
	require.Equal(t, entity.GameRoundRolledBack, round.Status)

	// Reversing an unknown transaction reports the dedicated code.
	resp, err = walletDomain.Callback(ctx, &model.WalletCallbackRequest{
		Action:   model.WalletActionCredit,
		Login:    testutil.User1.WalletLogin,
		Currency: "USD",
		TID:      "rb2",
		Rollback: "no-such-bet",
	})
	require.NoError(t, err)
	require.Equal(t, model.WalletResultUnknownTransaction, resp.Result)
}

func Test_walletDomain_Callback_MalformedRequest(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	walletDomain := newTestWalletDomain(&testutil.MockRedisClient{})

	for _, req := range []*model.WalletCallbackRequest{
		{Action: "spin", Login: testutil.User1.WalletLogin, Currency: "USD"},
		{Action: model.WalletActionDebit, Login: "", Currency: "USD", Amount: "1", TID: "x"},
		{Action: model.WalletActionDebit, Login: "p", Currency: "USDT", Amount: "1", TID: "x"},
		{Action: model.WalletActionDebit, Login: "p", Currency: "USD", Amount: "1", TID: ""},
		{Action: model.WalletActionDebit, Login: "p", Currency: "USD", Amount: "-1", TID: "x"},
		{Action: model.WalletActionCredit, Login: "p", Currency: "USD", Amount: "nope", TID: "x"},
	} {
		resp, err := walletDomain.Callback(ctx, req)
		require.NoError(t, err)
		require.Equal(t, model.WalletResultInvalidRequest, resp.Result)
	}
}
