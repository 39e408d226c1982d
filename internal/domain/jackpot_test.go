package domain

import (
	"context"
	"testing"
	"time"

	"github.com/goldenreel/backend/internal/domain/ledger"
	"github.com/goldenreel/backend/internal/entity"
	"github.com/goldenreel/backend/internal/model"
	"github.com/goldenreel/backend/internal/repository"
	"github.com/goldenreel/backend/pkg/errorx"
	"github.com/goldenreel/backend/pkg/pubsub"
	"github.com/goldenreel/backend/pkg/testutil"
	"github.com/goldenreel/backend/pkg/xcontext"
	"github.com/goldenreel/backend/pkg/xredis"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestJackpotDomain(
	redisClient xredis.Client, publisher pubsub.Publisher,
) *jackpotDomain {
	engine := ledger.NewEngine(
		repository.NewAccountRepository(),
		repository.NewTransactionRepository(),
		&testutil.MockPublisher{},
	)

	return NewJackpotDomain(repository.NewJackpotRepository(), engine, redisClient, publisher)
}

func issueTickets(
	t *testing.T, ctx context.Context, jackpotDomain *jackpotDomain, userID, wager string,
) int64 {
	txCtx := xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(txCtx)

	_, count, err := jackpotDomain.AccrueWager(
		txCtx, userID, "USD", decimal.RequireFromString(wager))
	require.NoError(t, err)
	require.NoError(t, xcontext.CommitDBTransaction(txCtx))

	return count
}

func Test_jackpotDomain_AccrueWager(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	jackpotDomain := newTestJackpotDomain(&testutil.MockRedisClient{}, &testutil.MockPublisher{})

	// 25 wagered at 10 per ticket earns two tickets; the remainder is
	// not carried over.
	require.Equal(t, int64(2), issueTickets(t, ctx, jackpotDomain, testutil.User1.ID, "25"))
	require.Equal(t, int64(3), issueTickets(t, ctx, jackpotDomain, testutil.User2.ID, "35"))

	pool, err := jackpotDomain.jackpotRepo.GetPoolByID(ctx, testutil.Pool1.ID)
	require.NoError(t, err)
	require.True(t, pool.CurrentAmount.Equal(decimal.RequireFromString("100000.6")))
	require.Equal(t, int64(5), pool.IssuedTickets)

	tickets, err := jackpotDomain.jackpotRepo.GetEligibleTickets(ctx, testutil.Pool1.ID)
	require.NoError(t, err)
	require.Len(t, tickets, 5)
	for i, ticket := range tickets {
		require.Equal(t, int64(i+1), ticket.TicketNumber)
	}
	require.Equal(t, testutil.User1.ID, tickets[0].UserID)
	require.Equal(t, testutil.User2.ID, tickets[2].UserID)

	// No pool carries EUR, the wager passes through untouched.
	txCtx := xcontext.WithDBTransaction(ctx)
	poolID, count, err := jackpotDomain.AccrueWager(
		txCtx, testutil.User1.ID, "EUR", decimal.RequireFromString("50"))
	require.NoError(t, err)
	require.NoError(t, xcontext.CommitDBTransaction(txCtx))
	require.Empty(t, poolID)
	require.Zero(t, count)
}

func Test_jackpotDomain_TriggerDraw_SettlesPool(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)

	deletedKeys := []string{}
	publishedTopics := []string{}
	jackpotDomain := newTestJackpotDomain(
		&testutil.MockRedisClient{
			DelFunc: func(ctx context.Context, keys ...string) error {
				deletedKeys = append(deletedKeys, keys...)
				return nil
			},
		},
		&testutil.MockPublisher{
			PublishFunc: func(ctx context.Context, topic string, pack *pubsub.Pack) error {
				publishedTopics = append(publishedTopics, topic)
				return nil
			},
		},
	)

	// 100 tickets over three players, 1000 raked into the 100000 pool.
	issueTickets(t, ctx, jackpotDomain, testutil.User1.ID, "400")
	issueTickets(t, ctx, jackpotDomain, testutil.User2.ID, "400")
	issueTickets(t, ctx, jackpotDomain, testutil.User3.ID, "200")

	resp, err := jackpotDomain.TriggerDraw(ctx, &model.TriggerJackpotDrawRequest{
		PoolName: testutil.Pool1.Name,
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.DrawID)

	draw, err := jackpotDomain.jackpotRepo.GetDrawByID(ctx, resp.DrawID)
	require.NoError(t, err)
	require.Equal(t, int64(2), draw.DrawNumber)
	require.Equal(t, int64(100), draw.TotalTickets)
	require.Equal(t, 14, draw.TotalWinners)
	require.True(t, draw.TotalPoolAmount.Equal(decimal.RequireFromString("100010")))

	winners, err := jackpotDomain.jackpotRepo.GetWinnersByDrawID(ctx, resp.DrawID)
	require.NoError(t, err)
	require.Len(t, winners, 14)

	// One grand at half the pool, three majors, ten minors; every
	// winning ticket is distinct; every prize is paid.
	tierCounts := map[entity.JackpotTier]int{}
	drawnNumbers := map[int64]bool{}
	prizeTotal := decimal.Zero
	for _, winner := range winners {
		tierCounts[winner.Tier]++
		require.False(t, drawnNumbers[winner.WinningTicketNumber])
		drawnNumbers[winner.WinningTicketNumber] = true
		require.True(t, winner.PrizeCredited)
		require.True(t, winner.CreditedTransactionID.Valid)
		prizeTotal = prizeTotal.Add(winner.PrizeAmount)

		switch winner.Tier {
		case entity.TierGrand:
			require.True(t, winner.PrizeAmount.Equal(decimal.RequireFromString("50005")))
		case entity.TierMajor:
			require.True(t, winner.PrizeAmount.Equal(decimal.RequireFromString("10001")))
		case entity.TierMinor:
			require.True(t, winner.PrizeAmount.Equal(decimal.RequireFromString("2000.2")))
		}
	}
	require.Equal(t, 1, tierCounts[entity.TierGrand])
	require.Equal(t, 3, tierCounts[entity.TierMajor])
	require.Equal(t, 10, tierCounts[entity.TierMinor])
	require.True(t, prizeTotal.Equal(decimal.RequireFromString("100010")))

	var payments []entity.Transaction
	require.NoError(t, xcontext.DB(ctx).
		Where("type=?", entity.TransactionPromotionWin).Find(&payments).Error)
	require.Len(t, payments, 14)

	// The pool rolled forward: reseeded, rescheduled, tickets consumed.
	pool, err := jackpotDomain.jackpotRepo.GetPoolByID(ctx, testutil.Pool1.ID)
	require.NoError(t, err)
	require.Equal(t, entity.JackpotPoolActive, pool.Status)
	require.Equal(t, int64(2), pool.DrawNumber)
	require.True(t, pool.CurrentAmount.Equal(testutil.Pool1.SeedAmount))
	require.True(t, pool.NextDrawAt.After(time.Now()))

	eligible, err := jackpotDomain.jackpotRepo.CountEligibleTickets(ctx, testutil.Pool1.ID)
	require.NoError(t, err)
	require.Zero(t, eligible)

	require.Len(t, deletedKeys, 1)
	require.Equal(t, []string{model.JackpotDrawTopic}, publishedTopics)
}

func Test_jackpotDomain_TriggerDraw_NoTickets(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	jackpotDomain := newTestJackpotDomain(&testutil.MockRedisClient{}, &testutil.MockPublisher{})

	_, err := jackpotDomain.TriggerDraw(ctx, &model.TriggerJackpotDrawRequest{
		PoolName: testutil.Pool1.Name,
	})

	errx := errorx.Error{}
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.NoEligibleTickets, errx.Code)

	// The pool is rescheduled, not drained.
	pool, err := jackpotDomain.jackpotRepo.GetPoolByID(ctx, testutil.Pool1.ID)
	require.NoError(t, err)
	require.Equal(t, entity.JackpotPoolActive, pool.Status)
	require.True(t, pool.NextDrawAt.After(time.Now()))
	require.True(t, pool.CurrentAmount.Equal(testutil.Pool1.CurrentAmount))
}

func Test_jackpotDomain_TriggerDraw_AlreadyDrawing(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	jackpotDomain := newTestJackpotDomain(&testutil.MockRedisClient{}, &testutil.MockPublisher{})

	issueTickets(t, ctx, jackpotDomain, testutil.User1.ID, "100")
	require.NoError(t, jackpotDomain.jackpotRepo.CheckAndStartDrawing(ctx, testutil.Pool1.ID))

	_, err := jackpotDomain.TriggerDraw(ctx, &model.TriggerJackpotDrawRequest{
		PoolName: testutil.Pool1.Name,
	})

	errx := errorx.Error{}
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.DrawInProgress, errx.Code)
}

func Test_jackpotDomain_TriggerDraw_FewerTicketsThanPositions(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	jackpotDomain := newTestJackpotDomain(&testutil.MockRedisClient{}, &testutil.MockPublisher{})

	// Five tickets, fourteen prize positions. The draw records the
	// winners it actually has, not the configured position count.
	require.Equal(t, int64(5), issueTickets(t, ctx, jackpotDomain, testutil.User1.ID, "50"))

	resp, err := jackpotDomain.TriggerDraw(ctx, &model.TriggerJackpotDrawRequest{
		PoolName: testutil.Pool1.Name,
	})
	require.NoError(t, err)

	draw, err := jackpotDomain.jackpotRepo.GetDrawByID(ctx, resp.DrawID)
	require.NoError(t, err)
	require.Equal(t, int64(5), draw.TotalTickets)
	require.Equal(t, 5, draw.TotalWinners)

	winners, err := jackpotDomain.jackpotRepo.GetWinnersByDrawID(ctx, resp.DrawID)
	require.NoError(t, err)
	require.Len(t, winners, 5)

	// Tiers fill in order until the tickets run out: the grand and the
	// three majors are paid, only one minor is.
	tierCounts := map[entity.JackpotTier]int{}
	for _, winner := range winners {
		tierCounts[winner.Tier]++
		require.True(t, winner.PrizeCredited)
	}
	require.Equal(t, 1, tierCounts[entity.TierGrand])
	require.Equal(t, 3, tierCounts[entity.TierMajor])
	require.Equal(t, 1, tierCounts[entity.TierMinor])

	pool, err := jackpotDomain.jackpotRepo.GetPoolByID(ctx, testutil.Pool1.ID)
	require.NoError(t, err)
	require.Equal(t, entity.JackpotPoolActive, pool.Status)
	require.Equal(t, int64(2), pool.DrawNumber)
}

func Test_jackpotDomain_ResumeDraw_WinnerlessDraw(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	jackpotDomain := newTestJackpotDomain(&testutil.MockRedisClient{}, &testutil.MockPublisher{})

	issueTickets(t, ctx, jackpotDomain, testutil.User1.ID, "500")
	issueTickets(t, ctx, jackpotDomain, testutil.User2.ID, "500")

	// A draw that died right after its record committed: status stuck in
	// drawing, a seeded draw row, no winners persisted.
	require.NoError(t, jackpotDomain.jackpotRepo.CheckAndStartDrawing(ctx, testutil.Pool1.ID))
	pool, err := jackpotDomain.jackpotRepo.GetPoolByID(ctx, testutil.Pool1.ID)
	require.NoError(t, err)

	draw := &entity.JackpotDraw{
		Base:            entity.Base{ID: uuid.NewString()},
		JackpotPoolID:   pool.ID,
		DrawNumber:      pool.DrawNumber + 1,
		TotalPoolAmount: pool.CurrentAmount,
		TotalTickets:    100,
		TotalWinners:    14,
		RandomSeed:      424242,
		DrawnAt:         time.Now(),
	}
	require.NoError(t, jackpotDomain.jackpotRepo.CreateDraw(ctx, draw))

	tiers, err := jackpotDomain.jackpotRepo.GetPrizeTiers(ctx, pool.ID)
	require.NoError(t, err)
	tickets, err := jackpotDomain.jackpotRepo.GetEligibleTickets(ctx, pool.ID)
	require.NoError(t, err)
	expected := selectWinners(draw, tiers, tickets)

	resp, err := jackpotDomain.ResumeDraw(ctx, &model.ResumeJackpotDrawRequest{DrawID: draw.ID})
	require.NoError(t, err)
	require.Equal(t, 14, resp.CreditedWinners)

	// The seed re-derives exactly the winners the dead run had chosen.
	winners, err := jackpotDomain.jackpotRepo.GetWinnersByDrawID(ctx, draw.ID)
	require.NoError(t, err)
	require.Len(t, winners, len(expected))
	for i := range winners {
		require.Equal(t, expected[i].WinningTicketNumber, winners[i].WinningTicketNumber)
		require.Equal(t, expected[i].UserID, winners[i].UserID)
		require.Equal(t, expected[i].Tier, winners[i].Tier)
		require.True(t, expected[i].PrizeAmount.Equal(winners[i].PrizeAmount))
		require.True(t, winners[i].PrizeCredited)
	}

	pool, err = jackpotDomain.jackpotRepo.GetPoolByID(ctx, testutil.Pool1.ID)
	require.NoError(t, err)
	require.Equal(t, entity.JackpotPoolActive, pool.Status)
	require.Equal(t, int64(2), pool.DrawNumber)
}

func Test_jackpotDomain_ResumeDraw_SettledDrawIsNoop(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	jackpotDomain := newTestJackpotDomain(&testutil.MockRedisClient{}, &testutil.MockPublisher{})

	issueTickets(t, ctx, jackpotDomain, testutil.User1.ID, "300")

	resp, err := jackpotDomain.TriggerDraw(ctx, &model.TriggerJackpotDrawRequest{
		PoolName: testutil.Pool1.Name,
	})
	require.NoError(t, err)

	var paymentsBefore int64
	require.NoError(t, xcontext.DB(ctx).Model(&entity.Transaction{}).
		Where("type=?", entity.TransactionPromotionWin).Count(&paymentsBefore).Error)

	resumeResp, err := jackpotDomain.ResumeDraw(ctx, &model.ResumeJackpotDrawRequest{
		DrawID: resp.DrawID,
	})
	require.NoError(t, err)
	require.Zero(t, resumeResp.CreditedWinners)

	var paymentsAfter int64
	require.NoError(t, xcontext.DB(ctx).Model(&entity.Transaction{}).
		Where("type=?", entity.TransactionPromotionWin).Count(&paymentsAfter).Error)
	require.Equal(t, paymentsBefore, paymentsAfter)
}

func Test_selectWinners_Deterministic(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	jackpotDomain := newTestJackpotDomain(&testutil.MockRedisClient{}, &testutil.MockPublisher{})

	issueTickets(t, ctx, jackpotDomain, testutil.User1.ID, "250")
	issueTickets(t, ctx, jackpotDomain, testutil.User2.ID, "250")

	tiers, err := jackpotDomain.jackpotRepo.GetPrizeTiers(ctx, testutil.Pool1.ID)
	require.NoError(t, err)
	tickets, err := jackpotDomain.jackpotRepo.GetEligibleTickets(ctx, testutil.Pool1.ID)
	require.NoError(t, err)

	draw := &entity.JackpotDraw{
		Base:            entity.Base{ID: "draw1"},
		JackpotPoolID:   testutil.Pool1.ID,
		TotalPoolAmount: decimal.RequireFromString("100050"),
		RandomSeed:      7,
	}

	first := selectWinners(draw, tiers, tickets)
	second := selectWinners(draw, tiers, tickets)
	require.Len(t, first, 14)
	require.Len(t, second, 14)
	for i := range first {
		require.Equal(t, first[i].WinningTicketNumber, second[i].WinningTicketNumber)
		require.Equal(t, first[i].UserID, second[i].UserID)
	}

	// A different seed reorders the selection.
	draw.RandomSeed = 8
	third := selectWinners(draw, tiers, tickets)
	different := false
	for i := range first {
		if first[i].WinningTicketNumber != third[i].WinningTicketNumber {
			different = true
			break
		}
	}
	require.True(t, different)
}

func Test_jackpotDomain_ExecuteDueDraws(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	jackpotDomain := newTestJackpotDomain(&testutil.MockRedisClient{}, &testutil.MockPublisher{})

	issueTickets(t, ctx, jackpotDomain, testutil.User1.ID, "100")

	// The fixture pool is due since 2023.
	jackpotDomain.ExecuteDueDraws(ctx)

	pool, err := jackpotDomain.jackpotRepo.GetPoolByID(ctx, testutil.Pool1.ID)
	require.NoError(t, err)
	require.Equal(t, entity.JackpotPoolActive, pool.Status)
	require.Equal(t, int64(2), pool.DrawNumber)

	draw, err := jackpotDomain.jackpotRepo.GetLastDrawByPool(ctx, testutil.Pool1.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), draw.DrawNumber)
}
