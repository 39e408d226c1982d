package testutil

import (
	"context"
	"time"

	"github.com/goldenreel/backend/internal/entity"
	"github.com/goldenreel/backend/internal/repository"
	"github.com/shopspring/decimal"
)

var (
	User1 = entity.User{
		Base:        entity.Base{ID: "user1"},
		WalletLogin: "player-one",
		Name:        "player-one",
	}

	User2 = entity.User{
		Base:        entity.Base{ID: "user2"},
		WalletLogin: "player-two",
		Name:        "player-two",
	}

	User3 = entity.User{
		Base:        entity.Base{ID: "user3"},
		WalletLogin: "player-three",
		Name:        "player-three",
	}

	Account1 = entity.Account{
		Base:     entity.Base{ID: "account1"},
		UserID:   User1.ID,
		Currency: "USD",
		Balance:  decimal.RequireFromString("100"),
	}

	Pool1 = entity.JackpotPool{
		Base:             entity.Base{ID: "pool1"},
		Name:             "mega-usd",
		Currency:         "USD",
		CurrentAmount:    decimal.RequireFromString("100000"),
		SeedAmount:       decimal.RequireFromString("10000"),
		ContributionRate: decimal.RequireFromString("0.01"),
		WagerPerTicket:   decimal.RequireFromString("10"),
		DrawNumber:       1,
		NextDrawAt:       time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:           entity.JackpotPoolActive,
	}

	GrandTier = entity.PrizeTier{
		Base:           entity.Base{ID: "tier-grand"},
		JackpotPoolID:  Pool1.ID,
		Tier:           entity.TierGrand,
		TierRank:       1,
		Positions:      1,
		PoolPercentage: decimal.RequireFromString("50"),
	}

	MajorTier = entity.PrizeTier{
		Base:           entity.Base{ID: "tier-major"},
		JackpotPoolID:  Pool1.ID,
		Tier:           entity.TierMajor,
		TierRank:       2,
		Positions:      3,
		PoolPercentage: decimal.RequireFromString("30"),
	}

	MinorTier = entity.PrizeTier{
		Base:           entity.Base{ID: "tier-minor"},
		JackpotPoolID:  Pool1.ID,
		Tier:           entity.TierMinor,
		TierRank:       3,
		Positions:      10,
		PoolPercentage: decimal.RequireFromString("20"),
	}
)

// CreateFixtureDb populates the mock context database with the sample
// users, an account, and an active jackpot pool with its tier config.
func CreateFixtureDb(ctx context.Context) {
	InsertUsers(ctx)
	InsertAccounts(ctx)
	InsertJackpotPool(ctx)
}

func InsertUsers(ctx context.Context) {
	userRepo := repository.NewUserRepository()

	for _, user := range []entity.User{User1, User2, User3} {
		u := user
		if err := userRepo.Create(ctx, &u); err != nil {
			panic(err)
		}
	}
}

func InsertAccounts(ctx context.Context) {
	accountRepo := repository.NewAccountRepository()

	account := Account1
	if err := accountRepo.Create(ctx, &account); err != nil {
		panic(err)
	}
}

func InsertJackpotPool(ctx context.Context) {
	jackpotRepo := repository.NewJackpotRepository()

	pool := Pool1
	if err := jackpotRepo.CreatePool(ctx, &pool); err != nil {
		panic(err)
	}

	for _, tier := range []entity.PrizeTier{GrandTier, MajorTier, MinorTier} {
		t := tier
		if err := jackpotRepo.CreatePrizeTier(ctx, &t); err != nil {
			panic(err)
		}
	}
}
