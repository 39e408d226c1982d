package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/goldenreel/backend/config"
	"github.com/goldenreel/backend/internal/entity"
	"github.com/goldenreel/backend/pkg/logger"
	"github.com/goldenreel/backend/pkg/xcontext"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var mockDBCounter int64

// NewMockContext returns a context carrying test configs, a quiet
// logger, and an in-memory sqlite database migrated to the latest
// schema. The database is named and shared-cache: a bare ":memory:"
// gives every pooled connection its own empty database.
func NewMockContext() context.Context {
	dsn := fmt.Sprintf("file:mockdb%d?mode=memory&cache=shared",
		atomic.AddInt64(&mockDBCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	cfg := config.Configs{
		Env:      "testing",
		LogLevel: "ERROR",
		Wallet: config.WalletConfigs{
			CallbackSecret: "callback-secret",
		},
		Jackpot: config.JackpotConfigs{
			DrawInterval:  7 * 24 * time.Hour,
			CheckInterval: time.Minute,
		},
	}

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, cfg)
	ctx = xcontext.WithLogger(ctx, logger.NewLogger(logger.ERROR))
	ctx = xcontext.WithDB(ctx, db)

	if err := entity.MigrateTable(ctx); err != nil {
		panic(err)
	}

	return ctx
}
