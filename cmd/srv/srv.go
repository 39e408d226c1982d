package main

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goldenreel/backend/config"
	"github.com/goldenreel/backend/internal/domain"
	"github.com/goldenreel/backend/internal/domain/ledger"
	"github.com/goldenreel/backend/internal/repository"
	"github.com/goldenreel/backend/migration"
	"github.com/goldenreel/backend/pkg/kafka"
	"github.com/goldenreel/backend/pkg/logger"
	"github.com/goldenreel/backend/pkg/pubsub"
	"github.com/goldenreel/backend/pkg/router"
	"github.com/goldenreel/backend/pkg/xcontext"
	"github.com/goldenreel/backend/pkg/xredis"

	"github.com/urfave/cli/v2"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type srv struct {
	app *cli.App
	ctx context.Context

	configs *config.Configs
	logger  logger.Logger

	userRepo        repository.UserRepository
	accountRepo     repository.AccountRepository
	transactionRepo repository.TransactionRepository
	gameRoundRepo   repository.GameRoundRepository
	jackpotRepo     repository.JackpotRepository

	ledgerEngine  *ledger.Engine
	walletDomain  domain.WalletDomain
	jackpotDomain domain.JackpotDomain

	redisClient xredis.Client
	publisher   pubsub.Publisher

	router *router.Router
	server *http.Server
}

func (s *srv) loadConfig() {
	s.configs = &config.Configs{
		Env:             getEnv("ENV", "local"),
		LogLevel:        getEnv("LOG_LEVEL", "INFO"),
		SnowFlakeNodeID: getEnvInt64("SNOWFLAKE_NODE_ID", 0),
		ApiServer: config.ServerConfigs{
			Host: getEnv("API_HOST", "0.0.0.0"),
			Port: getEnv("API_PORT", "8080"),
		},
		PrometheusServer: config.ServerConfigs{
			Host: getEnv("PROMETHEUS_HOST", "0.0.0.0"),
			Port: getEnv("PROMETHEUS_PORT", "9000"),
		},
		Database: config.DatabaseConfigs{
			Host:     getEnv("MYSQL_HOST", "127.0.0.1"),
			Port:     getEnv("MYSQL_PORT", "3306"),
			Database: getEnv("MYSQL_DATABASE", "goldenreel"),
			User:     getEnv("MYSQL_USER", "goldenreel"),
			Password: getEnv("MYSQL_PASSWORD", ""),
		},
		Redis: config.RedisConfigs{
			Addr: getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		},
		Kafka: config.KafkaConfigs{
			Addr: getEnv("KAFKA_ADDR", "127.0.0.1:9092"),
		},
		Wallet: config.WalletConfigs{
			CallbackSecret: getEnv("WALLET_CALLBACK_SECRET", ""),
			AllowedIPs:     getEnvList("WALLET_ALLOWED_IPS"),
		},
		Jackpot: config.JackpotConfigs{
			DrawInterval:  getEnvDuration("JACKPOT_DRAW_INTERVAL", 7*24*time.Hour),
			CheckInterval: getEnvDuration("JACKPOT_CHECK_INTERVAL", time.Minute),
		},
	}

	s.logger = logger.NewLogger(logger.ParseLevel(s.configs.LogLevel))

	s.ctx = context.Background()
	s.ctx = xcontext.WithConfigs(s.ctx, *s.configs)
	s.ctx = xcontext.WithLogger(s.ctx, s.logger)
}

func (s *srv) newDatabase() *gorm.DB {
	db, err := gorm.Open(mysql.Open(s.configs.Database.ConnectionString()), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	return db
}

func (s *srv) migrateDB() {
	if err := migration.Migrate(s.ctx); err != nil {
		panic(err)
	}
}

func (s *srv) loadRedisClient() {
	redisClient, err := xredis.NewClient(s.ctx)
	if err != nil {
		panic(err)
	}

	s.redisClient = redisClient
}

func (s *srv) loadPublisher() {
	s.publisher = kafka.NewPublisher("goldenreel", []string{s.configs.Kafka.Addr})
}

func (s *srv) loadRepos() {
	s.userRepo = repository.NewUserRepository()
	s.accountRepo = repository.NewAccountRepository()
	s.transactionRepo = repository.NewTransactionRepository()
	s.gameRoundRepo = repository.NewGameRoundRepository()
	s.jackpotRepo = repository.NewJackpotRepository()
}

func (s *srv) loadDomains() {
	s.ledgerEngine = ledger.NewEngine(s.accountRepo, s.transactionRepo, s.publisher)
	s.jackpotDomain = domain.NewJackpotDomain(
		s.jackpotRepo, s.ledgerEngine, s.redisClient, s.publisher)
	s.walletDomain = domain.NewWalletDomain(
		s.userRepo, s.accountRepo, s.transactionRepo, s.gameRoundRepo,
		s.ledgerEngine, s.jackpotDomain)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		panic(err)
	}

	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		panic(err)
	}

	return d
}

func getEnvList(key string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	return parts
}
