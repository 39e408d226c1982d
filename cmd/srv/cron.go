package main

import (
	"github.com/goldenreel/backend/internal/domain/cron"
	"github.com/goldenreel/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startCron(*cli.Context) error {
	s.loadConfig()
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.migrateDB()
	s.loadRedisClient()
	s.loadPublisher()
	s.loadRepos()
	s.loadDomains()

	cronJobManager := cron.NewCronJobManager()
	cronJobManager.Start(s.ctx,
		cron.NewJackpotDrawCronJob(s.jackpotDomain, s.configs.Jackpot.CheckInterval),
	)

	return nil
}
