package main

import (
	"net/http"

	"github.com/goldenreel/backend/internal/domain"
	"github.com/goldenreel/backend/internal/middleware"
	"github.com/goldenreel/backend/pkg/prometheus"
	"github.com/goldenreel/backend/pkg/router"
	"github.com/goldenreel/backend/pkg/xcontext"

	"github.com/urfave/cli/v2"
)

func (s *srv) startApi(*cli.Context) error {
	s.loadConfig()
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.migrateDB()
	s.loadRedisClient()
	s.loadPublisher()
	s.loadRepos()
	s.loadDomains()
	s.loadRouter()

	go func() {
		metricsServer := &http.Server{
			Addr:    s.configs.PrometheusServer.Address(),
			Handler: prometheus.NewHandler(),
		}

		s.logger.Infof("Starting metrics server on %s", s.configs.PrometheusServer.Address())
		if err := metricsServer.ListenAndServe(); err != nil {
			panic(err)
		}
	}()

	s.server = &http.Server{
		Addr:    s.configs.ApiServer.Address(),
		Handler: s.router.Handler(),
	}

	s.logger.Infof("Starting api server on %s", s.configs.ApiServer.Address())
	if err := s.server.ListenAndServe(); err != nil {
		panic(err)
	}

	return nil
}

func (s *srv) loadRouter() {
	s.router = router.New(xcontext.DB(s.ctx), *s.configs, s.logger)
	s.router.AddCloser(middleware.Logger())
	s.router.AddCloser(middleware.Prometheus())

	// Provider wallet callback. Signature and source checks run before
	// the domain; failures answer in the provider wire shape.
	providerRouter := s.router.Branch()
	providerRouter.Before(middleware.VerifyWalletCallback())
	{
		router.RawPOST(providerRouter, "/wallet/callback",
			s.walletDomain.Callback, domain.WalletErrorResponse)
	}

	// Operational endpoints. Deployments front these with network
	// policy; there is no RBAC here.
	opsRouter := s.router.Branch()
	{
		router.GET(opsRouter, "/wallet/balance", s.walletDomain.GetBalance)
		router.GET(opsRouter, "/wallet/transactions", s.walletDomain.GetTransactions)

		router.GET(opsRouter, "/jackpot/pool", s.jackpotDomain.GetPool)
		router.GET(opsRouter, "/jackpot/pools", s.jackpotDomain.GetPools)
		router.GET(opsRouter, "/jackpot/draws", s.jackpotDomain.GetDraws)
		router.GET(opsRouter, "/jackpot/winners", s.jackpotDomain.GetWinners)
		router.GET(opsRouter, "/jackpot/leaderboard", s.jackpotDomain.GetTicketLeaderboard)
		router.POST(opsRouter, "/jackpot/trigger", s.jackpotDomain.TriggerDraw)
		router.POST(opsRouter, "/jackpot/resume", s.jackpotDomain.ResumeDraw)
	}
}
