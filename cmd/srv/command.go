package main

import "github.com/urfave/cli/v2"

func (s *srv) loadApp() {
	app := cli.NewApp()
	app.Action = cli.ShowAppHelp
	app.Name = "goldenreel"
	app.Usage = "Casino wallet ledger and progressive jackpot backend"
	app.Commands = []*cli.Command{
		{
			Action:      s.startApi,
			Name:        "api",
			Usage:       "Start the api service",
			Category:    "Api",
			Description: `Serves the provider wallet callback and the operational endpoints.`,
		},
		{
			Action:      s.startCron,
			Name:        "cron",
			Usage:       "Start the cron service",
			Category:    "Worker",
			Description: `Runs the scheduled jackpot draws.`,
		},
		{
			Action:   s.startMigrate,
			Name:     "migrate",
			Usage:    "Migrate the database schema",
			Category: "Database",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "sql",
					Usage: "apply the raw SQL migrations instead of the versioned Go migrators",
				},
			},
			Description: `Applies every pending schema version.`,
		},
	}

	s.app = app
}
