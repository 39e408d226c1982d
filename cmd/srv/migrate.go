package main

import (
	"github.com/goldenreel/backend/migration"
	"github.com/goldenreel/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startMigrate(cctx *cli.Context) error {
	s.loadConfig()
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())

	if cctx.Bool("sql") {
		return migration.MigrateSQL(s.ctx)
	}

	return migration.Migrate(s.ctx)
}
