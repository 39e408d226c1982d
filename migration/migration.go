package migration

import (
	"context"
	"errors"
	"sort"

	"github.com/goldenreel/backend/internal/entity"
	"github.com/goldenreel/backend/pkg/xcontext"
	"gorm.io/gorm"
)

// Migrators maps a schema version to the function applying it. Versions
// run in lexicographic order; each applied version is recorded so
// restarts skip it.
var Migrators = map[string]func(context.Context) error{
	"0000": migrate0000,
}

// Migrate applies every version not yet recorded in the migrations
// table, oldest first.
func Migrate(ctx context.Context) error {
	if err := xcontext.DB(ctx).AutoMigrate(&entity.Migration{}); err != nil {
		return err
	}

	versions := make([]string, 0, len(Migrators))
	for version := range Migrators {
		versions = append(versions, version)
	}
	sort.Strings(versions)

	for _, version := range versions {
		var applied entity.Migration
		err := xcontext.DB(ctx).Take(&applied, "version=?", version).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		xcontext.Logger(ctx).Infof("Applying migration %s", version)
		if err := Migrators[version](ctx); err != nil {
			return err
		}

		err = xcontext.DB(ctx).Create(&entity.Migration{Version: version}).Error
		if err != nil {
			return err
		}
	}

	return nil
}
