// Package factory wires configuration to concrete infrastructure. It is the
// only place that knows which store drivers exist.
package factory

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/contentops/content-core/internal/config"
	"github.com/contentops/content-core/internal/store"
	"github.com/contentops/content-core/internal/store/postgres"
	"github.com/contentops/content-core/internal/store/sqlite"
)

// NewStore opens the store backend selected by cfg.DBDriver. The returned
// close func releases the underlying connection pool.
func NewStore(cfg *config.Config, log zerolog.Logger) (store.Store, func() error, error) {
	switch cfg.DBDriver {
	case "postgres":
		db, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		log.Debug().Str("driver", cfg.DBDriver).Msg("store opened")
		return postgres.NewWithDB(db), db.Close, nil

	case "sqlite":
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.Debug().Str("driver", cfg.DBDriver).Str("path", cfg.SQLitePath).Msg("store opened")
		return sqlite.NewWithDB(db), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}
