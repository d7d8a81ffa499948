package storage

import (
	"context"
	"fmt"

	"github.com/yourname/snusquit/internal"
	"github.com/yourname/snusquit/internal/config"
)

// New opens the backend selected by cfg.DBType. It returns a nil Store and a
// nil error when the mongo backend has no DATABASE_URL configured.
func New(ctx context.Context, cfg *config.Config, logger internal.Logger) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.DBType {
	case config.BackendMongo:
		if cfg.MongoURI == "" {
			logger.Warn("storage: DATABASE_URL not set, running without a store")
			return nil, nil
		}
		s, err = openStore(NewMongoStorage(ctx, cfg.MongoURI, cfg.MongoDB, logger))
	case config.BackendPostgres:
		s, err = openStore(NewPostgresStorage(ctx, cfg.PostgresDSN, logger))
	case config.BackendSQLite:
		s, err = openStore(NewSQLiteStorage(cfg.SQLitePath, logger))
	case config.BackendFile:
		s, err = openStore(NewFileStorage(cfg.DataDir, logger))
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.DBType)
	}
	if err != nil {
		return nil, err
	}
	logger.Infof("storage: using %s backend", s.Name())
	return s, nil
}

// openStore keeps a typed nil pointer from leaking out as a non-nil Store.
func openStore[S Store](s S, err error) (Store, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
