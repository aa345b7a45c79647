// Package library wires the catalog, the user registry, the ledger and the cover image store
// for the configured backends into one owned object.
//
// Open acquires the writer lock of the data directory when a file backend is configured, so only
// one process at a time writes to it; Open fails with ErrDataDirLocked otherwise. Shared databases
// (postgres, mongo) are not locked: running more than one writer against them is the operator's
// responsibility. Within a process all methods are safe for concurrent use.
package library

import (
	"context"
	"errors"
	"fmt"

	"github.com/AntonStoeckl/library-ledger-go/eventstore/jsonengine"
	"github.com/AntonStoeckl/library-ledger-go/eventstore/postgresengine"
	"github.com/AntonStoeckl/library-ledger-go/library/catalog"
	catalogjson "github.com/AntonStoeckl/library-ledger-go/library/catalog/jsonstore"
	"github.com/AntonStoeckl/library-ledger-go/library/catalog/mongostore"
	"github.com/AntonStoeckl/library-ledger-go/library/catalog/sqlstore"
	"github.com/AntonStoeckl/library-ledger-go/library/imagestore"
	"github.com/AntonStoeckl/library-ledger-go/library/ledger"
	"github.com/AntonStoeckl/library-ledger-go/library/shell"
	"github.com/AntonStoeckl/library-ledger-go/library/shell/config"
	"github.com/AntonStoeckl/library-ledger-go/library/users"
	usersjson "github.com/AntonStoeckl/library-ledger-go/library/users/jsonstore"
)

const (
	logMsgOpened       = "library opened"
	logMsgClosed       = "library closed"
	logAttrCatalog     = "catalog_backend"
	logAttrLedger      = "ledger_backend"
	logAttrStrict      = "strict_availability"
	logAttrImages      = "image_backend"
	logAttrDataDir     = "data_dir"
	logAttrCloseErrors = "close_errors"
)

// Library owns every store of the application. Create it with Open and release it with Close.
type Library struct {
	Catalog *catalog.Catalog
	Users   *users.Registry
	Ledger  *ledger.Ledger
	Images  imagestore.Store

	lock    *dirLock
	closers []func(context.Context) error
	logger  shell.Logger
}

// eventStore is implemented by both ledger engines.
type eventStore = ledger.EventStore

// Open builds the Library for cfg. logger may be nil.
func Open(ctx context.Context, cfg config.Config, logger shell.Logger) (lib *Library, err error) {
	if err = cfg.Validate(); err != nil {
		return nil, err
	}

	lib = &Library{logger: logger}

	defer func() {
		if err != nil {
			_ = lib.Close(context.WithoutCancel(ctx))
			lib = nil
		}
	}()

	if cfg.UsesDataDir() {
		if lib.lock, err = acquireDirLock(cfg.DataDir); err != nil {
			return lib, err
		}
	}

	bookStore, userStore, err := lib.openCatalogStores(ctx, cfg)
	if err != nil {
		return lib, err
	}

	events, err := lib.openEventStore(ctx, cfg)
	if err != nil {
		return lib, err
	}

	if lib.Images, err = openImageStore(ctx, cfg); err != nil {
		return lib, err
	}

	if lib.Catalog, err = catalog.New(bookStore, catalog.WithDefaultCopies(cfg.DefaultCopies), catalog.WithLogger(logger)); err != nil {
		return lib, err
	}

	if lib.Users, err = users.NewRegistry(userStore, users.WithBcryptCost(cfg.BcryptCost), users.WithLogger(logger)); err != nil {
		return lib, err
	}

	lib.Ledger, err = ledger.New(
		events,
		lib.Catalog,
		ledger.WithStrictAvailability(cfg.StrictAvailability),
		ledger.WithLogger(logger),
	)
	if err != nil {
		return lib, err
	}

	if logger != nil {
		logger.Info(
			logMsgOpened,
			logAttrCatalog, cfg.CatalogBackend,
			logAttrLedger, cfg.LedgerBackend,
			logAttrImages, cfg.ImageBackend,
			logAttrStrict, cfg.StrictAvailability,
			logAttrDataDir, cfg.DataDir,
		)
	}

	return lib, nil
}

// Close releases every resource in reverse order of acquisition, the data directory lock last.
// It is safe to call Close more than once.
func (l *Library) Close(ctx context.Context) error {
	var errs []error

	for i := len(l.closers) - 1; i >= 0; i-- {
		if err := l.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}

	l.closers = nil

	if err := l.lock.release(); err != nil {
		errs = append(errs, err)
	}

	l.lock = nil

	err := errors.Join(errs...)

	if l.logger != nil {
		l.logger.Info(logMsgClosed, logAttrCloseErrors, len(errs))
	}

	return err
}

func (l *Library) openCatalogStores(ctx context.Context, cfg config.Config) (catalog.Store, users.Store, error) {
	switch cfg.CatalogBackend {
	case config.BackendSQLite:
		store, err := sqlstore.OpenSQLite(ctx, cfg.SQLitePath, sqlstore.WithLogger(l.logger))
		if err != nil {
			return nil, nil, err
		}

		l.closers = append(l.closers, func(context.Context) error { return store.Close() })

		return store, store, nil

	case config.BackendPostgres:
		db, err := config.PostgresSQLXDB(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}

		store, err := sqlstore.New(ctx, db, sqlstore.DialectPostgres, sqlstore.WithLogger(l.logger))
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}

		l.closers = append(l.closers, func(context.Context) error { return store.Close() })

		return store, store, nil

	case config.BackendMongo:
		store, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDB, mongostore.WithLogger(l.logger))
		if err != nil {
			return nil, nil, err
		}

		l.closers = append(l.closers, store.Close)

		return store, store, nil

	default:
		books, err := catalogjson.New(cfg.BooksFile, catalogjson.WithLogger(l.logger))
		if err != nil {
			return nil, nil, err
		}

		accounts, err := usersjson.New(cfg.UsersFile, l.logger)
		if err != nil {
			return nil, nil, err
		}

		return books, accounts, nil
	}
}

func (l *Library) openEventStore(ctx context.Context, cfg config.Config) (eventStore, error) {
	if cfg.LedgerBackend != config.BackendPostgres {
		return jsonengine.NewEventStore(cfg.LedgerFile, jsonengine.WithLogger(l.logger))
	}

	var (
		es  postgresengine.EventStore
		err error
	)

	switch cfg.PostgresDriver {
	case config.DriverSQL:
		db, openErr := config.PostgresSQLDB(ctx, cfg.PostgresDSN)
		if openErr != nil {
			return nil, openErr
		}

		l.closers = append(l.closers, func(context.Context) error { return db.Close() })
		es, err = postgresengine.NewEventStoreFromSQLDB(db, postgresengine.WithLogger(l.logger))

	case config.DriverSQLX:
		db, openErr := config.PostgresSQLXDB(ctx, cfg.PostgresDSN)
		if openErr != nil {
			return nil, openErr
		}

		l.closers = append(l.closers, func(context.Context) error { return db.Close() })
		es, err = postgresengine.NewEventStoreFromSQLX(db, postgresengine.WithLogger(l.logger))

	default:
		pool, openErr := config.PostgresPGXPool(ctx, cfg.PostgresDSN)
		if openErr != nil {
			return nil, openErr
		}

		l.closers = append(l.closers, func(context.Context) error { pool.Close(); return nil })

		if cfg.PostgresReplicaDSN == "" {
			es, err = postgresengine.NewEventStoreFromPGXPool(pool, postgresengine.WithLogger(l.logger))
			break
		}

		replica, openErr := config.PostgresPGXPool(ctx, cfg.PostgresReplicaDSN)
		if openErr != nil {
			return nil, openErr
		}

		l.closers = append(l.closers, func(context.Context) error { replica.Close(); return nil })
		es, err = postgresengine.NewEventStoreFromPGXPoolAndReplica(pool, replica, postgresengine.WithLogger(l.logger))
	}

	if err != nil {
		return nil, err
	}

	if err = es.InitializeSchema(ctx); err != nil {
		return nil, err
	}

	return es, nil
}

func openImageStore(ctx context.Context, cfg config.Config) (imagestore.Store, error) {
	if cfg.ImageBackend == config.BackendS3 {
		store, err := imagestore.NewS3(ctx, imagestore.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("open s3 image store: %w", err)
		}

		return store, nil
	}

	return imagestore.NewLocal(cfg.ImageDir)
}
