// Package postgresengine provides a PostgreSQL implementation of the ledger's event store.
//
// The same EventStore can be built on top of a pgxpool.Pool, a sql.DB (lib/pq) or a sqlx.DB.
// Appends are a single INSERT ... SELECT guarded by a CTE over the Filter, so the concurrency check
// and the insert happen atomically in the database.
//
// Usage:
//
//	pool, _ := pgxpool.New(ctx, dsn)
//	store, _ := postgresengine.NewEventStoreFromPGXPool(
//		pool,
//		postgresengine.WithTableName("ledger_events"),
//		postgresengine.WithLogger(slog.Default()),
//	)
//	_ = store.InitializeSchema(ctx)
//
//	events, maxSeq, _ := store.Query(ctx, filter)
//	err := store.Append(ctx, filter, maxSeq, newEvent)
package postgresengine
