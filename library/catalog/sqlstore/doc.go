// Package sqlstore stores books and users in SQLite (mattn/go-sqlite3) or PostgreSQL (lib/pq).
//
// Statements are built with goqu for the selected dialect and executed with sqlx.
// The schema is versioned in a meta table and migrated on open.
package sqlstore
