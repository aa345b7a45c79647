// Package catalog manages the book records of the library.
//
// Catalog validates input and delegates persistence to a Store. Store implementations live in
// the jsonstore, sqlstore and mongostore packages. Every store serializes its own writes, but
// only one process may write to a given backing store at a time.
package catalog
