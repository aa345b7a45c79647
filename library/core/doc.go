// Package core contains the domain model of the library: books, users,
// the BookBorrowed/BookReturned ledger events and the error taxonomy.
//
// Nothing in here does I/O. Pure Decide and Project functions in the features packages
// work on these types; the shell package maps them to and from storable events.
package core
