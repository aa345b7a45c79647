// Package currentlyborrowed implements the Books Currently Borrowed query.
//
// A book is currently borrowed by a user if the latest ledger entry of that user for the
// book is a borrow. Titles are the ledger titles; callers resolve display titles.
package currentlyborrowed
