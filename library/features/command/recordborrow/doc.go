// Package recordborrow implements the Record Borrow use case.
//
// It follows the Query -> Unmarshal -> Decide -> Append workflow. The event stream of one book
// is the consistency boundary: the append carries the max sequence number that Decide saw, so a
// concurrent borrow of the same book fails with eventstore.ErrConcurrencyConflict and is retried.
//
// Without strict availability every borrow is recorded. With strict availability a borrow is
// refused when all copies of the book are held by users, the borrower included. While a copy is left,
// a user who already holds the book borrows it idempotently.
package recordborrow
