// Package borrowhistory implements the Borrow History query: all ledger entries, or those of one user,
// in chronological order.
package borrowhistory
