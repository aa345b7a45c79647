// Package availablecopies implements the Copies Available query for one book.
package availablecopies
