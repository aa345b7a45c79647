// Package recordreturn implements the Record Return use case.
//
// A return is recorded even when the user never borrowed the book. When the book is no longer in
// the catalog the command carries no title and Decide takes the title of the book's latest ledger
// entry instead.
package recordreturn
