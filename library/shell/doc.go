// Package shell translates between the domain events of package core and the storable events
// of the event store, and provides the retry loop used by the command handlers.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would be
// called the 'infrastructure' layer.
package shell
