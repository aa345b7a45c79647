// Package jsonengine implements the ledger's event store on top of a single JSON file.
//
// The file holds an array of records in append order:
//
//	[
//	  {
//	    "sequence_number": 1,
//	    "event_type": "BookBorrowed",
//	    "occurred_at": "2025-03-01T12:00:00.000001Z",
//	    "payload": {"username": "alice", "book_id": 7, "title": "Dune", "action": "borrowed", "datetime": "..."},
//	    "metadata": {"MessageID": "...", "CausationID": "...", "CorrelationID": "..."}
//	  }
//	]
//
// Every Append rewrites the file atomically (temp file + rename). Appends and queries of one
// EventStore value, and of all its copies, are serialized by a shared lock. The engine does
// not coordinate with other processes: only one process may write a ledger file at a time.
package jsonengine
