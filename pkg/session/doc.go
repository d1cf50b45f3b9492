// Package session owns the persisted per-session conversation state: the
// bounded exchange history and the at-most-one pending command proposal.
//
// The backing store is an embedded sqlite table. No other package touches the
// persisted representation; the confirmation state machine borrows a session's
// context for the duration of one request through the Store's serialized
// read-modify-write operations.
package session
