// Package users is the user registry: registration with bcrypt-hashed passwords and authentication.
//
// Usernames are trimmed and compared case-sensitively, "Alice" and "alice" are two users.
package users
