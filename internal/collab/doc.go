// Package collab defines the capabilities the record store consumes from
// its surroundings: a clock, a password hasher and an identifier
// generator. The core is constructed with implementations of these and
// never reaches for wall time, crypto or randomness on its own.
package collab
