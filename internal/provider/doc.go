// Package provider defines the closed set of capability records a rule
// instance can expose to its consumers.
//
// A record is a tagged variant: every concrete type implements Record and is
// identified by its Tag. Consumers ask for capabilities by tag, never by the
// identity of the rule that produced them, and can switch exhaustively over
// the concrete types because the interface is sealed to this package.
//
// Records are plain values. A Set copies records on the way in and on the way
// out, so a record held by a resolved instance is never mutated after the
// instance is published.
package provider
