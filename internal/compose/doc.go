// Package compose runs rule implementations and checks the provider sets they
// return before an instance is built from them.
package compose
