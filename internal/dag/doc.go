// Package dag provides a small concurrency-safe directed graph used to track
// which in-progress work waits on which, so that a wait which would close a
// loop can be refused instead of blocking forever.
package dag
