// Package resolver turns (rule, attributes, platform) requests into shared,
// immutable rule instances.
//
// Every distinct configuration is composed at most once per Resolver. The
// first request for a key starts the composition; later and concurrent
// requests for the same key wait for it and receive the same instance, or the
// same error. Dependency attributes are resolved recursively with the
// requesting platform, in parallel, and each producer is checked for the
// provider tags its consumer requires.
//
// A request that would depend on itself, directly or through other in-flight
// compositions, fails with a *CycleError instead of blocking.
package resolver
