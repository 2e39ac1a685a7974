// Package resilience provides retry and circuit breaker primitives used to
// guard calls to external services, primarily the generative model API.
// The circuit breaker prevents hammering a provider that is already failing;
// the retrier handles transient errors with exponential backoff and jitter.
package resilience
