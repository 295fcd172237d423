// Package cache provides internal cache management for market data lookups.
// This package is internal and should not be imported by external projects.
//
// Two implementations share the Store interface: a Redis-backed Manager for
// deployments with shared state, and an in-process Memory store used when no
// Redis address is configured.
package cache
