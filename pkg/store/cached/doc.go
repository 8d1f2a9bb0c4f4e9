// Package cached wraps a store.Store with an in-memory read-through cache for
// Find. Saves write through and prime the cache. FindAll is never cached.
package cached
