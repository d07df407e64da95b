// Package cache provides pluggable byte caches for the layout pipeline:
// a directory-backed cache for CLI usage, a Redis-backed cache for server
// deployments, and a null cache for disabling caching entirely.
//
// Keys are built through a Keyer so every pipeline stage (imported graphs,
// computed layouts, rendered artifacts) derives its key the same way,
// including every option that affects the cached bytes.
package cache
