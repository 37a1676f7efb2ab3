// Package cache provides in-memory TTL+LRU memoization for GTEx Portal
// operations, keyed by a canonical hash of the call signature, plus a
// manager aggregating statistics across named caches.
//
// Keys are the MD5 digest of a canonical JSON rendering of the call
// arguments. A 128-bit digest makes collisions between distinct canonical
// signatures assumed-negligible; they are not proven impossible.
package cache
