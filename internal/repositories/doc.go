// Package repositories provides the persistent cache store backing the
// library resolver.
//
// The engine treats the store as a durable string-keyed map with an explicit
// flush: writes are buffered in memory and made durable as one transaction
// when [Store.Flush] is called. [CacheRepository] persists through SQLite;
// [MemoryStore] keeps everything in process for tests and hosts that provide
// their own persistence.
package repositories
