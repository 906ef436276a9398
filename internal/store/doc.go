// Package store implements the durable series stores behind the range cache.
//
// Every backend persists a whole series per key and replaces prior content
// atomically:
//   - FileStore: one CSV file per key, written to a temp file and renamed
//   - PostgresStore: rows in price_samples, replaced inside one transaction
//   - RedisStore: one CSV-encoded value per key
//
// CachedStore keeps an in-process copy of recently used series in front of any of
// them. Content that exists but cannot be parsed is reported as *model.StorageError,
// never as an empty series.
//
// Column contract (stable across the life of a file):
//
//	interval_start_utc, interval_end_utc, location, location_type, market, price
package store
