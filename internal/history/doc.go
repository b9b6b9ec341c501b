// Package history records resolved downloads in a SQLite store.
//
// The store is optional: when no path is configured the service runs without
// it and nothing is recorded. Only request descriptors are stored (page URL,
// title, chosen format, stream kind), never media bytes.
package history
