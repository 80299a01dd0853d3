// Package store is the SQLite persistence behind the liturgy editor.
//
// It implements the step gateway used by the reconciler (ListSteps,
// BulkDelete, BulkUpsert), the song catalog source, and the surrounding
// records the editor reads: liturgies, profiles and notifications.
//
// # Step rows
//
//   - ListSteps orders by step_order ASC, id ASC COLLATE BINARY
//   - BulkDelete removes all ids in one statement inside one transaction
//   - BulkUpsert writes every row in one transaction; rows without an id
//     are inserted with a freshly generated id
//   - step_order is not unique at the database level; density is the
//     editor's job
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// The driver is github.com/mattn/go-sqlite3. Building with -tags purego
// switches to modernc.org/sqlite, which needs no cgo.
package store
