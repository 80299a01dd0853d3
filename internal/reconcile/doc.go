// Package reconcile brings the remote step rows in line with an edited
// document.
//
// A commit runs in fixed phases:
//
//  1. validate every step (no gateway call on failure)
//  2. bulk delete the pending persisted ids, if any
//  3. bulk upsert every remaining step in one call; local steps go without
//     an id so the store assigns one
//  4. notify downstream consumers (failures are logged only)
//  5. list the rows again and re-baseline the document
//
// The delete must succeed before the upsert is issued. There is no
// transaction across the two calls: an upsert failure after a successful
// delete is reported as a severe CommitError and the user has to reload.
// Until the reload phase the document is never modified, so any failure
// before it can be retried as-is.
package reconcile
