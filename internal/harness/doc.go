// Package harness runs conformance scenarios against the editor stack.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: remove-then-insert
//	description: "A removed step is deleted before the new step is inserted"
//	liturgy: {id: sunday, title: "Sunday service", date: "2026-10-18"}
//	songs:
//	  - {id: s1, title: Hosana, artist: Hillsong}
//	steps:
//	  - {id: a, title: Welcome, type: other}
//	  - {id: b, title: Worship, type: song-block, songs: [s1]}
//	fail:
//	  - {call: bulk_upsert, error: "connection reset"}
//	operations:
//	  - remove: {step: a}
//	  - add_step: {title: Offering, type: offering}
//	  - commit: {}
//	assertions:
//	  dirty: true
//	  pending_deletes: [a]
//	  remote_titles: [Worship]
//	  call_order: [list_steps, bulk_delete, bulk_upsert]
//	  commit_error: UPSERT_FAILED
//
// Operations use the edit script vocabulary of package script. Failure
// injections are armed before the session opens, so the initial list_steps
// counts towards skip. A failure with times: N fails only N calls.
//
// # Deterministic Testing
//
// Each scenario runs against a fresh in-memory SQLite store with sequential
// persisted ids (step-0001, step-0002, ...) and local ids (local-1, ...).
// Every gateway and notifier call goes through a testutil.RecordingGateway;
// the recorded calls form the trace that golden files pin down.
package harness
