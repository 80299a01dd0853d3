// Package document holds the working copy of a liturgy program while it is
// being edited.
//
// A Document keeps three things: the steps as currently edited, the baseline
// captured by the last Load, and the persisted ids of steps removed since
// then. Every mutation leaves step orders dense (0..n-1, matching position).
// IsDirty compares canonical fingerprints of steps and baseline, so it is
// safe to call after every edit.
//
// A Document is not safe for concurrent use; the editor session serializes
// access to it.
package document
