// Package program defines the entities of a liturgy running order.
//
// A liturgy is an ordered list of typed steps. Each step has a Content
// payload whose variant is fixed by the step type: only song-block steps
// carry songs, every other type carries EmptyContent. The sum type makes a
// reading step with a stale song list unrepresentable.
//
// Step identity comes in two flavours. Persisted ids are assigned by the
// store. Local ids are minted by an IDGenerator when a step is created in the
// editor; they carry the LocalIDPrefix and are never written to the store.
package program
