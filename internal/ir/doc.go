// Package ir provides the canonical comparable form of liturgy data.
//
// Steps are flattened into IRObject values and serialized with RFC 8785
// canonical JSON. Two documents are equal exactly when their canonical bytes
// are equal, which is what the dirty tracker and the conformance harness rely
// on.
//
// Key constraints:
//   - NO float types anywhere - orders and counts are int64
//   - NO null - absent optional fields are omitted from the object
//   - Strings are NFC normalized at the serialization boundary
//   - ir imports nothing internal
package ir
