package program

import (
	"strings"

	"github.com/google/uuid"
)

// LocalIDPrefix marks ids minted in the editor that the store has never seen.
const LocalIDPrefix = "local-"

// StepID identifies a step, persisted or local-only.
type StepID string

// IsLocal reports whether the id was assigned client-side.
// Local steps are inserted on commit; their id is never sent to the store.
func (id StepID) IsLocal() bool {
	return strings.HasPrefix(string(id), LocalIDPrefix)
}

func (id StepID) String() string {
	return string(id)
}

// IDGenerator mints local step ids.
// Implemented by UUIDv7Generator (production) and testutil.FixedIDGenerator.
type IDGenerator interface {
	NewLocalID() StepID
}

// UUIDv7Generator mints "local-<uuidv7>" ids. Stateless and safe for
// concurrent use.
type UUIDv7Generator struct{}

// NewLocalID returns a fresh local id.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) NewLocalID() StepID {
	return StepID(LocalIDPrefix + uuid.Must(uuid.NewV7()).String())
}
