package document

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/liturgia/internal/ir"
	"github.com/roach88/liturgia/internal/program"
)

var (
	ErrStepNotFound = errors.New("step not found")
	ErrUnknownField = errors.New("unknown field")
	ErrNotSongBlock = errors.New("step is not a song block")
)

// Field names a user-editable step field.
type Field string

const (
	FieldTitle          Field = "title"
	FieldDescription    Field = "description"
	FieldType           Field = "type"
	FieldAssignedPerson Field = "assigned_person"
)

// ParseField validates a field name.
func ParseField(s string) (Field, error) {
	switch f := Field(s); f {
	case FieldTitle, FieldDescription, FieldType, FieldAssignedPerson:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
}

// Document is the editable copy of one liturgy's steps.
type Document struct {
	liturgyID string
	ids       program.IDGenerator

	steps          []program.Step
	baseline       []program.Step
	baselinePrint  string
	pendingDeletes []program.StepID

	// stale is set when remote writes landed but the document was not
	// re-baselined from them. Cleared by Load.
	stale bool
}

// New returns an empty document for liturgyID. A nil ids uses
// program.UUIDv7Generator.
func New(liturgyID string, ids program.IDGenerator) *Document {
	if ids == nil {
		ids = program.UUIDv7Generator{}
	}
	d := &Document{liturgyID: liturgyID, ids: ids}
	d.Load(nil)
	return d
}

// Load replaces the document with steps and re-baselines it. Steps are sorted
// by order (ties broken by id) and renumbered densely before being cloned into
// both the working list and the baseline. Pending deletes are cleared.
func (d *Document) Load(steps []program.Step) {
	loaded := cloneSteps(steps)
	slices.SortStableFunc(loaded, func(a, b program.Step) int {
		return cmp.Or(cmp.Compare(a.Order, b.Order), cmp.Compare(a.ID, b.ID))
	})
	renumber(loaded)

	d.steps = loaded
	d.baseline = cloneSteps(loaded)
	d.baselinePrint = fingerprint(d.baseline)
	d.pendingDeletes = nil
	d.stale = false
}

// MarkStale records that the remote copy moved past the baseline: local ids
// and pending deletes may already be applied. A stale document must be
// loaded again before it can be committed.
func (d *Document) MarkStale() { d.stale = true }

// Stale reports whether MarkStale was called since the last Load.
func (d *Document) Stale() bool { return d.stale }

// LiturgyID returns the owning liturgy.
func (d *Document) LiturgyID() string { return d.liturgyID }

// Len returns the number of steps.
func (d *Document) Len() int { return len(d.steps) }

// Steps returns a deep copy of the working steps in order.
func (d *Document) Steps() []program.Step { return cloneSteps(d.steps) }

// Baseline returns a deep copy of the steps captured by the last Load.
func (d *Document) Baseline() []program.Step { return cloneSteps(d.baseline) }

// PendingDeletes returns the persisted ids removed since the last Load, in
// removal order.
func (d *Document) PendingDeletes() []program.StepID { return slices.Clone(d.pendingDeletes) }

// Step returns a copy of the step with the given id.
func (d *Document) Step(id program.StepID) (program.Step, bool) {
	i := d.indexOf(id)
	if i < 0 {
		return program.Step{}, false
	}
	return d.steps[i].Clone(), true
}

// AddStep appends a new local step and returns a copy of it.
func (d *Document) AddStep() program.Step {
	step := program.NewLocalStep(d.ids, d.liturgyID, len(d.steps))
	d.steps = append(d.steps, step)
	return step.Clone()
}

// UpdateStepField sets one field of a step. Titles are not validated here.
// For FieldAssignedPerson an empty value clears the assignment. Changing the
// type resets the content to the new type's empty variant.
func (d *Document) UpdateStepField(id program.StepID, field Field, value string) error {
	i := d.indexOf(id)
	if i < 0 {
		return fmt.Errorf("update %s: %w", id, ErrStepNotFound)
	}
	step := &d.steps[i]
	switch field {
	case FieldTitle:
		step.Title = value
	case FieldDescription:
		step.Description = value
	case FieldType:
		t, err := program.ParseStepType(value)
		if err != nil {
			return fmt.Errorf("update %s: %w", id, err)
		}
		step.SetType(t)
	case FieldAssignedPerson:
		if value == "" {
			step.AssignedPersonID = nil
		} else {
			step.AssignedPersonID = &value
		}
	default:
		return fmt.Errorf("update %s: %w: %q", id, ErrUnknownField, field)
	}
	return nil
}

// RemoveStep drops a step. A persisted id is queued for deletion; a local id
// is discarded.
func (d *Document) RemoveStep(id program.StepID) error {
	i := d.indexOf(id)
	if i < 0 {
		return fmt.Errorf("remove %s: %w", id, ErrStepNotFound)
	}
	steps := slices.Delete(slices.Clone(d.steps), i, i+1)
	renumber(steps)
	d.steps = steps

	if !id.IsLocal() && !slices.Contains(d.pendingDeletes, id) {
		d.pendingDeletes = append(d.pendingDeletes, id)
	}
	return nil
}

// AddSongToStep appends song to a song-block step. It returns false, leaving
// the step unchanged, when the song is already there.
func (d *Document) AddSongToStep(id program.StepID, song program.SongRef) (bool, error) {
	step, err := d.songBlockStep("add song to", id)
	if err != nil {
		return false, err
	}
	block, _ := step.Content.(program.SongBlock)
	block, added := block.With(song)
	if added {
		step.Content = block
	}
	return added, nil
}

// RemoveSongFromStep removes a song from a song-block step. Removing a song
// that is not there is a no-op.
func (d *Document) RemoveSongFromStep(id program.StepID, songID string) error {
	step, err := d.songBlockStep("remove song from", id)
	if err != nil {
		return err
	}
	block, _ := step.Content.(program.SongBlock)
	if block.Has(songID) {
		step.Content = block.Without(songID)
	}
	return nil
}

func (d *Document) songBlockStep(op string, id program.StepID) (*program.Step, error) {
	i := d.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("%s %s: %w", op, id, ErrStepNotFound)
	}
	if d.steps[i].Type != program.TypeSongBlock {
		return nil, fmt.Errorf("%s %s: %w", op, id, ErrNotSongBlock)
	}
	return &d.steps[i], nil
}

func (d *Document) indexOf(id program.StepID) int {
	return slices.IndexFunc(d.steps, func(s program.Step) bool { return s.ID == id })
}

// IsDirty reports whether there are pending deletes or the steps differ from
// the baseline in length, order, or any persistable field.
func (d *Document) IsDirty() bool {
	if len(d.pendingDeletes) > 0 {
		return true
	}
	if len(d.steps) != len(d.baseline) {
		return true
	}
	return fingerprint(d.steps) != d.baselinePrint
}

// Fingerprint returns the canonical fingerprint of the working steps.
func (d *Document) Fingerprint() string {
	return fingerprint(d.steps)
}

// fingerprint hashes the canonical form of steps. Canonical step forms hold
// only strings, ints and nested objects, so marshalling cannot fail for them;
// an error still yields a value that never matches a real fingerprint.
func fingerprint(steps []program.Step) string {
	objs := make([]ir.IRObject, len(steps))
	for i, s := range steps {
		objs[i] = s.Canonical()
	}
	fp, err := ir.DocumentFingerprint(objs)
	if err != nil {
		return "invalid:" + err.Error()
	}
	return fp
}

func cloneSteps(steps []program.Step) []program.Step {
	out := make([]program.Step, len(steps))
	for i, s := range steps {
		out[i] = s.Clone()
	}
	return out
}

func renumber(steps []program.Step) {
	for i := range steps {
		steps[i].Order = i
	}
}
