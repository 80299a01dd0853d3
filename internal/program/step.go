package program

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/liturgia/internal/ir"
)

// DefaultStepTitle is the title given to a freshly added step.
const DefaultStepTitle = "New step"

// ErrTitleRequired is returned by Validate for a step with a blank title.
var ErrTitleRequired = errors.New("title is required")

// Step is one entry of a liturgy running order.
type Step struct {
	ID               StepID
	LiturgyID        string
	Order            int
	Title            string
	Description      string
	Type             StepType
	AssignedPersonID *string
	Content          Content
}

// NewLocalStep builds an unsaved step of type other at the given position.
func NewLocalStep(ids IDGenerator, liturgyID string, order int) Step {
	return Step{
		ID:        ids.NewLocalID(),
		LiturgyID: liturgyID,
		Order:     order,
		Title:     DefaultStepTitle,
		Type:      TypeOther,
		Content:   EmptyContent{},
	}
}

// Clone returns a deep copy.
func (s Step) Clone() Step {
	out := s
	if s.AssignedPersonID != nil {
		id := *s.AssignedPersonID
		out.AssignedPersonID = &id
	}
	if s.Content != nil {
		out.Content = s.Content.clone()
	}
	return out
}

// SaveEligible reports whether the step may be committed.
func (s Step) SaveEligible() bool {
	return strings.TrimSpace(s.Title) != ""
}

// Validate returns ErrTitleRequired when the step is not save-eligible.
func (s Step) Validate() error {
	if !s.SaveEligible() {
		return fmt.Errorf("step %s: %w", s.ID, ErrTitleRequired)
	}
	return nil
}

// Songs returns the songs of a song-block step, nil for any other type.
func (s Step) Songs() []SongRef {
	if b, ok := s.Content.(SongBlock); ok {
		return b.Songs
	}
	return nil
}

// SetType changes the type and resets content to the variant the new type
// requires. Songs are discarded when leaving song-block. Setting the current
// type again leaves content untouched.
func (s *Step) SetType(t StepType) {
	if s.Type == t && s.Content != nil {
		return
	}
	s.Type = t
	s.Content = ContentFor(t)
}

// Canonical returns the comparable form of every persistable field.
// A nil AssignedPersonID is omitted rather than encoded as null.
func (s Step) Canonical() ir.IRObject {
	content := ContentFor(s.Type).canonical()
	if s.Content != nil {
		content = s.Content.canonical()
	}
	obj := ir.IRObject{
		"id":          ir.IRString(s.ID),
		"liturgy_id":  ir.IRString(s.LiturgyID),
		"order":       ir.IRInt(s.Order),
		"title":       ir.IRString(s.Title),
		"description": ir.IRString(s.Description),
		"type":        ir.IRString(s.Type),
		"content":     content,
	}
	if s.AssignedPersonID != nil {
		obj["assigned_person_id"] = ir.IRString(*s.AssignedPersonID)
	}
	return obj
}

// Row is the persisted shape of a step. ID is empty for inserts.
type Row struct {
	ID               string          `json:"id,omitempty"`
	LiturgyID        string          `json:"liturgy_id"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Type             StepType        `json:"type"`
	Order            int             `json:"step_order"`
	AssignedPersonID *string         `json:"assigned_user_id"`
	Content          json.RawMessage `json:"content"`
}

// IsInsert reports whether the row has no id and the store must assign one.
func (r Row) IsInsert() bool {
	return r.ID == ""
}

// Row builds the persisted shape. Local ids are dropped so the store assigns
// a fresh persisted id.
func (s Step) Row() (Row, error) {
	content, err := MarshalContent(s.Content)
	if err != nil {
		return Row{}, fmt.Errorf("step %s: %w", s.ID, err)
	}
	row := Row{
		LiturgyID:   s.LiturgyID,
		Title:       s.Title,
		Description: s.Description,
		Type:        s.Type,
		Order:       s.Order,
		Content:     content,
	}
	if !s.ID.IsLocal() {
		row.ID = string(s.ID)
	}
	if s.AssignedPersonID != nil {
		id := *s.AssignedPersonID
		row.AssignedPersonID = &id
	}
	return row, nil
}

// StepFromRow decodes a persisted row.
func StepFromRow(r Row) (Step, error) {
	if r.ID == "" {
		return Step{}, fmt.Errorf("row without id")
	}
	t, err := ParseStepType(string(r.Type))
	if err != nil {
		return Step{}, fmt.Errorf("row %s: %w", r.ID, err)
	}
	content, err := DecodeContent(t, r.Content)
	if err != nil {
		return Step{}, fmt.Errorf("row %s: %w", r.ID, err)
	}
	step := Step{
		ID:          StepID(r.ID),
		LiturgyID:   r.LiturgyID,
		Order:       r.Order,
		Title:       r.Title,
		Description: r.Description,
		Type:        t,
		Content:     content,
	}
	if r.AssignedPersonID != nil {
		id := *r.AssignedPersonID
		step.AssignedPersonID = &id
	}
	return step, nil
}

// StepsFromRows decodes rows in the order given.
func StepsFromRows(rows []Row) ([]Step, error) {
	steps := make([]Step, 0, len(rows))
	for _, r := range rows {
		s, err := StepFromRow(r)
		if err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, nil
}
