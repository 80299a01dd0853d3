package reconcile

import (
	"github.com/roach88/liturgia/internal/document"
	"github.com/roach88/liturgia/internal/program"
)

// Plan is the remote mutation a commit will issue.
type Plan struct {
	LiturgyID string
	Deletes   []program.StepID
	Upserts   []program.Row
}

// Inserts counts upsert rows without an id.
func (p Plan) Inserts() int {
	n := 0
	for _, r := range p.Upserts {
		if r.IsInsert() {
			n++
		}
	}
	return n
}

// Updates counts upsert rows that carry an id.
func (p Plan) Updates() int {
	return len(p.Upserts) - p.Inserts()
}

// BuildPlan validates doc and derives the delete and upsert batches. Rows
// take their order from their position and their liturgy from the document.
// A stale document has no plan.
func BuildPlan(doc *document.Document) (Plan, error) {
	if doc.Stale() {
		return Plan{}, newStaleError(doc.LiturgyID())
	}
	steps := doc.Steps()

	var invalid []program.StepID
	for _, s := range steps {
		if !s.SaveEligible() {
			invalid = append(invalid, s.ID)
		}
	}
	if len(invalid) > 0 {
		return Plan{}, newValidationError(doc.LiturgyID(), invalid)
	}

	plan := Plan{
		LiturgyID: doc.LiturgyID(),
		Deletes:   doc.PendingDeletes(),
		Upserts:   make([]program.Row, 0, len(steps)),
	}
	for i, s := range steps {
		s.Order = i
		s.LiturgyID = doc.LiturgyID()
		row, err := s.Row()
		if err != nil {
			return Plan{}, err
		}
		plan.Upserts = append(plan.Upserts, row)
	}
	return plan, nil
}
