package document

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/liturgia/internal/program"
	"github.com/roach88/liturgia/internal/testutil"
)

func persisted(id, title string, order int) program.Step {
	return program.Step{
		ID:        program.StepID(id),
		LiturgyID: "lit-1",
		Order:     order,
		Title:     title,
		Type:      program.TypeOther,
		Content:   program.EmptyContent{},
	}
}

func songBlock(id string, order int, songs ...program.SongRef) program.Step {
	s := persisted(id, "Worship", order)
	s.Type = program.TypeSongBlock
	s.Content = program.SongBlock{Songs: songs}
	return s
}

func loaded(t *testing.T, steps ...program.Step) *Document {
	t.Helper()
	d := New("lit-1", testutil.NewFixedIDGenerator())
	d.Load(steps)
	return d
}

func requireDense(t *testing.T, d *Document) {
	t.Helper()
	for i, s := range d.Steps() {
		require.Equal(t, i, s.Order, "step %s at index %d", s.ID, i)
	}
}

func titles(steps []program.Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.Title
	}
	return out
}

func TestLoad_SortsAndDensifies(t *testing.T) {
	d := loaded(t,
		persisted("c", "Third", 7),
		persisted("a", "First", 0),
		persisted("b", "Second", 3),
	)

	assert.Equal(t, []string{"First", "Second", "Third"}, titles(d.Steps()))
	requireDense(t, d)
	assert.False(t, d.IsDirty())
}

func TestLoad_BaselineIsIndependentCopy(t *testing.T) {
	input := []program.Step{songBlock("a", 0, program.SongRef{ID: "s1"})}
	d := loaded(t, input...)

	input[0].Title = "mutated by caller"
	input[0].Content.(program.SongBlock).Songs[0].Title = "mutated"

	assert.Equal(t, "Worship", d.Baseline()[0].Title)
	assert.Equal(t, "", d.Steps()[0].Songs()[0].Title)
	assert.False(t, d.IsDirty())
}

func TestLoad_ClearsPendingDeletes(t *testing.T) {
	d := loaded(t, persisted("a", "A", 0))
	require.NoError(t, d.RemoveStep("a"))
	require.True(t, d.IsDirty())

	d.Load([]program.Step{persisted("b", "B", 0)})
	assert.Empty(t, d.PendingDeletes())
	assert.False(t, d.IsDirty())
}

func TestAddStep(t *testing.T) {
	d := loaded(t, persisted("a", "A", 0))

	step := d.AddStep()
	assert.Equal(t, program.StepID("local-1"), step.ID)
	assert.Equal(t, 1, step.Order)
	assert.Equal(t, program.TypeOther, step.Type)
	assert.Equal(t, "lit-1", step.LiturgyID)
	assert.Equal(t, 2, d.Len())
	assert.True(t, d.IsDirty())
}

func TestUpdateStepField(t *testing.T) {
	d := loaded(t, persisted("a", "A", 0))

	require.NoError(t, d.UpdateStepField("a", FieldTitle, ""))
	require.NoError(t, d.UpdateStepField("a", FieldDescription, "John 3:16"))
	require.NoError(t, d.UpdateStepField("a", FieldType, "reading"))
	require.NoError(t, d.UpdateStepField("a", FieldAssignedPerson, "p1"))

	step, ok := d.Step("a")
	require.True(t, ok)
	assert.Equal(t, "", step.Title, "no validation at this layer")
	assert.Equal(t, "John 3:16", step.Description)
	assert.Equal(t, program.TypeReading, step.Type)
	require.NotNil(t, step.AssignedPersonID)
	assert.Equal(t, "p1", *step.AssignedPersonID)

	require.NoError(t, d.UpdateStepField("a", FieldAssignedPerson, ""))
	step, _ = d.Step("a")
	assert.Nil(t, step.AssignedPersonID)
}

func TestUpdateStepField_Errors(t *testing.T) {
	d := loaded(t, persisted("a", "A", 0))

	assert.ErrorIs(t, d.UpdateStepField("missing", FieldTitle, "x"), ErrStepNotFound)
	assert.ErrorIs(t, d.UpdateStepField("a", Field("colour"), "x"), ErrUnknownField)
	assert.Error(t, d.UpdateStepField("a", FieldType, "sermon"))
	assert.False(t, d.IsDirty(), "failed updates leave the document untouched")
}

func TestUpdateStepField_TypeChangeDropsSongs(t *testing.T) {
	d := loaded(t, songBlock("a", 0, program.SongRef{ID: "s1"}))

	require.NoError(t, d.UpdateStepField("a", FieldType, "prayer"))
	require.NoError(t, d.UpdateStepField("a", FieldType, "song-block"))

	step, _ := d.Step("a")
	assert.Empty(t, step.Songs())
	assert.True(t, d.IsDirty())
}

func TestUpdateThenRevertIsClean(t *testing.T) {
	d := loaded(t, persisted("a", "A", 0))

	require.NoError(t, d.UpdateStepField("a", FieldTitle, "B"))
	assert.True(t, d.IsDirty())
	require.NoError(t, d.UpdateStepField("a", FieldTitle, "A"))
	assert.False(t, d.IsDirty())
}

func TestRemoveStep_PersistedGoesToPendingDeletes(t *testing.T) {
	d := loaded(t, persisted("p1", "A", 0), persisted("p2", "B", 1))
	local := d.AddStep()

	require.NoError(t, d.RemoveStep(local.ID))
	assert.Empty(t, d.PendingDeletes(), "local ids are discarded")

	require.NoError(t, d.RemoveStep("p1"))
	assert.Equal(t, []program.StepID{"p1"}, d.PendingDeletes())
	requireDense(t, d)

	assert.ErrorIs(t, d.RemoveStep("p1"), ErrStepNotFound)
	assert.Equal(t, []program.StepID{"p1"}, d.PendingDeletes())
}

func TestAddSongToStep_DuplicateIsNoop(t *testing.T) {
	d := loaded(t, songBlock("a", 0))
	song := program.SongRef{ID: "s1", Title: "Hosana"}

	added, err := d.AddSongToStep("a", song)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = d.AddSongToStep("a", song)
	require.NoError(t, err)
	assert.False(t, added)

	step, _ := d.Step("a")
	assert.Len(t, step.Songs(), 1)
}

func TestAddSongToStep_RequiresSongBlock(t *testing.T) {
	d := loaded(t, persisted("a", "A", 0))

	_, err := d.AddSongToStep("a", program.SongRef{ID: "s1"})
	assert.ErrorIs(t, err, ErrNotSongBlock)
	_, err = d.AddSongToStep("nope", program.SongRef{ID: "s1"})
	assert.ErrorIs(t, err, ErrStepNotFound)
}

func TestRemoveSongFromStep(t *testing.T) {
	d := loaded(t, songBlock("a", 0, program.SongRef{ID: "s1"}, program.SongRef{ID: "s2"}))

	require.NoError(t, d.RemoveSongFromStep("a", "missing"))
	assert.False(t, d.IsDirty())

	require.NoError(t, d.RemoveSongFromStep("a", "s1"))
	step, _ := d.Step("a")
	assert.Equal(t, []program.SongRef{{ID: "s2"}}, step.Songs())
	assert.True(t, d.IsDirty())
}

func TestDirty_NestedSongOrder(t *testing.T) {
	d := loaded(t, songBlock("a", 0, program.SongRef{ID: "s1"}))

	_, err := d.AddSongToStep("a", program.SongRef{ID: "s2"})
	require.NoError(t, err)
	require.NoError(t, d.RemoveSongFromStep("a", "s2"))

	assert.False(t, d.IsDirty(), "value comparison, not reference")
}

func TestAccessorsReturnCopies(t *testing.T) {
	d := loaded(t, persisted("a", "A", 0))

	steps := d.Steps()
	steps[0].Title = "changed"
	s, _ := d.Step("a")
	s.Title = "changed"

	assert.Equal(t, "A", d.Steps()[0].Title)
	assert.False(t, d.IsDirty())
}

func TestDensityUnderRandomEdits(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for run := 0; run < 50; run++ {
		d := loaded(t,
			persisted("p1", "A", 0),
			persisted("p2", "B", 1),
			persisted("p3", "C", 2),
		)
		for op := 0; op < 40; op++ {
			switch rng.IntN(3) {
			case 0:
				d.AddStep()
			case 1:
				if d.Len() > 0 {
					id := d.Steps()[rng.IntN(d.Len())].ID
					require.NoError(t, d.RemoveStep(id))
				}
			case 2:
				if d.Len() > 0 {
					require.NoError(t, d.Move(To(rng.IntN(d.Len()), rng.IntN(d.Len()))))
				}
			}
			requireDense(t, d)
			for _, id := range d.PendingDeletes() {
				require.False(t, id.IsLocal(), "local id %s in pending deletes", id)
			}
		}
	}
}
