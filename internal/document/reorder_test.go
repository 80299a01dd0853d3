package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/liturgia/internal/program"
)

func fourSteps() []program.Step {
	return []program.Step{
		persisted("a", "A", 0),
		songBlock("b", 1, program.SongRef{ID: "s1"}),
		persisted("c", "C", 2),
		persisted("d", "D", 3),
	}
}

func TestReorder_TwoToZero(t *testing.T) {
	in := fourSteps()

	out, err := Reorder(in, 2, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"C", "A", "Worship", "D"}, titles(out))
	for i, s := range out {
		assert.Equal(t, i, s.Order)
	}
	assert.Equal(t, program.StepID("c"), out[0].ID)
	assert.Equal(t, []program.SongRef{{ID: "s1"}}, out[2].Songs())

	assert.Equal(t, 2, in[2].Order, "input untouched")
}

func TestReorder_Table(t *testing.T) {
	tests := []struct {
		from, to int
		want     []program.StepID
	}{
		{0, 3, []program.StepID{"b", "c", "d", "a"}},
		{3, 0, []program.StepID{"d", "a", "b", "c"}},
		{1, 2, []program.StepID{"a", "c", "b", "d"}},
		{1, 1, []program.StepID{"a", "b", "c", "d"}},
	}
	for _, tt := range tests {
		out, err := Reorder(fourSteps(), tt.from, tt.to)
		require.NoError(t, err)
		got := make([]program.StepID, len(out))
		for i, s := range out {
			got[i] = s.ID
		}
		assert.Equal(t, tt.want, got, "from %d to %d", tt.from, tt.to)
	}
}

func TestReorder_OutOfRange(t *testing.T) {
	_, err := Reorder(fourSteps(), 4, 0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = Reorder(fourSteps(), 0, -1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = Reorder(nil, 0, 0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestMove_CancelledDragIsNoop(t *testing.T) {
	d := loaded(t, fourSteps()...)

	require.NoError(t, d.Move(DragResult{Source: 2}))
	assert.False(t, d.IsDirty())
}

func TestMove_MarksDirtyAndBackIsClean(t *testing.T) {
	d := loaded(t, fourSteps()...)

	require.NoError(t, d.Move(To(2, 0)))
	assert.True(t, d.IsDirty())
	require.NoError(t, d.Move(To(0, 2)))
	assert.False(t, d.IsDirty())
}

func TestMove_FailureLeavesStepsUntouched(t *testing.T) {
	d := loaded(t, fourSteps()...)
	before := d.Fingerprint()

	assert.ErrorIs(t, d.Move(To(0, 9)), ErrIndexOutOfRange)
	assert.Equal(t, before, d.Fingerprint())
}
