package seed

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/liturgia/internal/program"
	"github.com/roach88/liturgia/internal/store"
	"github.com/roach88/liturgia/internal/testutil"
)

func TestLoad(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "sunday.cue"))
	require.NoError(t, err)

	require.Len(t, s.Songs, 2)
	assert.Equal(t, "E", s.Songs[0].Key)
	require.Len(t, s.Profiles, 2)
	require.Len(t, s.Liturgies, 1)

	l := s.Liturgies[0]
	assert.Equal(t, "2026-10-18", l.Date)
	require.Len(t, l.Steps, 3)
	assert.Equal(t, []string{"s-grace", "s-hosana"}, l.Steps[0].Songs)
	assert.Equal(t, "p-ana", l.Steps[1].AssignedTo)
	assert.Empty(t, l.Steps[2].ID)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.cue"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read seed")
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "unknown top-level field",
			src:  `liturgy: []`,
			want: "liturgy",
		},
		{
			name: "unknown step type",
			src: `liturgies: [{id: "l", title: "L", date: "2026-01-04",
				steps: [{title: "x", type: "dance"}]}]`,
			want: "type",
		},
		{
			name: "bad date",
			src:  `liturgies: [{id: "l", title: "L", date: "04/01/2026"}]`,
			want: "date",
		},
		{
			name: "missing title",
			src:  `songs: [{id: "s"}]`,
			want: "title",
		},
		{
			name: "songs on reading step",
			src: `songs: [{id: "s", title: "S"}]
liturgies: [{id: "l", title: "L", date: "2026-01-04",
	steps: [{title: "x", type: "reading", songs: ["s"]}]}]`,
			want: "only song-block steps can list songs",
		},
		{
			name: "unknown song",
			src: `liturgies: [{id: "l", title: "L", date: "2026-01-04",
	steps: [{title: "x", type: "song-block", songs: ["ghost"]}]}]`,
			want: `unknown song "ghost"`,
		},
		{
			name: "duplicate song in block",
			src: `songs: [{id: "s", title: "S"}]
liturgies: [{id: "l", title: "L", date: "2026-01-04",
	steps: [{title: "x", type: "song-block", songs: ["s", "s"]}]}]`,
			want: `song "s" listed twice`,
		},
		{
			name: "unknown profile",
			src: `liturgies: [{id: "l", title: "L", date: "2026-01-04",
	steps: [{title: "x", type: "prayer", assigned_to: "p"}]}]`,
			want: `unknown profile "p"`,
		},
		{
			name: "reserved step id prefix",
			src: `liturgies: [{id: "l", title: "L", date: "2026-01-04",
	steps: [{id: "local-1", title: "x", type: "prayer"}]}]`,
			want: "id",
		},
		{
			name: "duplicate liturgy",
			src: `liturgies: [{id: "l", title: "L", date: "2026-01-04"},
	{id: "l", title: "M", date: "2026-01-11"}]`,
			want: `duplicate liturgy id "l"`,
		},
		{
			name: "syntax error",
			src:  `songs: [{`,
			want: "seed.cue:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("seed.cue", []byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestErrorFormat(t *testing.T) {
	err := &Error{Field: "songs", Message: "duplicate song id \"s\""}
	assert.Equal(t, `songs: duplicate song id "s"`, err.Error())
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(":memory:", store.WithIDGenerator(testutil.SequentialIDs("id")))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)

	s, err := Load(filepath.Join("testdata", "sunday.cue"))
	require.NoError(t, err)

	sum, err := Apply(ctx, st, s)
	require.NoError(t, err)
	assert.Equal(t, Summary{Songs: 2, Profiles: 2, Liturgies: 1, Steps: 3}, sum)

	rows, err := st.ListSteps(ctx, "sunday")
	require.NoError(t, err)
	steps, err := program.StepsFromRows(rows)
	require.NoError(t, err)
	require.Len(t, steps, 3)

	assert.Equal(t, program.StepID("st-worship"), steps[0].ID)
	assert.Equal(t, []string{"Amazing Grace", "Hosana"}, songTitles(steps[0].Songs()))
	assert.Equal(t, "E", steps[0].Songs()[1].Key)

	assert.Equal(t, "Reading", steps[1].Title)
	require.NotNil(t, steps[1].AssignedPersonID)
	assert.Equal(t, "p-ana", *steps[1].AssignedPersonID)
	assert.Equal(t, program.EmptyContent{}, steps[1].Content)

	for i, step := range steps {
		assert.Equal(t, i, step.Order)
	}
}

func TestApplyReplacesLiturgy(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)

	s, err := Load(filepath.Join("testdata", "sunday.cue"))
	require.NoError(t, err)
	_, err = Apply(ctx, st, s)
	require.NoError(t, err)

	again, err := Parse("again.cue", []byte(`liturgies: [{
	id: "sunday", title: "Sunday service (revised)", date: "2026-10-18"
	steps: [{title: "Prayer", type: "prayer"}]
}]`))
	require.NoError(t, err)
	sum, err := Apply(ctx, st, again)
	require.NoError(t, err)
	assert.Equal(t, Summary{Liturgies: 1, Steps: 1}, sum)

	l, err := st.GetLiturgy(ctx, "sunday")
	require.NoError(t, err)
	assert.Equal(t, "Sunday service (revised)", l.Title)

	rows, err := st.ListSteps(ctx, "sunday")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Prayer", rows[0].Title)

	songs, err := st.ListSongs(ctx)
	require.NoError(t, err)
	assert.Len(t, songs, 2, "songs from the earlier seed remain")
}

func songTitles(songs []program.SongRef) []string {
	out := make([]string, len(songs))
	for i, s := range songs {
		out[i] = s.Title
	}
	return out
}

func TestValidateRejectsReservedStepID(t *testing.T) {
	s := &Seed{Liturgies: []Liturgy{{
		ID: "l", Title: "L", Date: "2026-01-04",
		Steps: []Step{{ID: "local-7", Title: "x", Type: "prayer"}},
	}}}

	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `step id "local-7" uses the reserved "local-" prefix`)
}
