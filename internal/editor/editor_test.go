package editor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/liturgia/internal/document"
	"github.com/roach88/liturgia/internal/program"
	"github.com/roach88/liturgia/internal/reconcile"
	"github.com/roach88/liturgia/internal/store"
	"github.com/roach88/liturgia/internal/testutil"
)

func newBackend(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(":memory:", store.WithIDGenerator(testutil.SequentialIDs("step")))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, err = s.CreateLiturgy(ctx, program.Liturgy{ID: "lit-1", Title: "Culto de Domingo", Date: "2026-10-18"})
	require.NoError(t, err)
	_, err = s.UpsertProfiles(ctx, []program.Person{{ID: "p1", Name: "Ana"}, {ID: "p2", Name: "Bruno"}})
	require.NoError(t, err)
	_, err = s.UpsertSongs(ctx, []program.SongRef{
		{ID: "song-1", Title: "Grande é o Senhor", Artist: "Adhemar de Campos"},
		{ID: "song-2", Title: "Hosana"},
	})
	require.NoError(t, err)

	worship := program.Row{ID: "w", LiturgyID: "lit-1", Title: "Worship", Type: program.TypeSongBlock, Order: 0, Content: []byte(`{"songs":[]}`)}
	reading := program.Row{ID: "r", LiturgyID: "lit-1", Title: "Reading", Type: program.TypeReading, Order: 1, Content: []byte(`{}`)}
	require.NoError(t, s.BulkUpsert(ctx, []program.Row{worship, reading}))
	return s
}

func open(t *testing.T, backend Backend, opts ...Option) *Session {
	t.Helper()
	opts = append([]Option{WithIDGenerator(testutil.NewFixedIDGenerator())}, opts...)
	s, err := Open(context.Background(), backend, "lit-1", opts...)
	require.NoError(t, err)
	return s
}

func TestOpen_LoadsEverything(t *testing.T) {
	s := open(t, newBackend(t))

	assert.Equal(t, "Culto de Domingo", s.Liturgy().Title)
	assert.Len(t, s.People(), 2)
	assert.Equal(t, 2, s.Catalog().Len())
	require.Len(t, s.Steps(), 2)
	assert.False(t, s.Dirty())
	assert.False(t, s.Busy())
}

func TestOpen_MissingLiturgy(t *testing.T) {
	_, err := Open(context.Background(), newBackend(t), "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestOpen_StepFetchFailure(t *testing.T) {
	backend := newBackend(t)
	gw := testutil.NewRecordingGateway(backend)
	gw.Fail(testutil.CallListSteps, 0, errors.New("offline"))

	_, err := Open(context.Background(), backend, "lit-1", WithGateway(gw))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch steps")
}

func TestAddSong_Notices(t *testing.T) {
	s := open(t, newBackend(t))

	notice, err := s.AddSong("w", "song-1")
	require.NoError(t, err)
	assert.Equal(t, NoticeSongAdded, notice)

	notice, err = s.AddSong("w", "song-1")
	require.NoError(t, err)
	assert.Equal(t, NoticeSongAlreadyAdded, notice)

	_, err = s.AddSong("w", "missing")
	assert.ErrorIs(t, err, ErrUnknownSong)
	_, err = s.AddSong("r", "song-1")
	assert.ErrorIs(t, err, document.ErrNotSongBlock)
}

func TestUpdateField_ValidatesPerson(t *testing.T) {
	s := open(t, newBackend(t))

	require.NoError(t, s.UpdateField("r", "assigned_person", "p2"))
	assert.ErrorIs(t, s.UpdateField("r", "assigned_person", "ghost"), ErrUnknownPerson)
	assert.ErrorIs(t, s.UpdateField("r", "colour", "red"), document.ErrUnknownField)
}

func TestCommit_EndToEnd(t *testing.T) {
	ctx := context.Background()
	backend := newBackend(t)
	s := open(t, backend)

	step := s.AddStep()
	assert.Equal(t, step.ID, s.LastAdded())
	require.NoError(t, s.UpdateField(step.ID, "title", "Offering"))
	require.NoError(t, s.UpdateField(step.ID, "type", "offering"))
	_, err := s.AddSong("w", "song-2")
	require.NoError(t, err)
	require.NoError(t, s.RemoveStep("r"))
	require.NoError(t, s.Move(document.To(1, 0)))

	res, err := s.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, reconcile.Result{Deleted: 1, Inserted: 1, Updated: 1}, res)
	assert.False(t, s.Dirty())
	assert.Empty(t, s.LastAdded())

	steps := s.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, "Offering", steps[0].Title)
	assert.Equal(t, program.StepID("step-0001"), steps[0].ID)
	assert.Equal(t, []program.SongRef{{ID: "song-2", Title: "Hosana"}}, steps[1].Songs())

	notes, err := backend.ListNotifications(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, UpdatedTitle, notes[0].Title)
	assert.Equal(t, `The program of "Culto de Domingo" was updated.`, notes[0].Message)
	assert.Equal(t, UpdatedLink, notes[0].Link)
}

func TestCommit_CleanSessionSendsNothing(t *testing.T) {
	backend := newBackend(t)
	gw := testutil.NewRecordingGateway(backend)
	s := open(t, backend, WithGateway(gw))
	gw.Reset()

	res, err := s.Commit(context.Background())
	require.NoError(t, err)
	assert.True(t, res.NoOp)
	assert.Empty(t, gw.Calls())
}

func TestCommit_ValidationError(t *testing.T) {
	s := open(t, newBackend(t))
	require.NoError(t, s.UpdateField("r", "title", ""))

	_, err := s.Commit(context.Background())
	assert.True(t, reconcile.IsValidation(err))
	assert.True(t, s.Dirty())

	_, err = s.Plan()
	assert.True(t, reconcile.IsValidation(err))
}

func TestSendSongToLiturgy(t *testing.T) {
	ctx := context.Background()
	backend := newBackend(t)

	step, res, err := SendSongToLiturgy(ctx, backend, "lit-1", "song-1", WithIDGenerator(testutil.NewFixedIDGenerator()))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, program.TypeSingleSong, step.Type)
	assert.Equal(t, "Grande é o Senhor", step.Title)
	assert.Equal(t, "Adhemar de Campos", step.Description)
	assert.Equal(t, 2, step.Order)

	step, _, err = SendSongToLiturgy(ctx, backend, "lit-1", "song-2")
	require.NoError(t, err)
	assert.Equal(t, DefaultSongResponsible, step.Description)
	assert.Equal(t, 3, step.Order)

	_, _, err = SendSongToLiturgy(ctx, backend, "lit-1", "missing")
	assert.ErrorIs(t, err, ErrUnknownSong)
}

func TestReload_RecoversStaleSession(t *testing.T) {
	ctx := context.Background()
	backend := newBackend(t)
	gw := testutil.NewRecordingGateway(backend)
	gw.FailTimes(testutil.CallListSteps, 1, 1, errors.New("offline"))
	s := open(t, backend, WithGateway(gw))

	step := s.AddStep()
	require.NoError(t, s.UpdateField(step.ID, string(document.FieldTitle), "Closing"))

	_, err := s.Commit(ctx)
	assert.Equal(t, reconcile.CodeReloadFailed, reconcile.CodeOf(err))
	assert.True(t, s.Stale())

	_, err = s.Commit(ctx)
	assert.True(t, reconcile.IsStale(err))
	assert.Equal(t, 1, gw.CountOf(testutil.CallBulkUpsert))

	require.NoError(t, s.Reload(ctx))
	assert.False(t, s.Stale())
	assert.False(t, s.Dirty())
	steps := s.Steps()
	require.Len(t, steps, 3)
	assert.Equal(t, "Closing", steps[2].Title)
	assert.False(t, steps[2].ID.IsLocal())

	rows, err := backend.ListSteps(ctx, "lit-1")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestReload_DiscardsLocalEdits(t *testing.T) {
	s := open(t, newBackend(t))
	require.NoError(t, s.UpdateField("r", string(document.FieldTitle), "Gospel"))
	s.AddStep()
	require.True(t, s.Dirty())

	require.NoError(t, s.Reload(context.Background()))
	assert.False(t, s.Dirty())
	assert.Empty(t, s.LastAdded())
	steps := s.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, "Reading", steps[1].Title)
}
