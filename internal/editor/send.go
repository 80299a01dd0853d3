package editor

import (
	"context"
	"fmt"

	"github.com/roach88/liturgia/internal/document"
	"github.com/roach88/liturgia/internal/program"
	"github.com/roach88/liturgia/internal/reconcile"
)

// DefaultSongResponsible describes a sent song that has no artist.
const DefaultSongResponsible = "Worship ministry"

// SendSongToLiturgy appends a single-song step for a catalog song to the end of a
// liturgy and commits it right away. Existing steps keep their order.
func SendSongToLiturgy(ctx context.Context, backend Backend, liturgyID, songID string, opts ...Option) (program.Step, reconcile.Result, error) {
	s, err := Open(ctx, backend, liturgyID, opts...)
	if err != nil {
		return program.Step{}, reconcile.Result{}, err
	}
	song, ok := s.catalog.Lookup(songID)
	if !ok {
		return program.Step{}, reconcile.Result{}, fmt.Errorf("send song: %w: %s", ErrUnknownSong, songID)
	}

	description := song.Artist
	if description == "" {
		description = DefaultSongResponsible
	}

	step := s.AddStep()
	edits := []struct {
		field document.Field
		value string
	}{
		{document.FieldType, string(program.TypeSingleSong)},
		{document.FieldTitle, song.Title},
		{document.FieldDescription, description},
	}
	for _, e := range edits {
		if err := s.UpdateField(step.ID, string(e.field), e.value); err != nil {
			return program.Step{}, reconcile.Result{}, fmt.Errorf("send song: %w", err)
		}
	}

	res, err := s.Commit(ctx)
	if err != nil {
		return program.Step{}, res, fmt.Errorf("send song: %w", err)
	}
	steps := s.Steps()
	return steps[len(steps)-1], res, nil
}
