package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/liturgia/internal/program"
	"github.com/roach88/liturgia/internal/store"
)

// Target is the store surface Apply writes to. Implemented by *store.Store.
type Target interface {
	UpsertSongs(ctx context.Context, songs []program.SongRef) ([]program.SongRef, error)
	UpsertProfiles(ctx context.Context, people []program.Person) ([]program.Person, error)
	CreateLiturgy(ctx context.Context, l program.Liturgy) (program.Liturgy, error)
	DeleteLiturgy(ctx context.Context, id string) error
	BulkUpsert(ctx context.Context, rows []program.Row) error
}

// Summary counts what Apply wrote.
type Summary struct {
	Songs     int `json:"songs"`
	Profiles  int `json:"profiles"`
	Liturgies int `json:"liturgies"`
	Steps     int `json:"steps"`
}

// Apply writes the seed. A liturgy that already exists is replaced along with
// its steps. Step orders follow list position.
func Apply(ctx context.Context, t Target, s *Seed) (Summary, error) {
	var sum Summary

	songs := make([]program.SongRef, len(s.Songs))
	byID := make(map[string]program.SongRef, len(s.Songs))
	for i, song := range s.Songs {
		ref := program.SongRef{
			ID:         song.ID,
			Title:      song.Title,
			Artist:     song.Artist,
			Key:        song.Key,
			YouTubeURL: song.YouTubeURL,
			ChordsURL:  song.ChordsURL,
		}
		songs[i] = ref
		byID[ref.ID] = ref
	}
	if len(songs) > 0 {
		if _, err := t.UpsertSongs(ctx, songs); err != nil {
			return sum, fmt.Errorf("seed songs: %w", err)
		}
		sum.Songs = len(songs)
	}

	if len(s.Profiles) > 0 {
		people := make([]program.Person, len(s.Profiles))
		for i, p := range s.Profiles {
			people[i] = program.Person{ID: p.ID, Name: p.Name, Surname: p.Surname, Role: p.Role}
		}
		if _, err := t.UpsertProfiles(ctx, people); err != nil {
			return sum, fmt.Errorf("seed profiles: %w", err)
		}
		sum.Profiles = len(people)
	}

	for _, l := range s.Liturgies {
		if err := t.DeleteLiturgy(ctx, l.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return sum, fmt.Errorf("seed liturgy %s: %w", l.ID, err)
		}
		if _, err := t.CreateLiturgy(ctx, program.Liturgy{ID: l.ID, Title: l.Title, Date: l.Date}); err != nil {
			return sum, fmt.Errorf("seed liturgy %s: %w", l.ID, err)
		}

		rows, err := stepRows(l, byID)
		if err != nil {
			return sum, err
		}
		if err := t.BulkUpsert(ctx, rows); err != nil {
			return sum, fmt.Errorf("seed liturgy %s steps: %w", l.ID, err)
		}
		sum.Liturgies++
		sum.Steps += len(rows)
	}
	return sum, nil
}

func stepRows(l Liturgy, songs map[string]program.SongRef) ([]program.Row, error) {
	rows := make([]program.Row, 0, len(l.Steps))
	for i, st := range l.Steps {
		t, err := program.ParseStepType(st.Type)
		if err != nil {
			return nil, fmt.Errorf("seed liturgy %s step %d: %w", l.ID, i, err)
		}
		step := program.Step{
			ID:          program.StepID(st.ID),
			LiturgyID:   l.ID,
			Order:       i,
			Title:       st.Title,
			Description: st.Description,
			Type:        t,
			Content:     program.ContentFor(t),
		}
		if st.AssignedTo != "" {
			assigned := st.AssignedTo
			step.AssignedPersonID = &assigned
		}
		if t == program.TypeSongBlock {
			block := program.SongBlock{Songs: make([]program.SongRef, 0, len(st.Songs))}
			for _, id := range st.Songs {
				block.Songs = append(block.Songs, songs[id])
			}
			step.Content = block
		}
		row, err := step.Row()
		if err != nil {
			return nil, fmt.Errorf("seed liturgy %s step %d: %w", l.ID, i, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
