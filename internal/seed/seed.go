// Package seed loads CUE seed files and writes them into a store.
//
// A seed file may define songs, profiles and liturgies (each with its ordered
// steps). It is unified with an embedded schema before decoding:
//
//	songs: [{id: "s1", title: "Hosana", artist: "Hillsong"}]
//	profiles: [{id: "p1", name: "Ana"}]
//	liturgies: [{
//		id: "sunday", title: "Sunday service", date: "2026-10-18"
//		steps: [
//			{title: "Worship", type: "song-block", songs: ["s1"]},
//			{title: "Reading", type: "reading", description: "Psalm 23", assigned_to: "p1"},
//		]
//	}]
package seed

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/liturgia/internal/program"
)

//go:embed schema.cue
var schemaCUE string

// Seed is a decoded seed file.
type Seed struct {
	Songs     []Song    `json:"songs,omitempty" yaml:"songs,omitempty"`
	Profiles  []Profile `json:"profiles,omitempty" yaml:"profiles,omitempty"`
	Liturgies []Liturgy `json:"liturgies,omitempty" yaml:"liturgies,omitempty"`
}

// Song is a catalog entry.
type Song struct {
	ID         string `json:"id" yaml:"id"`
	Title      string `json:"title" yaml:"title"`
	Artist     string `json:"artist,omitempty" yaml:"artist,omitempty"`
	Key        string `json:"song_key,omitempty" yaml:"song_key,omitempty"`
	YouTubeURL string `json:"youtube_url,omitempty" yaml:"youtube_url,omitempty"`
	ChordsURL  string `json:"cifra_url,omitempty" yaml:"cifra_url,omitempty"`
}

// Profile is a person steps can be assigned to.
type Profile struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Surname string `json:"surname,omitempty" yaml:"surname,omitempty"`
	Role    string `json:"role,omitempty" yaml:"role,omitempty"`
}

// Liturgy is a liturgy with its steps in running order.
type Liturgy struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
	Date  string `json:"date" yaml:"date"`
	Steps []Step `json:"steps,omitempty" yaml:"steps,omitempty"`
}

// Step is one seeded step. Songs are song ids; only song-block steps may
// carry them.
type Step struct {
	ID          string   `json:"id,omitempty" yaml:"id,omitempty"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Type        string   `json:"type" yaml:"type"`
	AssignedTo  string   `json:"assigned_to,omitempty" yaml:"assigned_to,omitempty"`
	Songs       []string `json:"songs,omitempty" yaml:"songs,omitempty"`
}

// Error is a seed validation failure, with a source position when known.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load reads, validates and decodes a seed file.
func Load(path string) (*Seed, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	return Parse(path, src)
}

// Parse validates and decodes CUE source. filename is used in positions.
func Parse(filename string, src []byte) (*Seed, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile seed schema: %w", err)
	}

	data := ctx.CompileBytes(src, cue.Filename(filename))
	if err := data.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v := schema.LookupPath(cue.ParsePath("#Seed")).Unify(data)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var s Seed
	if err := v.Decode(&s); err != nil {
		return nil, formatCUEError(err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the cross-references a schema cannot express: unique ids,
// known songs and profiles, and songs only on song-block steps.
func (s *Seed) Validate() error {
	songs := make(map[string]bool, len(s.Songs))
	for _, song := range s.Songs {
		if songs[song.ID] {
			return &Error{Field: "songs", Message: fmt.Sprintf("duplicate song id %q", song.ID)}
		}
		songs[song.ID] = true
	}
	people := make(map[string]bool, len(s.Profiles))
	for _, p := range s.Profiles {
		if people[p.ID] {
			return &Error{Field: "profiles", Message: fmt.Sprintf("duplicate profile id %q", p.ID)}
		}
		people[p.ID] = true
	}

	liturgies := make(map[string]bool, len(s.Liturgies))
	stepIDs := make(map[string]bool)
	for _, l := range s.Liturgies {
		if liturgies[l.ID] {
			return &Error{Field: "liturgies", Message: fmt.Sprintf("duplicate liturgy id %q", l.ID)}
		}
		liturgies[l.ID] = true

		for i, st := range l.Steps {
			field := fmt.Sprintf("liturgies.%s.steps[%d]", l.ID, i)
			if program.StepID(st.ID).IsLocal() {
				return &Error{Field: field, Message: fmt.Sprintf("step id %q uses the reserved %q prefix", st.ID, program.LocalIDPrefix)}
			}
			if st.ID != "" {
				if stepIDs[st.ID] {
					return &Error{Field: field, Message: fmt.Sprintf("duplicate step id %q", st.ID)}
				}
				stepIDs[st.ID] = true
			}
			if len(st.Songs) > 0 && st.Type != "song-block" {
				return &Error{Field: field, Message: "only song-block steps can list songs"}
			}
			seen := make(map[string]bool, len(st.Songs))
			for _, id := range st.Songs {
				if !songs[id] {
					return &Error{Field: field, Message: fmt.Sprintf("unknown song %q", id)}
				}
				if seen[id] {
					return &Error{Field: field, Message: fmt.Sprintf("song %q listed twice", id)}
				}
				seen[id] = true
			}
			if st.AssignedTo != "" && !people[st.AssignedTo] {
				return &Error{Field: field, Message: fmt.Sprintf("unknown profile %q", st.AssignedTo)}
			}
		}
	}
	return nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &Error{Field: "cue", Message: first.Error(), Pos: positions[0]}
	}
	return err
}
