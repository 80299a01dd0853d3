// Package script runs YAML edit scripts against an editor session.
//
// A script is a list of operations, each a mapping with exactly one key:
//
//	operations:
//	  - add_step: {title: Welcome, type: other}
//	  - update: {step: $last, field: description, value: "John 3:16"}
//	  - move: {from: 2, to: 0}
//	  - move: {from: 1}            # cancelled drag, no-op
//	  - add_song: {step: w1, song: song-7}
//	  - remove_song: {step: w1, song: song-7}
//	  - remove: {step: "#0"}
//	  - commit: {}
//	  - reload: {}                 # discard local edits, re-read stored steps
//
// Step references are persisted or local ids, "$last" for the step most
// recently added in the session, or "#N" for the step at index N.
package script

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Script is a parsed edit script.
type Script struct {
	Operations []Op `yaml:"operations"`
}

// Op is one edit. Exactly one field is set.
type Op struct {
	AddStep    *AddStepOp `yaml:"add_step,omitempty"`
	Update     *UpdateOp  `yaml:"update,omitempty"`
	Remove     *RemoveOp  `yaml:"remove,omitempty"`
	Move       *MoveOp    `yaml:"move,omitempty"`
	AddSong    *SongOp    `yaml:"add_song,omitempty"`
	RemoveSong *SongOp    `yaml:"remove_song,omitempty"`
	Commit     *CommitOp  `yaml:"commit,omitempty"`
	Reload     *ReloadOp  `yaml:"reload,omitempty"`
}

// AddStepOp appends a step. Title and Type, when set, are applied right after.
type AddStepOp struct {
	Title string `yaml:"title,omitempty"`
	Type  string `yaml:"type,omitempty"`
}

// UpdateOp sets one field of a step.
type UpdateOp struct {
	Step  string `yaml:"step"`
	Field string `yaml:"field"`
	Value string `yaml:"value"`
}

// RemoveOp removes a step.
type RemoveOp struct {
	Step string `yaml:"step"`
}

// MoveOp is a drag gesture. A nil To is a cancelled drag.
type MoveOp struct {
	From int  `yaml:"from"`
	To   *int `yaml:"to,omitempty"`
}

// SongOp adds or removes a catalog song on a song-block step.
type SongOp struct {
	Step string `yaml:"step"`
	Song string `yaml:"song"`
}

// CommitOp writes the document.
type CommitOp struct{}

// ReloadOp replaces the document with the stored steps.
type ReloadOp struct{}

// Op kinds.
const (
	KindAddStep    = "add_step"
	KindUpdate     = "update"
	KindRemove     = "remove"
	KindMove       = "move"
	KindAddSong    = "add_song"
	KindRemoveSong = "remove_song"
	KindCommit     = "commit"
	KindReload     = "reload"
)

// Kind names the operation, or "" if none or several fields are set.
func (o Op) Kind() string {
	var kinds []string
	if o.AddStep != nil {
		kinds = append(kinds, KindAddStep)
	}
	if o.Update != nil {
		kinds = append(kinds, KindUpdate)
	}
	if o.Remove != nil {
		kinds = append(kinds, KindRemove)
	}
	if o.Move != nil {
		kinds = append(kinds, KindMove)
	}
	if o.AddSong != nil {
		kinds = append(kinds, KindAddSong)
	}
	if o.RemoveSong != nil {
		kinds = append(kinds, KindRemoveSong)
	}
	if o.Commit != nil {
		kinds = append(kinds, KindCommit)
	}
	if o.Reload != nil {
		kinds = append(kinds, KindReload)
	}
	if len(kinds) != 1 {
		return ""
	}
	return kinds[0]
}

// Load reads and parses a script file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a script, rejecting unknown fields and malformed operations.
func Parse(data []byte) (*Script, error) {
	var s Script
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := Validate(s.Operations); err != nil {
		return nil, fmt.Errorf("invalid script: %w", err)
	}
	return &s, nil
}

// Validate checks every operation has exactly one kind and its required
// fields.
func Validate(ops []Op) error {
	var errs []error
	for i, op := range ops {
		if err := validateOp(op); err != nil {
			errs = append(errs, fmt.Errorf("operation %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func validateOp(op Op) error {
	switch op.Kind() {
	case "":
		return fmt.Errorf("exactly one of add_step, update, remove, move, add_song, remove_song, commit, reload is required")
	case KindUpdate:
		if op.Update.Step == "" || op.Update.Field == "" {
			return fmt.Errorf("update needs step and field")
		}
	case KindRemove:
		if op.Remove.Step == "" {
			return fmt.Errorf("remove needs step")
		}
	case KindAddSong:
		if op.AddSong.Step == "" || op.AddSong.Song == "" {
			return fmt.Errorf("add_song needs step and song")
		}
	case KindRemoveSong:
		if op.RemoveSong.Step == "" || op.RemoveSong.Song == "" {
			return fmt.Errorf("remove_song needs step and song")
		}
	}
	return nil
}
