package program

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/roach88/liturgia/internal/ir"
)

// SongRef is an embedded copy of a catalog song. It is owned by the step that
// holds it; editing it never touches the catalog.
type SongRef struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Key        string `json:"song_key,omitempty"`
	YouTubeURL string `json:"youtube_url,omitempty"`
	ChordsURL  string `json:"cifra_url,omitempty"`
}

func (s SongRef) canonical() ir.IRObject {
	return ir.IRObject{
		"id":          ir.IRString(s.ID),
		"title":       ir.IRString(s.Title),
		"artist":      ir.IRString(s.Artist),
		"song_key":    ir.IRString(s.Key),
		"youtube_url": ir.IRString(s.YouTubeURL),
		"cifra_url":   ir.IRString(s.ChordsURL),
	}
}

// Content is the type-dependent payload of a step.
// Implemented by EmptyContent and SongBlock only.
type Content interface {
	isContent()
	clone() Content
	canonical() ir.IRObject
}

// EmptyContent is the payload of every step type except song-block.
type EmptyContent struct{}

func (EmptyContent) isContent()             {}
func (EmptyContent) clone() Content         { return EmptyContent{} }
func (EmptyContent) canonical() ir.IRObject { return ir.IRObject{} }

// SongBlock is the payload of a song-block step: an ordered list of songs
// with unique ids.
type SongBlock struct {
	Songs []SongRef `json:"songs"`
}

func (SongBlock) isContent() {}

func (b SongBlock) clone() Content {
	return SongBlock{Songs: slices.Clone(b.Songs)}
}

func (b SongBlock) canonical() ir.IRObject {
	songs := make(ir.IRArray, len(b.Songs))
	for i, s := range b.Songs {
		songs[i] = s.canonical()
	}
	return ir.IRObject{"songs": songs}
}

// Has reports whether a song with the given id is already in the block.
func (b SongBlock) Has(songID string) bool {
	return slices.ContainsFunc(b.Songs, func(s SongRef) bool { return s.ID == songID })
}

// With returns a copy of the block with song appended. The second result is
// false, and the block unchanged, when the song id is already present.
func (b SongBlock) With(song SongRef) (SongBlock, bool) {
	if b.Has(song.ID) {
		return b, false
	}
	songs := make([]SongRef, 0, len(b.Songs)+1)
	songs = append(songs, b.Songs...)
	songs = append(songs, song)
	return SongBlock{Songs: songs}, true
}

// Without returns a copy of the block minus the song with the given id.
func (b SongBlock) Without(songID string) SongBlock {
	songs := make([]SongRef, 0, len(b.Songs))
	for _, s := range b.Songs {
		if s.ID != songID {
			songs = append(songs, s)
		}
	}
	return SongBlock{Songs: songs}
}

// ContentFor returns the empty variant a step of type t must carry.
func ContentFor(t StepType) Content {
	if t == TypeSongBlock {
		return SongBlock{Songs: []SongRef{}}
	}
	return EmptyContent{}
}

// MarshalContent encodes content as the stored JSON blob.
func MarshalContent(c Content) ([]byte, error) {
	switch v := c.(type) {
	case nil, EmptyContent:
		return []byte("{}"), nil
	case SongBlock:
		if v.Songs == nil {
			v.Songs = []SongRef{}
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal content: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("marshal content: unsupported variant %T", c)
	}
}

// DecodeContent interprets a stored blob for a step of type t.
// Only song-block rows read the songs field; for every other type the blob is
// ignored and EmptyContent is returned, so songs left behind by an earlier
// type change never resurface.
func DecodeContent(t StepType, blob []byte) (Content, error) {
	if t != TypeSongBlock {
		return EmptyContent{}, nil
	}
	trimmed := bytes.TrimSpace(blob)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ContentFor(t), nil
	}
	var block SongBlock
	if err := json.Unmarshal(trimmed, &block); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	if block.Songs == nil {
		block.Songs = []SongRef{}
	}
	return block, nil
}
