// Package catalog is the read-only song list that steps copy references from.
package catalog

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/liturgia/internal/program"
)

// Source supplies the songs a Catalog is built from.
type Source interface {
	ListSongs(ctx context.Context) ([]program.SongRef, error)
}

// Catalog is an immutable, title-ordered set of songs. Safe for concurrent
// use.
type Catalog struct {
	songs []program.SongRef
	keys  []string // folded "title artist", parallel to songs
	byID  map[string]int
}

// Load reads every song from src.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	songs, err := src.ListSongs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return New(songs), nil
}

// New builds a catalog from songs. Later duplicates of an id are dropped.
func New(songs []program.SongRef) *Catalog {
	c := &Catalog{byID: make(map[string]int, len(songs))}
	seen := make(map[string]bool, len(songs))
	for _, s := range songs {
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		c.songs = append(c.songs, s)
	}
	slices.SortStableFunc(c.songs, func(a, b program.SongRef) int {
		return cmp.Or(
			cmp.Compare(fold(a.Title), fold(b.Title)),
			cmp.Compare(a.ID, b.ID),
		)
	})
	c.keys = make([]string, len(c.songs))
	for i, s := range c.songs {
		c.byID[s.ID] = i
		c.keys[i] = fold(s.Title) + "\x00" + fold(s.Artist)
	}
	return c
}

// Len returns the number of songs.
func (c *Catalog) Len() int { return len(c.songs) }

// List returns every song ordered by title.
func (c *Catalog) List() []program.SongRef {
	return slices.Clone(c.songs)
}

// Search returns songs whose title or artist contains term, ignoring case and
// accents. A blank term returns the full list.
func (c *Catalog) Search(term string) []program.SongRef {
	needle := fold(strings.TrimSpace(term))
	if needle == "" {
		return c.List()
	}
	var out []program.SongRef
	for i, key := range c.keys {
		if strings.Contains(key, needle) {
			out = append(out, c.songs[i])
		}
	}
	return out
}

// Lookup finds a song by id.
func (c *Catalog) Lookup(id string) (program.SongRef, bool) {
	i, ok := c.byID[id]
	if !ok {
		return program.SongRef{}, false
	}
	return c.songs[i], true
}

// fold strips combining marks and case-folds s, so "Louvor" matches "lóuvor".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return cases.Fold().String(stripped)
}
