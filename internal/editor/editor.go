// Package editor is one administrator's editing session over a liturgy
// program. It ties the working document to the song catalog, the people who
// can be assigned to steps, and the reconciler that commits changes.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/liturgia/internal/catalog"
	"github.com/roach88/liturgia/internal/document"
	"github.com/roach88/liturgia/internal/program"
	"github.com/roach88/liturgia/internal/reconcile"
)

var (
	ErrUnknownSong   = errors.New("song not in catalog")
	ErrUnknownPerson = errors.New("person not found")
)

// Notice is an informational message for the user. It is not an error.
type Notice string

const (
	NoticeSongAdded        Notice = "Song added to the step!"
	NoticeSongAlreadyAdded Notice = "Song already added"
)

// Notification sent to every profile after a successful commit.
const (
	UpdatedTitle = "Liturgy updated!"
	UpdatedLink  = "/liturgia"
)

// UpdatedMessage is the body of the post-commit notification.
func UpdatedMessage(liturgyTitle string) string {
	return `The program of "` + liturgyTitle + `" was updated.`
}

// Backend is everything a session reads from and writes to.
// Implemented by *store.Store.
type Backend interface {
	reconcile.Gateway
	catalog.Source
	GetLiturgy(ctx context.Context, id string) (program.Liturgy, error)
	ListProfiles(ctx context.Context) ([]program.Person, error)
	NotifyAll(ctx context.Context, title, message, link string) (int, error)
}

type config struct {
	ids      program.IDGenerator
	logger   *slog.Logger
	tracer   trace.Tracer
	gateway  reconcile.Gateway
	notifier reconcile.Notifier
}

// Option configures Open.
type Option func(*config)

// WithIDGenerator sets the local id generator. Default: UUIDv7.
func WithIDGenerator(ids program.IDGenerator) Option {
	return func(c *config) { c.ids = ids }
}

// WithLogger sets the logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithTracer sets the tracer used for commit spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *config) { c.tracer = t }
}

// WithGateway routes step reads and writes through gw instead of the
// backend, e.g. to record or fault-inject them.
func WithGateway(gw reconcile.Gateway) Option {
	return func(c *config) { c.gateway = gw }
}

// WithNotifier replaces the default notify-all-profiles notifier.
func WithNotifier(n reconcile.Notifier) Option {
	return func(c *config) { c.notifier = n }
}

// Session is an open editor over one liturgy. Methods are safe to call from
// multiple goroutines; edits wait while a commit holds the document.
type Session struct {
	liturgy program.Liturgy
	people  []program.Person
	catalog *catalog.Catalog
	gateway reconcile.Gateway
	logger  *slog.Logger

	mu        sync.Mutex
	doc       *document.Document
	committer *reconcile.Committer
	lastAdded program.StepID

	busy atomic.Bool
}

// Open loads a liturgy, its steps, the people list and the song catalog
// concurrently. A missing liturgy or a failed fetch fails the open.
func Open(ctx context.Context, backend Backend, liturgyID string, opts ...Option) (*Session, error) {
	cfg := config{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	if cfg.gateway == nil {
		cfg.gateway = backend
	}

	s := &Session{gateway: cfg.gateway, logger: cfg.logger}

	var rows []program.Row
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l, err := backend.GetLiturgy(gctx, liturgyID)
		if err != nil {
			return fmt.Errorf("fetch liturgy: %w", err)
		}
		s.liturgy = l
		return nil
	})
	g.Go(func() error {
		var err error
		rows, err = cfg.gateway.ListSteps(gctx, liturgyID)
		if err != nil {
			return fmt.Errorf("fetch steps: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		people, err := backend.ListProfiles(gctx)
		if err != nil {
			return fmt.Errorf("fetch people: %w", err)
		}
		s.people = people
		return nil
	})
	g.Go(func() error {
		c, err := catalog.Load(gctx, backend)
		if err != nil {
			return err
		}
		s.catalog = c
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("open liturgy %s: %w", liturgyID, err)
	}

	steps, err := program.StepsFromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("open liturgy %s: %w", liturgyID, err)
	}
	s.doc = document.New(liturgyID, cfg.ids)
	s.doc.Load(steps)

	notifier := cfg.notifier
	if notifier == nil {
		notifier = ProfileNotifier(backend, s.liturgy.Title)
	}
	copts := []reconcile.Option{
		reconcile.WithNotifier(notifier),
		reconcile.WithLogger(cfg.logger),
	}
	if cfg.tracer != nil {
		copts = append(copts, reconcile.WithTracer(cfg.tracer))
	}
	s.committer = reconcile.NewCommitter(cfg.gateway, copts...)

	cfg.logger.Debug("session opened",
		"liturgy", liturgyID,
		"steps", len(steps),
		"songs", s.catalog.Len(),
		"people", len(s.people))
	return s, nil
}

// ProfileNotifier is the notifier sessions use unless WithNotifier is given:
// every profile is told that the program of liturgyTitle changed.
func ProfileNotifier(backend Backend, liturgyTitle string) reconcile.Notifier {
	return profileNotifier{backend: backend, title: liturgyTitle}
}

type profileNotifier struct {
	backend Backend
	title   string
}

func (n profileNotifier) DocumentUpdated(ctx context.Context, _ string) error {
	_, err := n.backend.NotifyAll(ctx, UpdatedTitle, UpdatedMessage(n.title), UpdatedLink)
	return err
}

// Liturgy returns the liturgy being edited.
func (s *Session) Liturgy() program.Liturgy { return s.liturgy }

// People returns the profiles that can be assigned to steps.
func (s *Session) People() []program.Person { return append([]program.Person(nil), s.people...) }

// Catalog returns the song catalog loaded with the session.
func (s *Session) Catalog() *catalog.Catalog { return s.catalog }

// Steps returns a copy of the working steps.
func (s *Session) Steps() []program.Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Steps()
}

// PendingDeletes returns the persisted ids queued for deletion.
func (s *Session) PendingDeletes() []program.StepID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.PendingDeletes()
}

// Dirty reports whether there is anything to commit.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.IsDirty()
}

// Busy reports whether a commit is running.
func (s *Session) Busy() bool { return s.busy.Load() }

// LastAdded returns the id of the most recent AddStep, or "".
func (s *Session) LastAdded() program.StepID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAdded
}

// Plan validates the document and returns what a commit would send.
func (s *Session) Plan() (reconcile.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return reconcile.BuildPlan(s.doc)
}

// AddStep appends a new step.
func (s *Session) AddStep() program.Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	step := s.doc.AddStep()
	s.lastAdded = step.ID
	return step
}

// UpdateField sets a step field by name. An assigned person must be one of
// People.
func (s *Session) UpdateField(id program.StepID, field, value string) error {
	f, err := document.ParseField(field)
	if err != nil {
		return err
	}
	if f == document.FieldAssignedPerson && value != "" && !s.hasPerson(value) {
		return fmt.Errorf("assign %s: %w: %s", id, ErrUnknownPerson, value)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.UpdateStepField(id, f, value)
}

func (s *Session) hasPerson(id string) bool {
	for _, p := range s.people {
		if p.ID == id {
			return true
		}
	}
	return false
}

// RemoveStep removes a step.
func (s *Session) RemoveStep(id program.StepID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.RemoveStep(id)
}

// Move applies a drag gesture.
func (s *Session) Move(drag document.DragResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Move(drag)
}

// AddSong copies a catalog song into a song-block step.
func (s *Session) AddSong(stepID program.StepID, songID string) (Notice, error) {
	song, ok := s.catalog.Lookup(songID)
	if !ok {
		return "", fmt.Errorf("add song to %s: %w: %s", stepID, ErrUnknownSong, songID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	added, err := s.doc.AddSongToStep(stepID, song)
	if err != nil {
		return "", err
	}
	if !added {
		return NoticeSongAlreadyAdded, nil
	}
	return NoticeSongAdded, nil
}

// RemoveSong removes a song from a song-block step.
func (s *Session) RemoveSong(stepID program.StepID, songID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.RemoveSongFromStep(stepID, songID)
}

// Commit writes the document. A second call while one is running fails with
// reconcile.ErrCommitInFlight.
func (s *Session) Commit(ctx context.Context) (reconcile.Result, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return reconcile.Result{}, reconcile.ErrCommitInFlight
	}
	defer s.busy.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.committer.Commit(ctx, s.doc)
	if err == nil {
		s.lastAdded = ""
	}
	return res, err
}

// Reload replaces the document with the liturgy's stored steps, discarding
// local edits. It is how a session recovers after a commit failed with
// reconcile.CodeReloadFailed.
func (s *Session) Reload(ctx context.Context) error {
	if s.busy.Load() {
		return reconcile.ErrCommitInFlight
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	liturgyID := s.doc.LiturgyID()
	rows, err := s.gateway.ListSteps(ctx, liturgyID)
	if err != nil {
		return fmt.Errorf("reload liturgy %s: %w", liturgyID, err)
	}
	steps, err := program.StepsFromRows(rows)
	if err != nil {
		return fmt.Errorf("reload liturgy %s: %w", liturgyID, err)
	}
	s.doc.Load(steps)
	s.lastAdded = ""
	s.logger.Debug("session reloaded", "liturgy", liturgyID, "steps", len(steps))
	return nil
}

// Stale reports whether a commit landed without being reloaded. Commits fail
// until Reload succeeds.
func (s *Session) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Stale()
}
