package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/liturgia/internal/document"
	"github.com/roach88/liturgia/internal/program"
)

const tracerName = "github.com/roach88/liturgia/internal/reconcile"

// Gateway is the row-level persistence the committer writes through.
type Gateway interface {
	// ListSteps returns the rows of a liturgy ordered by step_order.
	ListSteps(ctx context.Context, liturgyID string) ([]program.Row, error)

	// BulkDelete removes rows by persisted id in one call.
	BulkDelete(ctx context.Context, ids []program.StepID) error

	// BulkUpsert inserts rows without an id and updates the rest, in one call.
	BulkUpsert(ctx context.Context, rows []program.Row) error
}

// Notifier is told when a liturgy's program was written.
type Notifier interface {
	DocumentUpdated(ctx context.Context, liturgyID string) error
}

// Result summarizes a commit.
type Result struct {
	// NoOp is set when the document was clean and nothing was sent.
	NoOp bool `json:"no_op,omitempty"`

	Deleted  int `json:"deleted"`
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`

	// NotifyErr holds a notifier failure. The commit itself succeeded.
	NotifyErr error `json:"-"`
}

// Committer executes commits against a Gateway. One Committer allows a
// single commit at a time.
type Committer struct {
	gw       Gateway
	notifier Notifier
	logger   *slog.Logger
	tracer   trace.Tracer

	inFlight atomic.Bool
}

// Option configures a Committer.
type Option func(*Committer)

// WithNotifier sets the notifier called after a successful write.
func WithNotifier(n Notifier) Option {
	return func(c *Committer) { c.notifier = n }
}

// WithLogger sets the logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(c *Committer) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTracer sets the tracer. Default: the global otel provider.
func WithTracer(t trace.Tracer) Option {
	return func(c *Committer) {
		if t != nil {
			c.tracer = t
		}
	}
}

// NewCommitter creates a Committer writing through gw.
func NewCommitter(gw Gateway, opts ...Option) *Committer {
	c := &Committer{
		gw:     gw,
		logger: slog.New(slog.DiscardHandler),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// InFlight reports whether a commit is running.
func (c *Committer) InFlight() bool {
	return c.inFlight.Load()
}

// Commit writes doc to the gateway and re-baselines it from the reloaded
// rows. A clean document is a no-op. On CodeReloadFailed the writes are
// durable and doc is marked stale, so later commits fail with CodeStale until
// it is loaded again. On any other error the document is left exactly as it
// was.
//
// Once the delete phase starts, cancellation of ctx is ignored so that the
// delete and upsert are never split by the caller going away.
func (c *Committer) Commit(ctx context.Context, doc *document.Document) (Result, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return Result{}, ErrCommitInFlight
	}
	defer c.inFlight.Store(false)

	liturgyID := doc.LiturgyID()
	if doc.Stale() {
		return Result{}, newStaleError(liturgyID)
	}
	if !doc.IsDirty() {
		return Result{NoOp: true}, nil
	}

	ctx, span := c.tracer.Start(ctx, "reconcile.commit",
		trace.WithAttributes(attribute.String("liturgy.id", liturgyID)))
	defer span.End()

	plan, err := BuildPlan(doc)
	if err != nil {
		return Result{}, c.fail(span, err)
	}
	span.SetAttributes(
		attribute.Int("plan.deletes", len(plan.Deletes)),
		attribute.Int("plan.upserts", len(plan.Upserts)),
	)

	if err := ctx.Err(); err != nil {
		return Result{}, c.fail(span, fmt.Errorf("commit %s: %w", liturgyID, err))
	}
	ctx = context.WithoutCancel(ctx)

	c.logger.Debug("commit plan",
		"liturgy", liturgyID,
		"deletes", len(plan.Deletes),
		"inserts", plan.Inserts(),
		"updates", plan.Updates())

	if len(plan.Deletes) > 0 {
		if err := c.phase(ctx, "reconcile.delete", len(plan.Deletes), func(ctx context.Context) error {
			return c.gw.BulkDelete(ctx, plan.Deletes)
		}); err != nil {
			return Result{}, c.fail(span, &CommitError{
				Code:      CodeDeleteFailed,
				Message:   "bulk delete failed; nothing was changed, retry the commit",
				LiturgyID: liturgyID,
				Err:       err,
			})
		}
	}

	if len(plan.Upserts) > 0 {
		if err := c.phase(ctx, "reconcile.upsert", len(plan.Upserts), func(ctx context.Context) error {
			return c.gw.BulkUpsert(ctx, plan.Upserts)
		}); err != nil {
			ce := &CommitError{
				Code:      CodeUpsertFailed,
				Message:   "bulk upsert failed; nothing was changed, retry the commit",
				LiturgyID: liturgyID,
				Err:       err,
			}
			if len(plan.Deletes) > 0 {
				ce.Message = "bulk upsert failed after steps were deleted; reload the liturgy and check it"
				ce.Deleted = plan.Deletes
				c.logger.Error("partial commit",
					"liturgy", liturgyID,
					"deleted", len(plan.Deletes),
					"error", err)
			}
			return Result{}, c.fail(span, ce)
		}
	}

	result := Result{
		Deleted:  len(plan.Deletes),
		Inserted: plan.Inserts(),
		Updated:  plan.Updates(),
	}

	if c.notifier != nil {
		if err := c.notifier.DocumentUpdated(ctx, liturgyID); err != nil {
			c.logger.Warn("notify failed", "liturgy", liturgyID, "error", err)
			span.AddEvent("notify failed", trace.WithAttributes(attribute.String("error", err.Error())))
			result.NotifyErr = err
		}
	}

	var steps []program.Step
	if err := c.phase(ctx, "reconcile.reload", 0, func(ctx context.Context) error {
		rows, err := c.gw.ListSteps(ctx, liturgyID)
		if err != nil {
			return err
		}
		steps, err = program.StepsFromRows(rows)
		return err
	}); err != nil {
		doc.MarkStale()
		c.logger.Warn("reload failed after commit", "liturgy", liturgyID, "error", err)
		return result, c.fail(span, &CommitError{
			Code:      CodeReloadFailed,
			Message:   "changes were saved but the liturgy could not be reloaded",
			LiturgyID: liturgyID,
			Err:       err,
		})
	}
	doc.Load(steps)

	c.logger.Info("commit complete",
		"liturgy", liturgyID,
		"deleted", result.Deleted,
		"inserted", result.Inserted,
		"updated", result.Updated)
	return result, nil
}

// phase runs fn inside a child span.
func (c *Committer) phase(ctx context.Context, name string, rows int, fn func(context.Context) error) error {
	ctx, span := c.tracer.Start(ctx, name)
	defer span.End()
	if rows > 0 {
		span.SetAttributes(attribute.Int("rows", rows))
	}
	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (c *Committer) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if code := CodeOf(err); code != "" {
		span.SetAttributes(attribute.String("commit.error", string(code)))
	}
	return err
}
