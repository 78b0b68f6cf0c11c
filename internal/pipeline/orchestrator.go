// Package pipeline runs lesson generation: extract, compose, complete, split, render, persist.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/lessonforge/internal/completion"
	"github.com/hyperjump/lessonforge/internal/content"
	"github.com/hyperjump/lessonforge/internal/extract"
	"github.com/hyperjump/lessonforge/internal/fileid"
	"github.com/hyperjump/lessonforge/internal/models"
	"github.com/hyperjump/lessonforge/internal/prompt"
	"github.com/hyperjump/lessonforge/internal/render"
	"github.com/hyperjump/lessonforge/internal/splitter"
	"github.com/hyperjump/lessonforge/internal/storage"
	"github.com/hyperjump/lessonforge/pkg/utils"
)

// Options tunes completion retries and exposes state transitions.
type Options struct {
	// MaxAttempts bounds completion calls per run, including the first. Defaults to 3.
	MaxAttempts int
	// InitialBackoff is the wait before the second attempt. Defaults to 1s.
	InitialBackoff time.Duration
	// MaxBackoff caps the wait between attempts. Defaults to 10s.
	MaxBackoff time.Duration
	OnState    StateHook
}

func (o *Options) applyDefaults() {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = time.Second
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = 10 * time.Second
	}
}

// Orchestrator sequences one generation run per request. It is safe for concurrent use;
// runs share only the content and lesson stores.
type Orchestrator struct {
	extractor *extract.Extractor
	composer  *prompt.Composer
	completer completion.Client
	renderer  *render.Renderer
	content   content.Store
	lessons   storage.LessonStore
	opts      Options
	logger    *zap.Logger
}

// NewOrchestrator wires the pipeline stages. Renderer output and uploads go to store.
func NewOrchestrator(
	extractor *extract.Extractor,
	composer *prompt.Composer,
	completer completion.Client,
	store content.Store,
	lessons storage.LessonStore,
	opts Options,
	logger *zap.Logger,
) *Orchestrator {
	opts.applyDefaults()
	logger = utils.OrNop(logger)
	return &Orchestrator{
		extractor: extractor,
		composer:  composer,
		completer: completer,
		renderer:  render.NewRenderer(store, logger),
		content:   store,
		lessons:   lessons,
		opts:      opts,
		logger:    logger,
	}
}

// Result is the outcome of a successful run.
type Result struct {
	Lesson    *models.LessonRecord
	Artifacts []models.RenderedArtifact
}

// Response returns the API view of the result.
func (r *Result) Response() *models.GenerateResponse {
	return models.NewGenerateResponse(r.Lesson.ID, r.Artifacts)
}

// run carries the state of one generation run.
type run struct {
	o        *Orchestrator
	id       string
	state    State
	started  time.Time
	entered  time.Time
	logger   *zap.Logger
	stored   []string
	rendered []models.RenderedArtifact
}

func (r *run) enter(next State) {
	now := time.Now()
	r.logger.Info("Pipeline state",
		zap.String("from", string(r.state)),
		zap.String("stage", string(next)),
		zap.Duration("previous_took", now.Sub(r.entered)))
	if r.o.opts.OnState != nil {
		r.o.opts.OnState(r.id, r.state, next)
	}
	r.state = next
	r.entered = now
}

// fail moves the run to StateFailed, removes everything it wrote, and returns
// the error Run reports.
func (r *run) fail(kind Kind, field models.Field, err error) error {
	perr := &Error{Kind: kind, Stage: r.state, Field: field, Err: err}
	r.logger.Error("Pipeline failed",
		zap.String("kind", string(kind)),
		zap.String("stage", string(r.state)),
		zap.String("field", string(field)),
		zap.Duration("took", time.Since(r.started)),
		zap.Error(err))
	r.cleanup()
	r.enter(StateFailed)
	return perr
}

func (r *run) cleanup() {
	for _, a := range r.rendered {
		r.o.renderer.Remove(a)
	}
	for _, key := range r.stored {
		if err := r.o.content.Delete(context.Background(), key); err != nil {
			r.logger.Warn("Failed to delete upload", zap.String("path", key), zap.Error(err))
		}
	}
	r.rendered, r.stored = nil, nil
}

// Run executes one generation run for req. On success exactly one LessonRecord
// is persisted and eight files exist; on failure nothing the run wrote remains.
// Every error is a *Error.
func (o *Orchestrator) Run(ctx context.Context, req *models.GenerateRequest) (*Result, error) {
	now := time.Now()
	r := &run{o: o, id: uuid.NewString(), state: StateReceived, started: now, entered: now}
	r.logger = o.logger.With(zap.String("run_id", r.id))
	if o.opts.OnState != nil {
		o.opts.OnState(r.id, "", StateReceived)
	}

	if err := req.Validate(); err != nil {
		return nil, r.fail(KindRequest, "", err)
	}
	r.logger.Info("Pipeline started", zap.String("title", req.Title), zap.String("owner", req.Owner))

	var files models.SourceFiles
	for _, doc := range req.Documents() {
		key := fileid.SourceKey(string(doc.Field), doc.Filename)
		ref, err := o.content.Put(ctx, key, doc.Content)
		if err != nil {
			return nil, r.fail(KindPersist, doc.Field, err)
		}
		r.stored = append(r.stored, ref.Path)
		doc.Path = ref.Path
		switch doc.Field {
		case models.FieldTeacherGuide:
			files.TeacherGuide = ref.Path
		case models.FieldStudentBook:
			files.StudentBook = ref.Path
		case models.FieldScheme:
			files.Scheme = ref.Path
		}
	}

	r.enter(StateExtracting)
	texts, field, err := o.extractAll(ctx, req.Documents())
	if err != nil {
		return nil, r.fail(KindExtraction, field, err)
	}

	r.enter(StateComposing)
	p, err := o.composer.Compose(req.Title, prompt.Sources{
		TeacherGuide: texts[0],
		StudentBook:  texts[1],
		Scheme:       texts[2],
	})
	if err != nil {
		return nil, r.fail(KindPrompt, "", err)
	}

	r.enter(StateCompleting)
	raw, err := o.complete(ctx, r, p)
	if err != nil {
		return nil, r.fail(KindCompletion, "", err)
	}

	r.enter(StateSplitting)
	set, err := splitter.Split(raw)
	if err != nil {
		return nil, r.fail(KindSplit, "", err)
	}

	r.enter(StateRendering)
	for i, label := range models.Labels {
		if err := ctx.Err(); err != nil {
			return nil, r.fail(KindRender, "", err)
		}
		a, err := o.renderer.Render(ctx, label, set[i])
		if err != nil {
			return nil, r.fail(KindRender, "", err)
		}
		r.rendered = append(r.rendered, a)
	}

	r.enter(StatePersisting)
	rec := &models.LessonRecord{
		ID:      r.id,
		Owner:   req.Owner,
		Title:   req.Title,
		Files:   files,
		Outputs: models.OutputsFromSet(set),
	}
	if err := o.lessons.CreateLesson(ctx, rec); err != nil {
		return nil, r.fail(KindPersist, "", err)
	}

	r.enter(StateDone)
	r.logger.Info("Pipeline finished",
		zap.String("lesson_id", rec.ID),
		zap.Duration("took", time.Since(r.started)))
	return &Result{Lesson: rec, Artifacts: r.rendered}, nil
}

type fieldError struct {
	field models.Field
	err   error
}

func (e *fieldError) Error() string { return e.err.Error() }

// extractAll extracts the documents concurrently. On failure it returns the
// field of the document whose error canceled the others.
func (o *Orchestrator) extractAll(ctx context.Context, docs []*models.UploadedDocument) ([]string, models.Field, error) {
	texts := make([]string, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	for i, doc := range docs {
		g.Go(func() error {
			text, err := o.extractor.Extract(gctx, doc.Content)
			if err != nil {
				return &fieldError{field: doc.Field, err: err}
			}
			texts[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var fe *fieldError
		if errors.As(err, &fe) {
			return nil, fe.field, fe.err
		}
		return nil, "", err
	}
	return texts, "", nil
}

// complete calls the completion service, retrying retryable failures with
// exponential backoff up to MaxAttempts calls.
func (o *Orchestrator) complete(ctx context.Context, r *run, p string) (string, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.opts.InitialBackoff
	b.MaxInterval = o.opts.MaxBackoff

	attempt := 0
	return backoff.Retry(ctx, func() (string, error) {
		attempt++
		out, err := o.completer.Complete(ctx, p)
		if err == nil {
			r.logger.Info("Completion received", zap.Int("attempt", attempt), zap.Int("chars", len(out)))
			return out, nil
		}
		if !completion.IsRetryable(err) || errors.Is(err, context.Canceled) {
			return "", backoff.Permanent(err)
		}
		return "", err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(o.opts.MaxAttempts)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			r.logger.Warn("Completion failed, retrying",
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Error(err))
		}),
	)
}
