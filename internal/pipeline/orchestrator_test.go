package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hyperjump/lessonforge/internal/completion"
	"github.com/hyperjump/lessonforge/internal/content"
	"github.com/hyperjump/lessonforge/internal/extract"
	"github.com/hyperjump/lessonforge/internal/models"
	"github.com/hyperjump/lessonforge/internal/prompt"
	"github.com/hyperjump/lessonforge/internal/splitter"
	"github.com/hyperjump/lessonforge/internal/storage"
	"github.com/hyperjump/lessonforge/internal/testutil"
)

const fractionsCompletion = "Plan text ### Notes text ### Assignment text ### Record text"

type harness struct {
	orch    *Orchestrator
	store   *content.LocalStore
	lessons storage.LessonStore

	mu     sync.Mutex
	states []State
}

func newHarness(t *testing.T, client completion.Client, lessons storage.LessonStore) *harness {
	t.Helper()
	store, err := content.NewLocalStore(filepath.Join(t.TempDir(), "uploads"), "/uploads")
	if err != nil {
		t.Fatal(err)
	}
	if lessons == nil {
		db, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "lessons.db"))
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = db.Close() })
		lessons = db
	}
	h := &harness{store: store, lessons: lessons}
	opts := Options{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		OnState: func(_ string, _, to State) {
			h.mu.Lock()
			h.states = append(h.states, to)
			h.mu.Unlock()
		},
	}
	h.orch = NewOrchestrator(extract.NewExtractor(), prompt.NewComposer(0), client, store, lessons, opts, nil)
	return h
}

func (h *harness) files(t *testing.T) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(h.store.Dir(), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(h.store.Dir(), p)
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func fractionsRequest() *models.GenerateRequest {
	return &models.GenerateRequest{
		Title:        "Fractions Lesson",
		Owner:        "teacher@school.test",
		TeacherGuide: &models.UploadedDocument{Filename: "guide.pdf", Content: testutil.PDF("Topic A")},
		StudentBook:  &models.UploadedDocument{Filename: "book.pdf", Content: testutil.PDF("Topic B")},
		Scheme:       &models.UploadedDocument{Filename: "scheme.pdf", Content: testutil.PDF("Topic C")},
	}
}

func TestRun_fractionsLesson(t *testing.T) {
	mock := completion.NewMock(fractionsCompletion)
	h := newHarness(t, mock, nil)
	ctx := context.Background()

	res, err := h.orch.Run(ctx, fractionsRequest())
	if err != nil {
		t.Fatal(err)
	}

	prompts := mock.Prompts()
	if len(prompts) != 1 {
		t.Fatalf("expected 1 completion call, got %d", len(prompts))
	}
	for _, want := range []string{"Lesson Title: Fractions Lesson", "Topic A", "Topic B", "Topic C"} {
		if !strings.Contains(prompts[0], want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	want := []string{"Plan text", "Notes text", "Assignment text", "Record text"}
	if len(res.Artifacts) != len(want) {
		t.Fatalf("expected %d artifacts, got %d", len(want), len(res.Artifacts))
	}
	ex := extract.NewExtractor()
	for i, a := range res.Artifacts {
		if a.Label != models.Labels[i] {
			t.Errorf("artifact %d label = %s, want %s", i, a.Label, models.Labels[i])
		}
		got, err := ex.ExtractFile(ctx, filepath.Join(h.store.Dir(), a.DOCX.Path))
		if err != nil {
			t.Fatal(err)
		}
		if got != want[i] {
			t.Errorf("%s docx text = %q, want %q", a.Label, got, want[i])
		}
		if _, err := os.Stat(filepath.Join(h.store.Dir(), a.PDF.Path)); err != nil {
			t.Errorf("%s pdf missing: %v", a.Label, err)
		}
	}

	n, err := h.lessons.CountLessons(ctx)
	if err != nil || n != 1 {
		t.Fatalf("CountLessons = %d, %v", n, err)
	}
	rec, err := h.lessons.GetLesson(ctx, res.Lesson.ID)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Title != "Fractions Lesson" || rec.Owner != "teacher@school.test" {
		t.Errorf("record = %+v", rec)
	}
	if rec.Outputs != (models.Outputs{LessonPlan: want[0], LessonNotes: want[1], Assignment: want[2], DailyRecord: want[3]}) {
		t.Errorf("outputs = %+v", rec.Outputs)
	}
	for _, p := range []string{rec.Files.TeacherGuide, rec.Files.StudentBook, rec.Files.Scheme} {
		if !strings.HasPrefix(p, "sources/") || !strings.HasSuffix(p, ".pdf") {
			t.Errorf("source path = %q", p)
		}
	}

	// 3 sources + 4 docx + 4 pdf
	if files := h.files(t); len(files) != 11 {
		t.Errorf("expected 11 files, got %d: %v", len(files), files)
	}

	resp := res.Response()
	if resp.LessonID != rec.ID || resp.DailyRecord.PDF != res.Artifacts[3].PDF.URL {
		t.Errorf("response = %+v", resp)
	}
	if !strings.HasPrefix(resp.LessonPlan.DOCX, "/uploads/lesson-plan-") {
		t.Errorf("lesson plan url = %q", resp.LessonPlan.DOCX)
	}

	wantStates := []State{StateReceived, StateExtracting, StateComposing, StateCompleting,
		StateSplitting, StateRendering, StatePersisting, StateDone}
	if strings.Join(statesToStrings(h.states), ",") != strings.Join(statesToStrings(wantStates), ",") {
		t.Errorf("states = %v, want %v", h.states, wantStates)
	}
}

func statesToStrings(states []State) []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = string(s)
	}
	return out
}

func TestRun_oneDelimiterIsSplitError(t *testing.T) {
	h := newHarness(t, completion.NewMock("Plan text ### Notes text"), nil)
	ctx := context.Background()

	res, err := h.orch.Run(ctx, fractionsRequest())
	if res != nil {
		t.Errorf("expected no result, got %+v", res)
	}
	perr, ok := AsError(err)
	if !ok || perr.Kind != KindSplit || perr.Stage != StateSplitting {
		t.Fatalf("expected split error at splitting, got %v", err)
	}
	var serr *splitter.Error
	if !errors.As(err, &serr) || serr.Count != 2 {
		t.Errorf("expected *splitter.Error with count 2, got %v", err)
	}
	if perr.HTTPStatus() != http.StatusBadGateway {
		t.Errorf("status = %d", perr.HTTPStatus())
	}
	if n, _ := h.lessons.CountLessons(ctx); n != 0 {
		t.Errorf("expected no lesson, got %d", n)
	}
	if files := h.files(t); len(files) != 0 {
		t.Errorf("expected no files, got %v", files)
	}
	if last := h.states[len(h.states)-1]; last != StateFailed {
		t.Errorf("last state = %s", last)
	}
}

func TestRun_unreadableUploadFailsBeforeCompletion(t *testing.T) {
	mock := completion.NewMock(fractionsCompletion)
	h := newHarness(t, mock, nil)
	req := fractionsRequest()
	req.StudentBook.Content = []byte("this is not a pdf")

	_, err := h.orch.Run(context.Background(), req)
	perr, ok := AsError(err)
	if !ok || perr.Kind != KindExtraction {
		t.Fatalf("expected extraction error, got %v", err)
	}
	if perr.Field != models.FieldStudentBook {
		t.Errorf("field = %q", perr.Field)
	}
	if !errors.Is(err, extract.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported in chain: %v", err)
	}
	if perr.HTTPStatus() != http.StatusUnprocessableEntity {
		t.Errorf("status = %d", perr.HTTPStatus())
	}
	if mock.Calls() != 0 {
		t.Errorf("completion called %d times", mock.Calls())
	}
	if files := h.files(t); len(files) != 0 {
		t.Errorf("uploads should be removed, got %v", files)
	}
}

// flakyClient fails the first failures calls with err, then returns response.
type flakyClient struct {
	failures int
	err      error
	response string

	mu    sync.Mutex
	calls int
}

func (c *flakyClient) Complete(ctx context.Context, _ string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.calls <= c.failures {
		return "", c.err
	}
	return c.response, nil
}

func TestRun_completionRetries(t *testing.T) {
	retryable := &completion.Error{StatusCode: http.StatusTooManyRequests, Retryable: true, Err: errors.New("slow down")}
	permanent := &completion.Error{StatusCode: http.StatusUnauthorized, Err: errors.New("bad key")}

	tests := []struct {
		name      string
		client    *flakyClient
		wantCalls int
		wantErr   bool
	}{
		{"recovers after retryable failures", &flakyClient{failures: 2, err: retryable, response: fractionsCompletion}, 3, false},
		{"gives up after max attempts", &flakyClient{failures: 5, err: retryable, response: fractionsCompletion}, 3, true},
		{"permanent failure is not retried", &flakyClient{failures: 1, err: permanent, response: fractionsCompletion}, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.client, nil)
			_, err := h.orch.Run(context.Background(), fractionsRequest())
			if tt.client.calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", tt.client.calls, tt.wantCalls)
			}
			if !tt.wantErr {
				if err != nil {
					t.Fatal(err)
				}
				return
			}
			perr, ok := AsError(err)
			if !ok || perr.Kind != KindCompletion || perr.Stage != StateCompleting {
				t.Fatalf("expected completion error, got %v", err)
			}
			if perr.HTTPStatus() != http.StatusBadGateway {
				t.Errorf("status = %d", perr.HTTPStatus())
			}
			if files := h.files(t); len(files) != 0 {
				t.Errorf("expected no files, got %v", files)
			}
		})
	}
}

func TestRun_splitErrorIsNotRetried(t *testing.T) {
	mock := completion.NewMock("only one section")
	h := newHarness(t, mock, nil)
	if _, err := h.orch.Run(context.Background(), fractionsRequest()); err == nil {
		t.Fatal("expected error")
	}
	if mock.Calls() != 1 {
		t.Errorf("calls = %d, want 1", mock.Calls())
	}
}

// failingLessons is a LessonStore whose writes always fail.
type failingLessons struct {
	storage.LessonStore
}

func (failingLessons) CreateLesson(context.Context, *models.LessonRecord) error {
	return errors.New("database is locked")
}

func TestRun_persistFailureRemovesArtifacts(t *testing.T) {
	h := newHarness(t, completion.NewMock(fractionsCompletion), failingLessons{})
	_, err := h.orch.Run(context.Background(), fractionsRequest())
	perr, ok := AsError(err)
	if !ok || perr.Kind != KindPersist || perr.Stage != StatePersisting {
		t.Fatalf("expected persist error, got %v", err)
	}
	if perr.HTTPStatus() != http.StatusInternalServerError {
		t.Errorf("status = %d", perr.HTTPStatus())
	}
	if files := h.files(t); len(files) != 0 {
		t.Errorf("expected rendered files removed, got %v", files)
	}
}

func TestRun_invalidRequest(t *testing.T) {
	mock := completion.NewMock(fractionsCompletion)
	h := newHarness(t, mock, nil)
	req := fractionsRequest()
	req.Scheme = nil

	_, err := h.orch.Run(context.Background(), req)
	perr, ok := AsError(err)
	if !ok || perr.Kind != KindRequest || perr.Stage != StateReceived {
		t.Fatalf("expected request error, got %v", err)
	}
	if perr.HTTPStatus() != http.StatusBadRequest {
		t.Errorf("status = %d", perr.HTTPStatus())
	}
	if mock.Calls() != 0 {
		t.Error("completion should not be called")
	}
}

func TestRun_canceledContext(t *testing.T) {
	mock := completion.NewMock(fractionsCompletion)
	h := newHarness(t, mock, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.orch.Run(ctx, fractionsRequest())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if n, _ := h.lessons.CountLessons(context.Background()); n != 0 {
		t.Errorf("expected no lesson, got %d", n)
	}
	if files := h.files(t); len(files) != 0 {
		t.Errorf("expected no files, got %v", files)
	}
}

func TestRun_concurrentRunsDoNotCollide(t *testing.T) {
	h := newHarness(t, completion.NewMock(fractionsCompletion), nil)
	const runs = 5
	var wg sync.WaitGroup
	errs := make(chan error, runs)
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.orch.Run(context.Background(), fractionsRequest())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	if files := h.files(t); len(files) != runs*11 {
		t.Errorf("expected %d files, got %d", runs*11, len(files))
	}
	list, err := h.lessons.ListLessons(context.Background(), "teacher@school.test")
	if err != nil || len(list) != runs {
		t.Errorf("ListLessons = %d, %v", len(list), err)
	}
}

func TestError_HTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindRequest, http.StatusBadRequest},
		{KindExtraction, http.StatusUnprocessableEntity},
		{KindPrompt, http.StatusInternalServerError},
		{KindCompletion, http.StatusBadGateway},
		{KindSplit, http.StatusBadGateway},
		{KindRender, http.StatusInternalServerError},
		{KindPersist, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		e := &Error{Kind: tt.kind, Stage: StateFailed, Err: errors.New("x")}
		if got := e.HTTPStatus(); got != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.kind, got, tt.want)
		}
	}
}
