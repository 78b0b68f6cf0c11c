package fileid

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	id := New("lesson-plan")
	if !strings.HasPrefix(id, "lesson-plan-") {
		t.Errorf("ID should keep the prefix: %q", id)
	}
	parts := strings.SplitN(id, "-", 4)
	if len(parts) != 4 {
		t.Fatalf("unexpected shape: %q", id)
	}
	if len(id) < len("lesson-plan-")+19+36 {
		t.Errorf("ID too short: %q", id)
	}
}

func TestNew_sameTimestampStillUnique(t *testing.T) {
	fixed := time.Unix(1700000000, 0)
	now = func() time.Time { return fixed }
	defer func() { now = time.Now }()

	a, b := New("assignment"), New("assignment")
	if a == b {
		t.Errorf("two names with the same timestamp collided: %q", a)
	}
}

func TestNew_concurrentUnique(t *testing.T) {
	const n = 1000
	var (
		mu   sync.Mutex
		seen = make(map[string]bool, n)
		wg   sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := New("daily-record")
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	if len(seen) != n {
		t.Errorf("expected %d unique names, got %d", n, len(seen))
	}
}

func TestSourceKey(t *testing.T) {
	tests := []struct {
		field, filename, prefix, suffix string
	}{
		{"teacherGuide", "Guide.PDF", "sources/teacherguide-", ".pdf"},
		{"scheme", `C:\docs\scheme.pdf`, "sources/scheme-", ".pdf"},
		{"studentBook", "book", "sources/studentbook-", ""},
		{"scheme", "weird.p df", "sources/scheme-", ""},
	}
	for _, tt := range tests {
		got := SourceKey(tt.field, tt.filename)
		if !strings.HasPrefix(got, tt.prefix) || !strings.HasSuffix(got, tt.suffix) {
			t.Errorf("SourceKey(%q, %q) = %q", tt.field, tt.filename, got)
		}
		if tt.suffix == "" && strings.Contains(got[len(tt.prefix):], ".") {
			t.Errorf("SourceKey(%q, %q) kept a bad extension: %q", tt.field, tt.filename, got)
		}
	}
}

func TestSanitize(t *testing.T) {
	tests := map[string]string{
		"Lesson Plan":   "lesson-plan",
		"../../etc":     "etc",
		"a__b":          "a-b",
		"":              "",
		"daily-record!": "daily-record",
	}
	for in, want := range tests {
		if got := Sanitize(in); got != want {
			t.Errorf("Sanitize(%q) = %q, want %q", in, got, want)
		}
	}
}
