package materials

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/verte-zerg/koch/internal/lesson"
)

type fixedSource string

func (s fixedSource) Generate(lesson.Lesson) string { return string(s) }

func TestFilterTranscript(t *testing.T) {
	cases := map[string]string{
		"kmkmk mkkmm":  "KMKMK MKKMM",
		"  KM\n\nMK  ": "KM MK",
		"K#M ? /":      "KM ? /",
		"":             "",
		"\t\n":         "",
		"k m\r\nu  r":  "K M U R",
	}
	for in, want := range cases {
		if got := FilterTranscript(in); got != want {
			t.Fatalf("filter %q: expected %q, got %q", in, want, got)
		}
	}
}

func TestTranscriptRoundTrip(t *testing.T) {
	dir := t.TempDir()
	if err := WriteTranscript(dir, 3, 2, "KMURE\nSKMUR"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "Lesson-03", "koch-002.txt")); err != nil {
		t.Fatalf("expected transcript at lesson path: %v", err)
	}
	text, err := LoadTranscript(dir, 3, 2)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if text != "KMURE SKMUR" {
		t.Fatalf("unexpected transcript %q", text)
	}
}

func TestLoadTranscriptErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadTranscript(dir, 1, 1); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not exist, got %v", err)
	}
	if err := WriteTranscript(dir, 1, 1, "###"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadTranscript(dir, 1, 1); !errors.Is(err, ErrEmptyTranscript) {
		t.Fatalf("expected empty transcript error, got %v", err)
	}
}

func TestBuildAndCount(t *testing.T) {
	dir := t.TempDir()
	calls := 0
	err := Build(context.Background(), dir, 3, fixedSource("KMKMK"), func(lesson.Lesson, int) { calls++ })
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if calls != lesson.Count {
		t.Fatalf("expected %d progress calls, got %d", lesson.Count, calls)
	}
	if got := TextCount(dir, 1); got != 3 {
		t.Fatalf("expected 3 texts, got %d", got)
	}
	if got := TextCount(filepath.Join(dir, "missing"), 1); got != 0 {
		t.Fatalf("expected 0 texts for missing dir, got %d", got)
	}
}

func TestBuildHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Build(ctx, t.TempDir(), 1, fixedSource("KM"), nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	report := Check(dir, 1)
	if report.Complete() {
		t.Fatalf("expected incomplete report for empty dir")
	}
	if len(report.MissingCharacters) != len(lesson.Sequence) || len(report.IncompleteLessons) != lesson.Count {
		t.Fatalf("unexpected report: %+v", report)
	}

	for idx := range lesson.Sequence {
		touch(t, CharacterAudioPath(dir, idx))
	}
	for id := lesson.First; id <= lesson.Last; id++ {
		if id == 7 {
			continue
		}
		touch(t, TextPath(dir, id, 1))
		touch(t, AudioPath(dir, id, 1))
	}
	report = Check(dir, 1)
	if len(report.MissingCharacters) != 0 {
		t.Fatalf("unexpected missing characters: %v", report.MissingCharacters)
	}
	if len(report.IncompleteLessons) != 1 || report.IncompleteLessons[0] != 7 {
		t.Fatalf("unexpected incomplete lessons: %v", report.IncompleteLessons)
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}
