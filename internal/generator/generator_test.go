package generator

import (
	"strings"
	"testing"

	"github.com/verte-zerg/koch/internal/lesson"
)

func TestGenerateShape(t *testing.T) {
	l, err := lesson.Get(5)
	if err != nil {
		t.Fatalf("get lesson: %v", err)
	}
	for _, mode := range Modes {
		text := NewSeeded(mode, 42).Generate(l)
		groups := strings.Split(text, " ")
		if len(groups) != Groups {
			t.Fatalf("%s: expected %d groups, got %d (%q)", mode, Groups, len(groups), text)
		}
		for _, group := range groups {
			if len(group) != GroupSize {
				t.Fatalf("%s: unexpected group %q", mode, group)
			}
			for _, r := range group {
				if !strings.ContainsRune(l.Chars, r) {
					t.Fatalf("%s: char %q outside lesson set %q", mode, r, l.Chars)
				}
			}
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	l, _ := lesson.Get(10)
	a := NewSeeded(Gradual, 7).Generate(l)
	b := NewSeeded(Gradual, 7).Generate(l)
	if a != b {
		t.Fatalf("expected same output for same seed: %q vs %q", a, b)
	}
}

func TestWeights(t *testing.T) {
	if got := Weights("KMU", Uniform); got[0] != 1 || got[2] != 1 {
		t.Fatalf("unexpected uniform weights: %v", got)
	}
	if got := Weights("KMU", NewCharFocus); got[2] != 2 || got[1] != 1 {
		t.Fatalf("unexpected focus weights: %v", got)
	}
	if got := Weights("KMU", Gradual); got[2] != 1.5 {
		t.Fatalf("unexpected gradual weights: %v", got)
	}
	// K is -.- (3 elements), M is -- (2).
	got := Weights("KM", Difficulty)
	if got[0] < 1.449 || got[0] > 1.451 || got[1] < 1.299 || got[1] > 1.301 {
		t.Fatalf("unexpected difficulty weights: %v", got)
	}
}

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{
		"":               Gradual,
		"uniform":        Uniform,
		"new_char_focus": NewCharFocus,
		"Difficulty":     Difficulty,
	}
	for in, want := range cases {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("parse %q: expected %s, got %s (%v)", in, want, got, err)
		}
	}
	if _, err := ParseMode("random"); err == nil {
		t.Fatalf("expected error")
	}
}
