package lesson

import (
	"errors"
	"testing"
	"time"
)

func TestCatalogIsCumulative(t *testing.T) {
	lessons := Lessons()
	if len(lessons) != 40 {
		t.Fatalf("expected 40 lessons, got %d", len(lessons))
	}
	if len(Sequence) != 41 {
		t.Fatalf("expected 41 characters, got %d", len(Sequence))
	}
	first := lessons[0]
	if first.Chars != "KM" || first.Name != "01 - K, M" || first.NewChar != 'M' {
		t.Fatalf("unexpected first lesson: %+v", first)
	}
	for i := 1; i < len(lessons); i++ {
		prev, cur := lessons[i-1], lessons[i]
		if len(cur.Chars) != len(prev.Chars)+1 {
			t.Fatalf("lesson %d does not add exactly one char", cur.ID)
		}
		if cur.Chars[:len(prev.Chars)] != prev.Chars {
			t.Fatalf("lesson %d does not extend lesson %d", cur.ID, prev.ID)
		}
	}
	last := lessons[len(lessons)-1]
	if last.Chars != Sequence || last.Name != "40 - X" {
		t.Fatalf("unexpected last lesson: %+v", last)
	}
}

func TestGetRejectsOutOfRange(t *testing.T) {
	for _, id := range []int{0, -1, 41} {
		if _, err := Get(id); !errors.Is(err, ErrLessonNotFound) {
			t.Fatalf("expected ErrLessonNotFound for %d, got %v", id, err)
		}
	}
	l, err := Get(2)
	if err != nil {
		t.Fatalf("get lesson 2: %v", err)
	}
	if l.Chars != "KMU" || l.Name != "02 - U" {
		t.Fatalf("unexpected lesson 2: %+v", l)
	}
}

func TestEveryCharacterHasCode(t *testing.T) {
	for _, r := range Sequence {
		if _, ok := Code(r); !ok {
			t.Fatalf("missing code for %q", r)
		}
	}
	if _, ok := Code('!'); ok {
		t.Fatalf("did not expect a code for '!'")
	}
}

func TestTimingFarnsworth(t *testing.T) {
	std := NewTiming(20, 20)
	if std.Dit != 60*time.Millisecond {
		t.Fatalf("expected 60ms dit at 20 wpm, got %v", std.Dit)
	}
	if std.Farnsworth() {
		t.Fatalf("did not expect farnsworth spacing")
	}
	fw := NewTiming(20, 10)
	if !fw.Farnsworth() {
		t.Fatalf("expected farnsworth spacing")
	}
	if fw.CharSpace <= std.CharSpace || fw.WordSpace <= std.WordSpace {
		t.Fatalf("expected stretched spacing, got %+v", fw)
	}
	if fw.Dit != std.Dit {
		t.Fatalf("character speed must not change with farnsworth")
	}
}

func TestTimingDuration(t *testing.T) {
	tm := NewTiming(20, 20)
	// E is a single dit.
	want := 800*time.Millisecond + tm.Dit + 1200*time.Millisecond
	if got := tm.Duration("E"); got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
	two := tm.Duration("EE")
	if two != want+tm.CharSpace+tm.Dit {
		t.Fatalf("unexpected duration for EE: %v", two)
	}
	spaced := tm.Duration("E E")
	if spaced != want+tm.WordSpace+tm.Dit {
		t.Fatalf("unexpected duration for 'E E': %v", spaced)
	}
}
