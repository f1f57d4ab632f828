// Package lesson defines the Koch lesson catalog and Morse code table.
package lesson

import (
	"errors"
	"fmt"
	"strings"
)

// Sequence is the Koch character order. Lesson N drills the first N+1 characters.
const Sequence = "KMURESNAPTLWI.JZ=FOY,VG5/Q92H38B?47C1D60X"

// Alphabet is every character the trainer knows, in Koch order.
const Alphabet = Sequence

const (
	// Count is the number of lessons in the catalog.
	Count = len(Sequence) - 1
	// First is the lowest lesson id.
	First = 1
	// Last is the highest lesson id.
	Last = Count

	DefaultCharWPM      = 20
	DefaultEffectiveWPM = 10
)

// ErrLessonNotFound is returned for lesson ids outside the catalog.
var ErrLessonNotFound = errors.New("lesson not found")

// Lesson is one stage of the Koch curriculum.
type Lesson struct {
	ID           int
	Name         string
	Chars        string
	NewChar      rune
	CharWPM      int
	EffectiveWPM int
}

// Timing returns the audio timing of the lesson.
func (l Lesson) Timing() Timing {
	return NewTiming(l.CharWPM, l.EffectiveWPM)
}

var catalog = buildCatalog()

func buildCatalog() []Lesson {
	lessons := make([]Lesson, 0, Count)
	for id := First; id <= Last; id++ {
		chars := Sequence[:id+1]
		name := fmt.Sprintf("%02d - %c", id, Sequence[id])
		if id == First {
			name = fmt.Sprintf("%02d - %s", id, strings.Join(strings.Split(chars, ""), ", "))
		}
		lessons = append(lessons, Lesson{
			ID:           id,
			Name:         name,
			Chars:        chars,
			NewChar:      rune(Sequence[id]),
			CharWPM:      DefaultCharWPM,
			EffectiveWPM: DefaultEffectiveWPM,
		})
	}
	return lessons
}

// Lessons returns a copy of the full catalog ordered by id.
func Lessons() []Lesson {
	out := make([]Lesson, len(catalog))
	copy(out, catalog)
	return out
}

// Get returns the lesson with the given id.
func Get(id int) (Lesson, error) {
	if !Valid(id) {
		return Lesson{}, fmt.Errorf("%w: %d (want %d-%d)", ErrLessonNotFound, id, First, Last)
	}
	return catalog[id-1], nil
}

// Valid reports whether id names a lesson.
func Valid(id int) bool {
	return id >= First && id <= Last
}

// Clamp forces id into the catalog range.
func Clamp(id int) int {
	if id < First {
		return First
	}
	if id > Last {
		return Last
	}
	return id
}

// InAlphabet reports whether r is one of the Koch characters.
func InAlphabet(r rune) bool {
	return strings.ContainsRune(Alphabet, r)
}

// Index returns the position of r in the Koch sequence, or -1.
func Index(r rune) int {
	return strings.IndexRune(Sequence, r)
}
