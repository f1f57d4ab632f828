// Package generator builds random Koch practice transcripts.
package generator

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/verte-zerg/koch/internal/lesson"
)

const (
	// Groups is the number of character groups per transcript.
	Groups = 10
	// GroupSize is the number of characters per group.
	GroupSize = 5

	newCharFocusWeight = 2.0
	gradualWeight      = 1.5
	difficultyStep     = 0.15
)

// Mode controls how often each character of a lesson is drawn.
type Mode string

const (
	Uniform      Mode = "uniform"
	NewCharFocus Mode = "new-char-focus"
	Gradual      Mode = "gradual"
	Difficulty   Mode = "difficulty"
)

// Modes lists the supported weighting modes.
var Modes = []Mode{Uniform, NewCharFocus, Gradual, Difficulty}

// ParseMode parses a weighting mode name. Empty means gradual.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")) {
	case Uniform:
		return Uniform, nil
	case NewCharFocus:
		return NewCharFocus, nil
	case Gradual, "":
		return Gradual, nil
	case Difficulty:
		return Difficulty, nil
	default:
		return Gradual, fmt.Errorf("unknown generator mode %q", s)
	}
}

// Generator produces randomized Koch transcripts.
type Generator struct {
	rnd  *rand.Rand
	mode Mode
}

// New returns a Generator seeded with the current time.
func New(mode Mode) *Generator {
	return NewSeeded(mode, time.Now().UnixNano())
}

// NewSeeded returns a deterministic Generator.
func NewSeeded(mode Mode, seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed)), mode: mode}
}

// Mode returns the weighting mode.
func (g *Generator) Mode() Mode {
	return g.mode
}

// Weights returns the draw weight of every character in chars. The new
// character is the last one.
func Weights(chars string, mode Mode) []float64 {
	runes := []rune(chars)
	weights := make([]float64, len(runes))
	for i, r := range runes {
		w := 1.0
		switch mode {
		case NewCharFocus:
			if i == len(runes)-1 {
				w = newCharFocusWeight
			}
		case Gradual:
			if i == len(runes)-1 {
				w = gradualWeight
			}
		case Difficulty:
			if code, ok := lesson.Code(r); ok {
				w = 1.0 + float64(len(code))*difficultyStep
			}
		}
		weights[i] = w
	}
	return weights
}

// Generate returns Groups space-separated groups of GroupSize characters
// drawn from the lesson's character set.
func (g *Generator) Generate(l lesson.Lesson) string {
	runes := []rune(l.Chars)
	if len(runes) == 0 {
		return ""
	}
	weights := Weights(l.Chars, g.mode)
	total := 0.0
	for _, w := range weights {
		total += w
	}

	var b strings.Builder
	for group := 0; group < Groups; group++ {
		if group > 0 {
			b.WriteByte(' ')
		}
		for i := 0; i < GroupSize; i++ {
			b.WriteRune(runes[g.pick(weights, total)])
		}
	}
	return b.String()
}

func (g *Generator) pick(weights []float64, total float64) int {
	r := g.rnd.Float64() * total
	acc := 0.0
	for j, w := range weights {
		acc += w
		if r < acc {
			return j
		}
	}
	return len(weights) - 1
}
