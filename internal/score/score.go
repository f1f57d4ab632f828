// Package score compares transcripts with typed text and tracks lesson progress.
package score

import (
	"math"
	"strings"

	"github.com/verte-zerg/koch/internal/lesson"
	"github.com/verte-zerg/koch/internal/model"
)

// Accuracy comment thresholds.
const (
	ExcellentThreshold = 95.0
	GreatThreshold     = 90.0
	GoodThreshold      = 80.0
	FairThreshold      = 70.0
)

// Result is the outcome of comparing a transcript with the typed answer.
type Result struct {
	Marks     []model.Mark
	Accuracy  float64
	Correct   int
	Incorrect int
	Missing   int
	Extra     int
}

// Normalize uppercases s, turns line breaks into spaces and trims it.
func Normalize(s string) string {
	s = strings.ToUpper(s)
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

// Compare aligns expected and typed position by position. Positions beyond the
// typed text are missing and positions beyond the transcript are extra.
func Compare(expected, typed string) Result {
	exp := []rune(expected)
	got := []rune(typed)
	n := len(exp)
	if len(got) > n {
		n = len(got)
	}
	res := Result{Marks: make([]model.Mark, 0, n)}
	for i := 0; i < n; i++ {
		switch {
		case i >= len(got):
			res.Marks = append(res.Marks, model.Mark{Kind: model.Missing, Expected: exp[i]})
			res.Missing++
		case i >= len(exp):
			res.Marks = append(res.Marks, model.Mark{Kind: model.Extra, Typed: got[i]})
			res.Extra++
		case matches(exp[i], got[i]):
			res.Marks = append(res.Marks, model.Mark{Kind: model.Correct, Expected: exp[i], Typed: got[i]})
			res.Correct++
		default:
			res.Marks = append(res.Marks, model.Mark{Kind: model.Incorrect, Expected: exp[i], Typed: got[i]})
			res.Incorrect++
		}
	}
	res.Accuracy = Accuracy(res.Correct, len(exp))
	return res
}

// Group separators are not part of the alphabet but still have to match.
func matches(expected, typed rune) bool {
	if expected != typed {
		return false
	}
	return expected == ' ' || lesson.InAlphabet(typed)
}

// Accuracy returns correct/total as a percentage rounded to two decimals.
// A score below 100% never rounds up to 100.
func Accuracy(correct, total int) float64 {
	if total <= 0 || correct <= 0 {
		return 0
	}
	if correct >= total {
		return 100
	}
	acc := math.Round(float64(correct)/float64(total)*10000) / 100
	if acc >= 100 {
		return 99.99
	}
	return acc
}

// Comment returns a short remark for an accuracy.
func Comment(accuracy float64) string {
	switch {
	case accuracy >= ExcellentThreshold:
		return " - Excellent!"
	case accuracy >= GreatThreshold:
		return " - Great!"
	case accuracy >= GoodThreshold:
		return " - Good!"
	case accuracy >= FairThreshold:
		return " - Keep practicing!"
	default:
		return ""
	}
}
