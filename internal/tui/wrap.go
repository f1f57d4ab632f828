package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/koch/internal/model"
)

// spaceMark stands in for a space that would otherwise be invisible.
const spaceMark = '•'

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

// buildDiffRunes renders marks the way a checked drill is shown: typed
// characters for correct and incorrect positions, the expected character for
// missing ones and the typed character for extras.
func buildDiffRunes(marks []model.Mark, p palette) []styledRune {
	out := make([]styledRune, 0, len(marks))
	for _, mark := range marks {
		var displayed rune
		var style lipgloss.Style
		switch mark.Kind {
		case model.Correct:
			displayed, style = mark.Typed, p.correct
		case model.Incorrect:
			displayed, style = mark.Typed, p.incorrect
		case model.Missing:
			displayed, style = mark.Expected, p.missing
		default:
			displayed, style = mark.Typed, p.extra
		}
		isSpace := displayed == ' '
		if isSpace && mark.Kind != model.Correct {
			displayed = spaceMark
			isSpace = false
		}
		out = append(out, styledRune{
			s:       style.Render(string(displayed)),
			width:   runewidth.RuneWidth(displayed),
			isSpace: isSpace,
		})
	}
	return out
}

func buildPlainRunes(text string, style lipgloss.Style) []styledRune {
	runes := []rune(text)
	out := make([]styledRune, 0, len(runes))
	for _, r := range runes {
		out = append(out, styledRune{
			s:       style.Render(string(r)),
			width:   runewidth.RuneWidth(r),
			isSpace: r == ' ',
		})
	}
	return out
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var out strings.Builder
	line := make([]styledRune, 0, len(runes))
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				out.WriteString(renderStyledRunes(line[:lastSpaceIdx]))
				out.WriteRune('\n')
				line = append([]styledRune{}, line[lastSpaceIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastSpaceIdx = lastSpaceIndex(line)
			} else {
				out.WriteString(renderStyledRunes(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	out.WriteString(renderStyledRunes(line))
	return out.String()
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
