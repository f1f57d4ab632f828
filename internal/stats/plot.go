package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/term"
)

// Curve is one line of a learning-curve plot. Values are drawn against the
// fixed Min..Max range, so accuracy keeps a true percent axis.
type Curve struct {
	Name   string
	Unit   string
	Min    float64
	Max    float64
	Values []float64
}

type curvePattern struct {
	name   string
	period int
	on     int
}

const (
	defaultCurveHeight = 10
	minCurveWidth      = 10
	axisWidth          = 6
	colorReset         = "\x1b[0m"
	fallbackTermWidth  = 80
)

var curvePatterns = []curvePattern{
	{name: "solid", period: 1, on: 1},
	{name: "dotted", period: 3, on: 1},
	{name: "dashed", period: 6, on: 4},
}

var curveColors = []string{
	"\x1b[36m", // cyan
	"\x1b[33m", // yellow
	"\x1b[35m", // magenta
}

// brailleBits maps a dot at (row, col) inside a 2x4 braille cell to its bit.
var brailleBits = [4][2]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// PlotCurves draws the curves on one braille canvas. The axis is labelled
// with the range of the first curve; the legend names every range.
func PlotCurves(w io.Writer, title string, curves []Curve, width, height int, forceColor bool) error {
	drawn := make([]Curve, 0, len(curves))
	for _, c := range curves {
		if len(c.Values) > 0 {
			drawn = append(drawn, c)
		}
	}
	if len(drawn) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultCurveHeight
	}
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	width = max(width, minCurveWidth)

	cv := newCanvas(width, height)
	for i, c := range drawn {
		cv.plot(i, c, curvePatterns[i%len(curvePatterns)])
	}

	useColor := colorEnabled(w, forceColor)
	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	labels := axisLabels(drawn[0], height)
	for y := range height {
		line := fmt.Sprintf("%*s┤", axisWidth-1, labels[y]) + cv.row(y, useColor)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, legend(drawn, useColor)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

// PlotWidthFor returns the canvas width that fits a terminal of totalWidth
// columns next to the axis.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minCurveWidth
	}
	return max(totalWidth-axisWidth, minCurveWidth)
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackTermWidth
	}
	return width
}

func colorEnabled(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func axisLabels(c Curve, height int) []string {
	labels := make([]string, height)
	format := func(v float64) string {
		return fmt.Sprintf("%.0f%s", v, c.Unit)
	}
	labels[0] = format(c.Max)
	if height > 1 {
		labels[height-1] = format(c.Min)
	}
	if height > 2 {
		labels[height/2] = format((c.Min + c.Max) / 2)
	}
	return labels
}

func legend(curves []Curve, useColor bool) string {
	parts := make([]string, len(curves))
	for i, c := range curves {
		label := fmt.Sprintf("%s %.0f-%.0f%s (%s)", c.Name, c.Min, c.Max, c.Unit, curvePatterns[i%len(curvePatterns)].name)
		if useColor {
			label = curveColors[i%len(curveColors)] + label + colorReset
		}
		parts[i] = label
	}
	return strings.Join(parts, "   ")
}

// canvas is a grid of braille cells, two dots wide and four dots tall each.
// owner records the first curve that touched a cell for coloring.
type canvas struct {
	width  int
	height int
	cells  [][]uint8
	owner  [][]int
}

func newCanvas(width, height int) *canvas {
	cv := &canvas{width: width, height: height}
	cv.cells = make([][]uint8, height)
	cv.owner = make([][]int, height)
	for y := range height {
		cv.cells[y] = make([]uint8, width)
		cv.owner[y] = make([]int, width)
		for x := range cv.owner[y] {
			cv.owner[y][x] = -1
		}
	}
	return cv
}

func (cv *canvas) dot(curve, x, y int) {
	cx, cy := x/2, y/4
	if x < 0 || y < 0 || cx >= cv.width || cy >= cv.height {
		return
	}
	cv.cells[cy][cx] |= brailleBits[y%4][x%2]
	if cv.owner[cy][cx] < 0 {
		cv.owner[cy][cx] = curve
	}
}

// plot draws c with one sample per dot column, joining the samples.
func (cv *canvas) plot(curve int, c Curve, p curvePattern) {
	dotsWide, dotsTall := cv.width*2, cv.height*4
	span := c.Max - c.Min
	if span <= 0 {
		span = 1
	}
	prevX, prevY := -1, -1
	for x, v := range fitValues(c.Values, dotsWide) {
		pos := (min(max(v, c.Min), c.Max) - c.Min) / span
		y := int(math.Round((1 - pos) * float64(dotsTall-1)))
		if prevX < 0 {
			cv.dot(curve, x, y)
		} else {
			bresenham(prevX, prevY, x, y, func(px, py int) {
				if px%p.period < p.on {
					cv.dot(curve, px, py)
				}
			})
		}
		prevX, prevY = x, y
	}
}

func (cv *canvas) row(y int, useColor bool) string {
	var b strings.Builder
	for x, mask := range cv.cells[y] {
		ch := rune(0x2800 + int(mask))
		owner := cv.owner[y][x]
		if useColor && owner >= 0 {
			b.WriteString(curveColors[owner%len(curveColors)])
			b.WriteRune(ch)
			b.WriteString(colorReset)
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

// fitValues stretches or squeezes values to n samples. Squeezing averages
// the values falling into each sample; stretching interpolates linearly.
func fitValues(values []float64, n int) []float64 {
	out := make([]float64, n)
	switch {
	case n == 0 || len(values) == 0:
		return nil
	case len(values) == 1 || n == 1:
		for i := range out {
			out[i] = values[0]
		}
	case len(values) > n:
		for i := range out {
			lo := i * len(values) / n
			hi := max((i+1)*len(values)/n, lo+1)
			var sum float64
			for _, v := range values[lo:hi] {
				sum += v
			}
			out[i] = sum / float64(hi-lo)
		}
	default:
		last := len(values) - 1
		for i := range out {
			pos := float64(i) * float64(last) / float64(n-1)
			idx := min(int(pos), last-1)
			frac := pos - float64(idx)
			out[i] = values[idx]*(1-frac) + values[idx+1]*frac
		}
	}
	return out
}

func bresenham(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := x1 - x0
	if dx < 0 {
		dx = -dx
	}
	dy := y1 - y0
	if dy > 0 {
		dy = -dy
	}
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}
