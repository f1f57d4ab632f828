package stats

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderCurvesUsesPercentAxis(t *testing.T) {
	points := []Point{
		{Key: "2025-01-01", Count: 3, Accuracy: 0},
		{Key: "2025-01-02", Count: 3, Accuracy: 0},
		{Key: "2025-01-03", Count: 3, Accuracy: 0},
	}
	var buf bytes.Buffer
	if err := RenderCurvesWithSize(&buf, points, 1, 16, 4, false); err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 6 || lines[0] != "Learning Curves" {
		t.Fatalf("unexpected plot:\n%s", buf.String())
	}
	rows := lines[1:5]
	if !strings.HasPrefix(rows[0], " 100%┤") || !strings.HasPrefix(rows[3], "   0%┤") {
		t.Fatalf("expected fixed percent axis, got %q and %q", rows[0], rows[3])
	}
	if got := strings.TrimPrefix(rows[3], "   0%┤"); got != strings.Repeat("⣀", 10) {
		t.Fatalf("expected zero accuracy along the bottom, got %q", got)
	}
	if strings.Trim(strings.TrimPrefix(rows[0], " 100%┤"), "⠀") == "" {
		t.Fatalf("expected peak practice count on the top row, got %q", rows[0])
	}
	for _, row := range rows[1:3] {
		if strings.Trim(row[strings.Index(row, "┤")+len("┤"):], "⠀") != "" {
			t.Fatalf("expected empty middle rows, got %q", row)
		}
	}
	if !strings.Contains(lines[5], "Accuracy 0-100% (solid)") || !strings.Contains(lines[5], "Practices 0-3 (dotted)") {
		t.Fatalf("unexpected legend %q", lines[5])
	}
}

func TestPlotWidthFor(t *testing.T) {
	if got := PlotWidthFor(80); got != 80-axisWidth {
		t.Fatalf("expected width %d, got %d", 80-axisWidth, got)
	}
	if got := PlotWidthFor(0); got != minCurveWidth {
		t.Fatalf("expected min width %d, got %d", minCurveWidth, got)
	}
	if got := PlotWidthFor(12); got != minCurveWidth {
		t.Fatalf("expected narrow terminals to keep the min width, got %d", got)
	}
}

func TestFitValues(t *testing.T) {
	if got := fitValues([]float64{0, 10}, 3); got[1] != 5 || got[2] != 10 {
		t.Fatalf("expected interpolation, got %v", got)
	}
	if got := fitValues([]float64{1, 3, 5, 7}, 2); got[0] != 2 || got[1] != 6 {
		t.Fatalf("expected bucket averages, got %v", got)
	}
	if got := fitValues(nil, 4); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}
