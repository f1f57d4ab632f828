// Package materials reads and writes lesson transcripts and checks the
// resource directory layout.
package materials

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/verte-zerg/koch/internal/fileutil"
	"github.com/verte-zerg/koch/internal/lesson"
)

const (
	// DefaultFiles is the number of transcripts generated per lesson.
	DefaultFiles = 10

	characterDir = "Character"
)

// ErrEmptyTranscript is returned when a transcript holds no drillable text.
var ErrEmptyTranscript = errors.New("transcript is empty")

// LessonDir returns the directory of a lesson.
func LessonDir(dir string, lessonID int) string {
	return filepath.Join(dir, fmt.Sprintf("Lesson-%02d", lessonID))
}

// TextPath returns the transcript path of text n (1-based).
func TextPath(dir string, lessonID, n int) string {
	return filepath.Join(LessonDir(dir, lessonID), fmt.Sprintf("koch-%03d.txt", n))
}

// AudioPath returns the audio path of text n (1-based).
func AudioPath(dir string, lessonID, n int) string {
	return filepath.Join(LessonDir(dir, lessonID), fmt.Sprintf("koch-%03d.wav", n))
}

// CharacterAudioPath returns the single-character audio path for the
// character at idx in the Koch sequence.
func CharacterAudioPath(dir string, idx int) string {
	return filepath.Join(dir, characterDir, fmt.Sprintf("koch-%03d.wav", idx))
}

// LoadTranscript reads transcript n (1-based) of a lesson. Lines are joined
// with spaces and characters outside the Koch alphabet are dropped.
func LoadTranscript(dir string, lessonID, n int) (string, error) {
	path := TextPath(dir, lessonID, n)
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only transcript.
			_ = cerr
		}
	}()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read transcript %s: %w", path, err)
	}
	text := FilterTranscript(strings.Join(lines, " "))
	if text == "" {
		return "", fmt.Errorf("%s: %w", path, ErrEmptyTranscript)
	}
	return text, nil
}

// WriteTranscript atomically writes transcript n (1-based) of a lesson.
func WriteTranscript(dir string, lessonID, n int, text string) error {
	path := TextPath(dir, lessonID, n)
	if err := fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		_, err := io.WriteString(w, text)
		return err
	}); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return nil
}

// TextCount returns the number of consecutive transcripts koch-001.txt,
// koch-002.txt, ... present for a lesson. A missing lesson directory counts 0.
func TextCount(dir string, lessonID int) int {
	n := 0
	for {
		if _, err := os.Stat(TextPath(dir, lessonID, n+1)); err != nil {
			return n
		}
		n++
	}
}

// Source produces transcript text for a lesson.
type Source interface {
	Generate(l lesson.Lesson) string
}

// Progress is called after each lesson is written.
type Progress func(l lesson.Lesson, files int)

// Build writes files transcripts for every lesson, replacing existing ones.
func Build(ctx context.Context, dir string, files int, src Source, progress Progress) error {
	if files <= 0 {
		return fmt.Errorf("files per lesson must be positive")
	}
	for _, l := range lesson.Lessons() {
		for n := 1; n <= files; n++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := WriteTranscript(dir, l.ID, n, src.Generate(l)); err != nil {
				return fmt.Errorf("lesson %d text %d: %w", l.ID, n, err)
			}
		}
		if progress != nil {
			progress(l, files)
		}
	}
	return nil
}

// Report describes missing resources.
type Report struct {
	// MissingCharacters lists Koch sequence indexes without single-character audio.
	MissingCharacters []int
	// IncompleteLessons lists lessons lacking a first transcript or its audio.
	IncompleteLessons []int
}

// Complete reports whether nothing is missing.
func (r Report) Complete() bool {
	return len(r.MissingCharacters) == 0 && len(r.IncompleteLessons) == 0
}

// Check inspects the resource directory. Lessons are complete when their
// first files transcripts and audio files exist.
func Check(dir string, files int) Report {
	if files < 1 {
		files = 1
	}
	var report Report
	for idx := range lesson.Sequence {
		if !exists(CharacterAudioPath(dir, idx)) {
			report.MissingCharacters = append(report.MissingCharacters, idx)
		}
	}
	for id := lesson.First; id <= lesson.Last; id++ {
		for n := 1; n <= files; n++ {
			if !exists(TextPath(dir, id, n)) || !exists(AudioPath(dir, id, n)) {
				report.IncompleteLessons = append(report.IncompleteLessons, id)
				break
			}
		}
	}
	return report
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
