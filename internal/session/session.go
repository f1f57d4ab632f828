// Package session drives one practice sitting: lesson choice, transcript
// rotation, checking answers and recording results.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/verte-zerg/koch/internal/config"
	"github.com/verte-zerg/koch/internal/lesson"
	"github.com/verte-zerg/koch/internal/materials"
	"github.com/verte-zerg/koch/internal/model"
	"github.com/verte-zerg/koch/internal/score"
	"github.com/verte-zerg/koch/internal/store"
)

// ErrAlreadyChecked is returned when the current drill was already scored.
var ErrAlreadyChecked = errors.New("drill already checked")

// Recorder stores results and returns a lesson's accuracy history.
type Recorder interface {
	Record(ctx context.Context, r model.PracticeResult) (model.PracticeResult, error)
	Accuracies(lessonID int) []float64
}

// Deps wires a Controller.
type Deps struct {
	Store        Recorder
	User         config.UserConfig
	SaveUser     func(config.UserConfig) error
	MaterialsDir string
	Source       materials.Source
	Policy       score.Policy
	CharWPM      int
	EffectiveWPM int
	Now          func() time.Time
	Logger       *slog.Logger
}

// Drill is the transcript currently being practiced.
type Drill struct {
	Lesson lesson.Lesson
	// Index is the 0-based transcript position; Total is the number available.
	Index     int
	Total     int
	Text      string
	AudioPath string
	Generated bool
}

// Number returns the 1-based transcript number.
func (d Drill) Number() int {
	return d.Index + 1
}

// Outcome is the result of checking one drill.
type Outcome struct {
	Score    score.Result
	Result   model.PracticeResult
	Comment  string
	Decision score.Decision
	// Unlocked is set when this check unlocked the next lesson.
	Unlocked   bool
	NextLesson int
	// PersistErr is non-nil when the result could not be saved yet.
	PersistErr error
}

// Controller is the practice state machine. It is not safe for concurrent use.
type Controller struct {
	deps    Deps
	user    config.UserConfig
	current lesson.Lesson
	drill   Drill
	started time.Time
	checked bool
}

// New builds a controller positioned on the user's last lesson.
func New(deps Deps) (*Controller, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if deps.Source == nil {
		return nil, fmt.Errorf("session transcript source is required")
	}
	if err := deps.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid progress policy: %w", err)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	if deps.CharWPM <= 0 {
		deps.CharWPM = lesson.DefaultCharWPM
	}
	if deps.EffectiveWPM <= 0 {
		deps.EffectiveWPM = lesson.DefaultEffectiveWPM
	}
	c := &Controller{deps: deps, user: deps.User}
	if err := c.load(lesson.Clamp(c.user.LastLesson)); err != nil {
		return nil, err
	}
	return c, nil
}

// Lesson returns the current lesson.
func (c *Controller) Lesson() lesson.Lesson {
	return c.current
}

// User returns the current user state.
func (c *Controller) User() config.UserConfig {
	return c.user
}

// UpdateUser applies fn to the user state and saves it.
func (c *Controller) UpdateUser(fn func(*config.UserConfig)) {
	next := c.user
	fn(&next)
	if err := next.Validate(); err != nil {
		c.deps.Logger.Warn("rejected user config change", "err", err)
		return
	}
	c.user = next
	c.save()
}

// Policy returns the advancement policy.
func (c *Controller) Policy() score.Policy {
	return c.deps.Policy
}

// Drill returns the current drill.
func (c *Controller) Drill() Drill {
	return c.drill
}

// CharacterAudio returns the audio path of the lesson's new character, or ""
// when no materials directory is configured.
func (c *Controller) CharacterAudio() string {
	if c.deps.MaterialsDir == "" {
		return ""
	}
	return materials.CharacterAudioPath(c.deps.MaterialsDir, c.current.ID)
}

// Checked reports whether the current drill was scored.
func (c *Controller) Checked() bool {
	return c.checked
}

// Progress evaluates the current lesson's history under the policy.
func (c *Controller) Progress() score.Decision {
	return c.deps.Policy.Evaluate(c.deps.Store.Accuracies(c.current.ID))
}

// SelectLesson switches to lesson id.
func (c *Controller) SelectLesson(id int) error {
	if _, err := lesson.Get(id); err != nil {
		return err
	}
	if err := c.load(id); err != nil {
		return err
	}
	c.user.LastLesson = id
	if id > c.user.UnlockedLesson {
		c.user.UnlockedLesson = id
	}
	c.save()
	return nil
}

// NextLesson moves to the following lesson.
func (c *Controller) NextLesson() error {
	return c.SelectLesson(c.current.ID + 1)
}

// PrevLesson moves to the preceding lesson.
func (c *Controller) PrevLesson() error {
	return c.SelectLesson(c.current.ID - 1)
}

// Begin starts the practice timer unless it is already running.
func (c *Controller) Begin(now time.Time) {
	if c.started.IsZero() && !c.checked {
		c.started = now
	}
}

// Started reports when the timer was started.
func (c *Controller) Started() time.Time {
	return c.started
}

// Check scores typed against the current transcript and records the result.
// A persistence failure is reported in Outcome.PersistErr and does not fail
// the check.
func (c *Controller) Check(ctx context.Context, typed string, now time.Time) (Outcome, error) {
	if c.checked {
		return Outcome{}, ErrAlreadyChecked
	}
	expected := score.Normalize(c.drill.Text)
	answer := score.Normalize(typed)
	res := score.Compare(expected, answer)

	started := c.started
	if started.IsZero() || started.After(now) {
		started = now.Add(-lesson.NewTiming(c.deps.CharWPM, c.deps.EffectiveWPM).Duration(expected))
	}
	record := model.PracticeResult{
		Lesson:     c.current.ID,
		Text:       c.drill.Number(),
		StartedAt:  started,
		EndedAt:    now,
		Expected:   expected,
		Typed:      answer,
		Accuracy:   res.Accuracy,
		DurationMs: now.Sub(started).Milliseconds(),
		Correct:    res.Correct,
		Incorrect:  res.Incorrect,
		Missing:    res.Missing,
		Extra:      res.Extra,
	}

	out := Outcome{Score: res, Comment: score.Comment(res.Accuracy)}
	recorded, err := c.deps.Store.Record(ctx, record)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrPersistence):
		out.PersistErr = err
	default:
		return Outcome{}, fmt.Errorf("failed to record practice: %w", err)
	}
	out.Result = recorded
	c.checked = true
	c.deps.Logger.Info("practice checked",
		"lesson", recorded.Lesson, "text", recorded.Text, "accuracy", recorded.Accuracy, "duration_ms", recorded.DurationMs)

	out.Decision = c.Progress()
	if out.Decision.Passed && c.current.ID == c.user.UnlockedLesson && c.current.ID < lesson.Last {
		c.user.UnlockedLesson = c.current.ID + 1
		out.Unlocked = true
		out.NextLesson = c.user.UnlockedLesson
		c.deps.Logger.Info("lesson unlocked", "lesson", out.NextLesson)
		c.save()
	}
	return out, nil
}

// Next advances to the following transcript of the lesson, wrapping around.
func (c *Controller) Next() (Drill, error) {
	next := 0
	if c.drill.Total > 0 {
		next = (c.drill.Index + 1) % c.drill.Total
	}
	c.user.SetTextIndex(c.current.ID, next)
	c.save()
	if err := c.load(c.current.ID); err != nil {
		return Drill{}, err
	}
	return c.drill, nil
}

// Restart clears the answer state of the current drill.
func (c *Controller) Restart() {
	c.started = time.Time{}
	c.checked = false
}

func (c *Controller) load(id int) error {
	l, err := lesson.Get(id)
	if err != nil {
		return err
	}
	l.CharWPM = c.deps.CharWPM
	l.EffectiveWPM = c.deps.EffectiveWPM
	c.current = l
	c.drill = c.loadDrill(l)
	c.Restart()
	return nil
}

func (c *Controller) loadDrill(l lesson.Lesson) Drill {
	drill := Drill{Lesson: l}
	dir := c.deps.MaterialsDir
	if dir != "" {
		drill.Total = materials.TextCount(dir, l.ID)
	}
	if drill.Total > 0 {
		drill.Index = c.user.TextIndexFor(l.ID) % drill.Total
		text, err := materials.LoadTranscript(dir, l.ID, drill.Number())
		if err == nil {
			drill.Text = text
			drill.AudioPath = materials.AudioPath(dir, l.ID, drill.Number())
			return drill
		}
		c.deps.Logger.Warn("failed to load transcript, generating one", "lesson", l.ID, "text", drill.Number(), "err", err)
	}
	drill.Total = max(drill.Total, 1)
	drill.Text = c.deps.Source.Generate(l)
	drill.Generated = true
	return drill
}

func (c *Controller) save() {
	if c.deps.SaveUser == nil {
		return
	}
	if err := c.deps.SaveUser(c.user); err != nil {
		c.deps.Logger.Warn("failed to save user config", "err", err)
	}
}
