// Package tui provides the Bubble Tea practice interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/koch/internal/config"
	"github.com/verte-zerg/koch/internal/score"
	"github.com/verte-zerg/koch/internal/session"
)

const (
	separatorWidth = 59
	volumeStep     = 10
	inputHeight    = 6
)

type keyMap struct {
	Check      key.Binding
	Next       key.Binding
	Restart    key.Binding
	Play       key.Binding
	PlayChar   key.Binding
	NextLesson key.Binding
	PrevLesson key.Binding
	VolumeUp   key.Binding
	VolumeDown key.Binding
	Theme      key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Check:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "check/next")),
		Next:       key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "skip")),
		Restart:    key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "restart")),
		Play:       key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "play")),
		PlayChar:   key.NewBinding(key.WithKeys("ctrl+k"), key.WithHelp("ctrl+k", "new char")),
		NextLesson: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "next lesson")),
		PrevLesson: key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "prev lesson")),
		VolumeUp:   key.NewBinding(key.WithKeys("ctrl+up"), key.WithHelp("ctrl+↑", "vol+")),
		VolumeDown: key.NewBinding(key.WithKeys("ctrl+down"), key.WithHelp("ctrl+↓", "vol-")),
		Theme:      key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "theme")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Check, k.Play, k.Next, k.Restart, k.NextLesson, k.PrevLesson, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Check, k.Next, k.Restart},
		{k.Play, k.PlayChar, k.VolumeUp, k.VolumeDown},
		{k.NextLesson, k.PrevLesson, k.Theme, k.Quit},
	}
}

// Model implements the Bubble Tea practice UI.
type Model struct {
	ctrl    *session.Controller
	player  Player
	keys    keyMap
	help    help.Model
	input   textarea.Model
	palette palette
	now     func() time.Time

	width  int
	height int

	progress  score.Decision
	outcome   *session.Outcome
	status    string
	statusErr bool
	playing   bool
}

// NewModel constructs a practice TUI model.
func NewModel(ctrl *session.Controller, player Player) *Model {
	input := textarea.New()
	input.Placeholder = "Type what you hear..."
	input.ShowLineNumbers = false
	input.Prompt = ""
	input.CharLimit = 0
	input.SetHeight(inputHeight)
	input.KeyMap.InsertNewline.SetEnabled(false)
	input.Focus()

	m := &Model{
		ctrl:    ctrl,
		player:  player,
		keys:    defaultKeyMap(),
		help:    help.New(),
		input:   input,
		palette: paletteFor(ctrl.User().Theme),
		now:     time.Now,
	}
	m.refreshProgress()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.SetWidth(m.contentWidth())
		return m, nil
	case playbackDoneMsg:
		m.playing = false
		if msg.err != nil {
			m.setError(msg.err)
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Check):
		if m.ctrl.Checked() {
			m.nextDrill()
			return m, nil
		}
		m.check()
		return m, nil
	case key.Matches(msg, m.keys.Next):
		m.nextDrill()
		return m, nil
	case key.Matches(msg, m.keys.Restart):
		m.ctrl.Restart()
		m.resetInput()
		return m, nil
	case key.Matches(msg, m.keys.Play):
		return m, m.playFile(m.ctrl.Drill().AudioPath, true)
	case key.Matches(msg, m.keys.PlayChar):
		return m, m.playFile(m.ctrl.CharacterAudio(), false)
	case key.Matches(msg, m.keys.NextLesson):
		m.moveLesson(m.ctrl.NextLesson)
		return m, nil
	case key.Matches(msg, m.keys.PrevLesson):
		m.moveLesson(m.ctrl.PrevLesson)
		return m, nil
	case key.Matches(msg, m.keys.VolumeUp):
		m.changeVolume(volumeStep)
		return m, nil
	case key.Matches(msg, m.keys.VolumeDown):
		m.changeVolume(-volumeStep)
		return m, nil
	case key.Matches(msg, m.keys.Theme):
		m.ctrl.UpdateUser(func(u *config.UserConfig) { u.Theme = toggleTheme(u.Theme) })
		m.palette = paletteFor(m.ctrl.User().Theme)
		return m, nil
	}
	if m.ctrl.Checked() {
		return m, nil
	}
	if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
		m.ctrl.Begin(m.now())
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	width := m.contentWidth()
	sections := []string{m.renderHeader(), "", m.renderBody(width)}
	if status := m.renderStatus(); status != "" {
		sections = append(sections, "", status)
	}
	content := lipgloss.NewStyle().Width(width).Render(strings.Join(sections, "\n"))
	if m.width == 0 || m.height == 0 {
		return content + "\n" + m.help.View(m.keys)
	}
	footer := m.help.View(m.keys)
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) contentWidth() int {
	if m.width <= 0 {
		return separatorWidth
	}
	return max(1, int(float64(m.width)*0.70))
}

func (m *Model) renderHeader() string {
	drill := m.ctrl.Drill()
	l := drill.Lesson
	chars := make([]string, 0, len(l.Chars))
	for _, r := range l.Chars {
		if r == l.NewChar {
			chars = append(chars, m.palette.newChar.Render(string(r)))
			continue
		}
		chars = append(chars, string(r))
	}
	title := m.palette.accent.Render("Lesson " + l.Name)

	text := fmt.Sprintf("Text %d/%d", drill.Number(), drill.Total)
	if drill.Generated {
		text = "Text (generated)"
	}
	policy := m.ctrl.Policy()
	meta := []string{
		text,
		fmt.Sprintf("Streak %d/%d at %.0f%%", min(m.progress.Streak, policy.Streak), policy.Streak, policy.Threshold),
		fmt.Sprintf("Unlocked %02d", m.ctrl.User().UnlockedLesson),
		fmt.Sprintf("Volume %d", m.ctrl.User().Volume),
	}
	if m.playing {
		meta = append(meta, "Playing")
	}
	return title + "\n" + strings.Join(chars, " ") + "\n" + m.palette.muted.Render(strings.Join(meta, "  "))
}

func (m *Model) renderBody(width int) string {
	if m.outcome == nil {
		return m.input.View()
	}
	diff := wrapStyledRunes(buildDiffRunes(m.outcome.Score.Marks, m.palette), width)
	separator := m.palette.answer.Render(strings.Repeat("-", min(separatorWidth, width)))
	answer := wrapStyledRunes(buildPlainRunes(m.outcome.Result.Expected, m.palette.answer), width)
	return diff + "\n" + separator + "\n" + answer
}

func (m *Model) renderStatus() string {
	var lines []string
	if m.outcome != nil {
		lines = append(lines, fmt.Sprintf("Accuracy: %.2f%%%s", m.outcome.Score.Accuracy, m.outcome.Comment))
		if m.outcome.Unlocked {
			lines = append(lines, m.palette.notice.Render(fmt.Sprintf("Lesson %02d unlocked!", m.outcome.NextLesson)))
		}
		if m.outcome.PersistErr != nil {
			lines = append(lines, m.palette.errorText.Render("Result kept in memory, saving failed: "+m.outcome.PersistErr.Error()))
		}
	}
	if m.status != "" {
		style := m.palette.notice
		if m.statusErr {
			style = m.palette.errorText
		}
		lines = append(lines, style.Render(m.status))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) check() {
	out, err := m.ctrl.Check(context.Background(), m.input.Value(), m.now())
	if err != nil {
		m.setError(err)
		return
	}
	m.outcome = &out
	m.progress = out.Decision
	m.status = ""
	m.input.Blur()
}

func (m *Model) nextDrill() {
	if _, err := m.ctrl.Next(); err != nil {
		m.setError(err)
		return
	}
	m.resetInput()
}

func (m *Model) moveLesson(move func() error) {
	if err := move(); err != nil {
		m.setError(err)
		return
	}
	m.resetInput()
	m.refreshProgress()
}

func (m *Model) changeVolume(delta int) {
	m.ctrl.UpdateUser(func(u *config.UserConfig) {
		u.Volume = min(100, max(0, u.Volume+delta))
	})
}

func (m *Model) playFile(path string, startsDrill bool) tea.Cmd {
	switch {
	case !m.player.Enabled():
		m.setError(ErrNoPlayer)
		return nil
	case startsDrill && m.ctrl.Drill().Generated:
		m.setError(errors.New("generated drills have no audio"))
		return nil
	case path == "":
		m.setError(errors.New("no audio for this drill"))
		return nil
	}
	if startsDrill {
		m.ctrl.Begin(m.now())
	}
	m.playing = true
	m.status = ""
	return m.player.play(context.Background(), path, m.ctrl.User().Volume)
}

func (m *Model) resetInput() {
	m.outcome = nil
	m.status = ""
	m.statusErr = false
	m.input.Reset()
	m.input.Focus()
}

func (m *Model) refreshProgress() {
	m.progress = m.ctrl.Progress()
}

func (m *Model) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
}
