package tui

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrNoPlayer is returned when playback is requested without a player command.
var ErrNoPlayer = errors.New("no audio player configured")

// Player runs an external command to play audio files. The command template
// may contain {file} and {volume} placeholders; without {file} the path is
// appended as the last argument.
type Player struct {
	args []string
}

// NewPlayer parses a player command template such as "mpv --volume={volume} {file}".
func NewPlayer(template string) Player {
	return Player{args: strings.Fields(template)}
}

// Enabled reports whether a command is configured.
func (p Player) Enabled() bool {
	return len(p.args) > 0
}

// Command builds the command that plays path at volume (0-100).
func (p Player) Command(ctx context.Context, path string, volume int) (*exec.Cmd, error) {
	if !p.Enabled() {
		return nil, ErrNoPlayer
	}
	args := make([]string, 0, len(p.args)+1)
	hasFile := false
	for _, arg := range p.args {
		if strings.Contains(arg, "{file}") {
			hasFile = true
		}
		arg = strings.ReplaceAll(arg, "{file}", path)
		arg = strings.ReplaceAll(arg, "{volume}", strconv.Itoa(volume))
		args = append(args, arg)
	}
	if !hasFile {
		args = append(args, path)
	}
	return exec.CommandContext(ctx, args[0], args[1:]...), nil
}

type playbackDoneMsg struct {
	path string
	err  error
}

// play runs the player in the background and reports when it exits.
func (p Player) play(ctx context.Context, path string, volume int) tea.Cmd {
	return func() tea.Msg {
		cmd, err := p.Command(ctx, path, volume)
		if err != nil {
			return playbackDoneMsg{path: path, err: err}
		}
		if err := cmd.Run(); err != nil {
			return playbackDoneMsg{path: path, err: fmt.Errorf("failed to play %s: %w", path, err)}
		}
		return playbackDoneMsg{path: path}
	}
}
