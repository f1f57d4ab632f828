package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/koch/internal/config"
)

type palette struct {
	accent    lipgloss.Style
	newChar   lipgloss.Style
	muted     lipgloss.Style
	correct   lipgloss.Style
	incorrect lipgloss.Style
	missing   lipgloss.Style
	extra     lipgloss.Style
	answer    lipgloss.Style
	notice    lipgloss.Style
	errorText lipgloss.Style
}

func paletteFor(theme config.Theme) palette {
	if theme == config.ThemeDark {
		return palette{
			accent:    lipgloss.NewStyle().Foreground(lipgloss.Color("#92E0D3")).Bold(true),
			newChar:   lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true),
			muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E")),
			correct:   lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD35F")),
			incorrect: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Background(lipgloss.Color("#3A1F1F")),
			missing:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA94D")).Background(lipgloss.Color("#3A2A12")),
			extra:     lipgloss.NewStyle().Foreground(lipgloss.Color("#74B9FF")).Background(lipgloss.Color("#14263A")),
			answer:    lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")),
			notice:    lipgloss.NewStyle().Foreground(lipgloss.Color("#92E0D3")),
			errorText: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")),
		}
	}
	return palette{
		accent:    lipgloss.NewStyle().Foreground(lipgloss.Color("#4A9B8E")).Bold(true),
		newChar:   lipgloss.NewStyle().Foreground(lipgloss.Color("#B7791F")).Bold(true),
		muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		correct:   lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")),
		incorrect: lipgloss.NewStyle().Foreground(lipgloss.Color("#CC0000")).Background(lipgloss.Color("#FFE6E6")),
		missing:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8C00")).Background(lipgloss.Color("#FFF4E6")),
		extra:     lipgloss.NewStyle().Foreground(lipgloss.Color("#0066CC")).Background(lipgloss.Color("#E6F2FF")),
		answer:    lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		notice:    lipgloss.NewStyle().Foreground(lipgloss.Color("#4A9B8E")),
		errorText: lipgloss.NewStyle().Foreground(lipgloss.Color("#CC0000")),
	}
}

func toggleTheme(theme config.Theme) config.Theme {
	if theme == config.ThemeDark {
		return config.ThemeLight
	}
	return config.ThemeDark
}
