package tui

import (
	"math/rand"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorAccent = lipgloss.Color("#5B8DEF")
	colorMuted  = lipgloss.Color("#888888")

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(colorAccent).
			Padding(0, 1)
	sectionStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	titleStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA"))
	mutedStyle       = lipgloss.NewStyle().Foreground(colorMuted)
	votesStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801"))
	voteButtonStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	doneStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	statusStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")).Italic(true)
	celebrationStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F7B801"))
	selectedStyle    = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder(), false, false, false, true).
				BorderForeground(colorAccent)
	overlayStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1)
	noticeStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("#FF6B6B")).
			Padding(1, 2)
)

var confettiPalette = []lipgloss.Color{"#FF6B6B", "#F7B801", "#4CAF50", "#5B8DEF", "#C792EA"}

var confettiGlyphs = []string{"*", "•", "✦", "+", "·", "◆"}

// confettiLine renders one row of colored confetti. The same seed always
// yields the same row.
func confettiLine(width int, seed int64) string {
	rng := rand.New(rand.NewSource(seed))
	var b strings.Builder
	for i := 0; i < width; i++ {
		if rng.Intn(3) == 0 {
			b.WriteByte(' ')
			continue
		}
		glyph := confettiGlyphs[rng.Intn(len(confettiGlyphs))]
		color := confettiPalette[rng.Intn(len(confettiPalette))]
		b.WriteString(lipgloss.NewStyle().Foreground(color).Render(glyph))
	}
	return b.String()
}
