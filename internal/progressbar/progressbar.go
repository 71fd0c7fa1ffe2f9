// Package progressbar renders a single-line terminal progress bar for
// byte transfers.
package progressbar

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const defaultWidth = 40

var (
	filledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	emptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
)

// Bar renders transfer progress on a terminal line.
// A zero Bar is usable; Width defaults to 40 cells.
type Bar struct {
	// Desc is printed before the bar, typically the file name.
	Desc string
	// Width is the number of cells used by the bar itself.
	Width int
}

// Render returns the bar for the given progress. totalBytes < 0 means the
// total is unknown, in which case only the byte count is shown.
func (b *Bar) Render(downloadedBytes, totalBytes int64) string {
	width := b.Width
	if width <= 0 {
		width = defaultWidth
	}
	if totalBytes < 0 {
		return fmt.Sprintf("%s %s", b.Desc, labelStyle.Render(humanBytes(downloadedBytes)))
	}
	ratio := 0.0
	if totalBytes > 0 {
		ratio = float64(downloadedBytes) / float64(totalBytes)
	}
	if ratio > 1 {
		ratio = 1
	}
	filled := int(ratio * float64(width))
	bar := filledStyle.Render(strings.Repeat("█", filled)) +
		emptyStyle.Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("%s %s %s", b.Desc, bar,
		labelStyle.Render(fmt.Sprintf("%3.0f%% %s/%s", ratio*100,
			humanBytes(downloadedBytes), humanBytes(totalBytes))))
}

func humanBytes(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1fGiB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fKiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}
