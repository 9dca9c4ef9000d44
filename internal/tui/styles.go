package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/spinlab-sim/spinlab/internal/render"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	canvasStyle = lipgloss.NewStyle().Padding(0, 2)
	statsStyle  = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 2).Width(42)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)

	runningBadge   = lipgloss.NewStyle().Foreground(lipgloss.Color("48")).Bold(true)
	pausedBadge    = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	recordingBadge = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true).Blink(true)
	sweepBadge     = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)
)

// siteStyles maps the 16 gradient buckets plus the defect bucket onto
// terminal colors matching the PNG/GIF palette.
var siteStyles = buildSiteStyles()

const defectBucket = 16

func buildSiteStyles() [17]lipgloss.Style {
	var out [17]lipgloss.Style
	for i := 0; i < 16; i++ {
		v := -1 + 2*float64(i)/15
		c := render.SiteColor(v)
		hex := fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
		out[i] = lipgloss.NewStyle().Foreground(lipgloss.Color(hex))
	}
	out[defectBucket] = lipgloss.NewStyle().Foreground(lipgloss.Color("#c42c2c"))
	return out
}
