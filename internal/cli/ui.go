package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"fioso/internal/modules"
	"fioso/internal/provider"
	"fioso/internal/report"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleError   = lipgloss.NewStyle().Foreground(colorRed)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
)

// banner renders the one-line title shown before reports.
func banner(w io.Writer) {
	fmt.Fprintln(w, styleTitle.Render("fioso "+modules.Version)+" "+styleDim.Render("game stock & AI gateway"))
}

func statusStyle(s provider.Status) lipgloss.Style {
	switch s {
	case provider.StatusSuccess:
		return styleSuccess
	case provider.StatusResponseError, provider.StatusFailData:
		return styleWarning
	default:
		return styleError
	}
}

// renderReport draws one row per probe followed by the verdict.
func renderReport(r report.Report) string {
	rows := make([][]string, 0, len(r.Results))
	for _, res := range r.Results {
		rows = append(rows, []string{
			res.Name(),
			string(res.Status),
			fmt.Sprintf("%dms", res.TimeMS),
			string(res.Code),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Probe", "Status", "Time", "Code").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			if col == 1 && row >= 0 && row < len(r.Results) {
				return statusStyle(r.Results[row].Status)
			}
			return lipgloss.NewStyle()
		})

	var b strings.Builder
	b.WriteString(t.Render())
	b.WriteString("\n")

	network := styleSuccess.Render(r.Network.Status)
	if !r.Network.Online() {
		network = styleError.Render(r.Network.Status)
	}
	b.WriteString(styleDim.Render("network ") + network + "\n")

	if r.Stable {
		b.WriteString(styleSuccess.Render(iconSuccess) + " stable")
	} else {
		b.WriteString(styleError.Render(iconError) + " unstable " + styleDim.Render("("+string(r.Code)+")"))
	}
	b.WriteString(styleDim.Render(fmt.Sprintf("  %d tested · %s", r.Tested, r.ID)))
	b.WriteString("\n")
	return b.String()
}

// renderModules lists the loaded modules.
func renderModules(infos []modules.Info) string {
	rows := make([][]string, 0, len(infos))
	for _, m := range infos {
		rows = append(rows, []string{m.Name, m.Label, m.Version})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Module", "Label", "Version").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			return lipgloss.NewStyle()
		}).
		Render() + "\n"
}
