//go:build linux

package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	failureStyle = cellStyle.Foreground(lipgloss.Color("203"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Column headers, in order.
var headers = []string{"HOSTNAME", "ADDRESS", "CONNECTS", "FAILURES", "FIRST SEEN", "LAST SEEN"}

const failuresColumn = 3

// Render writes the report table followed by the summary line.
func (r *Report) Render(w io.Writer) error {
	rows := r.Rows()
	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells = append(cells, []string{
			row.Hostname,
			row.Address,
			strconv.Itoa(row.Connects),
			strconv.Itoa(row.Failures),
			stamp(row.FirstSeen),
			stamp(row.LastSeen),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers(headers...).
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == failuresColumn && row >= 0 && row < len(rows) && rows[row].Failures > 0:
				return failureStyle
			default:
				return cellStyle
			}
		})

	_, err := fmt.Fprintf(w, "%s\n%s\n", t.Render(), dimStyle.Render(r.Summary()))
	return err
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04:05.000")
}
