package executors

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/yurifrl/conciliar/pkg/importer"
	"github.com/yurifrl/conciliar/pkg/models"
	"github.com/yurifrl/conciliar/pkg/review"
)

var (
	okStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	duplicateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	cancelledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Strikethrough(true)
)

// marks prefixes each row in the rendered preview.
var marks = map[review.Status]string{
	review.StatusOK:            "+",
	review.StatusDuplicate:     "=",
	review.StatusError:         "!",
	review.StatusNeedsCategory: "?",
	review.StatusCancelled:     "x",
}

func styleFor(s review.Status) lipgloss.Style {
	switch s {
	case review.StatusOK:
		return okStyle
	case review.StatusDuplicate:
		return duplicateStyle
	case review.StatusError:
		return errorStyle
	case review.StatusNeedsCategory:
		return pendingStyle
	}
	return cancelledStyle
}

// Report is what happened to one statement of a plan.
type Report struct {
	File   string
	Period string
	Counts review.Counts
	Result *importer.Result // nil until committed
}

// RenderRow formats one preview row. names maps category ids to names.
func RenderRow(r review.PreviewRow, names map[string]string) string {
	date := "----------"
	if r.OccurrenceDate != nil {
		date = r.OccurrenceDate.String()
	}
	category := names[r.CategoryID]
	if category == "" {
		category = "-"
	}
	line := fmt.Sprintf("%s %4d | %s | %-30s | %-9s | %-16s | %14s",
		marks[r.Status], r.RowIndex, date, truncate(r.Description, 30), r.Type, truncate(category, 16), models.FormatBRL(r.Amount))
	switch {
	case r.ErrorReason != "":
		line += " | " + r.ErrorReason
	case r.Warning != "":
		line += " | " + r.Warning
	}
	return styleFor(r.Status).Render(line)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

// Summary is the one-line outcome of a report.
func (r Report) Summary() string {
	c := r.Counts
	if r.Result != nil {
		return fmt.Sprintf("%s: %d imported, %d duplicate, %d error, %d cancelled (job %s)",
			r.File, r.Result.Imported, r.Result.Duplicates, r.Result.Errors, r.Result.Cancelled, r.Result.JobID)
	}
	return fmt.Sprintf("%s: %d ready, %d duplicate, %d error, %d needs category, %d cancelled",
		r.File, c.Ready, c.Duplicate, c.Error, c.NeedsCategory, c.Cancelled)
}

// PrintSummary writes one line per report and a total.
func PrintSummary(w io.Writer, reports []Report) {
	var ready, imported int
	for _, r := range reports {
		fmt.Fprintln(w, r.Summary())
		ready += r.Counts.Ready
		if r.Result != nil {
			imported += r.Result.Imported
		}
	}
	if imported > 0 {
		fmt.Fprintf(w, "\nApply: %d transaction(s) imported from %d statement(s)\n", imported, len(reports))
		return
	}
	fmt.Fprintf(w, "\nPlan: %d transaction(s) ready to import from %d statement(s)\n", ready, len(reports))
}
