package cli

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/microcosm-cc/bluemonday"

	"github.com/noah-isme/gema-overview-api/internal/dto"
	"github.com/noah-isme/gema-overview-api/internal/overview"
)

const columnGap = 2

var (
	styleTitle  = lipgloss.NewStyle().Bold(true)
	styleHeader = lipgloss.NewStyle().Bold(true).Underline(true)
	styleAlert  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	plainText   = bluemonday.StrictPolicy()
)

// renderOverview prints the items of one activity as an aligned table.
func renderOverview(activity dto.ActivityOverviewResponse) string {
	var b strings.Builder
	b.WriteString(styleTitle.Render(fmt.Sprintf("%s cm=%d instance=%d (%s view)",
		activity.ModuleType, activity.CourseModuleID, activity.InstanceID, activity.Role)))
	b.WriteString("\n")

	rows := make([][]string, 0, len(activity.Items))
	for _, item := range activity.Items {
		alert := ""
		if item.AlertCount > 0 {
			alert = styleAlert.Render(fmt.Sprintf("%d %s", item.AlertCount, strings.ToLower(item.AlertLabel)))
		}
		rows = append(rows, []string{item.Key, item.Name, formatValue(item), textContent(item.Content), alert})
	}

	b.WriteString(renderTable([]string{"KEY", "NAME", "VALUE", "CONTENT", "ALERT"}, rows))
	return b.String()
}

func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = lipgloss.Width(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string, style *lipgloss.Style) {
		for i, cell := range cells {
			pad := widths[i] - lipgloss.Width(cell)
			if style != nil {
				cell = style.Render(cell)
			}
			b.WriteString(cell)
			if i < len(cells)-1 {
				b.WriteString(strings.Repeat(" ", pad+columnGap))
			}
		}
		b.WriteString("\n")
	}

	writeRow(headers, &styleHeader)
	for _, row := range rows {
		writeRow(row, nil)
	}
	return b.String()
}

func formatValue(item dto.OverviewItemResponse) string {
	switch value := item.Value.(type) {
	case nil:
		return "-"
	case bool:
		if value {
			return "yes"
		}
		return "no"
	case int64:
		if item.Key == overview.KeyDueDate {
			return time.Unix(value, 0).UTC().Format("2006-01-02 15:04 MST")
		}
		return fmt.Sprintf("%d", value)
	default:
		return fmt.Sprintf("%v", value)
	}
}

func textContent(content string) string {
	text := html.UnescapeString(plainText.Sanitize(content))
	return strings.Join(strings.Fields(text), " ")
}
