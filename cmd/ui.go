package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Terminal colours
var (
	Brand  = color.New(color.FgHiYellow, color.Bold)
	Subtle = color.New(color.FgHiBlack)
	Warn   = color.New(color.FgYellow)
	Info   = color.New(color.FgCyan)
	Good   = color.New(color.FgGreen)
	Bad    = color.New(color.FgRed)
)

// banner prints a command heading
func banner(w io.Writer, subtitle string) {
	fmt.Fprintf(w, "%s %s\n\n", Brand.Sprint("liquiditymap"), Subtle.Sprint(subtitle))
}

// table prints a simple aligned table. Cells are padded by rune count, so they
// must be plain text.
func table(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len([]rune(h))
	}
	for _, row := range rows {
		for i, cell := range row {
			if n := len([]rune(cell)); i < len(widths) && n > widths[i] {
				widths[i] = n
			}
		}
	}

	headerLine := "  "
	sepLine := "  "
	for i, h := range headers {
		headerLine += fmt.Sprintf("%-*s  ", widths[i], h)
		sepLine += strings.Repeat("─", widths[i]) + "  "
	}
	Subtle.Fprintln(w, strings.TrimRight(headerLine, " "))
	Subtle.Fprintln(w, strings.TrimRight(sepLine, " "))

	for _, row := range rows {
		line := "  "
		for i, cell := range row {
			if i < len(widths) {
				line += cell + strings.Repeat(" ", widths[i]-len([]rune(cell))) + "  "
			}
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

// statusIcon returns a check or a cross
func statusIcon(ok bool) string {
	if ok {
		return Good.Sprint("✓")
	}
	return Bad.Sprint("✗")
}

// impactColor picks the colour of a calendar impact level
func impactColor(impact string) *color.Color {
	switch impact {
	case "High":
		return Bad
	case "Medium":
		return Warn
	default:
		return Subtle
	}
}
