package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/ShayCichocki/matchday/internal/console"
	"github.com/ShayCichocki/matchday/pkg/models"
)

// printStatus prints a status line with color
func printStatus(w io.Writer, symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Fprintf(w, "%s %s\n", c.Sprint(symbol), message)
}

// printAnswer writes the answer text and, when asked, the diagnostics under it.
func printAnswer(w io.Writer, a models.FinalAnswer, diagnostics bool) {
	fmt.Fprintln(w, a.Text)
	if !diagnostics {
		return
	}

	dim := color.New(color.Faint)
	fmt.Fprintln(w)
	dim.Fprintf(w, "request %s  intent=%s  complexity=%s\n", a.RequestID, a.Intent, a.Complexity)
	if a.ClassificationDegraded {
		printStatus(w, "⚠", "classification degraded: model unavailable or unparseable", color.FgYellow)
	}
	if a.DecompositionFallback {
		printStatus(w, "⚠", "decomposition fell back to a single subtask", color.FgYellow)
	}
	for _, d := range a.Diagnostics {
		symbol, attr := "✓", color.FgGreen
		if d.Status == models.SubtaskFailed {
			symbol, attr = "✗", color.FgRed
		} else if d.Blocked {
			symbol, attr = "⚠", color.FgYellow
		}
		printStatus(w, symbol, console.DescribeDiagnostic(d), attr)
		for _, f := range d.Findings {
			fmt.Fprintf(w, "    %s %s\n", severityLabel(f.Severity), f.Message)
		}
	}
}

func severityLabel(s models.Severity) string {
	label := strings.ToUpper(string(s))
	switch s {
	case models.SeverityBlocking:
		return color.RedString(label)
	case models.SeverityWarning:
		return color.YellowString(label)
	default:
		return color.CyanString(label)
	}
}
