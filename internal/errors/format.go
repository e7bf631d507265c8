package errors

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	styleError   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	styleWarning = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	styleCode    = lipgloss.NewStyle().Bold(true)
	styleAccent  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	styleMuted   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleLink    = lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Underline(true)
)

// colorEnabled controls whether styles are applied.
var colorEnabled = true

// DisableColors disables styled output.
func DisableColors() {
	colorEnabled = false
}

// EnableColors enables styled output.
func EnableColors() {
	colorEnabled = true
}

func paint(s lipgloss.Style, text string) string {
	if !colorEnabled {
		return text
	}
	return s.Render(text)
}

// Format returns the error formatted for terminal display.
func (e *PageError) Format() string {
	var b strings.Builder

	b.WriteString("\n")
	label, style := "ERROR", styleError
	if e.IsWarning() {
		label, style = "WARNING", styleWarning
	}
	if e.Code != "" {
		b.WriteString(paint(style, label+" "))
		b.WriteString(paint(styleCode, e.Code+": "))
	} else {
		b.WriteString(paint(style, label+": "))
	}
	b.WriteString(e.Message)
	b.WriteString("\n\n")

	if e.Location != nil || e.Path != "" {
		b.WriteString("  ")
		if e.Location != nil {
			b.WriteString(paint(styleAccent, e.Location.String()))
		}
		if e.Path != "" {
			if e.Location != nil {
				b.WriteString(" ")
			}
			b.WriteString(paint(styleMuted, "at "+e.Path))
		}
		b.WriteString("\n\n")
	}

	if e.Location != nil && len(e.Context) > 0 {
		start := e.contextStart()
		for i, line := range e.Context {
			lineNum := start + i
			if lineNum == e.Location.Line {
				b.WriteString("  ")
				b.WriteString(paint(styleError, "→ "))
				b.WriteString(fmt.Sprintf("%4d", lineNum))
				b.WriteString(paint(styleMuted, " │ "))
				b.WriteString(line)
				b.WriteString("\n")

				if e.Location.Column > 0 {
					b.WriteString("       ")
					b.WriteString(paint(styleMuted, "│ "))
					b.WriteString(strings.Repeat(" ", e.Location.Column-1))
					b.WriteString(paint(styleError, "^"))
					b.WriteString("\n")
				}
				continue
			}
			b.WriteString("    ")
			b.WriteString(fmt.Sprintf("%4d", lineNum))
			b.WriteString(paint(styleMuted, " │ "))
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if e.Detail != "" {
		for _, line := range wrapText(e.Detail, 70) {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if e.Suggestion != "" {
		b.WriteString("  ")
		b.WriteString(paint(styleAccent, "Hint: "))
		b.WriteString(e.Suggestion)
		b.WriteString("\n\n")
	}

	if e.Example != "" {
		b.WriteString("  ")
		b.WriteString(paint(styleAccent, "Example:"))
		b.WriteString("\n")
		for _, line := range strings.Split(e.Example, "\n") {
			b.WriteString("    ")
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if e.DocURL != "" {
		b.WriteString("  ")
		b.WriteString(paint(styleMuted, "Learn more: "))
		b.WriteString(paint(styleLink, e.DocURL))
		b.WriteString("\n")
	}

	return b.String()
}

// FormatCompact returns a single-line form: location, code, path, message.
func (e *PageError) FormatCompact() string {
	var b strings.Builder

	if e.Location != nil {
		b.WriteString(e.Location.String())
		b.WriteString(": ")
	}
	if e.Code != "" {
		b.WriteString(e.Code)
		b.WriteString(": ")
	}
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)

	return b.String()
}

type jsonLocation struct {
	File   string `json:"file"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

type jsonError struct {
	Code       string        `json:"code,omitempty"`
	Category   Category      `json:"category"`
	Severity   Severity      `json:"severity"`
	Message    string        `json:"message"`
	Detail     string        `json:"detail,omitempty"`
	Path       string        `json:"path,omitempty"`
	Location   *jsonLocation `json:"location,omitempty"`
	Suggestion string        `json:"suggestion,omitempty"`
	DocURL     string        `json:"docUrl,omitempty"`
}

// FormatJSON returns the error as a JSON object.
func (e *PageError) FormatJSON() string {
	out := jsonError{
		Code:       e.Code,
		Category:   e.Category,
		Severity:   e.Severity,
		Message:    e.Message,
		Detail:     e.Detail,
		Path:       e.Path,
		Suggestion: e.Suggestion,
		DocURL:     e.DocURL,
	}
	if e.Location != nil {
		out.Location = &jsonLocation{File: e.Location.File, Line: e.Location.Line, Column: e.Location.Column}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Sprintf(`{"message":%q}`, e.Message)
	}
	return string(data)
}

// wrapText wraps text to the specified width.
func wrapText(text string, width int) []string {
	if text == "" {
		return nil
	}
	if len(text) <= width {
		return []string{text}
	}

	var lines []string
	var current strings.Builder
	for _, word := range strings.Fields(text) {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}

// Fprint writes err to w, formatted when it is a PageError.
func Fprint(w io.Writer, err error) {
	if pe, ok := err.(*PageError); ok {
		fmt.Fprint(w, pe.Format())
		return
	}
	fmt.Fprintf(w, "\n%s %s\n\n", paint(styleError, "ERROR:"), err.Error())
}

// PrintError prints a formatted error to stderr.
func PrintError(err error) {
	Fprint(os.Stderr, err)
}
