package errors

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vango-dev/jsonpage/pkg/render"
)

// Category represents the type of error.
type Category string

const (
	CategoryRender   Category = "render"
	CategoryDocument Category = "document"
	CategoryConfig   Category = "config"
	CategoryPublish  Category = "publish"
	CategoryCLI      Category = "cli"
)

// Severity separates fatal errors from warnings.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Location is a position in a source document.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as file:line:column.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Line == 0 {
		return l.File
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// PageError is a coded error with an optional document location, detail,
// hint and documentation link.
type PageError struct {
	// Code is a unique identifier such as "J002".
	Code string

	Category Category
	Severity Severity

	// Message is a short description of what went wrong.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Path locates the node inside the document, e.g. "page[2].ul".
	Path string

	Location *Location

	// Context holds the source lines around Location.
	Context []string

	Suggestion string
	Example    string
	DocURL     string

	Wrapped error
}

// Error implements the error interface.
func (e *PageError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *PageError) Unwrap() error {
	return e.Wrapped
}

// IsWarning reports whether the error is non-fatal.
func (e *PageError) IsWarning() bool {
	return e.Severity == SeverityWarning
}

// WithLocation sets the location and reads context lines from the file.
func (e *PageError) WithLocation(file string, line, column int) *PageError {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = readContextLines(file, line, 5)
	return e
}

// WithSource sets the location and takes context lines from src, for
// documents that were read already.
func (e *PageError) WithSource(file string, src []byte, line, column int) *PageError {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = contextLines(bytes.NewReader(src), line, 5)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *PageError) WithSuggestion(s string) *PageError {
	e.Suggestion = s
	return e
}

// WithExample adds a document snippet showing the correct form.
func (e *PageError) WithExample(ex string) *PageError {
	e.Example = ex
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *PageError) WithDetail(d string) *PageError {
	e.Detail = d
	return e
}

// WithPath records the document path of the offending node.
func (e *PageError) WithPath(path string) *PageError {
	e.Path = path
	return e
}

// Wrap wraps another error.
func (e *PageError) Wrap(err error) *PageError {
	e.Wrapped = err
	return e
}

func readContextLines(filename string, targetLine, contextSize int) []string {
	file, err := os.Open(filename)
	if err != nil {
		return nil
	}
	defer file.Close()
	return contextLines(file, targetLine, contextSize)
}

// contextLines returns the lines within contextSize/2 of targetLine.
func contextLines(r io.Reader, targetLine, contextSize int) []string {
	if targetLine <= 0 {
		return nil
	}
	var lines []string
	scanner := bufio.NewScanner(r)
	lineNum := 0
	startLine := targetLine - contextSize/2
	endLine := targetLine + contextSize/2

	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, scanner.Text())
		}
		if lineNum > endLine {
			break
		}
	}
	return lines
}

// contextStart returns the line number of the first context line.
func (e *PageError) contextStart() int {
	start := e.Location.Line - 5/2
	if start < 1 {
		start = 1
	}
	return start
}

// New creates a PageError from a registered error code.
func New(code string) *PageError {
	template, ok := registry[code]
	if !ok {
		return &PageError{
			Code:     code,
			Severity: SeverityError,
			Message:  "Unknown error",
		}
	}
	severity := template.Severity
	if severity == "" {
		severity = SeverityError
	}
	return &PageError{
		Code:       code,
		Category:   template.Category,
		Severity:   severity,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
		DocURL:     template.DocURL,
	}
}

// Newf creates a PageError with a formatted message and no code.
func Newf(category Category, format string, args ...any) *PageError {
	return &PageError{
		Category: category,
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a PageError.
func FromError(err error, code string) *PageError {
	if err == nil {
		return nil
	}
	if pe, ok := err.(*PageError); ok {
		return pe
	}
	return New(code).Wrap(err)
}

// kindCodes maps render error kinds to codes.
var kindCodes = map[render.ErrorKind]string{
	render.InvalidDocumentShape:  "J001",
	render.NotAnArray:            "J002",
	render.InvalidNodeType:       "J003",
	render.DuplicateComponent:    "J004",
	render.UnknownProp:           "J005",
	render.InvalidImportPath:     "J006",
	render.InvalidAttributeValue: "J007",
	render.IgnoredContent:        "J008",
}

// CodeFor returns the code registered for a render error kind.
func CodeFor(kind render.ErrorKind) string {
	if code, ok := kindCodes[kind]; ok {
		return code
	}
	return "J000"
}

// FromRender converts a render error found in file. src is the document
// source used for context lines; it may be nil. Errors located in imported
// documents carry positions from those documents, so no location is set for
// them.
func FromRender(e *render.Error, file string, src []byte) *PageError {
	pe := New(CodeFor(e.Kind)).WithPath(e.Path)
	pe.Message = e.Message
	pe.Wrapped = e

	if file == "" || !e.Pos.IsValid() || strings.HasPrefix(e.Path, render.KeyImport+".") {
		if file != "" {
			pe.Location = &Location{File: file}
		}
		return pe
	}
	if src != nil {
		return pe.WithSource(file, src, e.Pos.Line, e.Pos.Column)
	}
	return pe.WithLocation(file, e.Pos.Line, e.Pos.Column)
}

// FromRenderList converts every error of a render result.
func FromRenderList(list render.ErrorList, file string, src []byte) []*PageError {
	out := make([]*PageError, len(list))
	for i, e := range list {
		out[i] = FromRender(e, file, src)
	}
	return out
}
