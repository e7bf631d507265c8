package render

import (
	"fmt"
	"strings"

	"github.com/vango-dev/jsonpage/pkg/document"
)

// ErrorKind classifies render errors. An ErrorKind is itself an error so it
// can be used as an errors.Is target:
//
//	if errors.Is(err, render.NotAnArray) { ... }
type ErrorKind string

const (
	// InvalidDocumentShape: the document has neither or both of page and
	// component, is not an object or array, or a section is malformed.
	InvalidDocumentShape ErrorKind = "InvalidDocumentShape"

	// NotAnArray: a value that must be a sequence is not.
	NotAnArray ErrorKind = "NotAnArray"

	// InvalidNodeType: a node is neither an object nor a string, or its tag
	// name cannot be resolved.
	InvalidNodeType ErrorKind = "InvalidNodeType"

	// DuplicateComponent: a component name was registered twice.
	DuplicateComponent ErrorKind = "DuplicateComponent"

	// UnknownProp: an instantiation key the component does not declare.
	// Reported as a warning; rendering continues.
	UnknownProp ErrorKind = "UnknownProp"

	// IgnoredContent: a shorthand node has both a primary value and children
	// or raw. The primary value is rendered. Reported as a warning.
	IgnoredContent ErrorKind = "IgnoredContent"

	// InvalidImportPath: an import entry is not a string or names a missing document.
	InvalidImportPath ErrorKind = "InvalidImportPath"

	// InvalidAttributeValue: an attribute value is an object or a list holding
	// non-scalar values.
	InvalidAttributeValue ErrorKind = "InvalidAttributeValue"
)

// Error implements the error interface.
func (k ErrorKind) Error() string { return string(k) }

// Fatal reports whether errors of this kind abort the render.
func (k ErrorKind) Fatal() bool { return k != UnknownProp && k != IgnoredContent }

// Error is one render problem, located by its path in the document
// (for example "page[2].ul[0]") and, when known, its source position.
type Error struct {
	Kind    ErrorKind
	Path    string
	Pos     document.Pos
	Message string
}

func newError(kind ErrorKind, path string, node *document.Value, format string, args ...any) *Error {
	e := &Error{
		Kind:    kind,
		Path:    path,
		Message: fmt.Sprintf(format, args...),
	}
	if node != nil {
		e.Pos = node.Pos
	}
	return e
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
	}
	if e.Pos.IsValid() {
		b.WriteString(" (")
		b.WriteString(e.Pos.String())
		b.WriteString(")")
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// Is matches an ErrorKind target.
func (e *Error) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Kind
}

// ErrorList collects every error found across sibling nodes.
type ErrorList []*Error

func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	msgs := make([]string, len(l))
	for i, e := range l {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d render errors: %s", len(l), strings.Join(msgs, "; "))
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (l ErrorList) Unwrap() []error {
	errs := make([]error, len(l))
	for i, e := range l {
		errs[i] = e
	}
	return errs
}

// Strings returns each error message.
func (l ErrorList) Strings() []string {
	out := make([]string, len(l))
	for i, e := range l {
		out[i] = e.Error()
	}
	return out
}

// appendErr flattens err into l. err must come from this package.
func (l ErrorList) appendErr(err error) ErrorList {
	switch e := err.(type) {
	case nil:
		return l
	case *Error:
		return append(l, e)
	case ErrorList:
		return append(l, e...)
	default:
		return append(l, &Error{Kind: InvalidNodeType, Message: err.Error()})
	}
}

// errOrNil returns nil for an empty list so callers never see a typed nil.
func (l ErrorList) errOrNil() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

// AsList converts any render error into an ErrorList.
func AsList(err error) ErrorList {
	return ErrorList(nil).appendErr(err)
}
