package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"

	"github.com/vango-dev/jsonpage/pkg/document"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Top-level document keys.
const (
	KeyPage       = "page"
	KeyComponent  = "component"
	KeyComponents = "components"
	KeyImport     = "import"
)

// Document shell wrapped around page bodies.
const (
	pageOpen  = "<!doctype html><html>"
	pageClose = "</html>"
)

// Result is the outcome of rendering one document. Exactly one of Output
// and Errors is set: Output is empty whenever Errors is non-empty.
type Result struct {
	Output   string
	Errors   ErrorList
	Warnings ErrorList

	// Components lists the components registered while rendering.
	Components []string
}

// OK reports whether the render succeeded.
func (r *Result) OK() bool { return len(r.Errors) == 0 }

// Err returns the errors as a single error, or nil.
func (r *Result) Err() error { return r.Errors.errOrNil() }

// MarshalJSON encodes {"output": ..., "errors": ..., "warnings": [...]} with
// null for whichever of output and errors is absent. Markup is not
// HTML-escaped.
func (r *Result) MarshalJSON() ([]byte, error) {
	out := struct {
		Output   *string  `json:"output"`
		Errors   []string `json:"errors"`
		Warnings []string `json:"warnings"`
	}{
		Warnings: r.Warnings.Strings(),
	}
	if r.OK() {
		out.Output = &r.Output
	} else {
		out.Errors = r.Errors.Strings()
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Render renders a document. A bare array renders as a fragment. An object
// must hold exactly one of page and component; its components and import
// sections are registered first, in the order they appear.
//
// Render errors are reported in the Result. The returned error is non-nil
// only when the loader fails for a reason other than a missing document; it
// is passed through unchanged.
func (r *Renderer) Render(ctx context.Context, doc *document.Value) (*Result, error) {
	return r.render(ctx, doc, r.config.Loader)
}

// RenderFile loads identifier with the configured loader and renders it.
// Imports are resolved relative to the loaded document when the loader
// supports it.
func (r *Renderer) RenderFile(ctx context.Context, identifier string) (*Result, error) {
	if r.config.Loader == nil {
		return nil, errors.New("render: no document loader configured")
	}
	doc, err := r.config.Loader.Load(ctx, identifier)
	if err != nil {
		return nil, err
	}
	loader := r.config.Loader
	if rel, ok := loader.(document.RelativeLoader); ok {
		loader = rel.Relative(identifier)
	}
	return r.render(ctx, doc, loader)
}

func (r *Renderer) render(ctx context.Context, doc *document.Value, loader document.Loader) (*Result, error) {
	ctx, span := r.tracer.Start(ctx, "jsonpage.render")
	defer span.End()

	scope := r.NewScope()
	out, err := scope.renderDocument(ctx, doc, loader, r.tracer)

	result := &Result{
		Warnings:   scope.Warnings(),
		Components: scope.Registry().Names(),
	}
	span.SetAttributes(
		attribute.Int("jsonpage.components", scope.Registry().Len()),
		attribute.Int("jsonpage.warnings", len(result.Warnings)),
	)

	if err != nil {
		var list ErrorList
		var single *Error
		if !errors.As(err, &list) && !errors.As(err, &single) {
			// Loader failure: hand it back untouched.
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		result.Errors = AsList(err)
		span.SetAttributes(attribute.Int("jsonpage.errors", len(result.Errors)))
		span.SetStatus(codes.Error, result.Errors.Error())
		return result, nil
	}

	result.Output = out
	span.SetAttributes(attribute.Int("jsonpage.output_bytes", len(out)))
	return result, nil
}

func (s *Scope) renderDocument(ctx context.Context, doc *document.Value, loader document.Loader, tracer trace.Tracer) (string, error) {
	if doc.IsArray() {
		return s.RenderChildren(doc, "$")
	}
	if !doc.IsObject() {
		kind := "null"
		if doc != nil {
			kind = doc.Kind.String()
		}
		return "", newError(InvalidDocumentShape, "$", doc, "a document must be an array or an object, got %s", kind)
	}

	page, hasPage := doc.Get(KeyPage)
	comp, hasComp := doc.Get(KeyComponent)
	if hasPage == hasComp {
		return "", newError(InvalidDocumentShape, "$", doc, "a document needs exactly one of %q or %q", KeyPage, KeyComponent)
	}

	regCtx, span := tracer.Start(ctx, "jsonpage.registry.build")
	errs, err := s.buildRegistry(regCtx, doc, loader, tracer)
	span.SetAttributes(attribute.Int("jsonpage.components", s.registry.Len()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	if err != nil {
		return "", err
	}
	if len(errs) > 0 {
		return "", errs
	}

	if hasPage {
		body, err := s.RenderChildren(page, KeyPage)
		if err != nil {
			return "", err
		}
		return pageOpen + body + pageClose, nil
	}
	return s.RenderChildren(comp, KeyComponent)
}

// buildRegistry processes the components and import sections in the order
// they appear. Render errors are collected; any other error stops the build.
func (s *Scope) buildRegistry(ctx context.Context, doc *document.Value, loader document.Loader, tracer trace.Tracer) (ErrorList, error) {
	var errs ErrorList
	for _, m := range doc.Members() {
		var err error
		switch m.Key {
		case KeyComponents:
			err = s.registerSection(m.Value)
		case KeyImport:
			err = s.importSection(ctx, m.Value, loader, tracer)
		default:
			continue
		}
		if err == nil {
			continue
		}
		var list ErrorList
		var single *Error
		if !errors.As(err, &list) && !errors.As(err, &single) {
			return nil, err
		}
		errs = errs.appendErr(err)
	}
	return errs, nil
}

// registerSection registers every entry of a components section in order.
func (s *Scope) registerSection(section *document.Value) error {
	if !section.IsObject() {
		return newError(InvalidDocumentShape, KeyComponents, section, "components must be an object mapping names to definitions")
	}
	var errs ErrorList
	for _, m := range section.Members() {
		if err := s.RegisterComponent(m.Key, m.Value, keyPath(KeyComponents, m.Key)); err != nil {
			errs = errs.appendErr(err)
		}
	}
	return errs.errOrNil()
}

// importSection loads and registers every entry of an import section.
func (s *Scope) importSection(ctx context.Context, section *document.Value, loader document.Loader, tracer trace.Tracer) error {
	if !section.IsObject() {
		return newError(InvalidDocumentShape, KeyImport, section, "import must be an object mapping names to document paths")
	}
	var errs ErrorList
	for _, m := range section.Members() {
		path := keyPath(KeyImport, m.Key)
		if !m.Value.IsString() || m.Value.Str() == "" {
			errs = append(errs, newError(InvalidImportPath, path, m.Value, "import path for %q must be a non-empty string", m.Key))
			continue
		}
		if s.registry.Has(m.Key) {
			errs = append(errs, newError(DuplicateComponent, path, m.Value, "component %q is already defined", m.Key))
			continue
		}
		def, err := s.load(ctx, loader, tracer, m.Key, m.Value.Str())
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, errNoLoader) {
			errs = append(errs, newError(InvalidImportPath, path, m.Value, "cannot import %q from %q: %v", m.Key, m.Value.Str(), err))
			continue
		}
		if err != nil {
			return err
		}
		if err := s.RegisterComponent(m.Key, def, path); err != nil {
			errs = errs.appendErr(err)
		}
	}
	return errs.errOrNil()
}

var errNoLoader = errors.New("no document loader configured")

func (s *Scope) load(ctx context.Context, loader document.Loader, tracer trace.Tracer, name, identifier string) (*document.Value, error) {
	ctx, span := tracer.Start(ctx, "jsonpage.import", trace.WithAttributes(
		attribute.String("jsonpage.component", name),
		attribute.String("jsonpage.path", identifier),
	))
	defer span.End()

	if loader == nil {
		return nil, errNoLoader
	}
	def, err := loader.Load(ctx, identifier)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return def, nil
}
