package render

import (
	"log/slog"
	"strings"

	"github.com/vango-dev/jsonpage/pkg/document"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for render spans.
const defaultTracerName = "github.com/vango-dev/jsonpage/pkg/render"

// RendererConfig configures the renderer.
type RendererConfig struct {
	// Loader resolves import entries. Without a loader every import fails
	// with InvalidImportPath.
	Loader document.Loader

	// Logger receives render warnings. Defaults to slog.Default().
	Logger *slog.Logger

	// Escape HTML-escapes text content, attribute values and substituted
	// props and items. Off by default: values are copied into the output
	// verbatim, so documents must come from a trusted source. raw content
	// and style blocks are never escaped.
	Escape bool

	// TracerName is the OpenTelemetry tracer name. Spans go to the global
	// tracer provider.
	TracerName string
}

// Renderer turns documents into HTML. It holds configuration only; every
// Render call builds its own component registry, so a Renderer may be used
// from several goroutines at once.
type Renderer struct {
	config RendererConfig
	tracer trace.Tracer
}

// NewRenderer creates a new Renderer with the given configuration.
func NewRenderer(config RendererConfig) *Renderer {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.TracerName == "" {
		config.TracerName = defaultTracerName
	}
	return &Renderer{
		config: config,
		tracer: otel.Tracer(config.TracerName),
	}
}

// NewScope returns a scope with an empty registry.
func (r *Renderer) NewScope() *Scope {
	return &Scope{
		registry: NewRegistry(),
		escape:   r.config.Escape,
		logger:   r.config.Logger,
	}
}

// Scope is the state of one render invocation: the component registry and
// the warnings collected so far. It must not be shared between goroutines.
type Scope struct {
	registry *Registry
	warnings ErrorList
	escape   bool
	logger   *slog.Logger
}

// Registry returns the scope's component registry.
func (s *Scope) Registry() *Registry { return s.registry }

// Warnings returns the non-fatal problems reported so far.
func (s *Scope) Warnings() ErrorList { return s.warnings }

func (s *Scope) warn(e *Error) {
	s.warnings = append(s.warnings, e)
	s.logger.Warn(e.Message, "kind", string(e.Kind), "path", e.Path)
}

// RenderNode renders a single node found at path.
func (s *Scope) RenderNode(node *document.Value, path string) (string, error) {
	n, err := Classify(node, s.registry)
	if err != nil {
		return "", at(err, path)
	}

	switch n.Kind {
	case KindElement:
		return renderBare(n.Tag), nil
	case KindPlaceholder:
		return n.Tag, nil
	case KindStyle:
		return s.renderStyle(n, path)
	case KindEach:
		return s.renderEach(n, path)
	case KindComponent:
		return s.instantiate(n, path)
	default:
		return s.renderElement(n, path)
	}
}

// RenderChildren renders a sequence of nodes. A non-array fails with
// NotAnArray. Errors from every element are collected before failing; no
// partial output is returned.
func (s *Scope) RenderChildren(children *document.Value, path string) (string, error) {
	if !children.IsArray() {
		return "", newError(NotAnArray, path, children, "Children need to be an array")
	}

	var b strings.Builder
	var errs ErrorList
	for i, child := range children.Items() {
		out, err := s.RenderNode(child, childPath(path, i))
		if err != nil {
			errs = errs.appendErr(err)
			continue
		}
		b.WriteString(out)
	}
	if len(errs) > 0 {
		return "", errs
	}
	return b.String(), nil
}

func renderBare(tag string) string {
	if IsVoidElement(tag) {
		return "<" + tag + " />"
	}
	return "<" + tag + "></" + tag + ">"
}

// renderElement renders a tag or shorthand node.
func (s *Scope) renderElement(n Node, path string) (string, error) {
	var errs ErrorList

	attrs, err := serializeAttributes(n.Value, s.escape, n.ignoredKeys())
	if err != nil {
		errs = errs.appendErr(at(err, path))
	}
	content, err := s.renderContent(n, path)
	if err != nil {
		errs = errs.appendErr(err)
	}
	if len(errs) > 0 {
		return "", errs
	}

	if content == "" && IsVoidElement(n.Tag) {
		return "<" + n.Tag + attrs + " />", nil
	}
	return "<" + n.Tag + attrs + ">" + content + "</" + n.Tag + ">", nil
}

// renderContent renders the node's children: arrays recurse, scalars are
// copied as text, absent content is empty.
func (s *Scope) renderContent(n Node, path string) (string, error) {
	v, ok := n.Content()
	if !ok {
		return "", nil
	}
	key := n.contentKey()
	cpath := keyPath(path, key)
	if key == n.Primary {
		for _, ignored := range []string{KeyChildren, KeyRaw} {
			if v, ok := n.Value.Get(ignored); ok && !v.IsNull() {
				s.warn(newError(IgnoredContent, keyPath(path, ignored), v,
					"%q is ignored because %q already holds the content", ignored, n.Primary))
			}
		}
	}

	switch {
	case v.IsArray():
		return s.RenderChildren(v, cpath)
	case v.IsScalar():
		text := v.Text()
		if s.escape && key != KeyRaw {
			text = escapeHTML(text)
		}
		return text, nil
	default:
		return "", newError(NotAnArray, cpath, v, "Children need to be an array")
	}
}

// renderStyle renders a style node as an inline stylesheet.
func (s *Scope) renderStyle(n Node, path string) (string, error) {
	if n.Form != FormShorthand {
		css, err := FlattenStyle(n.Value)
		if err != nil {
			return "", at(err, path)
		}
		return `<style type="text/css">` + css + `</style>`, nil
	}

	var css string
	var errs ErrorList
	v, _ := n.Value.Get(n.Primary)
	switch {
	case v.IsObject():
		out, err := FlattenStyle(v)
		if err != nil {
			errs = errs.appendErr(at(err, keyPath(path, n.Primary)))
		}
		css = out
	case v.IsScalar():
		css = v.Text()
	default:
		return "", newError(InvalidNodeType, keyPath(path, n.Primary), v, "style must be an object of selectors or a string of CSS")
	}
	rest, err := FlattenStyle(n.Value, n.Primary)
	if err != nil {
		errs = errs.appendErr(at(err, path))
	}
	if len(errs) > 0 {
		return "", errs
	}
	return `<style type="text/css">` + css + rest + `</style>`, nil
}

// renderEach renders the body once, then replays it for every item with
// ${item} replaced by the item's text.
func (s *Scope) renderEach(n Node, path string) (string, error) {
	itemsPath := keyPath(path, KeyItems)
	items, ok := n.Value.Get(KeyItems)
	if !ok || !items.IsArray() {
		return "", newError(NotAnArray, itemsPath, items, "@each items need to be an array")
	}

	template, err := s.renderContent(n, path)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	var errs ErrorList
	for i, item := range items.Items() {
		if !item.IsScalar() {
			errs = append(errs, newError(InvalidNodeType, childPath(itemsPath, i), item,
				"@each items must be strings, numbers or booleans, got %s", item.Kind))
			continue
		}
		text := item.Text()
		if s.escape {
			text = escapeHTML(text)
		}
		b.WriteString(strings.ReplaceAll(template, ItemToken, text))
	}
	if len(errs) > 0 {
		return "", errs
	}
	return b.String(), nil
}

// instantiate expands a component: every ${prop} token of the template is
// substituted in one pass, then children fill the template's first
// ${children} slot. Substituted values are never scanned for tokens.
func (s *Scope) instantiate(n Node, path string) (string, error) {
	c := n.Component

	if n.Form != FormString {
		for _, m := range n.Value.Members() {
			if IsReserved(m.Key) || m.Key == n.Primary {
				continue
			}
			if _, ok := c.Prop(m.Key); !ok {
				s.warn(newError(UnknownProp, keyPath(path, m.Key), m.Value,
					"component %q has no prop %q", c.Name, m.Key))
			}
		}
	}

	var errs ErrorList
	pairs := make([]string, 0, 2*len(c.Props))
	for _, p := range c.Props {
		v := p.Default
		if override, ok := n.Value.Get(p.Name); ok && n.Form != FormString && p.Name != n.Primary {
			v = override
		}
		text, err := attrValue(v)
		if err != nil {
			errs = append(errs, newError(InvalidAttributeValue, keyPath(path, p.Name), v,
				"prop %q of component %q: %s", p.Name, c.Name, err.Error()))
			continue
		}
		if s.escape {
			text = escapeHTML(text)
		}
		pairs = append(pairs, PropToken(p.Name), text)
	}

	children, err := s.renderContent(n, path)
	if err != nil {
		errs = errs.appendErr(err)
	}
	if len(errs) > 0 {
		return "", errs
	}

	props := strings.NewReplacer(pairs...)
	before, after, found := strings.Cut(c.Template, SlotToken)
	if !found {
		return props.Replace(c.Template), nil
	}
	return props.Replace(before) + children + props.Replace(after), nil
}

// RegisterComponent renders a component definition and adds it to the
// registry. def is either a node array or an object with props and content.
// The body may only use components registered before it.
func (s *Scope) RegisterComponent(name string, def *document.Value, path string) error {
	if s.registry.Has(name) {
		return newError(DuplicateComponent, path, def, "component %q is already defined", name)
	}

	props, content, contentPath, err := parseDefinition(def, path)
	if err != nil {
		return err
	}
	template, err := s.RenderChildren(content, contentPath)
	if err != nil {
		return err
	}

	return at(s.registry.Add(&Component{Name: name, Props: props, Template: template}), path)
}

func parseDefinition(def *document.Value, path string) ([]Prop, *document.Value, string, error) {
	if def.IsArray() {
		return nil, def, path, nil
	}
	if !def.IsObject() {
		return nil, nil, "", newError(InvalidDocumentShape, path, def,
			"a component definition must be an array of nodes or an object with content")
	}

	key := "content"
	content, ok := def.Get(key)
	if !ok {
		key = "component"
		content, ok = def.Get(key)
	}
	if !ok {
		return nil, nil, "", newError(InvalidDocumentShape, path, def, "component definition has no content")
	}

	var props []Prop
	if pv, ok := def.Get("props"); ok && !pv.IsNull() {
		if !pv.IsObject() {
			return nil, nil, "", newError(InvalidDocumentShape, keyPath(path, "props"), pv,
				"props must be an object mapping prop names to default values")
		}
		var errs ErrorList
		for _, m := range pv.Members() {
			ppath := keyPath(keyPath(path, "props"), m.Key)
			if IsReserved(m.Key) {
				errs = append(errs, newError(InvalidDocumentShape, ppath, m.Value, "prop name %q is reserved", m.Key))
				continue
			}
			if _, err := attrValue(m.Value); err != nil {
				errs = append(errs, newError(InvalidAttributeValue, ppath, m.Value, "default of prop %q: %s", m.Key, err.Error()))
				continue
			}
			props = append(props, Prop{Name: m.Key, Default: m.Value})
		}
		if len(errs) > 0 {
			return nil, nil, "", errs
		}
	}
	return props, content, keyPath(path, key), nil
}

// at places errors produced without a location under path.
func at(err error, path string) error {
	list := AsList(err)
	for _, e := range list {
		if e.Path == "" {
			e.Path = path
		} else {
			e.Path = keyPath(path, e.Path)
		}
	}
	return list.errOrNil()
}
