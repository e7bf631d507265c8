package build

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/sjson"
	"github.com/vango-dev/jsonpage/internal/config"
	"github.com/vango-dev/jsonpage/internal/metrics"
	"github.com/vango-dev/jsonpage/internal/publish"
	"github.com/vango-dev/jsonpage/pkg/beautify"
	"github.com/vango-dev/jsonpage/pkg/document"
	"github.com/vango-dev/jsonpage/pkg/render"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// ManifestName is the file Build writes when Options.Manifest is set.
const ManifestName = "manifest.json"

// Options configures a Builder.
type Options struct {
	// Renderer renders documents. Default: a renderer reading files
	// relative to the working directory.
	Renderer *render.Renderer

	// Writer receives the output. Required for BuildPage and Build.
	Writer publish.Writer

	// Root is the directory output paths are computed from: Root/blog/a.json
	// is written as blog/a.html.
	Root string

	Minify bool
	Pretty bool
	Indent string

	// Manifest writes manifest.json listing every page after Build.
	Manifest bool

	// Concurrency bounds parallel page builds. Default: 4.
	Concurrency int

	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// OnProgress is called once per finished page, possibly from several
	// goroutines at once.
	OnProgress func(page *Page)
}

// Page is the outcome of building one document.
type Page struct {
	Source string
	Target string

	// HTML is the formatted output. Empty when Result has errors.
	HTML string

	Result   *render.Result
	Duration time.Duration
}

// OK reports whether the page rendered without errors.
func (p *Page) OK() bool {
	return p.Result != nil && p.Result.OK()
}

// Hash returns the hex SHA-256 of the page's HTML.
func (p *Page) Hash() string {
	sum := sha256.Sum256([]byte(p.HTML))
	return hex.EncodeToString(sum[:])
}

// Builder runs the pipeline.
type Builder struct {
	opts   Options
	tracer trace.Tracer
}

// New creates a Builder. Settings left unset in opts are taken from cfg,
// which may be nil.
func New(cfg *config.Config, opts Options) *Builder {
	if cfg != nil {
		if !opts.Minify && cfg.Build.Minify {
			opts.Minify = true
		}
		if !opts.Pretty && cfg.Build.Pretty {
			opts.Pretty = true
		}
		if opts.Indent == "" {
			opts.Indent = cfg.IndentString()
		}
		if opts.Root == "" {
			opts.Root = cfg.RootPath()
		}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Renderer == nil {
		rc := render.RendererConfig{
			Loader: document.NewFileLoader(""),
			Logger: opts.Logger,
		}
		if cfg != nil {
			rc.Escape = cfg.Build.Escape
		}
		opts.Renderer = render.NewRenderer(rc)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &Builder{
		opts:   opts,
		tracer: otel.Tracer("github.com/vango-dev/jsonpage/internal/build"),
	}
}

// TargetPath returns the slash-separated output path for source.
func (b *Builder) TargetPath(source string) string {
	rel := filepath.Base(source)
	if b.opts.Root != "" {
		if r, err := filepath.Rel(b.opts.Root, source); err == nil && r != ".." && !strings.HasPrefix(r, ".."+string(filepath.Separator)) {
			rel = r
		}
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel)) + ".html"
	return filepath.ToSlash(rel)
}

// Render loads and renders source without writing it. A loader failure is
// returned unchanged; render errors are reported in Page.Result.
func (b *Builder) Render(ctx context.Context, source string) (*Page, error) {
	start := time.Now()
	result, err := b.opts.Renderer.RenderFile(ctx, source)
	elapsed := time.Since(start)
	b.opts.Metrics.ObserveRender(result, err, elapsed)
	if err != nil {
		b.opts.Logger.Error("render failed", "source", source, "error", err)
		return nil, err
	}

	page := &Page{
		Source:   source,
		Target:   b.TargetPath(source),
		Result:   result,
		Duration: elapsed,
	}
	for _, w := range result.Warnings {
		b.opts.Logger.Warn("render warning", "source", source, "kind", string(w.Kind), "path", w.Path, "message", w.Message)
	}
	if !result.OK() {
		b.opts.Logger.Error("render errors", "source", source, "errors", len(result.Errors))
		return page, nil
	}

	html, err := b.format(result.Output)
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", source, err)
	}
	page.HTML = html
	return page, nil
}

func (b *Builder) format(html string) (string, error) {
	switch {
	case b.opts.Minify:
		return beautify.Minify(html)
	case b.opts.Pretty:
		return beautify.PrettyPrint(html, beautify.Options{Indent: b.opts.Indent})
	default:
		return html, nil
	}
}

// BuildPage renders source and writes it when it rendered cleanly. Writer
// errors are returned unchanged.
func (b *Builder) BuildPage(ctx context.Context, source string) (*Page, error) {
	ctx, span := b.tracer.Start(ctx, "jsonpage.build.page", trace.WithAttributes(
		attribute.String("jsonpage.source", source),
	))
	defer span.End()

	page, err := b.Render(ctx, source)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if !page.OK() {
		span.SetStatus(codes.Error, page.Result.Errors.Error())
		return page, nil
	}

	err = b.opts.Writer.WriteText(ctx, page.Target, page.HTML)
	b.opts.Metrics.ObserveWrite(publish.Target(b.opts.Writer), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		b.opts.Logger.Error("write failed", "source", source, "target", page.Target, "error", err)
		return page, err
	}

	b.opts.Logger.Info("page built",
		"source", source,
		"target", page.Target,
		"bytes", len(page.HTML),
		"components", len(page.Result.Components),
		"duration", page.Duration,
	)
	return page, nil
}

// Report summarizes a Build.
type Report struct {
	Pages    []*Page
	Duration time.Duration
}

// Failed returns the pages that did not render.
func (r *Report) Failed() []*Page {
	var failed []*Page
	for _, p := range r.Pages {
		if p != nil && !p.OK() {
			failed = append(failed, p)
		}
	}
	return failed
}

// Manifest returns a JSON listing of the built pages.
func (r *Report) Manifest() ([]byte, error) {
	out := []byte(`{"pages":[]}`)
	var err error
	for _, p := range r.Pages {
		if p == nil || !p.OK() {
			continue
		}
		out, err = sjson.SetBytes(out, "pages.-1", map[string]any{
			"source":     filepath.ToSlash(p.Source),
			"target":     p.Target,
			"hash":       p.Hash(),
			"bytes":      len(p.HTML),
			"components": p.Result.Components,
			"warnings":   len(p.Result.Warnings),
		})
		if err != nil {
			return nil, err
		}
	}
	if out, err = sjson.SetBytes(out, "failed", len(r.Failed())); err != nil {
		return nil, err
	}
	return out, nil
}

// Build builds every source concurrently. Pages with render errors are
// reported in the Report; the first loader or writer error aborts the build
// and is returned unchanged.
func (b *Builder) Build(ctx context.Context, sources []string) (*Report, error) {
	ctx, span := b.tracer.Start(ctx, "jsonpage.build", trace.WithAttributes(
		attribute.Int("jsonpage.pages", len(sources)),
	))
	defer span.End()

	start := time.Now()
	report := &Report{Pages: make([]*Page, len(sources))}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Concurrency)
	for i, source := range sources {
		g.Go(func() error {
			page, err := b.BuildPage(gctx, source)
			report.Pages[i] = page
			if err == nil && b.opts.OnProgress != nil {
				b.opts.OnProgress(page)
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return report, err
	}

	if b.opts.Manifest {
		manifest, err := report.Manifest()
		if err != nil {
			return report, err
		}
		if err := b.opts.Writer.WriteText(ctx, ManifestName, string(manifest)); err != nil {
			return report, err
		}
	}

	report.Duration = time.Since(start)
	failed := len(report.Failed())
	span.SetAttributes(attribute.Int("jsonpage.failed", failed))
	b.opts.Logger.Info("build finished", "pages", len(sources), "failed", failed, "duration", report.Duration)
	return report, nil
}
