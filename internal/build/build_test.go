package build

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/tidwall/gjson"
	"github.com/vango-dev/jsonpage/internal/config"
	"github.com/vango-dev/jsonpage/internal/publish"
)

type memWriter struct {
	mu    sync.Mutex
	files map[string]string
	err   error
}

func newMemWriter() *memWriter {
	return &memWriter{files: map[string]string{}}
}

func (m *memWriter) WriteText(_ context.Context, path, content string) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = content
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTargetPath(t *testing.T) {
	b := New(nil, Options{Root: filepath.Join("site", "pages"), Logger: quietLogger()})

	tests := []struct {
		source string
		want   string
	}{
		{filepath.Join("site", "pages", "index.json"), "index.html"},
		{filepath.Join("site", "pages", "blog", "post.yaml"), "blog/post.html"},
		{filepath.Join("elsewhere", "about.json"), "about.html"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			if got := b.TargetPath(tt.source); got != tt.want {
				t.Errorf("TargetPath(%q) = %q, want %q", tt.source, got, tt.want)
			}
		})
	}
}

func TestBuildPage(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "index.json", `{"page":[{"body":[{"h1":"Hi"}]}]}`)

	tests := []struct {
		name string
		opts Options
		want string
	}{
		{
			name: "raw",
			want: "<!doctype html><html><body><h1>Hi</h1></body></html>",
		},
		{
			name: "minify",
			opts: Options{Minify: true},
			want: "<!doctype html><html><body><h1>Hi</h1></body></html>",
		},
		{
			name: "pretty",
			opts: Options{Pretty: true, Indent: "  "},
			want: "<!doctype html>\n<html>\n  <body>\n    <h1>Hi</h1>\n  </body>\n</html>\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newMemWriter()
			opts := tt.opts
			opts.Writer = w
			opts.Root = dir
			opts.Logger = quietLogger()

			page, err := New(nil, opts).BuildPage(context.Background(), src)
			if err != nil {
				t.Fatalf("BuildPage: %v", err)
			}
			if !page.OK() {
				t.Fatalf("errors: %v", page.Result.Errors)
			}
			if got := w.files["index.html"]; got != tt.want {
				t.Errorf("output =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestBuildPageRenderErrorsSkipWrite(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "bad.json", `{"page":[{"div":[42]}]}`)
	w := newMemWriter()

	page, err := New(nil, Options{Writer: w, Root: dir, Logger: quietLogger()}).BuildPage(context.Background(), src)
	if err != nil {
		t.Fatalf("BuildPage: %v", err)
	}
	if page.OK() {
		t.Fatal("expected render errors")
	}
	if page.HTML != "" {
		t.Errorf("HTML = %q, want empty", page.HTML)
	}
	if len(w.files) != 0 {
		t.Errorf("wrote %v, want nothing", w.files)
	}
}

func TestBuildPageErrorsPassThrough(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "index.json", `{"page":[]}`)

	errDisk := errors.New("disk full")
	w := newMemWriter()
	w.err = errDisk
	_, err := New(nil, Options{Writer: w, Root: dir, Logger: quietLogger()}).BuildPage(context.Background(), src)
	if err != errDisk {
		t.Errorf("err = %v, want writer error unchanged", err)
	}

	_, err = New(nil, Options{Writer: newMemWriter(), Root: dir, Logger: quietLogger()}).
		BuildPage(context.Background(), filepath.Join(dir, "missing.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "partials.json", `{"props":{"text":""},"component":[{"footer":"${text}"}]}`)
	sources := []string{
		writeFile(t, dir, "index.json", `{"import":{"Foot":"partials.json"},"page":[{"Foot":null,"text":"bye"}]}`),
		writeFile(t, dir, filepath.Join("blog", "post.json"), `{"page":[{"p":"post"}]}`),
		writeFile(t, dir, "broken.json", `{"page":[{"p":[1]}]}`),
	}

	w := newMemWriter()
	report, err := New(nil, Options{
		Writer:      w,
		Root:        dir,
		Manifest:    true,
		Concurrency: 2,
		Logger:      quietLogger(),
	}).Build(context.Background(), sources)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if got := w.files["index.html"]; got != "<!doctype html><html><footer>bye</footer></html>" {
		t.Errorf("index.html = %q", got)
	}
	if got := w.files["blog/post.html"]; got != "<!doctype html><html><p>post</p></html>" {
		t.Errorf("blog/post.html = %q", got)
	}
	if _, ok := w.files["broken.html"]; ok {
		t.Error("broken page should not be written")
	}

	failed := report.Failed()
	if len(failed) != 1 || failed[0].Source != sources[2] {
		t.Fatalf("Failed() = %v", failed)
	}

	manifest := w.files[ManifestName]
	if !gjson.Valid(manifest) {
		t.Fatalf("manifest is not JSON: %s", manifest)
	}
	if n := gjson.Get(manifest, "pages.#").Int(); n != 2 {
		t.Errorf("manifest pages = %d, want 2", n)
	}
	if got := gjson.Get(manifest, "pages.0.target").String(); got != "index.html" {
		t.Errorf("pages.0.target = %q", got)
	}
	if got := gjson.Get(manifest, "pages.0.components.0").String(); got != "Foot" {
		t.Errorf("pages.0.components = %s", gjson.Get(manifest, "pages.0.components").Raw)
	}
	if got := gjson.Get(manifest, "failed").Int(); got != 1 {
		t.Errorf("failed = %d, want 1", got)
	}
}

func TestBuildToFiles(t *testing.T) {
	dir := t.TempDir()
	out := t.TempDir()
	src := writeFile(t, dir, "index.json", `["br"]`)

	_, err := New(nil, Options{
		Writer: publish.NewFileWriter(out),
		Root:   dir,
		Logger: quietLogger(),
	}).Build(context.Background(), []string{src})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(out, "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(string(data)); got != "<br />" {
		t.Errorf("index.html = %q", got)
	}
}

func TestNewAppliesConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, config.ConfigFileName, `{"build": {"pretty": true, "indent": 4, "escape": true}}`)
	cfg, err := config.LoadFile(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	src := writeFile(t, dir, filepath.Join("pages", "docs", "index.json"), `[{"ul": [{"li": "a<b"}]}]`)

	w := newMemWriter()
	var mu sync.Mutex
	var progressed []string
	_, err = New(cfg, Options{
		Writer: w,
		Logger: quietLogger(),
		OnProgress: func(p *Page) {
			mu.Lock()
			defer mu.Unlock()
			progressed = append(progressed, p.Target)
		},
	}).Build(context.Background(), []string{src})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := "<ul>\n    <li>a&lt;b</li>\n</ul>\n"
	if got := w.files["docs/index.html"]; got != want {
		t.Errorf("docs/index.html = %q, want %q", got, want)
	}
	if len(progressed) != 1 || progressed[0] != "docs/index.html" {
		t.Errorf("progress = %v", progressed)
	}
}

func TestPageHash(t *testing.T) {
	a := &Page{HTML: "<br />"}
	b := &Page{HTML: "<hr />"}
	if len(a.Hash()) != 64 {
		t.Errorf("Hash() = %q, want 64 hex chars", a.Hash())
	}
	if a.Hash() == b.Hash() {
		t.Error("different pages share a hash")
	}
}
