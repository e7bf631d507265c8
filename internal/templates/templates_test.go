package templates

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/jsonpage/internal/build"
	"github.com/vango-dev/jsonpage/internal/config"
	"github.com/vango-dev/jsonpage/internal/errors"
	"github.com/vango-dev/jsonpage/internal/publish"
)

func TestGet(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"minimal", false},
		{"site", false},
		{"nonexistent", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := Get(tt.name)
			if tt.wantErr {
				pe, ok := err.(*errors.PageError)
				if !ok || pe.Code != "J083" {
					t.Fatalf("err = %v, want J083", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tmpl.Name != tt.name {
				t.Errorf("Name = %q, want %q", tmpl.Name, tt.name)
			}
		})
	}
}

func TestList(t *testing.T) {
	if got := strings.Join(List(), ","); got != "minimal,site" {
		t.Errorf("List() = %s", got)
	}
}

func TestCreateBuilds(t *testing.T) {
	for _, name := range List() {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			tmpl, _ := Get(name)
			err := tmpl.Create(dir, Config{
				ProjectName: `My "Site"`,
				Description: "Pages <from> JSON",
			})
			if err != nil {
				t.Fatalf("Create: %v", err)
			}

			cfg, err := config.LoadFile(filepath.Join(dir, config.ConfigFileName))
			if err != nil {
				t.Fatalf("generated config: %v", err)
			}
			if err := cfg.Validate(); err != nil {
				t.Fatalf("generated config invalid: %v", err)
			}
			if cfg.Name != `My "Site"` || !cfg.Build.Pretty {
				t.Errorf("config = %+v", cfg)
			}

			pages, err := cfg.ResolvePages()
			if err != nil {
				t.Fatal(err)
			}
			out := t.TempDir()
			report, err := build.New(cfg, build.Options{
				Writer: publish.NewFileWriter(out),
				Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
			}).Build(context.Background(), pages)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			for _, p := range report.Pages {
				if !p.OK() {
					t.Errorf("%s: %v", p.Source, p.Result.Errors)
				}
				if len(p.Result.Warnings) > 0 {
					t.Errorf("%s: warnings %v", p.Source, p.Result.Warnings)
				}
			}

			index, err := os.ReadFile(filepath.Join(out, "index.html"))
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(index), `<h1>My "Site"</h1>`) {
				t.Errorf("index.html:\n%s", index)
			}
		})
	}
}

func TestCreateMinify(t *testing.T) {
	dir := t.TempDir()
	tmpl, _ := Get("minimal")
	if err := tmpl.Create(dir, Config{ProjectName: "x", Output: "public", Minify: true}); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.LoadFile(filepath.Join(dir, config.ConfigFileName))
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Build.Minify || cfg.Build.Pretty || cfg.Build.Output != "public" {
		t.Errorf("build = %+v", cfg.Build)
	}
}
