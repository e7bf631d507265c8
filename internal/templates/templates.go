package templates

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"text/template"

	"github.com/vango-dev/jsonpage/internal/errors"
)

// Config contains template configuration.
type Config struct {
	// ProjectName is the name of the project.
	ProjectName string

	// Description is a short project description.
	Description string

	// Output is the build output directory or s3:// URL.
	Output string

	// Minify enables minified output.
	Minify bool
}

// Template represents a project template.
type Template struct {
	// Name is the template name.
	Name string

	// Description describes the template.
	Description string

	// Files is a map of relative paths to file contents.
	Files map[string]string
}

// Available templates.
var templates = map[string]*Template{
	"minimal": minimalTemplate(),
	"site":    siteTemplate(),
}

// Get returns a template by name.
func Get(name string) (*Template, error) {
	tmpl, ok := templates[name]
	if !ok {
		return nil, errors.New("J083").
			WithDetail("Template '" + name + "' not found").
			WithSuggestion("Available templates: minimal, site")
	}
	return tmpl, nil
}

// List returns all available template names, sorted.
func List() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var funcs = template.FuncMap{
	// json quotes a value for use inside a JSON document.
	"json": func(v any) (string, error) {
		data, err := json.Marshal(v)
		return string(data), err
	},
}

// Create generates a project from the template.
func (t *Template) Create(dir string, cfg Config) error {
	if cfg.Output == "" {
		cfg.Output = "dist"
	}
	for relPath, content := range t.Files {
		tmpl, err := template.New(relPath).Funcs(funcs).Parse(content)
		if err != nil {
			return errors.Newf(errors.CategoryCLI, "invalid template %s: %v", relPath, err)
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, cfg); err != nil {
			return errors.Newf(errors.CategoryCLI, "template execute error %s: %v", relPath, err)
		}

		fullPath := filepath.Join(dir, filepath.FromSlash(relPath))
		if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
			return errors.New("J060").Wrap(err)
		}
		if err := os.WriteFile(fullPath, buf.Bytes(), 0o644); err != nil {
			return errors.New("J060").Wrap(err)
		}
	}
	return nil
}

const configFile = `{
  "name": {{json .ProjectName}},
  "pages": ["pages/*.json", "pages/*.yaml"],
  "build": {
    "output": {{json .Output}},
    "minify": {{.Minify}}{{if not .Minify}},
    "pretty": true{{end}}
  }
}
`

// minimalTemplate returns the minimal template.
func minimalTemplate() *Template {
	return &Template{
		Name:        "minimal",
		Description: "A single page",
		Files: map[string]string{
			"jsonpage.json": configFile,
			"pages/index.json": `{
  "page": [
    {"head": [
      {"meta": null, "charset": "utf-8"},
      {"title": {{json .ProjectName}}}
    ]},
    {"body": [
      {"h1": {{json .ProjectName}}},
      {"p": {{json .Description}}}
    ]}
  ]
}
`,
		},
	}
}

// siteTemplate returns a multi-page starter with shared components.
func siteTemplate() *Template {
	return &Template{
		Name:        "site",
		Description: "Several pages sharing imported components",
		Files: map[string]string{
			"jsonpage.json": configFile,
			"components/layout.json": `{
  "props": {"title": {{json .ProjectName}}},
  "component": [
    {"head": [
      {"meta": null, "charset": "utf-8"},
      {"meta": null, "name": "viewport", "content": "width=device-width, initial-scale=1"},
      {"title": "${title}"},
      {"style": {
        "body": {"font-family": "system-ui, sans-serif", "margin": "0 auto", "max-width": "48rem"},
        "nav": {"display": "flex", "gap": "1rem", "a": {"color": "inherit"}},
        ".card": {"border": "1px solid #ddd", "border-radius": "8px", "padding": "1rem"}
      }}
    ]},
    {"body": [
      {"nav": [
        {"a": "Home", "href": "/"},
        {"a": "About", "href": "/about"}
      ]},
      {"main": ["${children}"]},
      {"footer": [{"small": {{json .ProjectName}}}]}
    ]}
  ]
}
`,
			"components/card.yaml": `props:
  title: Untitled
component:
  - section:
      - h2: ${title}
      - ${children}
    class: card
`,
			"pages/index.json": `{
  "import": {
    "Layout": "../components/layout.json",
    "Card": "../components/card.yaml"
  },
  "page": [
    {"Layout": [
      {"h1": {{json .ProjectName}}},
      {"Card": [{"p": {{json .Description}}}], "title": "Welcome"},
      {"ul": [{"@each": [{"li": "${item}"}], "items": ["JSON in", "HTML out"]}]}
    ]}
  ]
}
`,
			"pages/about.yaml": `import:
  Layout: ../components/layout.json
page:
  - Layout:
      - h1: About
      - p: Edit pages/about.yaml and save to reload.
    title: About
`,
		},
	}
}
