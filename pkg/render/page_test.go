package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/vango-dev/jsonpage/pkg/document"
)

func TestRenderDocument(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"page", `{"page": [{"p": "hi"}]}`, `<!doctype html><html><p>hi</p></html>`},
		{"component body", `{"component": [{"p": "hi"}]}`, `<p>hi</p>`},
		{"fragment", `[{"p": "hi"}, "br"]`, `<p>hi</p><br />`},
		{"empty page", `{"page": []}`, `<!doctype html><html></html>`},
		{
			"components section",
			`{"components": {"Btn": {"props": {"label": "OK"}, "content": [{"button": "${label}"}]}}, "page": ["Btn", {"Btn": null, "label": "Go"}]}`,
			`<!doctype html><html><button>OK</button><button>Go</button></html>`,
		},
		{
			"components see earlier components",
			`{"components": {"Item": [{"li": "${children}"}], "List": [{"ul": [{"Item": ["b"]}]}]}, "component": ["List"]}`,
			`<ul><li><b></b></li></ul>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := renderDoc(t, tt.src)
			if !result.OK() {
				t.Fatalf("unexpected errors: %v", result.Errors)
			}
			if result.Output != tt.want {
				t.Errorf("got  %s\nwant %s", result.Output, tt.want)
			}
		})
	}
}

func TestRenderDocumentErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind ErrorKind
	}{
		{"page not an array", `{"page": "notAnArray"}`, NotAnArray},
		{"component not an array", `{"component": {"p": "x"}}`, NotAnArray},
		{"both page and component", `{"page": [], "component": []}`, InvalidDocumentShape},
		{"neither page nor component", `{"components": {}}`, InvalidDocumentShape},
		{"scalar document", `"page"`, InvalidDocumentShape},
		{"components not an object", `{"components": [], "page": []}`, InvalidDocumentShape},
		{"import not an object", `{"import": "x.json", "page": []}`, InvalidDocumentShape},
		{"duplicate across sections", `{"components": {"A": ["p"]}, "import": {"A": "a.json"}, "page": []}`, DuplicateComponent},
		{"non-string import", `{"import": {"A": 5}, "page": []}`, InvalidImportPath},
		{"import without loader", `{"import": {"A": "a.json"}, "page": []}`, InvalidImportPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := renderDoc(t, tt.src)
			if result.OK() {
				t.Fatalf("expected %s, got output %q", tt.kind, result.Output)
			}
			if result.Output != "" {
				t.Errorf("Output = %q, want empty", result.Output)
			}
			requireKind(t, result.Err(), tt.kind)
		})
	}
}

func TestRenderCollectsSectionErrors(t *testing.T) {
	result := renderDoc(t, `{
		"components": {"A": [5], "B": "p"},
		"page": []
	}`)

	if len(result.Errors) != 2 {
		t.Fatalf("got %d errors, want 2: %v", len(result.Errors), result.Errors)
	}
	if result.Errors[0].Kind != InvalidNodeType || result.Errors[0].Path != "components.A[0]" {
		t.Errorf("first error = %v", result.Errors[0])
	}
	if result.Errors[1].Kind != InvalidDocumentShape || result.Errors[1].Path != "components.B" {
		t.Errorf("second error = %v", result.Errors[1])
	}
}

func TestRenderUnknownPropStillRenders(t *testing.T) {
	renderer := NewRenderer(RendererConfig{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	doc := mustParse(t, `{
		"components": {"Greet": {"props": {"name": "x"}, "content": [{"p": "${name}"}]}},
		"component": [{"Greet": null, "name": "y", "extra": "z"}]
	}`)

	result, err := renderer.Render(context.Background(), doc)
	if err != nil {
		t.Fatal(err)
	}
	if !result.OK() || result.Output != "<p>y</p>" {
		t.Fatalf("result = %+v", result)
	}
	if len(result.Warnings) != 1 || !errors.Is(result.Warnings[0], UnknownProp) {
		t.Errorf("Warnings = %v", result.Warnings)
	}
	if !reflect.DeepEqual(result.Components, []string{"Greet"}) {
		t.Errorf("Components = %v", result.Components)
	}
}

func TestResultJSON(t *testing.T) {
	ok, err := renderDoc(t, `{"component": ["br"]}`).MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(ok) != `{"output":"<br />","errors":null,"warnings":[]}` {
		t.Errorf("ok result = %s", ok)
	}

	failed, err := renderDoc(t, `{"page": "notAnArray"}`).MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Output *string  `json:"output"`
		Errors []string `json:"errors"`
	}
	if err := json.Unmarshal(failed, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Output != nil {
		t.Errorf("output = %q, want null", *decoded.Output)
	}
	if len(decoded.Errors) != 1 {
		t.Fatalf("errors = %v", decoded.Errors)
	}
	if want := "NotAnArray at page"; decoded.Errors[0][:len(want)] != want {
		t.Errorf("error = %q", decoded.Errors[0])
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	renderer := NewRenderer(RendererConfig{})
	doc := mustParse(t, `{
		"components": {"Card": {"props": {"title": "T"}, "content": [{"div": [{"h2": "${title}"}, "${children}"]}]}},
		"page": [{"Card": [{"p": "one"}], "title": "A"}, "Card"]
	}`)

	first, err := renderer.Render(context.Background(), doc)
	if err != nil {
		t.Fatal(err)
	}
	second, err := renderer.Render(context.Background(), doc)
	if err != nil {
		t.Fatal(err)
	}
	if !first.OK() || first.Output != second.Output {
		t.Errorf("renders differ:\n%s\n%s", first.Output, second.Output)
	}
	if !reflect.DeepEqual(first.Components, second.Components) {
		t.Errorf("components differ: %v vs %v", first.Components, second.Components)
	}
}

func TestRenderDoesNotLeakRegistry(t *testing.T) {
	renderer := NewRenderer(RendererConfig{})

	withDef := renderDocWith(t, renderer, `{"components": {"X": [{"b": "x"}]}, "component": ["X"]}`)
	if withDef.Output != "<b>x</b>" {
		t.Fatalf("Output = %q", withDef.Output)
	}

	withoutDef := renderDocWith(t, renderer, `{"component": ["X"]}`)
	if withoutDef.Output != "<X></X>" {
		t.Errorf("component leaked between renders: %q", withoutDef.Output)
	}
}

func TestRenderConcurrent(t *testing.T) {
	renderer := NewRenderer(RendererConfig{})
	var wg sync.WaitGroup
	outputs := make([]string, 16)

	for i := range outputs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			src := fmt.Sprintf(`{"components": {"N": [{"i": "%d"}]}, "component": ["N"]}`, i)
			doc, err := document.Parse([]byte(src))
			if err != nil {
				t.Error(err)
				return
			}
			result, err := renderer.Render(context.Background(), doc)
			if err != nil {
				t.Error(err)
				return
			}
			outputs[i] = result.Output
		}(i)
	}
	wg.Wait()

	for i, out := range outputs {
		if want := fmt.Sprintf("<i>%d</i>", i); out != want {
			t.Errorf("render %d = %q, want %q", i, out, want)
		}
	}
}

func renderDocWith(t *testing.T, renderer *Renderer, src string) *Result {
	t.Helper()

	result, err := renderer.Render(context.Background(), mustParse(t, src))
	if err != nil {
		t.Fatal(err)
	}
	return result
}

func mapLoader(t *testing.T, docs map[string]string) document.Loader {
	t.Helper()

	return document.LoaderFunc(func(_ context.Context, id string) (*document.Value, error) {
		src, ok := docs[id]
		if !ok {
			return nil, fmt.Errorf("open %s: %w", id, fs.ErrNotExist)
		}
		return document.Parse([]byte(src))
	})
}

func TestRenderImports(t *testing.T) {
	loader := mapLoader(t, map[string]string{
		"footer.json": `{"props": {"text": "(c)"}, "component": [{"footer": "${text}"}]}`,
		"hr.json":     `["hr"]`,
	})
	renderer := NewRenderer(RendererConfig{Loader: loader})

	t.Run("registers imported components", func(t *testing.T) {
		result := renderDocWith(t, renderer, `{
			"import": {"Footer": "footer.json", "Rule": "hr.json"},
			"page": ["Rule", {"Footer": null, "text": "2024"}]
		}`)
		if !result.OK() {
			t.Fatal(result.Errors)
		}
		if want := `<!doctype html><html><hr /><footer>2024</footer></html>`; result.Output != want {
			t.Errorf("got  %s\nwant %s", result.Output, want)
		}
	})

	t.Run("sections run in document order", func(t *testing.T) {
		result := renderDocWith(t, renderer, `{
			"import": {"Footer": "footer.json"},
			"components": {"Layout": [{"main": ["${children}"]}, "Footer"]},
			"component": [{"Layout": [{"p": "x"}]}]
		}`)
		if want := `<main><p>x</p></main><footer>(c)</footer>`; result.Output != want {
			t.Errorf("got  %s\nwant %s", result.Output, want)
		}
	})

	t.Run("missing document", func(t *testing.T) {
		result := renderDocWith(t, renderer, `{"import": {"Nav": "nav.json"}, "page": []}`)
		requireKind(t, result.Err(), InvalidImportPath)
		if result.Errors[0].Path != "import.Nav" {
			t.Errorf("Path = %q", result.Errors[0].Path)
		}
	})
}

func TestRenderImportLoaderErrorPassesThrough(t *testing.T) {
	errDisk := errors.New("disk on fire")
	renderer := NewRenderer(RendererConfig{
		Loader: document.LoaderFunc(func(context.Context, string) (*document.Value, error) {
			return nil, errDisk
		}),
	})

	result, err := renderer.Render(context.Background(), mustParse(t, `{"import": {"A": "a.json"}, "page": []}`))
	if err != errDisk {
		t.Fatalf("err = %v, want the loader error unchanged", err)
	}
	if result != nil {
		t.Errorf("result = %+v, want nil", result)
	}
}

func TestRenderFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "site", "index.json"), `{
		"import": {"Footer": "parts/footer.yaml"},
		"page": [{"h1": "Home"}, "Footer"]
	}`)
	writeFile(t, filepath.Join(dir, "site", "parts", "footer.yaml"), "component:\n  - footer: bye\n")

	renderer := NewRenderer(RendererConfig{Loader: document.NewFileLoader(dir)})
	result, err := renderer.RenderFile(context.Background(), "site/index.json")
	if err != nil {
		t.Fatal(err)
	}
	if !result.OK() {
		t.Fatal(result.Errors)
	}
	if want := `<!doctype html><html><h1>Home</h1><footer>bye</footer></html>`; result.Output != want {
		t.Errorf("got  %s\nwant %s", result.Output, want)
	}

	if _, err := renderer.RenderFile(context.Background(), "site/missing.json"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing file err = %v", err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
