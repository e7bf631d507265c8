package render

import (
	"context"
	"errors"
	"testing"

	"github.com/vango-dev/jsonpage/pkg/document"
)

func mustParse(t *testing.T, src string) *document.Value {
	t.Helper()

	v, err := document.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return v
}

// renderNode renders one node with an empty registry.
func renderNode(t *testing.T, src string) (string, error) {
	t.Helper()

	scope := NewRenderer(RendererConfig{}).NewScope()
	return scope.RenderNode(mustParse(t, src), "$")
}

func renderDoc(t *testing.T, src string) *Result {
	t.Helper()

	result, err := NewRenderer(RendererConfig{}).Render(context.Background(), mustParse(t, src))
	if err != nil {
		t.Fatalf("unexpected loader error: %v", err)
	}
	return result
}

func requireKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if !errors.Is(err, kind) {
		t.Fatalf("expected %s error, got %v", kind, err)
	}
}
