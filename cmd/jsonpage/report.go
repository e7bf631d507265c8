package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/vango-dev/jsonpage/internal/build"
	"github.com/vango-dev/jsonpage/internal/errors"
	"github.com/vango-dev/jsonpage/pkg/document"
)

// checkDocumentPath rejects paths the loader cannot read.
func checkDocumentPath(file string) error {
	if !document.IsDocument(file) {
		return errors.New("J022").WithDetail(file + ": documents must have a .json, .yaml or .yml extension")
	}
	return nil
}

// documentError converts a load failure into a coded error.
func documentError(file string, err error) error {
	var syn *document.SyntaxError
	switch {
	case stderrors.Is(err, fs.ErrNotExist):
		return errors.New("J021").WithLocation(file, 0, 0).Wrap(err)
	case stderrors.As(err, &syn):
		pe := errors.New("J020").WithDetail(syn.Error()).Wrap(err)
		if src, rerr := os.ReadFile(file); rerr == nil && syn.Pos.IsValid() {
			return pe.WithSource(file, src, syn.Pos.Line, syn.Pos.Column)
		}
		return pe.WithLocation(file, 0, 0)
	case stderrors.Is(err, document.ErrEmpty):
		return errors.New("J020").WithLocation(file, 0, 0).Wrap(err)
	default:
		return err
	}
}

// reportPage prints the page's warnings and errors with source context and
// reports whether it rendered.
func reportPage(w io.Writer, page *build.Page) bool {
	if len(page.Result.Warnings) == 0 && page.OK() {
		return true
	}
	src, _ := os.ReadFile(page.Source)
	for _, pe := range errors.FromRenderList(page.Result.Warnings, page.Source, src) {
		fmt.Fprint(w, pe.Format())
	}
	for _, pe := range errors.FromRenderList(page.Result.Errors, page.Source, src) {
		fmt.Fprint(w, pe.Format())
	}
	return page.OK()
}
