package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/vango-dev/jsonpage/internal/build"
	"github.com/vango-dev/jsonpage/internal/config"
	"github.com/vango-dev/jsonpage/internal/dev"
	"github.com/vango-dev/jsonpage/internal/errors"
	"github.com/vango-dev/jsonpage/internal/publish"
	"github.com/vango-dev/jsonpage/pkg/document"
	"github.com/vango-dev/jsonpage/pkg/render"
)

type parseOptions struct {
	output string
	minify bool
	pretty bool
	indent int
	escape bool
	json   bool
	watch  bool
}

func parseCmd() *cobra.Command {
	var opts parseOptions

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Render one document",
		Long: `Render a JSON or YAML document and print the HTML.

Without a file argument, pick one of the project's pages interactively.
The exit status is 1 when the path is invalid or the document has
render errors.

Examples:
  jsonpage parse pages/index.json
  jsonpage parse pages/index.json --pretty
  jsonpage parse pages/index.json --minify --output dist/index.html
  jsonpage parse pages/index.json --output s3://my-site/index.html
  jsonpage parse pages/index.json --json
  jsonpage parse pages/index.json --watch --output dist/index.html`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var file string
			if len(args) == 1 {
				file = args[0]
			} else {
				picked, err := pickPage()
				if err != nil {
					return err
				}
				file = picked
			}
			return runParse(ctx, cmd, file, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write to a file or s3://bucket/key instead of stdout")
	cmd.Flags().BoolVar(&opts.minify, "minify", false, "Strip formatting whitespace and comments")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "Indent the output")
	cmd.Flags().IntVar(&opts.indent, "indent", config.DefaultIndent, "Spaces per level with --pretty")
	cmd.Flags().BoolVar(&opts.escape, "escape", false, "HTML-escape text and attribute values")
	cmd.Flags().BoolVar(&opts.json, "json", false, `Print {"output", "errors", "warnings"} as JSON`)
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Render again whenever the document directory changes")

	return cmd
}

func runParse(ctx context.Context, cmd *cobra.Command, file string, opts parseOptions) error {
	if opts.minify && opts.pretty {
		return errors.Newf(errors.CategoryCLI, "--minify and --pretty cannot be combined")
	}
	if err := checkDocumentPath(file); err != nil {
		return err
	}

	builder := build.New(nil, build.Options{
		Renderer: render.NewRenderer(render.RendererConfig{
			Loader: document.NewFileLoader(""),
			Logger: slog.Default(),
			Escape: opts.escape,
		}),
		Minify: opts.minify,
		Pretty: opts.pretty,
		Indent: strings.Repeat(" ", opts.indent),
		Logger: slog.Default(),
	})

	if !opts.watch {
		return parseOnce(ctx, cmd, builder, file, opts)
	}

	stderr := cmd.ErrOrStderr()
	if err := parseOnce(ctx, cmd, builder, file, opts); err != nil && !stderrors.Is(err, errReported) {
		errors.Fprint(stderr, err)
	}

	ignore := append([]string(nil), dev.DefaultIgnore...)
	if opts.output != "" {
		ignore = append(ignore, filepath.Base(opts.output))
	}
	watcher := dev.NewWatcher(dev.WatcherConfig{
		Paths:  []string{filepath.Dir(file)},
		Ignore: ignore,
	})
	watcher.OnChange(func(changes []dev.Change) {
		for _, c := range changes {
			if c.Type != dev.ChangeDocument {
				continue
			}
			info(stderr, "%s changed", c.Path)
			if err := parseOnce(ctx, cmd, builder, file, opts); err != nil && !stderrors.Is(err, errReported) {
				errors.Fprint(stderr, err)
			}
			return
		}
	})

	info(stderr, "Watching %s for changes (Ctrl+C to stop)", filepath.Dir(file))
	if err := watcher.Start(ctx); err != nil && !stderrors.Is(err, context.Canceled) {
		return errors.New("J081").Wrap(err)
	}
	return nil
}

func parseOnce(ctx context.Context, cmd *cobra.Command, builder *build.Builder, file string, opts parseOptions) error {
	out, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	page, err := builder.Render(ctx, file)
	if err != nil {
		return documentError(file, err)
	}

	if opts.json {
		data, err := page.Result.MarshalJSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		if !page.OK() {
			return errReported
		}
		return nil
	}

	if !reportPage(stderr, page) {
		return errReported
	}

	if opts.output == "" {
		io.WriteString(out, page.HTML)
		if !strings.HasSuffix(page.HTML, "\n") {
			fmt.Fprintln(out)
		}
		return nil
	}

	w, name, err := publish.OpenFile(opts.output, publish.S3Options{})
	if err != nil {
		return errors.New("J060").WithDetail(err.Error())
	}
	if err := w.WriteText(ctx, name, page.HTML); err != nil {
		code := "J060"
		if publish.Target(w) == "s3" {
			code = "J061"
		}
		return errors.New(code).WithDetail(opts.output).Wrap(err)
	}
	success(stderr, "Wrote %s (%s)", opts.output, formatBytes(len(page.HTML)))
	return nil
}

// pickPage lets the user choose one of the configured pages.
func pickPage() (string, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return "", errors.Newf(errors.CategoryCLI, "no document given").
			WithSuggestion("Run jsonpage parse <file>.")
	}
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return "", err
	}
	pages, err := cfg.ResolvePages()
	if err != nil {
		return "", err
	}

	idx, err := fuzzyfinder.Find(
		pages,
		func(i int) string {
			if rel, err := filepath.Rel(cfg.Dir(), pages[i]); err == nil {
				return rel
			}
			return pages[i]
		},
		fuzzyfinder.WithPromptString("Select page: "),
	)
	if err != nil {
		return "", err
	}
	return pages[idx], nil
}
