package main

import (
	"context"
	stderrors "errors"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vango-dev/jsonpage/internal/build"
	"github.com/vango-dev/jsonpage/internal/config"
	"github.com/vango-dev/jsonpage/internal/errors"
	"github.com/vango-dev/jsonpage/internal/publish"
	"github.com/vango-dev/jsonpage/pkg/document"
)

type buildOptions struct {
	output      string
	minify      bool
	pretty      bool
	publish     bool
	manifest    bool
	concurrency int
}

func buildCmd() *cobra.Command {
	var opts buildOptions

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render every page of the project",
		Long: `Render every document listed under pages in jsonpage.json.

Output paths mirror the source tree below build.root, so
pages/blog/post.json is written as <output>/blog/post.html.
Pages with render errors are reported and skipped; the exit
status is then 1.

Examples:
  jsonpage build
  jsonpage build --output=public --minify
  jsonpage build --publish`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runBuild(ctx, cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output directory or s3:// URL (default from jsonpage.json)")
	cmd.Flags().BoolVar(&opts.minify, "minify", false, "Minify output")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "Indent output")
	cmd.Flags().BoolVar(&opts.publish, "publish", false, "Upload to the S3 bucket configured under publish.s3")
	cmd.Flags().BoolVar(&opts.manifest, "manifest", true, "Write manifest.json")
	cmd.Flags().IntVarP(&opts.concurrency, "jobs", "j", 4, "Pages rendered in parallel")

	return cmd
}

func runBuild(ctx context.Context, cmd *cobra.Command, opts buildOptions) error {
	out, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}

	if opts.output != "" {
		cfg.Build.Output = opts.output
	}
	if cmd.Flags().Changed("minify") {
		cfg.Build.Minify = opts.minify
		if opts.minify {
			cfg.Build.Pretty = false
		}
	}
	if cmd.Flags().Changed("pretty") {
		cfg.Build.Pretty = opts.pretty
		if opts.pretty {
			cfg.Build.Minify = false
		}
	}
	if opts.publish {
		s3 := cfg.Publish.S3
		if s3 == nil {
			return errors.New("J040").
				WithDetail("--publish needs publish.s3 in jsonpage.json").
				WithExample(`"publish": {"s3": {"bucket": "my-site", "region": "eu-west-1"}}`)
		}
		cfg.Build.Output = "s3://" + s3.Bucket + "/" + strings.TrimPrefix(s3.Prefix, "/")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	pages, err := cfg.ResolvePages()
	if err != nil {
		return err
	}

	dest := cfg.OutputPath()
	writer, err := publish.Open(dest, s3Options(cfg))
	if err != nil {
		return errors.New("J061").WithDetail(err.Error())
	}

	info(out, "Building %d pages into %s", len(pages), dest)

	var mu sync.Mutex
	builder := build.New(cfg, build.Options{
		Writer:      writer,
		Manifest:    opts.manifest,
		Concurrency: opts.concurrency,
		OnProgress: func(p *build.Page) {
			if !p.OK() {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			info(out, "%s %s", p.Target, dimStyle.Render("("+formatBytes(len(p.HTML))+")"))
		},
	})

	start := time.Now()
	report, err := builder.Build(ctx, pages)
	if err != nil {
		var syn *document.SyntaxError
		switch {
		case stderrors.Is(err, context.Canceled):
			return err
		case stderrors.Is(err, fs.ErrNotExist):
			return errors.New("J021").WithDetail(err.Error()).Wrap(err)
		case stderrors.As(err, &syn):
			return errors.New("J020").WithDetail(err.Error()).Wrap(err)
		}
		code := "J060"
		if publish.Target(writer) == "s3" {
			code = "J061"
		}
		return errors.New(code).WithDetail(dest).Wrap(err)
	}

	for _, p := range report.Pages {
		reportPage(stderr, p)
	}

	failed := report.Failed()
	if len(failed) > 0 {
		errorMsg(stderr, "%d of %d pages failed", len(failed), len(pages))
		for _, p := range failed {
			info(stderr, "%s", relTo(cfg.Dir(), p.Source))
		}
		return errReported
	}

	success(out, "Built %d pages in %s", len(pages), time.Since(start).Round(time.Millisecond))
	return nil
}

func s3Options(cfg *config.Config) publish.S3Options {
	s3 := cfg.Publish.S3
	if s3 == nil {
		return publish.S3Options{}
	}
	return publish.S3Options{
		Region:    s3.Region,
		Endpoint:  s3.Endpoint,
		PathStyle: s3.PathStyle,
	}
}

func relTo(dir, p string) string {
	if rel, err := filepath.Rel(dir, p); err == nil {
		return rel
	}
	return p
}
