// Package build turns documents into HTML files.
//
// Each page goes through the same steps:
//   - load the document and its imports from disk
//   - render it with pkg/render
//   - minify or pretty-print the markup
//   - hand it to a publish.Writer (a directory or an S3 bucket)
//
// # Usage
//
//	builder := build.New(cfg, build.Options{Writer: writer})
//	report, err := builder.Build(ctx, pages)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, page := range report.Failed() {
//	    fmt.Println(page.Source, page.Result.Errors)
//	}
//
// # Output Structure
//
// Output paths mirror the source tree below Options.Root:
//
//	pages/index.json      -> dist/index.html
//	pages/blog/post.yaml  -> dist/blog/post.html
//	                         dist/manifest.json
//
// # Manifest
//
// With Options.Manifest set, Build writes manifest.json listing every page
// that rendered:
//
//	{
//	  "pages": [
//	    {"source": "pages/index.json", "target": "index.html", "hash": "9f86d0...", "bytes": 812, "components": ["Nav"], "warnings": 0}
//	  ],
//	  "failed": 0
//	}
package build
