// Package publish writes rendered pages to their destination: the local
// file system or an S3 bucket.
package publish

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Writer stores rendered text under a slash-separated path.
type Writer interface {
	WriteText(ctx context.Context, path, content string) error
}

// Target names the kind of destination a Writer writes to, for logs and
// metrics.
func Target(w Writer) string {
	switch w.(type) {
	case *S3Writer:
		return "s3"
	case *FileWriter:
		return "file"
	default:
		return "custom"
	}
}

// Open returns a Writer for dest. dest is either a directory or an
// s3://bucket/prefix URL; opts configures the S3 client in the latter case.
func Open(dest string, opts S3Options) (Writer, error) {
	if !strings.HasPrefix(dest, "s3://") {
		return NewFileWriter(dest), nil
	}

	u, err := url.Parse(dest)
	if err != nil {
		return nil, fmt.Errorf("publish: invalid destination %q: %w", dest, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("publish: destination %q has no bucket", dest)
	}
	opts.Bucket = u.Host
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		opts.Prefix = strings.TrimSuffix(p, "/") + "/"
	}
	return NewS3Writer(NewS3Client(opts), opts.Bucket, opts.Prefix), nil
}

// OpenFile returns a Writer for the directory holding the file dest and
// the file's name within it. dest is a file path or an s3://bucket/key URL.
func OpenFile(dest string, opts S3Options) (Writer, string, error) {
	if strings.HasPrefix(dest, "s3://") {
		i := strings.LastIndex(dest, "/")
		if i < len("s3://") || i == len(dest)-1 {
			return nil, "", fmt.Errorf("publish: destination %q has no object key", dest)
		}
		w, err := Open(dest[:i], opts)
		return w, dest[i+1:], err
	}
	dir, name := filepath.Split(dest)
	if name == "" {
		return nil, "", fmt.Errorf("publish: destination %q is a directory", dest)
	}
	if dir == "" {
		dir = "."
	}
	return NewFileWriter(dir), name, nil
}
