package publish

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func TestFileWriter(t *testing.T) {
	dir := t.TempDir()
	w := NewFileWriter(dir)

	if err := w.WriteText(context.Background(), "blog/post/index.html", "<p>one</p>"); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteText(context.Background(), "blog/post/index.html", "<p>two</p>"); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "blog", "post", "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "<p>two</p>" {
		t.Errorf("content = %q", data)
	}

	entries, _ := os.ReadDir(filepath.Join(dir, "blog", "post"))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestFileWriterRejectsEscape(t *testing.T) {
	w := NewFileWriter(t.TempDir())
	for _, p := range []string{"../x.html", "a/../../x.html", "/etc/x.html"} {
		if err := w.WriteText(context.Background(), p, "x"); err == nil {
			t.Errorf("WriteText(%q) succeeded", p)
		}
	}
}

func TestFileWriterCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewFileWriter(t.TempDir()).WriteText(ctx, "a.html", "x")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

type fakeS3 struct {
	inputs []*s3.PutObjectInput
	bodies []string
	err    error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(in.Body)
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, string(body))
	return &s3.PutObjectOutput{}, nil
}

func TestS3Writer(t *testing.T) {
	fake := &fakeS3{}
	w := NewS3Writer(fake, "site", "www/")

	if err := w.WriteText(context.Background(), "docs/index.html", "<p>x</p>"); err != nil {
		t.Fatal(err)
	}
	if len(fake.inputs) != 1 {
		t.Fatalf("PutObject calls = %d", len(fake.inputs))
	}
	in := fake.inputs[0]
	if aws.ToString(in.Bucket) != "site" || aws.ToString(in.Key) != "www/docs/index.html" {
		t.Errorf("bucket/key = %s/%s", aws.ToString(in.Bucket), aws.ToString(in.Key))
	}
	if aws.ToString(in.ContentType) != "text/html; charset=utf-8" {
		t.Errorf("ContentType = %q", aws.ToString(in.ContentType))
	}
	if fake.bodies[0] != "<p>x</p>" {
		t.Errorf("body = %q", fake.bodies[0])
	}
}

func TestS3WriterKey(t *testing.T) {
	w := NewS3Writer(nil, "b", "p/")
	tests := map[string]string{
		"index.html":      "p/index.html",
		"/index.html":     "p/index.html",
		"a/../b.html":     "p/b.html",
		"../../etc/x.txt": "p/etc/x.txt",
	}
	for in, want := range tests {
		if got := w.Key(in); got != want {
			t.Errorf("Key(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestS3WriterError(t *testing.T) {
	denied := errors.New("access denied")
	w := NewS3Writer(&fakeS3{err: denied}, "b", "")

	err := w.WriteText(context.Background(), "x.html", "x")
	if !errors.Is(err, denied) {
		t.Errorf("err = %v, want it to wrap the client error", err)
	}
}

func TestOpen(t *testing.T) {
	w, err := Open("out", S3Options{})
	if err != nil {
		t.Fatal(err)
	}
	if fw, ok := w.(*FileWriter); !ok || fw.Dir != "out" || Target(w) != "file" {
		t.Errorf("Open(dir) = %#v", w)
	}

	w, err = Open("s3://my-site/www/docs", S3Options{Region: "eu-west-1"})
	if err != nil {
		t.Fatal(err)
	}
	sw, ok := w.(*S3Writer)
	if !ok || Target(w) != "s3" {
		t.Fatalf("Open(s3) = %#v", w)
	}
	if sw.bucket != "my-site" || sw.prefix != "www/docs/" {
		t.Errorf("bucket = %q, prefix = %q", sw.bucket, sw.prefix)
	}

	if _, err := Open("s3:///nobucket", S3Options{}); err == nil {
		t.Error("expected error for missing bucket")
	}
}

func TestOpenFile(t *testing.T) {
	tests := []struct {
		dest   string
		target string
		name   string
		prefix string
	}{
		{"page.html", "file", "page.html", "."},
		{filepath.Join("out", "page.html"), "file", "page.html", "out" + string(filepath.Separator)},
		{"s3://my-site/page.html", "s3", "page.html", ""},
		{"s3://my-site/www/docs/page.html", "s3", "page.html", "www/docs/"},
	}
	for _, tt := range tests {
		t.Run(tt.dest, func(t *testing.T) {
			w, name, err := OpenFile(tt.dest, S3Options{})
			if err != nil {
				t.Fatal(err)
			}
			if Target(w) != tt.target || name != tt.name {
				t.Fatalf("OpenFile = %s %q", Target(w), name)
			}
			switch w := w.(type) {
			case *FileWriter:
				if w.Dir != tt.prefix {
					t.Errorf("Dir = %q, want %q", w.Dir, tt.prefix)
				}
			case *S3Writer:
				if w.prefix != tt.prefix {
					t.Errorf("prefix = %q, want %q", w.prefix, tt.prefix)
				}
			}
		})
	}

	for _, bad := range []string{"s3://my-site", "s3://my-site/dir/", "out" + string(filepath.Separator)} {
		if _, _, err := OpenFile(bad, S3Options{}); err == nil {
			t.Errorf("OpenFile(%q) should fail", bad)
		}
	}
}

func TestEnvCredentials(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	if _, err := envCredentials(context.Background()); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("err = %v, want ErrNoCredentials", err)
	}

	t.Setenv("AWS_ACCESS_KEY_ID", "id")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("AWS_SESSION_TOKEN", "token")
	creds, err := envCredentials(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if creds.AccessKeyID != "id" || creds.SecretAccessKey != "secret" || creds.SessionToken != "token" {
		t.Errorf("creds = %+v", creds)
	}
}
