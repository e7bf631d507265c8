package publish

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PutObjectAPI is the part of *s3.Client the S3Writer uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Options configures the S3 client built by NewS3Client.
type S3Options struct {
	Bucket   string
	Region   string
	Endpoint string
	Prefix   string

	// PathStyle forces path-style addressing, needed by most S3-compatible
	// stores.
	PathStyle bool
}

// ErrNoCredentials is returned when the AWS credentials are not set in the
// environment.
var ErrNoCredentials = errors.New("publish: AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set")

// NewS3Client builds an S3 client from opts. Credentials come from the
// standard AWS environment variables.
func NewS3Client(opts S3Options) *s3.Client {
	region := opts.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}

	o := s3.Options{
		Region:       region,
		UsePathStyle: opts.PathStyle,
		Credentials:  aws.NewCredentialsCache(aws.CredentialsProviderFunc(envCredentials)),
	}
	if opts.Endpoint != "" {
		o.BaseEndpoint = aws.String(opts.Endpoint)
	}
	return s3.New(o)
}

func envCredentials(context.Context) (aws.Credentials, error) {
	id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return aws.Credentials{}, ErrNoCredentials
	}
	return aws.Credentials{
		AccessKeyID:     id,
		SecretAccessKey: secret,
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "Environment",
	}, nil
}

// S3Writer uploads rendered pages as objects.
//
// Example usage:
//
//	w := publish.NewS3Writer(publish.NewS3Client(opts), "my-site", "www/")
//	err := w.WriteText(ctx, "index.html", html)
type S3Writer struct {
	client PutObjectAPI
	bucket string
	prefix string
}

// NewS3Writer creates a writer for bucket. prefix is prepended to every key.
func NewS3Writer(client PutObjectAPI, bucket, prefix string) *S3Writer {
	return &S3Writer{client: client, bucket: bucket, prefix: prefix}
}

// Key returns the object key for a path.
func (w *S3Writer) Key(p string) string {
	return w.prefix + strings.TrimPrefix(path.Clean("/"+p), "/")
}

// WriteText uploads content under the key for p.
func (w *S3Writer) WriteText(ctx context.Context, p, content string) error {
	key := w.Key(p)
	contentType := mime.TypeByExtension(path.Ext(p))
	if contentType == "" {
		contentType = "text/plain; charset=utf-8"
	}

	_, err := w.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3 upload of s3://%s/%s failed: %w", w.bucket, key, err)
	}
	return nil
}
