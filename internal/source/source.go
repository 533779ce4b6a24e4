// Package source opens shipment tables and overrides documents from local
// files, stdin or cloud object storage.
package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Location is a parsed source URI.
type Location struct {
	// Scheme is one of "file", "stdin", "gs", "s3"
	Scheme string
	Bucket string
	// Path is the object key for gs/s3 and the file path otherwise
	Path string
}

// Parse splits a source URI. Anything without a gs:// or s3:// scheme is a
// local path, "-" is stdin.
func Parse(uri string) (Location, error) {
	if uri == "" {
		return Location{}, fmt.Errorf("empty source")
	}
	if uri == "-" {
		return Location{Scheme: "stdin"}, nil
	}

	if !strings.HasPrefix(uri, "gs://") && !strings.HasPrefix(uri, "s3://") {
		return Location{Scheme: "file", Path: strings.TrimPrefix(uri, "file://")}, nil
	}

	u, err := url.Parse(uri)
	if err != nil {
		return Location{}, fmt.Errorf("invalid source %s: %w", uri, err)
	}

	location := Location{
		Scheme: u.Scheme,
		Bucket: u.Host,
		Path:   strings.TrimPrefix(u.Path, "/"),
	}
	if location.Bucket == "" || location.Path == "" {
		return Location{}, fmt.Errorf("invalid source %s: bucket and object are required", uri)
	}
	return location, nil
}

type Option func(o *Opener)

// WithAWSConfig sets the aws config used for s3:// sources.
func WithAWSConfig(cfg aws.Config) Option {
	return func(o *Opener) {
		o.awscfg = &cfg
	}
}

// WithStdin replaces the reader used for "-".
func WithStdin(r io.Reader) Option {
	return func(o *Opener) {
		o.stdin = r
	}
}

// Opener opens source URIs. Cloud clients are created on first use with the
// default credential chains.
type Opener struct {
	awscfg *aws.Config
	stdin  io.Reader
}

func NewOpener(opts ...Option) *Opener {
	opener := &Opener{
		stdin: os.Stdin,
	}
	for _, option := range opts {
		option(opener)
	}
	return opener
}

// Open returns a reader over the content of uri. The caller closes it.
func (o *Opener) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	location, err := Parse(uri)
	if err != nil {
		return nil, err
	}

	slog.Debug("opening source", "scheme", location.Scheme, "bucket", location.Bucket, "path", location.Path)

	switch location.Scheme {
	case "stdin":
		return io.NopCloser(o.stdin), nil
	case "file":
		f, err := os.Open(location.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", location.Path, err)
		}
		return f, nil
	case "gs":
		return o.openGCS(ctx, location)
	case "s3":
		return o.openS3(ctx, location)
	}

	return nil, fmt.Errorf("unsupported source scheme %s", location.Scheme)
}

func (o *Opener) openGCS(ctx context.Context, location Location) (io.ReadCloser, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	reader, err := client.Bucket(location.Bucket).Object(location.Path).NewReader(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", location.Bucket, location.Path, err)
	}

	return &closers{Reader: reader, close: []func() error{reader.Close, client.Close}}, nil
}

func (o *Opener) openS3(ctx context.Context, location Location) (io.ReadCloser, error) {
	if o.awscfg == nil {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load aws config: %w", err)
		}
		o.awscfg = &cfg
	}

	s3api := s3.NewFromConfig(*o.awscfg)
	output, err := s3api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(location.Bucket),
		Key:    aws.String(location.Path),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read s3://%s/%s: %w", location.Bucket, location.Path, err)
	}

	return output.Body, nil
}

// closers closes every resource attached to a reader, in order.
type closers struct {
	io.Reader
	close []func() error
}

func (c *closers) Close() error {
	var first error
	for _, fn := range c.close {
		if err := fn(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
