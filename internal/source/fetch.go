// Package source fetches the raw search index artifact and keeps a local
// cached copy of it.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

const (
	// MaxArtifactSize bounds how much of a source is read
	MaxArtifactSize = 64 << 20

	defaultHTTPTimeout = 30 * time.Second
)

// ErrUnsupportedScheme is returned for source URIs that are neither a path,
// an http(s) URL nor an s3 object.
var ErrUnsupportedScheme = errors.New("unsupported source scheme")

// ObjectGetter is the subset of the S3 client used to read artifacts
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Fetcher reads search index artifacts from files, web servers and S3
type Fetcher struct {
	httpClient *http.Client
	logger     *zerolog.Logger

	s3Once   sync.Once
	s3Client ObjectGetter
	s3Err    error
	newS3    func(ctx context.Context) (ObjectGetter, error)
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithHTTPClient overrides the client used for http(s) sources
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.httpClient = client
	}
}

// WithS3Client sets the client used for s3 sources instead of building one
// from the default AWS configuration.
func WithS3Client(client ObjectGetter) Option {
	return func(f *Fetcher) {
		f.newS3 = func(context.Context) (ObjectGetter, error) {
			return client, nil
		}
	}
}

func NewFetcher(logger *zerolog.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		logger:     logger,
		newS3:      defaultS3Client,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func defaultS3Client(ctx context.Context) (ObjectGetter, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// Fetch returns the raw bytes behind uri. Supported forms:
//
//	./docs/search_index.js, /abs/path.js, file:///abs/path.js
//	https://example.org/dev/search_index.js
//	s3://bucket/previews/PR52/search_index.js
func (f *Fetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	kind, parsed, err := classify(uri)
	if err != nil {
		return nil, err
	}

	switch kind {
	case kindFile:
		return f.fetchFile(parsed.Path)
	case kindHTTP:
		return f.fetchHTTP(ctx, parsed.String())
	default:
		return f.fetchS3(ctx, parsed.Host, strings.TrimPrefix(parsed.Path, "/"))
	}
}

type sourceKind int

const (
	kindFile sourceKind = iota
	kindHTTP
	kindS3
)

// classify decides how uri is read. Windows drive letters ("C:\...") parse
// as a one-letter scheme and are treated as paths.
func classify(uri string) (sourceKind, *url.URL, error) {
	if uri == "" {
		return 0, nil, fmt.Errorf("empty source")
	}

	parsed, err := url.Parse(uri)
	if err != nil || parsed.Scheme == "" || len(parsed.Scheme) == 1 {
		return kindFile, &url.URL{Path: uri}, nil
	}

	switch strings.ToLower(parsed.Scheme) {
	case "file":
		return kindFile, parsed, nil
	case "http", "https":
		return kindHTTP, parsed, nil
	case "s3":
		if parsed.Host == "" || strings.Trim(parsed.Path, "/") == "" {
			return 0, nil, fmt.Errorf("invalid s3 source %q, want s3://bucket/key", uri)
		}
		return kindS3, parsed, nil
	}
	return 0, nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, parsed.Scheme)
}

func (f *Fetcher) fetchFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	return readLimited(file)
}

func (f *Fetcher) fetchHTTP(ctx context.Context, rawURL string) ([]byte, error) {
	f.logger.Info().Str("url", rawURL).Msg("Downloading search index")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}

	return readLimited(resp.Body)
}

func (f *Fetcher) fetchS3(ctx context.Context, bucket, key string) ([]byte, error) {
	f.s3Once.Do(func() {
		f.s3Client, f.s3Err = f.newS3(ctx)
	})
	if f.s3Err != nil {
		return nil, f.s3Err
	}

	f.logger.Info().Str("bucket", bucket).Str("key", key).Msg("Downloading search index from S3")

	out, err := f.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	return readLimited(out.Body)
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxArtifactSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read source: %w", err)
	}
	if len(data) > MaxArtifactSize {
		return nil, fmt.Errorf("source exceeds %d bytes", MaxArtifactSize)
	}
	return data, nil
}
