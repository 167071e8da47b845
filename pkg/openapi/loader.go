package openapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"time"
)

// LoaderOptions configures how a Loader resolves sources.
type LoaderOptions struct {
	// FileSystem serves SourceKindFS sources.
	FileSystem fs.FS

	// HTTPClient serves SourceKindURL sources. Nil disables HTTP unless
	// AllowHTTPFallback is set.
	HTTPClient *http.Client

	// AllowHTTPFallback enables HTTP with a default client.
	AllowHTTPFallback bool

	// RequestTimeout caps remote fetches.
	RequestTimeout time.Duration
}

// LoaderOption mutates LoaderOptions.
type LoaderOption func(*LoaderOptions)

// WithFileSystem serves fs sources from files.
func WithFileSystem(files fs.FS) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.FileSystem = files
	}
}

// WithHTTPClient serves URL sources with client.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.HTTPClient = client
	}
}

// WithHTTPFallback enables HTTP with a default client and timeout.
func WithHTTPFallback(timeout time.Duration) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.AllowHTTPFallback = true
		opts.RequestTimeout = timeout
	}
}

// Loader fetches documents from files, an fs.FS or HTTP.
type Loader struct {
	fs      fs.FS
	http    *http.Client
	timeout time.Duration
}

// NewLoader applies options. HTTP stays disabled unless a client or the
// fallback is configured.
func NewLoader(options ...LoaderOption) *Loader {
	cfg := LoaderOptions{}
	for _, opt := range options {
		opt(&cfg)
	}

	var client *http.Client
	switch {
	case cfg.HTTPClient != nil:
		clone := *cfg.HTTPClient
		if cfg.RequestTimeout > 0 && clone.Timeout == 0 {
			clone.Timeout = cfg.RequestTimeout
		}
		client = &clone
	case cfg.AllowHTTPFallback:
		client = &http.Client{Timeout: cfg.RequestTimeout}
	}
	return &Loader{fs: cfg.FileSystem, http: client, timeout: cfg.RequestTimeout}
}

// Load fetches src.
func (l *Loader) Load(ctx context.Context, src Source) (Document, error) {
	if src == nil {
		return Document{}, errors.New("openapi loader: source is nil")
	}
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	var (
		data []byte
		err  error
	)
	switch src.Kind() {
	case SourceKindFile:
		data, err = os.ReadFile(src.Location())
	case SourceKindFS:
		if l.fs == nil {
			return Document{}, errors.New("openapi loader: filesystem is not configured")
		}
		data, err = fs.ReadFile(l.fs, src.Location())
	case SourceKindURL:
		if l.http == nil {
			return Document{}, errors.New("openapi loader: http support disabled")
		}
		data, err = l.fetch(ctx, src.Location())
	default:
		err = fmt.Errorf("openapi loader: unsupported source kind %q", src.Kind())
	}
	if err != nil {
		return Document{}, fmt.Errorf("openapi loader: %s: %w", src.Location(), err)
	}
	return NewDocument(src, data)
}

func (l *Loader) fetch(ctx context.Context, raw string) ([]byte, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
