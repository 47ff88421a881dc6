package tabular

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	apperrors "claimpulse/internal/errors"
)

// DefaultMaxBytes caps a single source download.
const DefaultMaxBytes int64 = 50 << 20

// Fetcher retrieves the raw bytes of a source document.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// HTTPFetcher fetches sources over HTTP(S).
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

// NewHTTPFetcher creates an HTTPFetcher. A zero maxBytes uses DefaultMaxBytes.
func NewHTTPFetcher(timeout time.Duration, maxBytes int64) *HTTPFetcher {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: "claimpulse/1.0",
		maxBytes:  maxBytes,
	}
}

// Fetch performs a GET and returns the body. Any transport failure or non-2xx
// status is a FETCH error.
func (f *HTTPFetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, apperrors.NewFetchError(uri, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/csv,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, apperrors.NewFetchError(uri, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewFetchError(uri, fmt.Errorf("unexpected status: %s", resp.Status)).
			WithContext("status", resp.StatusCode)
	}

	if resp.ContentLength > f.maxBytes {
		return nil, tooLarge(uri, f.maxBytes)
	}
	return readCapped(resp.Body, uri, f.maxBytes)
}

// readCapped reads at most limit bytes. A document that does not fit is an
// error rather than a silently truncated body.
func readCapped(r io.Reader, uri string, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, apperrors.NewFetchError(uri, fmt.Errorf("read body: %w", err))
	}
	if int64(len(data)) > limit {
		return nil, tooLarge(uri, limit)
	}
	return data, nil
}

func tooLarge(uri string, limit int64) *apperrors.AppError {
	return apperrors.NewFetchError(uri, fmt.Errorf("source exceeds %d bytes", limit)).
		WithContext("max_bytes", limit)
}

// FileFetcher reads sources from the local filesystem.
type FileFetcher struct {
	maxBytes int64
}

// NewFileFetcher creates a FileFetcher. A zero maxBytes uses DefaultMaxBytes.
func NewFileFetcher(maxBytes int64) *FileFetcher {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &FileFetcher{maxBytes: maxBytes}
}

// Fetch reads the file at uri, which may be a plain path or a file:// URL.
func (f *FileFetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := uri
	if strings.HasPrefix(uri, "file://") {
		u, err := url.Parse(uri)
		if err != nil {
			return nil, apperrors.NewFetchError(uri, err)
		}
		path = u.Path
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewFetchError(uri, err)
	}
	defer file.Close()

	if info, err := file.Stat(); err == nil && info.Size() > f.maxBytes {
		return nil, tooLarge(uri, f.maxBytes)
	}
	return readCapped(file, uri, f.maxBytes)
}

// SourceFetcher dispatches on the URI scheme: http and https go over the
// network, everything else is read from disk.
type SourceFetcher struct {
	http   Fetcher
	file   Fetcher
	logger *slog.Logger
}

// NewSourceFetcher creates a SourceFetcher over the given fetchers.
func NewSourceFetcher(httpFetcher, fileFetcher Fetcher, logger *slog.Logger) *SourceFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &SourceFetcher{
		http:   httpFetcher,
		file:   fileFetcher,
		logger: logger.With(slog.String("component", "fetcher")),
	}
}

// Fetch implements Fetcher.
func (s *SourceFetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	lower := strings.ToLower(uri)
	var (
		data []byte
		err  error
	)
	start := time.Now()
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		data, err = s.http.Fetch(ctx, uri)
	} else {
		data, err = s.file.Fetch(ctx, uri)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "source fetch failed",
			slog.String("uri", uri),
			slog.String("error", err.Error()))
		return nil, err
	}
	s.logger.DebugContext(ctx, "source fetched",
		slog.String("uri", uri),
		slog.Int("bytes", len(data)),
		slog.Duration("duration", time.Since(start)))
	return data, nil
}
