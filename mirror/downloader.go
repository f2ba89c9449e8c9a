package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// reservedPrefix marks dynamic endpoints that are never mirrored.
const reservedPrefix = "/download"

// FetchStatus describes what Fetch did with a URL
type FetchStatus string

const (
	FetchDownloaded FetchStatus = "fetched"
	FetchExists     FetchStatus = "exists"
	FetchReserved   FetchStatus = "reserved"
	FetchIneligible FetchStatus = "ineligible"
	FetchFailed     FetchStatus = "failed"
)

// Downloader handles the downloading of assets into the mirror
type Downloader struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	metrics *Metrics
}

// NewDownloader creates a new Downloader instance
func NewDownloader(config *Config, logger *slog.Logger, metrics *Metrics) *Downloader {
	return NewDownloaderWithClient(config, &http.Client{Timeout: config.Timeout}, logger, metrics)
}

// NewDownloaderWithClient creates a Downloader that sends requests through client
func NewDownloaderWithClient(config *Config, client *http.Client, logger *slog.Logger, metrics *Metrics) *Downloader {
	return &Downloader{
		config:  config,
		client:  client,
		logger:  loggerOrDefault(logger),
		metrics: metrics,
	}
}

// Fetch downloads rawURL to localPath unless the file already exists or the
// URL points at a reserved endpoint. It returns the error of a failed attempt
// so the caller can decide how to report it.
func (d *Downloader) Fetch(ctx context.Context, rawURL, localPath string) (FetchStatus, error) {
	status, err := d.fetch(ctx, rawURL, localPath)
	d.metrics.observeDownload(status)
	return status, err
}

func (d *Downloader) fetch(ctx context.Context, rawURL, localPath string) (FetchStatus, error) {
	// The local file is the only record of a previous fetch
	if _, err := os.Stat(localPath); err == nil {
		return FetchExists, nil
	}

	u, err := parseAssetURL(rawURL)
	if err != nil {
		return FetchFailed, err
	}
	if strings.HasPrefix(u.Path, reservedPrefix) {
		return FetchReserved, nil
	}

	url := requestURL(rawURL)
	d.logger.Info("downloading", "url", url, "path", localPath)

	start := time.Now()
	n, err := d.download(ctx, url, localPath)
	d.metrics.observeTransfer(n, time.Since(start))
	if err != nil {
		return FetchFailed, err
	}

	return FetchDownloaded, nil
}

// download fetches url and writes the body to localPath
func (d *Downloader) download(ctx context.Context, url, localPath string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", d.config.UserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	return writeAtomic(localPath, newRateLimitedReader(resp.Body, d.config.RateBytes), 0o644)
}

// writeAtomic streams r into a temporary file next to path and renames it
// into place with mode perm, so path only ever holds complete content and a
// failed write leaves any previous file untouched.
func writeAtomic(path string, r io.Reader, perm fs.FileMode) (int64, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(dir, ".partial-*")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()

	n, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmpName, perm)
	}
	if err == nil {
		err = os.Rename(tmpName, path)
	}
	if err != nil {
		if rmErr := os.Remove(tmpName); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			err = errors.Join(err, rmErr)
		}
		return n, err
	}

	return n, nil
}
