package mirror

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Mirror runs the post-processing pass over a captured mirror tree
type Mirror struct {
	config     *Config
	parser     *Parser
	converter  *Converter
	downloader *Downloader
	mapper     PathMapper
	logger     *slog.Logger
	metrics    *Metrics
	isText     func(path string) (bool, error)
}

// New creates a new Mirror instance
func New(config *Config, logger *slog.Logger, metrics *Metrics) (*Mirror, error) {
	if config.Root == "" {
		return nil, errors.New("mirror root is required")
	}

	info, err := os.Stat(config.Root)
	if err != nil {
		return nil, fmt.Errorf("mirror root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("mirror root %s is not a directory", config.Root)
	}

	logger = loggerOrDefault(logger)

	return &Mirror{
		config:     config,
		parser:     NewParser(config.Domains),
		converter:  NewConverter(config.Domains),
		downloader: NewDownloader(config, logger, metrics),
		mapper:     NewPathMapper(config),
		logger:     logger,
		metrics:    metrics,
		isText:     IsTextFile,
	}, nil
}

// WithHTTPClient sends asset requests through client
func (m *Mirror) WithHTTPClient(client *http.Client) *Mirror {
	m.downloader = NewDownloaderWithClient(m.config, client, m.logger, m.metrics)
	return m
}

// Run scans every text file under the root, writes the entry redirect and
// then downloads every expansion of the collected URLs, one at a time.
func (m *Mirror) Run(ctx context.Context) (Summary, error) {
	var summary Summary
	queue := NewQueue()

	if err := m.scan(ctx, queue, &summary); err != nil {
		return summary, err
	}

	summary.URLsQueued = queue.Len()
	m.metrics.observeQueued(queue.Len())

	id, err := Finalize(m.config.Root, m.logger)
	switch {
	case errors.Is(err, ErrDesignNotFound):
		m.logger.Warn("no design found, skipping redirect", "root", m.config.Root)
	case err != nil:
		m.logger.Error("redirect failed", "error", err)
	default:
		summary.DesignID = id
		m.logger.Info("redirect written", "design", id)
	}

	for _, rawURL := range queue.URLs() {
		for u := range Expand(rawURL) {
			if err := ctx.Err(); err != nil {
				return summary, err
			}

			status, err := m.HandleURL(ctx, u)
			if err != nil {
				m.logger.Error("download failed", "url", u, "error", err)
			}
			summary.count(status)
		}
	}

	return summary, nil
}

// scan walks the root and processes every text file into queue
func (m *Mirror) scan(ctx context.Context, queue *Queue, summary *Summary) error {
	root := m.config.Root

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			m.logger.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		text, err := m.isText(path)
		if err != nil {
			m.logger.Warn("skipping file", "file", path, "error", err)
			return nil
		}
		if !text {
			return nil
		}

		summary.FilesScanned++
		rewritten, err := m.ProcessFile(path, queue)
		if err != nil {
			m.logger.Error("skipping file", "file", path, "error", err)
		}
		if rewritten {
			summary.FilesRewritten++
		}
		m.metrics.observeScan(rewritten)

		return nil
	})
}

// ProcessFile finds CDN references in the text file at path, queues the
// render data ones and rewrites the file so references resolve against the
// mirror. It reports whether the file was rewritten.
func (m *Mirror) ProcessFile(path string, queue *Queue) (bool, error) {
	content, err := readText(path)
	if err != nil {
		return false, err
	}

	refs := m.parser.Parse(content)
	if len(refs) == 0 {
		return false, nil
	}

	m.parser.Collect(refs, queue)

	modified := m.converter.Rewrite(content, refs)
	if modified == content {
		return false, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if _, err := writeAtomic(path, strings.NewReader(modified), info.Mode().Perm()); err != nil {
		return false, err
	}

	rel, err := filepath.Rel(m.config.Root, path)
	if err != nil {
		rel = path
	}
	m.logger.Info("updated", "file", rel)

	return true, nil
}

// HandleURL downloads one concrete asset URL into the mirror when its domain
// is eligible.
func (m *Mirror) HandleURL(ctx context.Context, rawURL string) (FetchStatus, error) {
	u, err := parseAssetURL(rawURL)
	if err != nil {
		m.metrics.observeDownload(FetchFailed)
		return FetchFailed, err
	}

	if !m.config.Domains.EligibleForDownload(u.Host) {
		m.metrics.observeDownload(FetchIneligible)
		return FetchIneligible, nil
	}

	return m.downloader.Fetch(ctx, rawURL, m.mapper.Map(u))
}

func (s *Summary) count(status FetchStatus) {
	switch status {
	case FetchDownloaded:
		s.Fetched++
	case FetchExists:
		s.Existing++
	case FetchFailed:
		s.Failed++
	default:
		s.Skipped++
	}
}
