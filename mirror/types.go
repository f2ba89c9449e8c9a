package mirror

import (
	"log/slog"
	"sort"
	"time"
)

// DefaultUserAgent is sent with every asset request.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/134.0.0.0 Safari/537.36"

// Config holds the configuration for the post-processing pass
type Config struct {
	Root      string        // Mirror root directory
	UserAgent string        // User agent sent with downloads
	Timeout   time.Duration // Per-request timeout
	RateBytes int64         // Bytes per second per download, 0 for unlimited
	Domains   Domains       // Domain classification rules
}

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() *Config {
	return &Config{
		Root:      "./webroot",
		UserAgent: DefaultUserAgent,
		Timeout:   30 * time.Second,
		Domains:   DefaultDomains(),
	}
}

// Queue is the set of asset URLs collected while scanning the mirror
type Queue struct {
	urls map[string]struct{}
}

// NewQueue creates an empty download queue
func NewQueue() *Queue {
	return &Queue{urls: make(map[string]struct{})}
}

// Add inserts url and reports whether it was not already queued
func (q *Queue) Add(url string) bool {
	if _, ok := q.urls[url]; ok {
		return false
	}
	q.urls[url] = struct{}{}
	return true
}

// Contains reports whether url is queued
func (q *Queue) Contains(url string) bool {
	_, ok := q.urls[url]
	return ok
}

// Len returns the number of distinct URLs queued
func (q *Queue) Len() int {
	return len(q.urls)
}

// URLs returns the queued URLs in sorted order so runs are reproducible
func (q *Queue) URLs() []string {
	urls := make([]string, 0, len(q.urls))
	for u := range q.urls {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

// Summary counts what a run did
type Summary struct {
	FilesScanned   int
	FilesRewritten int
	URLsQueued     int
	Fetched        int
	Existing       int
	Skipped        int
	Failed         int
	DesignID       string
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
