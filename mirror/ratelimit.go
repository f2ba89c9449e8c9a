package mirror

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ParseRateLimit converts "400k", "2M" or a plain byte count to bytes per second.
// An empty string means no limit.
func ParseRateLimit(rateLimit string) (int64, error) {
	if rateLimit == "" {
		return 0, nil
	}

	rateLimit = strings.ToLower(strings.TrimSpace(rateLimit))
	multiplier := int64(1)

	if strings.HasSuffix(rateLimit, "k") {
		multiplier = 1024
		rateLimit = rateLimit[:len(rateLimit)-1]
	} else if strings.HasSuffix(rateLimit, "m") {
		multiplier = 1024 * 1024
		rateLimit = rateLimit[:len(rateLimit)-1]
	}

	rate, err := strconv.ParseInt(rateLimit, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid rate limit %q: %w", rateLimit, err)
	}
	if rate < 0 {
		return 0, fmt.Errorf("invalid rate limit %q: negative", rateLimit)
	}

	return rate * multiplier, nil
}

type rateLimitedReader struct {
	r         io.Reader
	rateBytes int64 // bytes per second
	start     time.Time
	bytesRead int64
	sleep     func(time.Duration)
}

func newRateLimitedReader(r io.Reader, rateBytes int64) io.Reader {
	if rateBytes <= 0 {
		return r
	}
	return &rateLimitedReader{
		r:         r,
		rateBytes: rateBytes,
		start:     time.Now(),
		sleep:     time.Sleep,
	}
}

func (r *rateLimitedReader) Read(p []byte) (n int, err error) {
	expected := time.Duration(float64(r.bytesRead) / float64(r.rateBytes) * float64(time.Second))
	if elapsed := time.Since(r.start); elapsed < expected {
		r.sleep(expected - elapsed)
	}

	n, err = r.r.Read(p)
	r.bytesRead += int64(n)
	return
}
