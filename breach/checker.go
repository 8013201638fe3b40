// Package breach implements a k-anonymity exposure check against an
// external compromised-credential range API. Only the first five hex
// characters of the SHA-1 digest ever leave the process; the full
// identifier is never transmitted.
package breach

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrUpstreamUnavailable is an exported constant or variable used by the authentication engine.
// A failed range lookup is never evidence of safety and must not be
// interpreted as a clean result.
var ErrUpstreamUnavailable = errors.New("breach range endpoint unavailable")

// Status is the outcome of a range lookup.
type Status uint8

const (
	// StatusClean is an exported constant or variable used by the authentication engine.
	StatusClean Status = iota
	// StatusBreached is an exported constant or variable used by the authentication engine.
	StatusBreached
)

const (
	prefixLength = 5
	// Range responses are small even with padding; cap reads so a
	// misbehaving upstream cannot exhaust memory.
	maxResponseBytes = 4 << 20
)

// Config defines a public type used by mailgate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Endpoint      string
	Timeout       time.Duration
	UserAgent     string
	MaxConcurrent int64
	AddPadding    bool
}

// Checker performs range queries with an explicit per-call timeout and a
// bounded number of in-flight upstream requests (bulkhead), so a slow or
// unavailable endpoint cannot stall unrelated authentication operations.
type Checker struct {
	config Config
	client *http.Client
	sem    *semaphore.Weighted
}

// New creates a [Checker] using a dedicated HTTP client with the configured
// timeout.
func New(cfg Config) *Checker {
	return NewWithClient(cfg, nil)
}

// NewWithClient creates a [Checker] over a caller-supplied HTTP client.
// The configured timeout is still applied per call through the request
// context.
func NewWithClient(cfg Config, client *http.Client) *Checker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 8
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Checker{
		config: cfg,
		client: client,
		sem:    semaphore.NewWeighted(cfg.MaxConcurrent),
	}
}

// Check runs the k-anonymity protocol for the given identifier: SHA-1
// digest, uppercase hex, split into a 5-character prefix (transmitted) and
// a suffix (matched locally against the response body). Any transport
// error, timeout, or non-200 response surfaces ErrUpstreamUnavailable.
func (c *Checker) Check(ctx context.Context, identifier string) (Status, error) {
	digest := sha1.Sum([]byte(identifier))
	hexDigest := strings.ToUpper(fmt.Sprintf("%x", digest))
	prefix, suffix := hexDigest[:prefixLength], hexDigest[prefixLength:]

	body, err := c.queryRange(ctx, prefix)
	if err != nil {
		return StatusClean, err
	}

	found, err := scanRange(bytes.NewReader(body), suffix)
	if err != nil {
		return StatusClean, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	if found {
		return StatusBreached, nil
	}
	return StatusClean, nil
}

func (c *Checker) queryRange(ctx context.Context, prefix string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	// Bulkhead: bounded in-flight upstream calls. Acquisition respects the
	// call deadline, so saturation surfaces as unavailability rather than
	// unbounded queueing.
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer c.sem.Release(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimRight(c.config.Endpoint, "/")+"/"+prefix, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	if c.config.AddPadding {
		req.Header.Set("Add-Padding", "true")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return body, nil
}

// scanRange looks for the suffix among newline-delimited SUFFIX:COUNT
// lines. Matching is case-insensitive; padded entries report a count of 0
// and are treated as absent.
func scanRange(body io.Reader, suffix string) (bool, error) {
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		candidate, count, hasCount := strings.Cut(line, ":")
		if !strings.EqualFold(candidate, suffix) {
			continue
		}
		if hasCount && strings.TrimSpace(count) == "0" {
			continue
		}
		return true, nil
	}
	return false, scanner.Err()
}
