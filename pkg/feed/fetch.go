package feed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"
)

var sha256Token = regexp.MustCompile(`(?i)\b[0-9a-f]{64}\b`)

// ChecksumError reports a downloaded archive whose digest does not match the
// published one.
type ChecksumError struct {
	URL      string
	Expected string
	Actual   string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: expected %s, got %s", e.URL, e.Expected, e.Actual)
}

// Fetcher downloads feed archives.
type Fetcher struct {
	client *resty.Client
	logger hclog.Logger
}

func NewFetcher(client *resty.Client, logger hclog.Logger) *Fetcher {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Fetcher{client: client, logger: logger}
}

// Fetch downloads the feed at url, verifies it against the SHA-256 published
// at sha256URL when one is given, and writes the decompressed JSON to dest.
// The normalized records are returned. dest is replaced atomically and left
// untouched on any failure.
func (f *Fetcher) Fetch(ctx context.Context, url, sha256URL, dest string) ([]Record, error) {
	f.logger.Info("downloading feed", "url", url)
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("download feed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("download feed: unexpected status %s", resp.Status())
	}
	archive := resp.Body()

	if sha256URL != "" {
		expected, err := f.expectedDigest(ctx, sha256URL)
		if err != nil {
			return nil, err
		}
		if expected != "" {
			sum := sha256.Sum256(archive)
			actual := hex.EncodeToString(sum[:])
			if actual != expected {
				return nil, &ChecksumError{URL: url, Expected: expected, Actual: actual}
			}
			f.logger.Debug("checksum verified", "sha256", actual)
		}
	}

	data, err := maybeGunzip(archive)
	if err != nil {
		return nil, fmt.Errorf("decompress feed: %w", err)
	}
	records, err := Normalize(data)
	if err != nil {
		return nil, err
	}
	if err := writeAtomic(dest, data); err != nil {
		return nil, err
	}
	f.logger.Info("feed saved", "path", dest, "records", len(records))
	return records, nil
}

// expectedDigest returns "" when no checksum is available.
func (f *Fetcher) expectedDigest(ctx context.Context, sha256URL string) (string, error) {
	resp, err := f.client.R().SetContext(ctx).Get(sha256URL)
	if err != nil {
		return "", fmt.Errorf("download checksum: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		f.logger.Warn("checksum not available, skipping verification", "url", sha256URL, "status", resp.StatusCode())
		return "", nil
	}
	token := sha256Token.FindString(string(resp.Body()))
	if token == "" {
		f.logger.Warn("no sha256 digest in checksum file, skipping verification", "url", sha256URL)
		return "", nil
	}
	return strings.ToLower(token), nil
}

func writeAtomic(dest string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("create feed dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp feed: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write feed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write feed: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("replace feed: %w", err)
	}
	return nil
}
