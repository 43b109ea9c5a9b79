// Package download fetches installer artifacts to temporary files.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"

	"github.com/sekaihub/apphashd/version"
)

const (
	blockSize = 32 * 1024

	// DefaultRetryDelay is the pause before the single transport-layer retry
	DefaultRetryDelay = 3 * time.Second

	// one constant-delay retry at the transport layer before the download
	// counts as failed
	maxRetries = 1
)

// Downloader streams installer artifacts to exclusively-owned temporary
// files. Cancellation comes from the caller's context deadline only.
type Downloader struct {
	client     *http.Client
	userAgent  string
	retryDelay time.Duration
}

// New creates a Downloader, routing through the given proxy when one is
// configured. A zero retryDelay disables the transport-layer retry.
func New(proxyURL string, retryDelay time.Duration) (*Downloader, error) {
	client := &http.Client{}

	if proxyURL != "" {
		proxy, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url %q: %w", proxyURL, err)
		}
		client.Transport = &http.Transport{Proxy: http.ProxyURL(proxy)}
	}

	return &Downloader{
		client:     client,
		userAgent:  fmt.Sprintf("apphashd/%s", version.Version()),
		retryDelay: retryDelay,
	}, nil
}

// DownloadToTempFile downloads the given URL into a new temporary file and
// returns its path. The caller owns the file and must delete it. On failure
// no file is left behind.
func (d *Downloader) DownloadToTempFile(ctx context.Context, fileURL string) (string, error) {
	log.Debugf("starting download from %s", fileURL)

	out, err := os.CreateTemp("", "apphashd-*.apk")
	if err != nil {
		return "", fmt.Errorf("create temporary file: %w", err)
	}

	operation := func() error {
		if err := out.Truncate(0); err != nil {
			return backoff.Permanent(fmt.Errorf("truncate file on retry: %w", err))
		}
		if _, err := out.Seek(0, 0); err != nil {
			return backoff.Permanent(fmt.Errorf("seek to beginning of file: %w", err))
		}
		return d.downloadOnce(ctx, fileURL, out)
	}

	notify := func(err error, delay time.Duration) {
		log.Warnf("download failed, retrying after %v: %v", delay, err)
	}

	retries := uint64(maxRetries)
	if d.retryDelay == 0 {
		retries = 0
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(d.retryDelay), retries), ctx)
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		_ = out.Close()
		_ = os.Remove(out.Name())
		return "", err
	}

	if err := out.Close(); err != nil {
		_ = os.Remove(out.Name())
		return "", fmt.Errorf("close %s: %w", out.Name(), err)
	}

	log.Infof("installer downloaded to temporary file %s", out.Name())
	return out.Name(), nil
}

func (d *Downloader) downloadOnce(ctx context.Context, fileURL string, out *os.File) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("create download request: %w", err))
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("perform download request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Warnf("error closing response body: %v", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected HTTP status: %d", resp.StatusCode)
	}

	total := resp.ContentLength
	var downloaded int64
	lastPercent := -1

	buf := make([]byte, blockSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				return backoff.Permanent(fmt.Errorf("write download: %w", writeErr))
			}
			downloaded += int64(n)
			if total > 0 {
				percent := int(downloaded * 100 / total)
				if percent/10 != lastPercent/10 {
					log.Debugf("downloading installer: %d%% (%d/%d bytes)", percent, downloaded, total)
					lastPercent = percent
				}
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return fmt.Errorf("read download stream: %w", readErr)
		}
	}

	log.Debugf("downloaded %d bytes from %s", downloaded, fileURL)
	return nil
}
