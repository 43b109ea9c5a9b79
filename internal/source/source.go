// Package source resolves the latest published client version from the
// per-region storefront pages.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const fetchTimeout = 30 * time.Second

// Source resolves the latest published version for a storefront app id
type Source interface {
	// Name identifies the storefront in logs
	Name() string
	// FetchVersion returns the latest published version for the app id
	FetchVersion(ctx context.Context, appID string) (string, error)
}

// NewHTTPClient builds the HTTP client shared by the storefront fetchers,
// routing through the given proxy when one is configured.
func NewHTTPClient(proxyURL string) (*http.Client, error) {
	client := &http.Client{Timeout: fetchTimeout}

	if proxyURL != "" {
		proxy, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url %q: %w", proxyURL, err)
		}
		client.Transport = &http.Transport{Proxy: http.ProxyURL(proxy)}
	}

	return client, nil
}

// expandAppID substitutes the {appId} placeholder in a storefront URL template
func expandAppID(template, appID string) string {
	return strings.ReplaceAll(template, "{appId}", appID)
}

// fetchPage performs a GET request and returns the page body on HTTP 200
func fetchPage(ctx context.Context, client *http.Client, pageURL, userAgent string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: unexpected HTTP status: %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}

	return string(body), nil
}
