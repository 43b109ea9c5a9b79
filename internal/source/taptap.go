package source

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	log "github.com/sirupsen/logrus"
)

var tapTapVersionRegexp = regexp.MustCompile(`"softwareVersion":"(\d+\.\d+\.\d+)"`)

// TapTap resolves versions from the CN storefront app pages
type TapTap struct {
	client      *http.Client
	urlTemplate string
	userAgent   string
}

// NewTapTap creates a TapTap source using the given page URL template. The
// storefront rejects requests without a mobile browser User-Agent.
func NewTapTap(client *http.Client, urlTemplate, userAgent string) *TapTap {
	return &TapTap{
		client:      client,
		urlTemplate: urlTemplate,
		userAgent:   userAgent,
	}
}

// Name implements Source
func (t *TapTap) Name() string {
	return "taptap"
}

// FetchVersion implements Source. The version is embedded in the page's
// serialized app metadata.
func (t *TapTap) FetchVersion(ctx context.Context, appID string) (string, error) {
	pageURL := expandAppID(t.urlTemplate, appID)

	body, err := fetchPage(ctx, t.client, pageURL, t.userAgent)
	if err != nil {
		return "", err
	}

	match := tapTapVersionRegexp.FindStringSubmatch(body)
	if match == nil {
		return "", fmt.Errorf("no softwareVersion field on page for app id %s", appID)
	}

	version := match[1]
	log.Infof("fetched version %s for app id %s from TapTap CN", version, appID)
	return version, nil
}
