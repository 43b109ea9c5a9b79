package source

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	log "github.com/sirupsen/logrus"
)

// the version sits in the second row of the android app-info block
var (
	qooAppInfoRegexp = regexp.MustCompile(`(?s)<ul[^>]*class="[^"]*app-info[^"]*android[^"]*"[^>]*>(.*?)</ul>`)
	qooAppVarRegexp  = regexp.MustCompile(`<var[^>]*>\s*([^<]+?)\s*</var>`)
)

// QooApp resolves versions from the general storefront app pages
type QooApp struct {
	client      *http.Client
	urlTemplate string
}

// NewQooApp creates a QooApp source using the given page URL template
func NewQooApp(client *http.Client, urlTemplate string) *QooApp {
	return &QooApp{
		client:      client,
		urlTemplate: urlTemplate,
	}
}

// Name implements Source
func (q *QooApp) Name() string {
	return "qooapp"
}

// FetchVersion implements Source. It scans the app page for the android
// app-info block and returns the version listed in its second row.
func (q *QooApp) FetchVersion(ctx context.Context, appID string) (string, error) {
	pageURL := expandAppID(q.urlTemplate, appID)

	body, err := fetchPage(ctx, q.client, pageURL, "")
	if err != nil {
		return "", err
	}

	block := qooAppInfoRegexp.FindStringSubmatch(body)
	if block == nil {
		return "", fmt.Errorf("no android app-info block on page for app id %s", appID)
	}

	vars := qooAppVarRegexp.FindAllStringSubmatch(block[1], -1)
	if len(vars) < 2 {
		return "", fmt.Errorf("no version row in app-info block for app id %s", appID)
	}

	version := vars[1][1]
	log.Infof("fetched version %s for app id %s from QooApp", version, appID)
	return version, nil
}
