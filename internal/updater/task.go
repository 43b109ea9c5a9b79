package updater

import (
	"context"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sekaihub/apphashd/internal/apk"
	"github.com/sekaihub/apphashd/internal/source"
)

// VersionStore is the durable per-region version/hash cache consumed by the
// update pipeline
type VersionStore interface {
	GetVersion(region string) (string, bool, error)
	PutVersion(region, version string) error
	PutHash(region, hash string) error
	PutCombined(region, version, hash string) error
}

// Downloader fetches an installer artifact to a temporary file owned by the
// caller
type Downloader interface {
	DownloadToTempFile(ctx context.Context, url string) (string, error)
}

// Extractor recovers the version/hash pair from a downloaded installer
type Extractor interface {
	Extract(ctx context.Context, apkPath, expectedVersion string) (*apk.Result, error)
}

// Pair binds a region to its storefront source and installer location
type Pair struct {
	Region       string
	AppID        string
	Source       source.Source
	InstallerURL string
}

// Task drives the update pipeline for a single (region, source) pair:
// fetch the live version, compare against the cache, and on any difference
// download the installer, extract the app hash and persist the result. The
// temporary installer artifact is always deleted once the download
// succeeded, whatever happens afterwards.
type Task struct {
	store           VersionStore
	downloader      Downloader
	extractor       Extractor
	downloadTimeout time.Duration
}

// NewTask creates a Task over the given collaborators
func NewTask(store VersionStore, downloader Downloader, extractor Extractor, downloadTimeout time.Duration) *Task {
	return &Task{
		store:           store,
		downloader:      downloader,
		extractor:       extractor,
		downloadTimeout: downloadTimeout,
	}
}

// Run executes one pipeline pass for the pair. A nil error means either no
// change was detected or the new version/hash pair was fully persisted.
func (t *Task) Run(ctx context.Context, pair Pair) error {
	latest, err := pair.Source.FetchVersion(ctx, pair.AppID)
	if err != nil {
		return fmt.Errorf("fetch version for %s: %w", pair.Region, err)
	}

	cached, exists, err := t.store.GetVersion(pair.Region)
	if err != nil {
		return fmt.Errorf("read cached version for %s: %w", pair.Region, err)
	}

	// any difference triggers re-extraction, including a rollback to an
	// older version: the cache tracks whatever is live
	if exists && cached == latest {
		log.Debugf("no version change for %s, still %s", pair.Region, cached)
		return nil
	}

	log.Infof("new version available for %s: %s", pair.Region, latest)

	dctx, cancel := context.WithTimeout(ctx, t.downloadTimeout)
	defer cancel()

	apkPath, err := t.downloader.DownloadToTempFile(dctx, pair.InstallerURL)
	if err != nil {
		return fmt.Errorf("download installer for %s: %w", pair.Region, err)
	}
	defer func() {
		if err := os.Remove(apkPath); err != nil {
			log.Warnf("error removing temporary installer file %s: %v", apkPath, err)
			return
		}
		log.Infof("temporary installer file %s deleted", apkPath)
	}()

	result, err := t.extractor.Extract(ctx, apkPath, latest)
	if err != nil {
		return fmt.Errorf("extract app hash for %s: %w", pair.Region, err)
	}

	// hash first, then version, then the combined record: an interrupted
	// run must never leave a version newer than its recorded hash
	if err := t.store.PutHash(pair.Region, result.AppHash); err != nil {
		return fmt.Errorf("persist hash for %s: %w", pair.Region, err)
	}
	if err := t.store.PutVersion(pair.Region, latest); err != nil {
		return fmt.Errorf("persist version for %s: %w", pair.Region, err)
	}
	if err := t.store.PutCombined(pair.Region, latest, result.AppHash); err != nil {
		return fmt.Errorf("persist combined record for %s: %w", pair.Region, err)
	}

	log.Infof("app hash for %s updated to %s for version %s", pair.Region, result.AppHash, latest)
	return nil
}
