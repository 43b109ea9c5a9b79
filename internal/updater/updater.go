// Package updater runs the periodic version-change detection and app hash
// extraction cycle.
package updater

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sekaihub/apphashd/internal/apk"
	"github.com/sekaihub/apphashd/internal/config"
	"github.com/sekaihub/apphashd/internal/download"
	"github.com/sekaihub/apphashd/internal/source"
	"github.com/sekaihub/apphashd/internal/store"
)

// Updater runs the update pipeline over all configured (region, source)
// pairs, either once or on a fixed schedule
type Updater struct {
	task     *Task
	pairs    []Pair
	interval time.Duration

	mux    sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New assembles an Updater from the configuration: a shared HTTP client for
// the storefront fetchers, the installer downloader, the asset extractor and
// the on-disk cache.
func New(cfg *config.Config) (*Updater, error) {
	client, err := source.NewHTTPClient(cfg.ProxyURL)
	if err != nil {
		return nil, err
	}

	downloader, err := download.New(cfg.ProxyURL, download.DefaultRetryDelay)
	if err != nil {
		return nil, err
	}

	deserializer, err := apk.NewCommandDeserializer(cfg.ExtractorCommand)
	if err != nil {
		return nil, err
	}

	qooApp := source.NewQooApp(client, cfg.QooAppURLTemplate)
	tapTap := source.NewTapTap(client, cfg.TapTapURLTemplate, cfg.UserAgent)

	pairs, err := assemblePairs(cfg, qooApp, tapTap)
	if err != nil {
		return nil, err
	}

	task := NewTask(store.New(cfg.CacheDir), downloader, apk.NewExtractor(deserializer), cfg.DownloadTimeout())

	return &Updater{
		task:     task,
		pairs:    pairs,
		interval: cfg.UpdateInterval(),
	}, nil
}

// NewWithPairs creates an Updater over an explicit pair list, bypassing the
// configuration assembly
func NewWithPairs(task *Task, pairs []Pair, interval time.Duration) *Updater {
	return &Updater{
		task:     task,
		pairs:    pairs,
		interval: interval,
	}
}

// assemblePairs builds the ordered pair list: the general storefront regions
// first, then the region-specific storefront regions, each group in region
// order so cycles are deterministic.
func assemblePairs(cfg *config.Config, qooApp, tapTap source.Source) ([]Pair, error) {
	var pairs []Pair

	for _, region := range sortedRegions(cfg.QooAppAppIDs) {
		packageName, ok := cfg.PackageNames[region]
		if !ok {
			return nil, fmt.Errorf("no package name configured for region %s", region)
		}
		pairs = append(pairs, Pair{
			Region:       region,
			AppID:        cfg.QooAppAppIDs[region],
			Source:       qooApp,
			InstallerURL: strings.ReplaceAll(cfg.ApkPureURLTemplate, "{packageName}", packageName),
		})
	}

	for _, region := range sortedRegions(cfg.TapTapAppIDs) {
		pairs = append(pairs, Pair{
			Region:       region,
			AppID:        cfg.TapTapAppIDs[region],
			Source:       tapTap,
			InstallerURL: cfg.CNApkURL,
		})
	}

	return pairs, nil
}

func sortedRegions(appIDs map[string]string) []string {
	regions := make([]string, 0, len(appIDs))
	for region := range appIDs {
		regions = append(regions, region)
	}
	sort.Strings(regions)
	return regions
}

// Run executes one full update cycle. Pairs run strictly in order; a failed
// pair is logged and never stops the pairs after it.
func (u *Updater) Run(ctx context.Context) {
	log.Info("Starting app hash update...")

	for _, pair := range u.pairs {
		if ctx.Err() != nil {
			log.Infof("update cycle interrupted: %v", ctx.Err())
			return
		}

		if err := u.task.Run(ctx, pair); err != nil {
			log.Errorf("update for %s via %s failed: %v", pair.Region, pair.Source.Name(), err)
		}
	}
}

// Start launches the scheduler. The first cycle runs immediately, subsequent
// cycles on every interval tick; a cycle always finishes before the next one
// starts.
func (u *Updater) Start(ctx context.Context) {
	u.mux.Lock()
	defer u.mux.Unlock()

	if u.cancel != nil {
		log.Warn("updater already started")
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	u.cancel = cancel

	u.wg.Add(1)
	go u.schedule(ctx)
}

// Stop cancels the scheduler and waits for a running cycle to finish
func (u *Updater) Stop() {
	u.mux.Lock()
	cancel := u.cancel
	u.cancel = nil
	u.mux.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	u.wg.Wait()
}

func (u *Updater) schedule(ctx context.Context) {
	defer u.wg.Done()

	u.Run(ctx)

	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			u.Run(ctx)
		}
	}
}
