// Package store persists the last known version and app hash per region.
package store

import (
	"fmt"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/sekaihub/apphashd/util"
)

const (
	versionDir  = "appver"
	hashDir     = "apphash"
	combinedDir = "appver-json"
)

// Record is the combined version/hash record written for downstream
// consumers. Field names are a wire contract with the asset-mirroring
// pipelines reading these files.
type Record struct {
	AppVersion string `json:"appVersion"`
	AppHash    string `json:"appHash"`
}

// Store is a file-backed per-region version/hash cache. Entries are only
// ever overwritten, never deleted. Writes are atomic (temp file + rename)
// so a reader never observes a half-written value. The store has no
// internal locking; the update pipeline runs region tasks strictly
// sequentially.
type Store struct {
	root string
}

// New creates a Store rooted at the given cache directory
func New(root string) *Store {
	return &Store{root: root}
}

// GetVersion returns the last cached version for the region. The second
// return value is false if no version was ever recorded, which is not an
// error.
func (s *Store) GetVersion(region string) (string, bool, error) {
	content, exists, err := util.ReadString(s.versionFile(region))
	if err != nil {
		return "", false, fmt.Errorf("read cached version for %s: %w", region, err)
	}
	if !exists {
		log.Warnf("no cached version for %s yet", region)
		return "", false, nil
	}

	version := strings.TrimSpace(content)
	log.Infof("cached version for %s: %s", region, version)
	return version, true, nil
}

// GetHash returns the last cached app hash for the region
func (s *Store) GetHash(region string) (string, bool, error) {
	content, exists, err := util.ReadString(s.hashFile(region))
	if err != nil {
		return "", false, fmt.Errorf("read cached hash for %s: %w", region, err)
	}
	if !exists {
		return "", false, nil
	}

	return strings.TrimSpace(content), true, nil
}

// PutVersion durably records the version for the region
func (s *Store) PutVersion(region, version string) error {
	if err := util.WriteString(s.versionFile(region), version); err != nil {
		return fmt.Errorf("save version for %s: %w", region, err)
	}

	log.Infof("saved version %s for %s", version, region)
	return nil
}

// PutHash durably records the app hash for the region
func (s *Store) PutHash(region, hash string) error {
	if err := util.WriteString(s.hashFile(region), hash); err != nil {
		return fmt.Errorf("save hash for %s: %w", region, err)
	}

	log.Infof("saved app hash %s for %s", hash, region)
	return nil
}

// PutCombined durably records the combined version/hash record for the region
func (s *Store) PutCombined(region, version, hash string) error {
	record := Record{
		AppVersion: version,
		AppHash:    hash,
	}

	if err := util.WriteJson(s.combinedFile(region), record); err != nil {
		return fmt.Errorf("save combined record for %s: %w", region, err)
	}

	log.Infof("saved combined record for %s: version %s, hash %s", region, version, hash)
	return nil
}

func (s *Store) versionFile(region string) string {
	return filepath.Join(s.root, versionDir, region+".txt")
}

func (s *Store) hashFile(region string) string {
	return filepath.Join(s.root, hashDir, region+".txt")
}

func (s *Store) combinedFile(region string) string {
	return filepath.Join(s.root, combinedDir, region+".json")
}
