// Package apk extracts the embedded app hash from a downloaded installer.
package apk

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/sekaihub/apphashd/internal/appver"
)

// configRecordName identifies the configuration record among the parsed
// objects
const configRecordName = "production_android"

// candidate entry basenames holding the player settings; exact-match
// contract with the client packaging
var candidateNames = map[string]struct{}{
	"6350e2ec327334c8a9b7f494f344a761": {}, // Android
	"c726e51b6fe37463685916a1687158dd": {}, // iOS
	"data.unity3d":                     {}, // TW, KR, CN packaging
}

var (
	// ErrNoConfigRecord is returned when no candidate entry yields the
	// configuration record
	ErrNoConfigRecord = errors.New("no configuration record found in installer")
	// ErrVersionMismatch is returned when the extracted version fails the
	// expected-version sanity check, signalling a corrupt or mismatched
	// download
	ErrVersionMismatch = errors.New("extracted version mismatch")
)

// Result is the version/hash pair discovered in an installer
type Result struct {
	Version     string
	DataVersion string
	AppHash     string
}

// Extractor locates the client's configuration record inside an installer
// artifact. It only reads the artifact and never touches the cache.
type Extractor struct {
	deserializer Deserializer
}

// NewExtractor creates an Extractor on top of the given asset deserializer
func NewExtractor(deserializer Deserializer) *Extractor {
	return &Extractor{deserializer: deserializer}
}

// Extract opens the installer, walks the outer package and every nested
// .apk sub-package for candidate asset entries, hands their streams to the
// deserializer and returns the version/hash pair from the first
// configuration record. When expectedVersion is non-empty the extracted
// version must be at least as new, otherwise extraction fails.
func (e *Extractor) Extract(ctx context.Context, apkPath, expectedVersion string) (*Result, error) {
	zr, err := zip.OpenReader(apkPath)
	if err != nil {
		return nil, fmt.Errorf("open installer %s: %w", apkPath, err)
	}
	defer func() {
		if cerr := zr.Close(); cerr != nil {
			log.Warnf("error closing installer %s: %v", apkPath, cerr)
		}
	}()

	var objects []Object

	// outer package first, then nested sub-packages in archive order
	if err := e.collectCandidates(ctx, &zr.Reader, &objects); err != nil {
		return nil, err
	}

	for _, f := range zr.File {
		if !strings.HasSuffix(strings.ToLower(f.Name), ".apk") {
			continue
		}

		nested, err := openNestedPackage(f)
		if err != nil {
			return nil, fmt.Errorf("open nested package %s: %w", f.Name, err)
		}
		if err := e.collectCandidates(ctx, nested, &objects); err != nil {
			return nil, err
		}
	}

	for _, obj := range objects {
		if obj.Type != TypeMonoBehaviour || obj.Name != configRecordName {
			continue
		}

		return e.resultFromObject(obj, expectedVersion)
	}

	return nil, ErrNoConfigRecord
}

func (e *Extractor) collectCandidates(ctx context.Context, r *zip.Reader, objects *[]Object) error {
	for _, f := range r.File {
		if _, ok := candidateNames[path.Base(f.Name)]; !ok {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("open asset entry %s: %w", f.Name, err)
		}

		parsed, err := e.deserializer.Parse(ctx, rc)
		_ = rc.Close()
		if err != nil {
			return fmt.Errorf("parse asset entry %s: %w", f.Name, err)
		}

		*objects = append(*objects, parsed...)
	}

	return nil
}

func (e *Extractor) resultFromObject(obj Object, expectedVersion string) (*Result, error) {
	config, err := configFromFields(obj.Fields)
	if err != nil {
		return nil, err
	}

	appVersion := config.AppVersion()
	log.Infof("app version: %s", appVersion)

	if expectedVersion != "" {
		ok, err := appver.IsNewerOrEqual(appVersion, expectedVersion)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: extracted %s, expected %s", ErrVersionMismatch, appVersion, expectedVersion)
		}
	}

	dataVersion := config.DataVersion()
	log.Infof("data version: %s", dataVersion)
	if abVersion := config.AssetBundleVersion(); abVersion != "" {
		log.Infof("asset bundle version: %s", abVersion)
	}
	log.Infof("app hash: %s", config.ClientAppHash)

	return &Result{
		Version:     appVersion,
		DataVersion: dataVersion,
		AppHash:     config.ClientAppHash,
	}, nil
}

// openNestedPackage reads a nested .apk entry into memory and opens it as a
// zip archive
func openNestedPackage(f *zip.File) (*zip.Reader, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	bs, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}

	return zip.NewReader(bytes.NewReader(bs), int64(len(bs)))
}
