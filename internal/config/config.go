// Package config loads the apphashd configuration file.
package config

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sekaihub/apphashd/util"
)

const (
	// DefaultApkPureURLTemplate is the general storefront installer location
	DefaultApkPureURLTemplate = "https://d.apkpure.net/b/XAPK/{packageName}?version=latest"
	// DefaultCNApkURL is the installer location for the CN distribution
	DefaultCNApkURL = "https://ugapk.com/djogd"
	// DefaultQooAppURLTemplate is the general storefront app page
	DefaultQooAppURLTemplate = "https://apps.qoo-app.com/en/app/{appId}"
	// DefaultTapTapURLTemplate is the CN storefront app page
	DefaultTapTapURLTemplate = "https://www.taptap.cn/app/{appId}?os=android"

	defaultUserAgent = "Mozilla/5.0 (Linux; Android 12; SM-S908E Build/SKQ1.220123.001; wv) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Version/4.0 Chrome/108.0.5359.124 Mobile Safari/537.36"

	defaultUpdateInterval  = 5 * time.Minute
	defaultDownloadTimeout = 15 * time.Minute
)

// Config holds the apphashd runtime configuration
type Config struct {
	// CacheDir is the root under which the per-region version, hash and
	// combined record files live
	CacheDir string
	// UpdateIntervalMinutes is the scheduler period for update cycles
	UpdateIntervalMinutes int
	// Disabled prevents the scheduler from running update cycles
	Disabled bool
	// ProxyURL is an optional proxy for all outbound HTTP
	ProxyURL string
	// UserAgent is sent on storefront page requests
	UserAgent string
	// DownloadTimeoutMinutes bounds a single installer download
	DownloadTimeoutMinutes int
	// ExtractorCommand is the external asset deserializer helper invoked
	// with the path of a serialized asset stream
	ExtractorCommand []string

	ApkPureURLTemplate string
	CNApkURL           string
	QooAppURLTemplate  string
	TapTapURLTemplate  string

	// PackageNames maps region to the client package name used in the
	// installer download URL
	PackageNames map[string]string
	// QooAppAppIDs maps region to its general storefront app id
	QooAppAppIDs map[string]string
	// TapTapAppIDs maps region to its CN storefront app id
	TapTapAppIDs map[string]string
}

// UpdateInterval returns the scheduler period
func (c *Config) UpdateInterval() time.Duration {
	if c.UpdateIntervalMinutes <= 0 {
		return defaultUpdateInterval
	}
	return time.Duration(c.UpdateIntervalMinutes) * time.Minute
}

// DownloadTimeout returns the per-download deadline
func (c *Config) DownloadTimeout() time.Duration {
	if c.DownloadTimeoutMinutes <= 0 {
		return defaultDownloadTimeout
	}
	return time.Duration(c.DownloadTimeoutMinutes) * time.Minute
}

// ReadConfig reads the config file and returns a Config. If the file does
// not exist it is created with default values.
func ReadConfig(configPath string) (*Config, error) {
	if util.FileExists(configPath) {
		config := &Config{}
		if err := util.ReadJson(configPath, config); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}

		if config.applyDefaults() {
			if err := util.WriteJson(configPath, config); err != nil {
				return nil, fmt.Errorf("update config %s: %w", configPath, err)
			}
		}

		return config, nil
	}

	log.Infof("creating new config %s with default values", configPath)

	config := &Config{}
	config.applyDefaults()
	if err := util.WriteJson(configPath, config); err != nil {
		return nil, fmt.Errorf("write config %s: %w", configPath, err)
	}

	return config, nil
}

// applyDefaults fills unset fields with default values and reports whether
// anything changed
func (c *Config) applyDefaults() bool {
	changed := false

	if c.CacheDir == "" {
		c.CacheDir = "cache"
		changed = true
	}
	if c.UpdateIntervalMinutes == 0 {
		c.UpdateIntervalMinutes = int(defaultUpdateInterval / time.Minute)
		changed = true
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
		changed = true
	}
	if c.DownloadTimeoutMinutes == 0 {
		c.DownloadTimeoutMinutes = int(defaultDownloadTimeout / time.Minute)
		changed = true
	}
	if c.ApkPureURLTemplate == "" {
		c.ApkPureURLTemplate = DefaultApkPureURLTemplate
		changed = true
	}
	if c.CNApkURL == "" {
		c.CNApkURL = DefaultCNApkURL
		changed = true
	}
	if c.QooAppURLTemplate == "" {
		c.QooAppURLTemplate = DefaultQooAppURLTemplate
		changed = true
	}
	if c.TapTapURLTemplate == "" {
		c.TapTapURLTemplate = DefaultTapTapURLTemplate
		changed = true
	}
	if len(c.ExtractorCommand) == 0 {
		c.ExtractorCommand = []string{"unity-asset-dump"}
		changed = true
	}
	if c.PackageNames == nil {
		c.PackageNames = map[string]string{
			"JP": "com.sega.pjsekai",
			"TW": "com.hermes.mk.asia",
			"KR": "com.pjsekai.kr",
			"EN": "com.sega.ColorfulStage.en",
			"CN": "com.hermes.mk",
		}
		changed = true
	}
	if c.QooAppAppIDs == nil {
		c.QooAppAppIDs = map[string]string{
			"JP": "9038",
			"TW": "18298",
			"EN": "18337",
			"KR": "20082",
		}
		changed = true
	}
	if c.TapTapAppIDs == nil {
		c.TapTapAppIDs = map[string]string{
			"CN": "223265",
		}
		changed = true
	}

	return changed
}
