package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".zfcgcrawl"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// Duration is a time.Duration that unmarshals from YAML strings like
// "2s" or "500ms". yaml.v3 has no native duration support.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// File represents the structure of the .zfcgcrawl configuration file.
// Every field is optional; absent fields leave the corresponding Config
// value untouched, so the file only needs to state what differs from the
// defaults.
type File struct {
	// SearchURL overrides the search page URL.
	SearchURL string `yaml:"searchURL,omitempty"`

	// UnitName overrides the procurement-unit criterion.
	UnitName string `yaml:"unitName,omitempty"`

	// MaxPages overrides the page cap. Negative means unset.
	MaxPages *int `yaml:"maxPages,omitempty"`

	// ExtractDetails overrides detail-document extraction.
	ExtractDetails *bool `yaml:"extractDetails,omitempty"`

	// Headless overrides the browser window mode.
	Headless *bool `yaml:"headless,omitempty"`

	// OutputDir overrides the output directory.
	OutputDir string `yaml:"outputDir,omitempty"`

	// FlushEvery overrides the checkpoint interval in pages.
	FlushEvery *int `yaml:"flushEvery,omitempty"`

	// CaptchaRetries overrides the CAPTCHA retry bound.
	CaptchaRetries *int `yaml:"captchaRetries,omitempty"`

	// SettleWait overrides the render pause, e.g. "2s".
	SettleWait Duration `yaml:"settleWait,omitempty"`

	// DetailDelay overrides the politeness pause, e.g. "1s".
	DetailDelay Duration `yaml:"detailDelay,omitempty"`

	// TableWait overrides the result-table wait, e.g. "10s".
	TableWait Duration `yaml:"tableWait,omitempty"`

	// UserAgent overrides the browser user agent.
	UserAgent string `yaml:"userAgent,omitempty"`

	// SaveToDB overrides database persistence.
	SaveToDB *bool `yaml:"saveToDB,omitempty"`
}

// ApplyTo overlays the file's set fields onto the config.
func (f *File) ApplyTo(c *Config) {
	if f.SearchURL != "" {
		c.SearchURL = f.SearchURL
	}
	if f.UnitName != "" {
		c.UnitName = f.UnitName
	}
	if f.MaxPages != nil {
		c.MaxPages = *f.MaxPages
	}
	if f.ExtractDetails != nil {
		c.ExtractDetails = *f.ExtractDetails
	}
	if f.Headless != nil {
		c.Headless = *f.Headless
	}
	if f.OutputDir != "" {
		c.OutputDir = f.OutputDir
	}
	if f.FlushEvery != nil {
		c.FlushEvery = *f.FlushEvery
	}
	if f.CaptchaRetries != nil {
		c.CaptchaRetries = *f.CaptchaRetries
	}
	if f.SettleWait != 0 {
		c.SettleWait = time.Duration(f.SettleWait)
	}
	if f.DetailDelay != 0 {
		c.DetailDelay = time.Duration(f.DetailDelay)
	}
	if f.TableWait != 0 {
		c.TableWait = time.Duration(f.TableWait)
	}
	if f.UserAgent != "" {
		c.UserAgent = f.UserAgent
	}
	if f.SaveToDB != nil {
		c.SaveToDB = *f.SaveToDB
	}
}

// LoadConfigFile loads crawl configuration from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .zfcgcrawl in the current directory
// 3. Look for .zfcgcrawl in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	// If explicit path is provided, use it
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	// Check current directory
	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	// Check home directory
	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
