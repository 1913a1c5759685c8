// Package config resolves the runtime configuration for relist: a JSON or
// YAML file, environment overrides, and enumerated defaults. A resolved
// Config is validated once and treated as read-only afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure so callers can tell a
// configuration problem apart from an I/O failure.
var ErrInvalid = errors.New("invalid configuration")

// Environment variables that take precedence over the file.
const (
	EnvToken     = "TOKEN"
	EnvCookie    = "COOKIE"
	EnvListingID = "LISTING_ID"
)

// Defaults applied when the file leaves a field empty or zero.
const (
	DefaultBaseURL             = "https://highschooltutors.com.au"
	DefaultCookieDomain        = ".highschooltutors.com.au"
	DefaultHourlyRate          = 50.0
	DefaultUpdateIntervalMs    = 15000
	DefaultTutorType           = "University Student"
	DefaultDescriptionFile     = "description.txt"
	DefaultNavigationTimeoutMs = 30000
	DefaultChallengeWaitMs     = 10000
	DefaultChallengePollMs     = 1000
	DefaultViewportWidth       = 1366
	DefaultViewportHeight      = 768
	DefaultUserAgent           = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	DefaultLogLevel            = "normal"
	DefaultLogMaxSizeMB        = 10
	DefaultLogMaxBackups       = 3
)

// Config is the resolved configuration.
type Config struct {
	// Token is the fallback write-authorization token used when the edit
	// page does not expose one.
	Token string `yaml:"token" json:"token"`

	// Cookie is a raw Cookie header: semicolon separated name=value pairs.
	Cookie string `yaml:"cookie" json:"cookie"`

	ListingID        ListingID     `yaml:"listingId" json:"listingId"`
	HourlyRate       float64       `yaml:"hourlyRate" json:"hourlyRate"`
	UpdateIntervalMs int           `yaml:"updateIntervalMs" json:"updateIntervalMs"`
	TutorType        string        `yaml:"tutorType" json:"tutorType"`
	TutoringTypes    TutoringTypes `yaml:"tutoringTypes" json:"tutoringTypes"`

	BaseURL         string `yaml:"baseUrl" json:"baseUrl"`
	CookieDomain    string `yaml:"cookieDomain" json:"cookieDomain"`
	DescriptionFile string `yaml:"descriptionFile" json:"descriptionFile"`

	Browser   BrowserConfig   `yaml:"browser" json:"browser"`
	Challenge ChallengeConfig `yaml:"challenge" json:"challenge"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// ListingID accepts both a string and a bare number in the config file.
type ListingID string

// UnmarshalYAML keeps the scalar text as-is, so 12345 and "12345" resolve
// to the same identifier.
func (id *ListingID) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("listingId must be a string or number")
	}
	*id = ListingID(strings.TrimSpace(node.Value))
	return nil
}

// String returns the identifier as used in listing URLs.
func (id ListingID) String() string {
	return string(id)
}

// TutoringTypes holds the seven service-offering toggles of a listing.
type TutoringTypes struct {
	OneOnOne       bool `yaml:"oneOnOne" json:"oneOnOne"`
	Group          bool `yaml:"group" json:"group"`
	HomeVisits     bool `yaml:"homeVisits" json:"homeVisits"`
	TeachingStudio bool `yaml:"teachingStudio" json:"teachingStudio"`
	PhoneHelp      bool `yaml:"phoneHelp" json:"phoneHelp"`
	OnlineHelp     bool `yaml:"onlineHelp" json:"onlineHelp"`
	InPerson       bool `yaml:"inPerson" json:"inPerson"`
}

// BrowserConfig controls how the automated browser is launched.
type BrowserConfig struct {
	Headless            bool     `yaml:"headless" json:"headless"`
	UserAgent           string   `yaml:"userAgent" json:"userAgent"`
	ViewportWidth       int      `yaml:"viewportWidth" json:"viewportWidth"`
	ViewportHeight      int      `yaml:"viewportHeight" json:"viewportHeight"`
	NavigationTimeoutMs int      `yaml:"navigationTimeoutMs" json:"navigationTimeoutMs"`
	ExtraArgs           []string `yaml:"extraArgs" json:"extraArgs"`
}

// ChallengeConfig describes how anti-bot interstitials are recognised and
// how long to wait for one to clear.
type ChallengeConfig struct {
	// TitlePatterns are glob patterns matched against the page title.
	TitlePatterns []string `yaml:"titlePatterns" json:"titlePatterns"`
	// BodyMarkers are substrings looked for in response bodies.
	BodyMarkers []string `yaml:"bodyMarkers" json:"bodyMarkers"`
	WaitMs      int      `yaml:"waitMs" json:"waitMs"`
	PollMs      int      `yaml:"pollMs" json:"pollMs"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Level is one of quiet, normal, verbose, debug
	Level      string `yaml:"level" json:"level"`
	File       string `yaml:"file" json:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMb" json:"maxSizeMb"`
	MaxBackups int    `yaml:"maxBackups" json:"maxBackups"`
}

// DefaultConfig returns a configuration with every optional field set.
// ListingID and Cookie are left empty; they have no sensible default.
func DefaultConfig() *Config {
	return &Config{
		HourlyRate:       DefaultHourlyRate,
		UpdateIntervalMs: DefaultUpdateIntervalMs,
		TutorType:        DefaultTutorType,
		TutoringTypes:    DefaultTutoringTypes(),
		BaseURL:          DefaultBaseURL,
		CookieDomain:     DefaultCookieDomain,
		DescriptionFile:  DefaultDescriptionFile,
		Browser: BrowserConfig{
			Headless:            true,
			UserAgent:           DefaultUserAgent,
			ViewportWidth:       DefaultViewportWidth,
			ViewportHeight:      DefaultViewportHeight,
			NavigationTimeoutMs: DefaultNavigationTimeoutMs,
		},
		Challenge: ChallengeConfig{
			TitlePatterns: []string{"*Cloudflare*", "Just a moment*"},
			BodyMarkers:   []string{"Cloudflare"},
			WaitMs:        DefaultChallengeWaitMs,
			PollMs:        DefaultChallengePollMs,
		},
		Logging: LoggingConfig{
			Level:      DefaultLogLevel,
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxBackups: DefaultLogMaxBackups,
		},
	}
}

// DefaultTutoringTypes enables one-on-one and online help only.
func DefaultTutoringTypes() TutoringTypes {
	return TutoringTypes{OneOnOne: true, OnlineHelp: true}
}

// Load reads the file at path, applies environment overrides, fills in
// defaults and validates the result. An empty path skips the file and
// resolves from the environment alone.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: config file %s is missing", ErrInvalid, path)
			}
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := decode(data, cfg); err != nil {
			return nil, err
		}
		if cfg.DescriptionFile != "" && !filepath.IsAbs(cfg.DescriptionFile) {
			cfg.DescriptionFile = filepath.Join(filepath.Dir(path), cfg.DescriptionFile)
		}
	}

	cfg.ApplyEnv(os.Getenv)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode parses JSON or YAML (JSON is valid YAML) on top of the defaults
// already present in cfg.
func decode(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	// A tutoringTypes block in the file replaces the default set entirely;
	// toggles it does not mention are off.
	var toggles struct {
		TutoringTypes *TutoringTypes `yaml:"tutoringTypes"`
	}
	if err := yaml.Unmarshal(data, &toggles); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	if toggles.TutoringTypes != nil {
		cfg.TutoringTypes = *toggles.TutoringTypes
	}
	return nil
}

// ApplyEnv overrides token, cookie and listing id with non-empty values
// returned by getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvToken); v != "" {
		c.Token = v
	}
	if v := getenv(EnvCookie); v != "" {
		c.Cookie = v
	}
	if v := getenv(EnvListingID); v != "" {
		c.ListingID = ListingID(strings.TrimSpace(v))
	}
}

// applyDefaults replaces zero values left behind by the file.
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.HourlyRate <= 0 {
		c.HourlyRate = d.HourlyRate
	}
	if c.UpdateIntervalMs <= 0 {
		c.UpdateIntervalMs = d.UpdateIntervalMs
	}
	if c.TutorType == "" {
		c.TutorType = d.TutorType
	}
	if c.BaseURL == "" {
		c.BaseURL = d.BaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.CookieDomain == "" {
		c.CookieDomain = d.CookieDomain
	}
	if c.Browser.UserAgent == "" {
		c.Browser.UserAgent = d.Browser.UserAgent
	}
	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		c.Browser.ViewportWidth = d.Browser.ViewportWidth
		c.Browser.ViewportHeight = d.Browser.ViewportHeight
	}
	if c.Browser.NavigationTimeoutMs <= 0 {
		c.Browser.NavigationTimeoutMs = d.Browser.NavigationTimeoutMs
	}
	if len(c.Challenge.TitlePatterns) == 0 {
		c.Challenge.TitlePatterns = d.Challenge.TitlePatterns
	}
	if len(c.Challenge.BodyMarkers) == 0 {
		c.Challenge.BodyMarkers = d.Challenge.BodyMarkers
	}
	if c.Challenge.WaitMs <= 0 {
		c.Challenge.WaitMs = d.Challenge.WaitMs
	}
	if c.Challenge.PollMs <= 0 {
		c.Challenge.PollMs = d.Challenge.PollMs
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = d.Logging.MaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = d.Logging.MaxBackups
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.ListingID == "" {
		return fmt.Errorf("%w: listingId is missing in config file or environment", ErrInvalid)
	}

	if c.Cookie == "" {
		return fmt.Errorf("%w: cookie is missing in config file or environment", ErrInvalid)
	}

	if c.HourlyRate <= 0 {
		return fmt.Errorf("%w: hourlyRate must be positive", ErrInvalid)
	}

	if c.UpdateIntervalMs <= 0 {
		return fmt.Errorf("%w: updateIntervalMs must be positive", ErrInvalid)
	}

	if c.Challenge.PollMs > c.Challenge.WaitMs {
		return fmt.Errorf("%w: challenge.pollMs cannot exceed challenge.waitMs", ErrInvalid)
	}

	validLevels := map[string]bool{
		"quiet":   true,
		"normal":  true,
		"verbose": true,
		"debug":   true,
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("%w: invalid logging level: %s (must be 'quiet', 'normal', 'verbose', or 'debug')", ErrInvalid, c.Logging.Level)
	}

	return nil
}

// UpdateInterval returns the configured interval as a duration.
func (c *Config) UpdateInterval() time.Duration {
	return time.Duration(c.UpdateIntervalMs) * time.Millisecond
}

// EditURL is the listing's edit view, used to establish the session.
func (c *Config) EditURL() string {
	return fmt.Sprintf("%s/listings/%s/edit", c.BaseURL, c.ListingID)
}

// ListingURL is the listing's canonical resource, the target of updates.
func (c *Config) ListingURL() string {
	return fmt.Sprintf("%s/listings/%s", c.BaseURL, c.ListingID)
}
