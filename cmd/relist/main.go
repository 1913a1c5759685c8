// Package main provides relist, a keep-alive loop that periodically
// resubmits a tutoring listing through an authenticated headless browser
// session so the listing stays near the top of search results.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/entrhq/relist/pkg/browser"
	"github.com/entrhq/relist/pkg/config"
	"github.com/entrhq/relist/pkg/executor"
	"github.com/entrhq/relist/pkg/listing"
	"github.com/entrhq/relist/pkg/logging"
	"github.com/entrhq/relist/pkg/recovery"
)

const (
	version           = "0.1.0"
	defaultConfigFile = "config.json"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigFile      string
	ConfigFileSet   bool
	DescriptionFile string
	LogLevel        string
	Headed          bool
	ShowVersion     bool
}

func main() {
	cliConfig := parseFlags()

	if cliConfig.ShowVersion {
		fmt.Printf("relist v%s\n", version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\nShutting down gracefully...")
		cancel()
	}()

	if err := run(ctx, cliConfig); err != nil {
		interrupted := ctx.Err() != nil
		cancel()
		if interrupted {
			return
		}
		log.Printf("relist failed: %v", err)
		os.Exit(1)
	}
	cancel()
}

// parseFlags parses command line flags
func parseFlags() *CLIConfig {
	cliConfig := &CLIConfig{}

	flag.StringVar(&cliConfig.ConfigFile, "config", defaultConfigFile, "Path to configuration file (JSON or YAML)")
	flag.StringVar(&cliConfig.DescriptionFile, "description", "", "Path to the listing description file")
	flag.StringVar(&cliConfig.LogLevel, "log-level", "", "Log level: quiet, normal, verbose or debug")
	flag.BoolVar(&cliConfig.Headed, "headed", false, "Show the browser window")
	flag.BoolVar(&cliConfig.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "relist - keeps a tutoring listing fresh\n\n")
		fmt.Fprintf(os.Stderr, "Usage: relist [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment:\n")
		fmt.Fprintf(os.Stderr, "  %s, %s, %s override the values in the config file\n\n", config.EnvToken, config.EnvCookie, config.EnvListingID)
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  relist -config config.json\n")
		fmt.Fprintf(os.Stderr, "  COOKIE='session=...' LISTING_ID=12345 relist -headed\n\n")
	}

	flag.Parse()

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			cliConfig.ConfigFileSet = true
		}
	})
	return cliConfig
}

// run resolves configuration, starts the session and blocks until ctx is
// cancelled.
func run(ctx context.Context, cliConfig *CLIConfig) error {
	cfg, err := loadConfig(cliConfig)
	if err != nil {
		return err
	}

	logger, logErr := logging.New("relist", logging.Options{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	defer func() { _ = logger.Close() }()
	if logErr == nil {
		logger.Verbosef("Logging to %s", logger.LogPath())
	}

	logger.Print(executor.Banner(version, cfg.ListingID.String(), cfg.HourlyRate, cfg.UpdateInterval().String()))

	detector, err := browser.NewChallengeDetector(cfg.Challenge.TitlePatterns, cfg.Challenge.BodyMarkers)
	if err != nil {
		return fmt.Errorf("invalid challenge configuration: %w", err)
	}

	sessions := browser.NewSessionManager(browser.NewPlaywrightLauncher(), detector, managerOptions(cfg), logger.With("browser"))

	source := listing.FileSource{Path: cfg.DescriptionFile}
	task := listing.NewUpdateTask(sessions, detector, source, listing.OptionsFromConfig(cfg))

	runner, err := executor.New(sessions, task, recovery.NewPolicy(detector), logger.With("executor"), executor.Options{
		Interval:  cfg.UpdateInterval(),
		ListingID: cfg.ListingID.String(),
	})
	if err != nil {
		_ = sessions.Close()
		return fmt.Errorf("failed to create executor: %w", err)
	}

	if err := runner.Run(ctx); err != nil {
		if ctx.Err() == nil {
			logger.Errorf("%v", err)
		}
		return err
	}
	return nil
}

// loadConfig resolves the config file, applies flag overrides and validates
// the result. A missing default config file falls back to the environment.
func loadConfig(cliConfig *CLIConfig) (*config.Config, error) {
	path := cliConfig.ConfigFile
	if !cliConfig.ConfigFileSet {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if cliConfig.DescriptionFile != "" {
		cfg.DescriptionFile = cliConfig.DescriptionFile
	}
	if cliConfig.LogLevel != "" {
		cfg.Logging.Level = cliConfig.LogLevel
	}
	if cliConfig.Headed {
		cfg.Browser.Headless = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// managerOptions maps the resolved config onto session manager options.
func managerOptions(cfg *config.Config) browser.ManagerOptions {
	return browser.ManagerOptions{
		Launch: browser.LaunchOptions{
			Headless:  cfg.Browser.Headless,
			UserAgent: cfg.Browser.UserAgent,
			Viewport: browser.Viewport{
				Width:  cfg.Browser.ViewportWidth,
				Height: cfg.Browser.ViewportHeight,
			},
			Args: cfg.Browser.ExtraArgs,
		},
		Cookies:           browser.ParseCookieHeader(cfg.Cookie, cfg.CookieDomain),
		StartURL:          cfg.EditURL(),
		NavigationTimeout: msToDuration(cfg.Browser.NavigationTimeoutMs),
		ChallengeWait:     msToDuration(cfg.Challenge.WaitMs),
		ChallengePoll:     msToDuration(cfg.Challenge.PollMs),
	}
}

func msToDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
