package cfg

import (
	"cmp"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	Store        string `long:"store" env:"STORE" default:"memory" choice:"memory" choice:"sqlite" description:"Post store backend"`
	DBPath       string `long:"db-path" env:"DB_PATH" default:":memory:" description:"SQLite database path for the sqlite store"`
	SeenCapacity int    `long:"seen-capacity" env:"SEEN_CAPACITY" default:"100000" description:"Maximum number of seen post ids remembered between polls"`

	// Provider configuration
	ProviderURL       string  `long:"provider-url" env:"PROVIDER_URL" default:"https://www.linkedin.com" description:"Base URL of the search provider"`
	ProviderTimeout   int     `long:"provider-timeout" env:"PROVIDER_TIMEOUT" default:"30" description:"Provider request timeout in seconds"`
	ProviderRate      float64 `long:"provider-rate" env:"PROVIDER_RATE" default:"0.5" description:"Maximum provider requests per second (0 disables the limit)"`
	SearchLimit       int     `long:"search-limit" env:"SEARCH_LIMIT" default:"50" description:"Results requested per keyword search"`
	SearchConcurrency int     `long:"search-concurrency" env:"SEARCH_CONCURRENCY" default:"4" description:"Concurrent keyword searches per poll"`

	// Classification switches
	NoJobTemplateHeuristic bool `long:"no-job-template-heuristic" env:"NO_JOB_TEMPLATE_HEURISTIC" description:"Do not label UNIVERSAL results with a title as job postings"`
	NoExcludeTitleOnly     bool `long:"no-exclude-title-only" env:"NO_EXCLUDE_TITLE_ONLY" description:"Keep UNIVERSAL title-only results in posts-only searches"`

	// Application configuration
	WatchlistsDir     string `long:"watchlists-dir" env:"WATCHLISTS_DIR" default:"./watchlists" description:"Directory containing watchlist configuration files"`
	Port              string `long:"port" env:"PORT" default:"8000" description:"HTTP server port"`
	BaseUrl           string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://posts.example.com)"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background workers for watchlist polling"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"30" description:"Scheduler interval in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	WebhookURL        string `long:"webhook-url" env:"WEBHOOK_URL" description:"URL receiving newly found posts (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36" description:"User agent string for provider requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	return LoadArgs(os.Args[1:])
}

// LoadArgs parses args and the environment into the global configuration.
// It returns nil without error when help was requested.
func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Store:                raw.Store,
		DBPath:               raw.DBPath,
		SeenCapacity:         raw.SeenCapacity,
		ProviderURL:          raw.ProviderURL,
		ProviderTimeout:      raw.ProviderTimeout,
		ProviderRate:         raw.ProviderRate,
		SearchLimit:          raw.SearchLimit,
		SearchConcurrency:    raw.SearchConcurrency,
		JobTemplateHeuristic: !raw.NoJobTemplateHeuristic,
		ExcludeTitleOnly:     !raw.NoExcludeTitleOnly,
		WatchlistsDir:        raw.WatchlistsDir,
		Port:                 raw.Port,
		BaseUrl:              raw.BaseUrl,
		WorkerCount:          raw.WorkerCount,
		SchedulerInterval:    raw.SchedulerInterval,
		APIAccessKey:         raw.APIAccessKey,
		WebhookURL:           raw.WebhookURL,
		UserAgent:            raw.UserAgent,
		Timezone:             raw.Timezone,
		Debug:                raw.Debug,
		Version:              GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// ProviderTimeoutDuration is the provider request timeout.
func (c *Cfg) ProviderTimeoutDuration() time.Duration {
	return time.Duration(c.ProviderTimeout) * time.Second
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
