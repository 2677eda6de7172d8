package watch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	defaultPollInterval = 300
	minPollInterval     = 30
)

type ConfigCache struct {
	dir   string
	cache map[string]*Watchlist
	mu    sync.RWMutex
}

func NewConfigCache(dir string) *ConfigCache {
	return &ConfigCache{
		dir:   dir,
		cache: make(map[string]*Watchlist),
	}
}

// Run loads every *.yml file in the directory. A missing directory means
// no watchlists.
func (cc *ConfigCache) Run() error {
	if _, err := os.Stat(cc.dir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.dir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".yml")

		watchlist, err := cc.LoadConfig(name)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Watchlist loaded", "watchlist", name, "enabled", watchlist.Settings.Enabled, "keywords", len(watchlist.Keywords), "poll_interval", watchlist.Settings.PollInterval)
	}

	return nil
}

func (cc *ConfigCache) LoadConfig(name string) (*Watchlist, error) {
	configFile := filepath.Join(cc.dir, name+".yml")
	watchlist, err := parseConfig(configFile)
	if err != nil {
		return nil, err
	}

	watchlist.Name = name

	if err := validateConfig(watchlist); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[watchlist.Name] = watchlist

	return watchlist, nil
}

func (cc *ConfigCache) GetConfig(name string) (*Watchlist, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	watchlist, ok := cc.cache[name]
	if !ok {
		return nil, fmt.Errorf("watchlist with name '%s' not found", name)
	}
	return watchlist, nil
}

// GetConfigs returns all watchlists sorted by name.
func (cc *ConfigCache) GetConfigs() []*Watchlist {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	watchlists := make([]*Watchlist, 0, len(cc.cache))
	for _, w := range cc.cache {
		watchlists = append(watchlists, w)
	}
	slices.SortFunc(watchlists, func(a, b *Watchlist) int { return strings.Compare(a.Name, b.Name) })
	return watchlists
}

func (cc *ConfigCache) GetEnabledConfigs() []*Watchlist {
	var enabled []*Watchlist
	for _, w := range cc.GetConfigs() {
		if w.Settings.Enabled {
			enabled = append(enabled, w)
		}
	}
	return enabled
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func parseConfig(configFile string) (*Watchlist, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var watchlist Watchlist
	if err := yaml.Unmarshal(data, &watchlist); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if watchlist.Settings.PollInterval == 0 {
		watchlist.Settings.PollInterval = defaultPollInterval
	}

	return &watchlist, nil
}

func validateConfig(watchlist *Watchlist) error {
	if watchlist == nil {
		return fmt.Errorf("watchlist is nil")
	}

	keywords := 0
	for _, kw := range watchlist.Keywords {
		if strings.TrimSpace(kw) != "" {
			keywords++
		}
	}
	if keywords == 0 {
		return fmt.Errorf("at least one keyword is required")
	}

	if watchlist.Settings.PollInterval < minPollInterval {
		return fmt.Errorf("poll interval must be at least %d seconds", minPollInterval)
	}

	if tr := watchlist.TimeRange; tr != nil {
		if tr.Value < 0 {
			return fmt.Errorf("time range value must be non-negative")
		}
		switch strings.ToLower(tr.Unit) {
		case "", "days", "day", "months", "month", "years", "year":
		default:
			return fmt.Errorf("invalid time range unit: %s", tr.Unit)
		}
	}

	return nil
}
