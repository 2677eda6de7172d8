package watch

import "github.com/lysyi3m/post-comb/app/poll"

type Watchlist struct {
	Name      string          // Derived from filename (without .yml extension)
	Keywords  []string        `yaml:"keywords" json:"keywords"`
	People    []string        `yaml:"people" json:"people,omitempty"`
	TimeRange *poll.TimeRange `yaml:"time_range" json:"timeRange,omitempty"`
	Settings  Settings        `yaml:"settings" json:"settings"`
}

type Settings struct {
	Enabled      bool `yaml:"enabled" json:"enabled"`
	PollInterval int  `yaml:"poll_interval" json:"pollInterval"` // seconds
	Forward      bool `yaml:"forward" json:"forward"`            // send new posts to the webhook
}
