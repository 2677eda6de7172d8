package cfg

type Cfg struct {
	// Storage configuration
	Store        string
	DBPath       string
	SeenCapacity int

	// Provider configuration
	ProviderURL       string
	ProviderTimeout   int
	ProviderRate      float64
	SearchLimit       int
	SearchConcurrency int

	// Classification switches
	JobTemplateHeuristic bool
	ExcludeTitleOnly     bool

	// Application configuration
	WatchlistsDir     string
	Port              string
	BaseUrl           string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string
	WebhookURL        string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
