package workers

// Config is everything needed to run the workers
type Config struct {
	ProcessID string
	Debug     bool

	RedisURL string

	AWSKey    string
	AWSSecret string
	AWSRegion string

	ChefConfigFile    string
	ChefServerURL     string
	ChefClientName    string
	ChefClientKeyFile string
	ExcludedInstances []string
	NodeQuery         string

	MiniWorkerInterval int
	FetchRetries       int
	MetricsAddr        string

	SlackHookURL  string
	SlackUsername string
	SlackIcon     string
	SlackChannel  string

	SentryDSN string
}
