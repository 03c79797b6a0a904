package server

// Config is everything needed to run the server
type Config struct {
	Addr      string
	AuthToken string
	Debug     bool

	RedisURL string

	SentryDSN string
}
