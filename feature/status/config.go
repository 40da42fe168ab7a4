package status

// Config holds configuration for the optional status HTTP server.
type Config struct {
	// Enabled turns the HTTP endpoint on. The daemon runs fine without it.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API. Empty
	// disables authentication.
	ApiKey string `mapstructure:"api_key" default:""`
}
