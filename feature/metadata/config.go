package metadata

// Config holds configuration for the Scryfall metadata refresh.
type Config struct {
	// RefreshDays is the cadence of bulk refreshes in days.
	RefreshDays int `mapstructure:"refresh_days" default:"7"`
	// BulkURL is the Scryfall bulk default-cards download URL.
	BulkURL string `mapstructure:"bulk_url" default:"https://data.scryfall.io/default-cards/default-cards.json"`
	// TimeoutSeconds bounds the bulk download.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"120"`
}
