package config

import "time"

// Config holds runtime settings for the fieldsync CLI.
type Config struct {
	// ServerEndpointAddr is the base URL of the sync API.
	ServerEndpointAddr string
	// APIToken is the bearer token sent with every request.
	APIToken string
	// DatabasePath is the SQLite file holding the local cache and outbox.
	DatabasePath string

	SyncInterval        time.Duration
	OnlineCheckInterval time.Duration
	BootstrapTTL        time.Duration

	// MaxAttachmentBytes is the per-file ceiling enforced before an
	// attachment is accepted locally.
	MaxAttachmentBytes int64

	// BootstrapPageSize and BootstrapPages bound the ticket/site pages
	// fetched when seeding a fresh cache.
	BootstrapPageSize int
	BootstrapPages    int
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.APIToken = ""
	c.DatabasePath = "fieldsync.db"
	c.SyncInterval = 30 * time.Second
	c.OnlineCheckInterval = 3 * time.Second
	c.BootstrapTTL = 5 * time.Minute
	c.MaxAttachmentBytes = 25 << 20
	c.BootstrapPageSize = 50
	c.BootstrapPages = 2
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
