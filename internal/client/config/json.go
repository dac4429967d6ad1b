package config

import (
	"encoding/json"
	"os"

	"github.com/sitetrackr/fieldsync/internal/flagx"
	"github.com/sitetrackr/fieldsync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "30s"
// or as integer nanoseconds. After parsing, values are copied into the
// runtime Config.
type JsonConfig struct {
	ServerEndpointAddr  string         `json:"server_endpoint_addr"`
	APIToken            string         `json:"api_token"`
	DatabasePath        string         `json:"database_path"`
	SyncInterval        timex.Duration `json:"sync_interval"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	BootstrapTTL        timex.Duration `json:"bootstrap_ttl"`
	MaxAttachmentBytes  int64          `json:"max_attachment_bytes"`
	BootstrapPageSize   int            `json:"bootstrap_page_size"`
	BootstrapPages      int            `json:"bootstrap_pages"`
}

// parseJson overlays cfg with values from the JSON file named by the -c or
// -config flag. Zero-valued JSON fields leave the existing value alone, so
// a partial file only overrides what it names. Panics on read or unmarshal
// errors, in line with "a broken config file is not recoverable at startup".
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	}
	if jc.APIToken != "" {
		cfg.APIToken = jc.APIToken
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.SyncInterval.Duration != 0 {
		cfg.SyncInterval = jc.SyncInterval.Duration
	}
	if jc.OnlineCheckInterval.Duration != 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.BootstrapTTL.Duration != 0 {
		cfg.BootstrapTTL = jc.BootstrapTTL.Duration
	}
	if jc.MaxAttachmentBytes != 0 {
		cfg.MaxAttachmentBytes = jc.MaxAttachmentBytes
	}
	if jc.BootstrapPageSize != 0 {
		cfg.BootstrapPageSize = jc.BootstrapPageSize
	}
	if jc.BootstrapPages != 0 {
		cfg.BootstrapPages = jc.BootstrapPages
	}
}
