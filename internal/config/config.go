package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
)

// Create new config instance
func NewConfig() *Config {
	return &Config{}
}

// Load configuration file in json format, apply defaults and validate.
func (c *Config) Read(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", file, err)
	}

	c.applyDefaults()

	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config %s: %w", file, err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Upload.MaxFileSizeMB == 0 {
		c.Upload.MaxFileSizeMB = 50
	}
	if c.Upload.MaxMultipartMemoryMB == 0 {
		c.Upload.MaxMultipartMemoryMB = 32
	}
	if c.RateLimit.MaxRequests == 0 {
		c.RateLimit.MaxRequests = 10
	}
	if c.RateLimit.WindowSeconds == 0 {
		c.RateLimit.WindowSeconds = 60
	}
	if c.Convert.TimeoutSeconds == 0 {
		c.Convert.TimeoutSeconds = 300
	}
	if c.Convert.CacheTTLSeconds == 0 {
		c.Convert.CacheTTLSeconds = 3600
	}
	if c.Convert.BlenderBin == "" {
		c.Convert.BlenderBin = "blender"
	}
	if c.Artifacts.Backend == "" {
		c.Artifacts.Backend = "fs"
	}
	if c.Artifacts.Dir == "" {
		c.Artifacts.Dir = "/tmp/convert_cache"
	}
	if c.Audit.Stream == "" {
		c.Audit.Stream = "modelhub:audit"
	}
	if c.Audit.Group == "" {
		c.Audit.Group = "audit-writers"
	}
	if c.Audit.Consumer == "" {
		c.Audit.Consumer = "audit-1"
	}
	if c.Audit.MaxAttempts == 0 {
		c.Audit.MaxAttempts = 5
	}
}

// MaxFileSizeBytes returns the upload ceiling in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return c.Upload.MaxFileSizeMB << 20
}
