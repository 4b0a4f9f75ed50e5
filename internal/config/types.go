package config

import (
	"fmt"
	"time"
)

type Config struct {
	Server    ServerConfig      `json:"server"`
	Upload    UploadConfig      `json:"upload"`
	Database  Database          `json:"database"`
	Redis     RedisConfig       `json:"redis" validate:"required"`
	Convert   ConvertConfig     `json:"convert"`
	RateLimit RateLimitConfig   `json:"rate_limit"`
	Artifacts ArtifactsConfig   `json:"artifacts"`
	Audit     AuditWorkerConfig `json:"audit_worker"`
	Sentry    SentryConfig      `json:"sentry"`
}

type ServerConfig struct {
	Port         int           `json:"port" validate:"gt=0,lte=65535"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

type UploadConfig struct {
	// MaxFileSizeMB bounds the uploaded model payload.
	MaxFileSizeMB        int64 `json:"max_file_size" validate:"gt=0"`
	MaxMultipartMemoryMB int64 `json:"max_multipart_memory" validate:"gt=0"`
}

type Database struct {
	DSN string `json:"dsn"`
}

type RedisConfig struct {
	Password            string        `json:"password"`
	DatabaseID          int           `json:"database_id"`
	HealthCheckInterval time.Duration `json:"health_check_interval"`
	DialTimeout         time.Duration `json:"dial_timeout"`
	ReadTimeout         time.Duration `json:"read_timeout"`
	WriteTimeout        time.Duration `json:"write_timeout"`
	PoolSize            int           `json:"pool_size"`
	Nodes               []RedisNode   `json:"nodes" validate:"min=1,dive"`
}

type RedisNode struct {
	Host string `json:"host" validate:"required"`
	Port int    `json:"port" validate:"gt=0,lte=65535"`
}

func (n RedisNode) Addr() string { return fmt.Sprintf("%s:%d", n.Host, n.Port) }

type ConvertConfig struct {
	// TimeoutSeconds bounds one engine invocation wall-clock.
	TimeoutSeconds int `json:"timeout_seconds" validate:"gt=0"`
	// CacheTTLSeconds is how long a converted artifact stays reusable.
	CacheTTLSeconds int `json:"cache_ttl_seconds" validate:"gt=0"`
	// BlenderBin is the headless engine binary.
	BlenderBin string `json:"blender_bin"`
	// WorkDir hosts per-request temp directories.
	WorkDir string `json:"work_dir"`
}

type RateLimitConfig struct {
	MaxRequests   int `json:"max_requests" validate:"gt=0"`
	WindowSeconds int `json:"window_seconds" validate:"gt=0"`
}

type ArtifactsConfig struct {
	// Backend selects where converted artifacts live: "fs" or "r2".
	Backend string   `json:"backend" validate:"oneof=fs r2"`
	Dir     string   `json:"dir"`
	R2      R2Config `json:"r2"`
}

type R2Config struct {
	AccountID   string `json:"account_id"`
	BucketName  string `json:"bucket_name"`
	AccessKeyID string `json:"access_key_id"`
	SecretKey   string `json:"secret_key"`
}

type AuditWorkerConfig struct {
	Stream       string        `json:"stream"`        // redis stream name
	Group        string        `json:"group"`         // consumer group name
	MaxAttempts  int           `json:"max_attempts"`  // max retries before dropping an event
	MaxLen       int64         `json:"max_len"`       // stream max length before trim
	BackoffBase  time.Duration `json:"backoff_base"`  // base retry delay
	BlockTimeout time.Duration `json:"block_timeout"` // XREADGROUP block timeout
	Consumer     string        `json:"consumer"`
}

type SentryConfig struct {
	SentryDSN   string `json:"sentry_dsn"`
	Environment string `json:"environment"`
}
