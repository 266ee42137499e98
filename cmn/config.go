package cmn

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

// Config holds every option recognized by the async node. Fields start
// from built-in defaults, are optionally overlaid by a YAML file
// (LoadFile), and are then overlaid by environment variables (ApplyEnv),
// so an environment variable wins over the file (the same flat-bag shape
// as the original config.py, just typed).
type Config struct {
	ANPort            int           `yaml:"an_port"`
	AnonymousTTL      time.Duration `yaml:"anonymous_ttl"`
	S3SyncInterval    time.Duration `yaml:"s3_sync_interval"`
	AsyncSleepTime    time.Duration `yaml:"async_sleep_time"`
	BucketName        string        `yaml:"bucket_name"`
	AWSRegion         string        `yaml:"aws_region"`
	AWSAccessKeyID    string        `yaml:"aws_access_key_id"`
	AWSSecretAccess   string        `yaml:"aws_secret_access_key"`
	HeadHost          string        `yaml:"head_host"`
	HeadPort          int           `yaml:"head_port"`
	MaxTCPConnections int           `yaml:"max_tcp_connections"`
	NodeSleepTime     time.Duration `yaml:"node_sleep_time"`
	// StoreTimeout bounds every individual object-store RPC; not named in
	// the option table directly but implied by the "per-call timeout from
	// configuration".
	StoreTimeout time.Duration `yaml:"store_timeout"`
}

// Default returns the configuration defaults the original asyncnode.py
// shipped with, converted to Go durations.
func Default() Config {
	return Config{
		ANPort:            6004,
		AnonymousTTL:      10 * time.Minute,
		S3SyncInterval:    10 * time.Minute,
		AsyncSleepTime:    10 * time.Second,
		BucketName:        "hsds.test",
		AWSRegion:         "us-east-1",
		HeadHost:          "localhost",
		HeadPort:          5100,
		MaxTCPConnections: 100,
		NodeSleepTime:     10 * time.Second,
		StoreTimeout:      30 * time.Second,
	}
}

// LoadFile reads a YAML config file on top of Default(), returning the
// merged configuration.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays recognized environment variables onto cfg, matching
// the option names verbatim (upper-cased).
func (c Config) ApplyEnv() Config {
	getInt := func(name string, cur int) int {
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return cur
	}
	getSecs := func(name string, cur time.Duration) time.Duration {
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return time.Duration(n) * time.Second
			}
		}
		return cur
	}
	getStr := func(name, cur string) string {
		if v := os.Getenv(name); v != "" {
			return v
		}
		return cur
	}

	c.ANPort = getInt("AN_PORT", c.ANPort)
	c.AnonymousTTL = getSecs("ANONYMOUS_TTL", c.AnonymousTTL)
	c.S3SyncInterval = getSecs("S3_SYNC_INTERVAL", c.S3SyncInterval)
	c.AsyncSleepTime = getSecs("ASYNC_SLEEP_TIME", c.AsyncSleepTime)
	c.BucketName = getStr("BUCKET_NAME", c.BucketName)
	c.AWSRegion = getStr("AWS_REGION", c.AWSRegion)
	c.AWSAccessKeyID = getStr("AWS_ACCESS_KEY_ID", c.AWSAccessKeyID)
	c.AWSSecretAccess = getStr("AWS_SECRET_ACCESS_KEY", c.AWSSecretAccess)
	c.HeadHost = getStr("HEAD_HOST", c.HeadHost)
	c.HeadPort = getInt("HEAD_PORT", c.HeadPort)
	c.MaxTCPConnections = getInt("MAX_TCP_CONNECTIONS", c.MaxTCPConnections)
	c.NodeSleepTime = getSecs("NODE_SLEEP_TIME", c.NodeSleepTime)
	return c
}

// ValidateCredentials mirrors baseInit's fatal check: a placeholder or
// missing AWS secret/access key is a startup error, not a runtime one.
func (c Config) ValidateCredentials() error {
	if c.AWSSecretAccess == "" || c.AWSSecretAccess == "xxx" {
		return fmt.Errorf("invalid aws secret access key")
	}
	if c.AWSAccessKeyID == "" || c.AWSAccessKeyID == "xxx" {
		return fmt.Errorf("invalid aws access key")
	}
	return nil
}

// HeadURL is the base URL of the head node consumed by cluster.Client.
func (c Config) HeadURL() string {
	return fmt.Sprintf("http://%s:%d", c.HeadHost, c.HeadPort)
}
