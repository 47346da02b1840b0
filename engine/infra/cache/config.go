package cache

import "time"

// Config carries Redis connection settings plus cache behavior settings for
// both tiers.
type Config struct {
	URL      string `json:"url,omitempty"       yaml:"url,omitempty"       mapstructure:"url"`
	Host     string `json:"host,omitempty"      yaml:"host,omitempty"      mapstructure:"host"`
	Port     string `json:"port,omitempty"      yaml:"port,omitempty"      mapstructure:"port"`
	Password string `json:"password,omitempty"  yaml:"password,omitempty"  mapstructure:"password"`
	DB       int    `json:"db,omitempty"        yaml:"db,omitempty"        mapstructure:"db"`
	PoolSize int    `json:"pool_size,omitempty" yaml:"pool_size,omitempty" mapstructure:"pool_size"`

	PingTimeout  time.Duration `json:"ping_timeout,omitempty"  yaml:"ping_timeout,omitempty"  mapstructure:"ping_timeout"`
	DialTimeout  time.Duration `json:"dial_timeout,omitempty"  yaml:"dial_timeout,omitempty"  mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout,omitempty"  yaml:"read_timeout,omitempty"  mapstructure:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout,omitempty" yaml:"write_timeout,omitempty" mapstructure:"write_timeout"`

	// KeyPrefix namespaces every shared-tier key and the invalidation
	// channel so multiple deployments can share one Redis.
	KeyPrefix string `json:"key_prefix,omitempty" yaml:"key_prefix,omitempty" mapstructure:"key_prefix"`
	// MemoryTTL bounds staleness of the in-process tier.
	MemoryTTL time.Duration `json:"memory_ttl,omitempty" yaml:"memory_ttl,omitempty" mapstructure:"memory_ttl"`
	// MemorySize bounds the number of in-process entries.
	MemorySize int `json:"memory_size,omitempty" yaml:"memory_size,omitempty" mapstructure:"memory_size"`
	// SharedTTL bounds staleness of the shared tier.
	SharedTTL time.Duration `json:"shared_ttl,omitempty" yaml:"shared_ttl,omitempty" mapstructure:"shared_ttl"`

	NotificationBufferSize int `json:"notification_buffer_size,omitempty" yaml:"notification_buffer_size,omitempty" mapstructure:"notification_buffer_size"`
}

const (
	defaultKeyPrefix  = "ally:config"
	defaultMemoryTTL  = 60 * time.Second
	defaultMemorySize = 1024
	defaultSharedTTL  = time.Hour
)

func (c *Config) keyPrefix() string {
	if c == nil || c.KeyPrefix == "" {
		return defaultKeyPrefix
	}
	return c.KeyPrefix
}

func (c *Config) memoryTTL() time.Duration {
	if c == nil || c.MemoryTTL <= 0 {
		return defaultMemoryTTL
	}
	return c.MemoryTTL
}

func (c *Config) memorySize() int {
	if c == nil || c.MemorySize <= 0 {
		return defaultMemorySize
	}
	return c.MemorySize
}

func (c *Config) sharedTTL() time.Duration {
	if c == nil || c.SharedTTL <= 0 {
		return defaultSharedTTL
	}
	return c.SharedTTL
}
