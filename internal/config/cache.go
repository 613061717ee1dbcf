package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the response cache middleware.
// When Enabled is false or no Redis client is configured, caching is disabled.
// Methods is a comma separated list of HTTP methods to cache.  KeyStrategy
// decides which parts of the request form the cache key; "route_body" hashes
// the JSON body as well, which is what the POST traffic query needs.
type CacheConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Methods      string        `mapstructure:"methods"`
	TTL          time.Duration `mapstructure:"ttl"`
	KeyStrategy  string        `mapstructure:"key_strategy"`
	Prefix       string        `mapstructure:"prefix"`
	MaxBodyBytes int           `mapstructure:"max_body_bytes"`
}

// MethodSet returns the upper-cased methods as a lookup set.
func (c CacheConfig) MethodSet() map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(c.Methods, ",") {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}
