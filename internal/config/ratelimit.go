package config

import "time"

type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Capacity       int           `mapstructure:"capacity"`
	RefillTokens   int           `mapstructure:"refill_tokens"`
	RefillInterval time.Duration `mapstructure:"refill_interval"`
	TTL            time.Duration `mapstructure:"ttl"`
	KeyStrategy    string        `mapstructure:"key_strategy"`
	Prefix         string        `mapstructure:"prefix"`
	Debug          bool          `mapstructure:"debug"`
}

// normalize clamps values so the limiter script never divides by zero and
// buckets outlive a few refill intervals.
func (r *RateLimitConfig) normalize() {
	if r.Capacity < 1 {
		r.Capacity = 1
	}
	if r.RefillTokens < 1 {
		r.RefillTokens = 1
	}
	if r.RefillInterval <= 0 {
		r.RefillInterval = time.Second
	}
	if minTTL := 5 * r.RefillInterval; r.TTL < minTTL {
		r.TTL = minTTL
	}
}
