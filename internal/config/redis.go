package config

// Redis backs distributed rate limiting and HTTP response caching.  If the
// server cannot be reached at startup the constructor returns nil and the
// middlewares degrade to pass-through.

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TLS      bool   `mapstructure:"tls"`
}

// Address resolves host/port or addr.  Host and port take precedence;
// an empty result means Redis is not configured.
func (r RedisConfig) Address() string {
	if r.Host != "" && r.Port != "" {
		return r.Host + ":" + r.Port
	}
	return r.Addr
}

// NewRedisClient instantiates a Redis client and pings it with a short
// timeout.  It returns nil when Redis is not configured or unreachable.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	addr := cfg.Address()
	if addr == "" {
		return nil
	}
	var tlsConf *tls.Config
	if cfg.TLS {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      addr,
		Password:  cfg.Password,
		DB:        cfg.DB,
		TLSConfig: tlsConf,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
