package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/weiawesome/track-resolver/pkg/config"
	"github.com/weiawesome/track-resolver/pkg/middleware"
)

const (
	BackendYTMusic       = "ytmusic"
	BackendElasticsearch = "elasticsearch"
)

type Config struct {
	Server  ServerConfig
	CORS    middleware.CORSConfig `mapstructure:"cors"`
	Catalog CatalogConfig
	Log     LogConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	RoutePrefixes   []string      `mapstructure:"route_prefixes"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type CatalogConfig struct {
	Backend       string
	Timeout       time.Duration
	YTMusic       YTMusicConfig       `mapstructure:"ytmusic"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

type YTMusicConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	ClientVersion string `mapstructure:"client_version"`
	Language      string `mapstructure:"language"`
	UserAgent     string `mapstructure:"user_agent"`
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Index     string   `mapstructure:"index"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

type LogConfig struct {
	Level string
}

// Load reads configuration from file (optional) and environment.
func Load(file string) (*Config, error) {
	v, err := pkgconfig.Load(file, "./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.route_prefixes", []string{"", "/api"})
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("cors.allow_origins", []string{"*"})
	v.SetDefault("cors.allow_methods", []string{"*"})
	v.SetDefault("cors.allow_headers", []string{"*"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("catalog.backend", BackendYTMusic)
	v.SetDefault("catalog.timeout", "10s")
	v.SetDefault("catalog.ytmusic.base_url", "https://music.youtube.com/youtubei/v1")
	v.SetDefault("catalog.ytmusic.client_version", "1.20241023.01.00")
	v.SetDefault("catalog.ytmusic.language", "en")
	v.SetDefault("catalog.ytmusic.user_agent", "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0")
	v.SetDefault("catalog.elasticsearch.addresses", []string{"http://localhost:9200"})
	v.SetDefault("catalog.elasticsearch.index", "tracks")
	v.SetDefault("log.level", "info")

	// Bind environment variables
	v.BindEnv("server.host", "HOST")
	v.BindEnv("server.port", "PORT")
	v.BindEnv("catalog.backend", "CATALOG_BACKEND")
	v.BindEnv("catalog.timeout", "CATALOG_TIMEOUT")
	v.BindEnv("catalog.elasticsearch.addresses", "ES_ADDRESSES")
	v.BindEnv("catalog.elasticsearch.index", "ES_INDEX")
	v.BindEnv("catalog.elasticsearch.username", "ES_USERNAME")
	v.BindEnv("catalog.elasticsearch.password", "ES_PASSWORD")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that defaults cannot fix.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Catalog.Timeout < 0 {
		return fmt.Errorf("invalid catalog timeout %s", c.Catalog.Timeout)
	}

	switch c.Catalog.Backend {
	case BackendYTMusic:
		if c.Catalog.YTMusic.BaseURL == "" {
			return fmt.Errorf("catalog.ytmusic.base_url is required")
		}
	case BackendElasticsearch:
		if len(c.Catalog.Elasticsearch.Addresses) == 0 {
			return fmt.Errorf("catalog.elasticsearch.addresses is required")
		}
		if c.Catalog.Elasticsearch.Index == "" {
			return fmt.Errorf("catalog.elasticsearch.index is required")
		}
	default:
		return fmt.Errorf("unknown catalog backend %q", c.Catalog.Backend)
	}

	return nil
}
