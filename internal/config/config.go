package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ServerConf struct {
	Port            int    `mapstructure:"port"`
	Mode            string `mapstructure:"mode"`
	ShutdownSeconds int    `mapstructure:"shutdown_seconds"`
}

type MongoConf struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type JWTConf struct {
	Secret           string `mapstructure:"secret"`
	ExpiresInSeconds int    `mapstructure:"expires_in_seconds"`
}

type StorageConf struct {
	UploadDir string `mapstructure:"upload_dir"`
}

type MicrosoftConf struct {
	TenantID     string `mapstructure:"tenant_id"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

type WebConf struct {
	FrontendURL  string `mapstructure:"frontend_url"`
	AllowOrigins string `mapstructure:"allow_origins"`
}

type RateLimitConf struct {
	PerMinute int `mapstructure:"per_minute"`
	Burst     int `mapstructure:"burst"`
}

type Config struct {
	Server    ServerConf    `mapstructure:"server"`
	Mongo     MongoConf     `mapstructure:"mongodb"`
	JWT       JWTConf       `mapstructure:"jwt"`
	Storage   StorageConf   `mapstructure:"storage"`
	Microsoft MicrosoftConf `mapstructure:"microsoft"`
	Web       WebConf       `mapstructure:"web"`
	RateLimit RateLimitConf `mapstructure:"rate_limit"`

	// derived
	ShutdownTimeout time.Duration
	TokenTTL        time.Duration
	CORSOrigins     []string
}

// Load reads an optional YAML file and lets environment variables override
// any key (SERVER_PORT, MONGODB_URI, JWT_SECRET, ...).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "dev"
	}
	if cfg.Server.ShutdownSeconds == 0 {
		cfg.Server.ShutdownSeconds = 15
	}
	cfg.ShutdownTimeout = time.Duration(cfg.Server.ShutdownSeconds) * time.Second

	if cfg.Mongo.URI == "" {
		cfg.Mongo.URI = "mongodb://localhost:27017"
	}
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = "noteflow"
	}

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt.secret is required")
	}
	if cfg.JWT.ExpiresInSeconds == 0 {
		cfg.JWT.ExpiresInSeconds = 86400
	}
	cfg.TokenTTL = time.Duration(cfg.JWT.ExpiresInSeconds) * time.Second

	if cfg.Storage.UploadDir == "" {
		cfg.Storage.UploadDir = "./uploads"
	}

	if cfg.Microsoft.TenantID == "" {
		cfg.Microsoft.TenantID = "common"
	}

	if cfg.RateLimit.PerMinute == 0 {
		cfg.RateLimit.PerMinute = 60
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 5
	}

	cfg.CORSOrigins = splitOrigins(cfg.Web.AllowOrigins)
	if cfg.Web.FrontendURL == "" && len(cfg.CORSOrigins) > 0 {
		cfg.Web.FrontendURL = cfg.CORSOrigins[0]
	}
	if cfg.Web.FrontendURL == "" {
		cfg.Web.FrontendURL = "http://localhost:3000"
	}

	return &cfg, nil
}

func splitOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{"http://localhost:3000"}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
