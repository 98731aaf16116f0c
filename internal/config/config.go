package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/netutil"
)

const envPrefix = "RELAY"

type Config struct {
	Mode          string            `mapstructure:"mode"`
	Port          int               `mapstructure:"port"`
	PublicHost    string            `mapstructure:"public_host"`
	PublicURL     string            `mapstructure:"public_url"`
	StaticPath    string            `mapstructure:"static_path"`
	ReadLimit     int64             `mapstructure:"read_limit"`
	PingPeriod    time.Duration     `mapstructure:"ping_period"`
	PongWait      time.Duration     `mapstructure:"pong_wait"`
	WriteWait     time.Duration     `mapstructure:"write_wait"`
	SendBuffer    int               `mapstructure:"send_buffer"`
	Secret        string            `mapstructure:"secret"`
	SessionTTL    time.Duration     `mapstructure:"session_ttl"`
	SweepInterval time.Duration     `mapstructure:"sweep_interval"`
	Backpressure  string            `mapstructure:"backpressure"`
	RateLimit     RateLimitConfig   `mapstructure:"rate_limit"`
	CORS          CORSConfig        `mapstructure:"cors"`
	ICEServers    []ICEServerConfig `mapstructure:"ice_servers"`
	Log           LogConfig         `mapstructure:"log"`
	Metrics       MetricsConfig     `mapstructure:"metrics"`
}

type RateLimitConfig struct {
	PerSecond float64 `mapstructure:"per_second"`
	Burst     int     `mapstructure:"burst"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type ICEServerConfig struct {
	URLs       []string `mapstructure:"urls"`
	Username   string   `mapstructure:"username"`
	Credential string   `mapstructure:"credential"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"port":         "port",
	"mode":         "mode",
	"public-host":  "public_host",
	"public-url":   "public_url",
	"static-path":  "static_path",
	"session-ttl":  "session_ttl",
	"backpressure": "backpressure",
	"log-level":    "log.level",
	"log-format":   "log.format",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 3000)
	v.SetDefault("public_host", "")
	v.SetDefault("public_url", "")
	v.SetDefault("static_path", "./public")
	v.SetDefault("read_limit", 65536)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("write_wait", "10s")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("secret", "")
	v.SetDefault("session_ttl", "1h")
	v.SetDefault("sweep_interval", "5m")
	v.SetDefault("backpressure", "kick")
	v.SetDefault("rate_limit.per_second", 50)
	v.SetDefault("rate_limit.burst", 100)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 7)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "mirror_relay")
}

// Load reads config/config.<CONFIG_ENV>.yaml, or path when given, then applies
// RELAY_* environment variables and any flags that were set.
// A missing default file falls back to defaults; a missing explicit path is an error.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	explicit := path != ""
	if !explicit {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		path = fmt.Sprintf("config/config.%s.yaml", env)
	}
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if explicit {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		log.Warn().Str("module", "config").Str("file", path).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", path).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Secret == "" {
		cfg.Secret = uuid.NewString()
		log.Warn().Str("module", "config").Msg("no secret configured, cookie sessions will not survive a restart")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).
		Dur("session_ttl", cfg.SessionTTL).Dur("sweep_interval", cfg.SweepInterval).Msg("config ready")
	return &cfg, nil
}

var ErrInvalidConfig = errors.New("invalid config")

func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("session_ttl must be positive"))
	}
	if c.SweepInterval <= 0 {
		errs = append(errs, errors.New("sweep_interval must be positive"))
	}
	if c.PingPeriod <= 0 || c.PongWait <= c.PingPeriod {
		errs = append(errs, errors.New("pong_wait must be longer than a positive ping_period"))
	}
	if c.WriteWait <= 0 {
		errs = append(errs, errors.New("write_wait must be positive"))
	}
	if c.SendBuffer <= 0 {
		errs = append(errs, errors.New("send_buffer must be positive"))
	}
	if c.ReadLimit <= 0 {
		errs = append(errs, errors.New("read_limit must be positive"))
	}
	switch c.Backpressure {
	case "drop", "kick":
	default:
		errs = append(errs, fmt.Errorf("backpressure %q: want drop or kick", c.Backpressure))
	}
	if c.RateLimit.PerSecond < 0 || c.RateLimit.Burst < 0 {
		errs = append(errs, errors.New("rate_limit values must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// PublicAddress is the relay address written into descriptors.
func (c *Config) PublicAddress() string {
	if c.PublicURL != "" {
		return strings.TrimRight(c.PublicURL, "/")
	}
	host := c.PublicHost
	if host == "" {
		if ip, ok := netutil.LocalIPv4(); ok {
			host = ip
		} else {
			host = "localhost"
		}
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(c.Port))
}
