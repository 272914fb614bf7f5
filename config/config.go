package config

import (
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

const (
	WebhookFormatSlack   = "slack"
	WebhookFormatDiscord = "discord"
)

type ServerConfig struct {
	Address     string `mapstructure:"address"`
	Environment string `mapstructure:"environment"`
}

type UpstreamConfig struct {
	Primary string `mapstructure:"primary"`
	Backup  string `mapstructure:"backup"`
}

type HealthCheckConfig struct {
	Interval         string `mapstructure:"interval"`
	Timeout          string `mapstructure:"timeout"`
	Path             string `mapstructure:"path"`
	FailThreshold    int    `mapstructure:"fail_threshold"`
	RecoverThreshold int    `mapstructure:"recover_threshold"`
}

type ProxyConfig struct {
	MaxBodySize string `mapstructure:"max_body_size"`
	Timeout     string `mapstructure:"timeout"`
}

type WebhookConfig struct {
	URL    string `mapstructure:"url"`
	Format string `mapstructure:"format"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Upstream    UpstreamConfig    `mapstructure:"upstream"`
	HealthCheck HealthCheckConfig `mapstructure:"health_check"`
	Proxy       ProxyConfig       `mapstructure:"proxy"`
	Webhook     WebhookConfig     `mapstructure:"webhook"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

func Load() (*Config, error) {
	viper.SetDefault("server.environment", EnvDev)
	viper.SetDefault("server.address", ":8080")
	// Registered empty so AutomaticEnv can supply them without a config file.
	viper.SetDefault("upstream.primary", "")
	viper.SetDefault("upstream.backup", "")
	viper.SetDefault("webhook.url", "")
	viper.SetDefault("health_check.interval", "2s")
	viper.SetDefault("health_check.timeout", "5s")
	viper.SetDefault("health_check.path", "")
	viper.SetDefault("health_check.fail_threshold", 3)
	viper.SetDefault("health_check.recover_threshold", 2)
	viper.SetDefault("proxy.max_body_size", "10MB")
	viper.SetDefault("proxy.timeout", "30s")
	viper.SetDefault("webhook.format", WebhookFormatSlack)
	viper.SetDefault("logging.level", LogLevelInfo)

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Info("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", viper.ConfigFileUsed()))
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(ServerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ServerConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Environment,
						validation.Required,
						validation.In(EnvDev, EnvStaging, EnvProd),
					),
					validation.Field(&sc.Address,
						validation.Required,
						validation.By(validateHostPort),
					),
				)
			}),
		),
		validation.Field(&c.Upstream,
			validation.Required,
			validation.By(func(value interface{}) error {
				uc, ok := value.(UpstreamConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be an UpstreamConfig")
				}
				return validation.ValidateStruct(&uc,
					validation.Field(&uc.Primary,
						validation.Required,
						validation.By(validateServerURL),
					),
					validation.Field(&uc.Backup,
						validation.Required,
						validation.By(validateServerURL),
					),
				)
			}),
		),
		validation.Field(&c.HealthCheck,
			validation.Required,
			validation.By(func(value interface{}) error {
				hc, ok := value.(HealthCheckConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a HealthCheckConfig")
				}
				return validation.ValidateStruct(&hc,
					validation.Field(&hc.Interval,
						validation.Required,
						validation.By(validateDuration),
					),
					validation.Field(&hc.Timeout,
						validation.Required,
						validation.By(validateDuration),
					),
					validation.Field(&hc.FailThreshold,
						validation.Required,
						validation.Min(1),
					),
					validation.Field(&hc.RecoverThreshold,
						validation.Required,
						validation.Min(1),
					),
				)
			}),
		),
		validation.Field(&c.Proxy,
			validation.Required,
			validation.By(func(value interface{}) error {
				pc, ok := value.(ProxyConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ProxyConfig")
				}
				return validation.ValidateStruct(&pc,
					validation.Field(&pc.MaxBodySize,
						validation.Required,
						validation.By(validateSize),
					),
					validation.Field(&pc.Timeout,
						validation.Required,
						validation.By(validateDuration),
					),
				)
			}),
		),
		validation.Field(&c.Webhook,
			validation.By(func(value interface{}) error {
				wc, ok := value.(WebhookConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a WebhookConfig")
				}
				return validation.ValidateStruct(&wc,
					validation.Field(&wc.URL,
						validation.When(wc.URL != "", validation.By(validateServerURL)),
					),
					validation.Field(&wc.Format,
						validation.Required,
						validation.In(WebhookFormatSlack, WebhookFormatDiscord),
					),
				)
			}),
		),
		validation.Field(&c.Logging,
			validation.Required,
			validation.By(func(value interface{}) error {
				lc, ok := value.(LoggingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
				}
				return validation.ValidateStruct(&lc,
					validation.Field(&lc.Level,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
				)
			}),
		),
	)
}

// IntervalDuration returns the parsed health check interval. Validate must
// have succeeded before calling any of the typed accessors.
func (c *HealthCheckConfig) IntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.Interval)
	return d
}

func (c *HealthCheckConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

func (c *ProxyConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

func (c *ProxyConfig) MaxBodyBytes() int64 {
	n, _ := ParseSize(c.MaxBodySize)
	return n
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if _, err := time.ParseDuration(durationStr); err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 2s, 5m, 1h)")
	}

	return nil
}

func validateServerURL(value interface{}) error {
	serverURL, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if serverURL == "" {
		return validation.NewError("validation_empty_url", "URL cannot be empty")
	}

	parsedURL, err := url.Parse(serverURL)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}

	if parsedURL.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}

	return nil
}

func validateSize(value interface{}) error {
	sizeStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if _, err := ParseSize(sizeStr); err != nil {
		return validation.NewError("validation_invalid_size", "must be a valid size (e.g., 512KB, 10MB, 1GB)")
	}

	return nil
}
