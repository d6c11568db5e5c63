package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
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
	ProviderLog    = "log"
	ProviderTwilio = "twilio"
)

// DefaultHashSecret is the placeholder secret shipped in defaults.
const DefaultHashSecret = "change-me"

type ServerConfig struct {
	Address     string `mapstructure:"address"`
	Environment string `mapstructure:"environment"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type StorageConfig struct {
	DataDir    string `mapstructure:"data_dir"`
	LogDir     string `mapstructure:"log_dir"`
	HashSecret string `mapstructure:"hash_secret"`
}

type WorkersConfig struct {
	CheckInterval    time.Duration `mapstructure:"check_interval"`
	RotationInterval time.Duration `mapstructure:"rotation_interval"`
	CheckConcurrency int           `mapstructure:"check_concurrency"`
}

type TwilioConfig struct {
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	From       string `mapstructure:"from"`
	BaseURL    string `mapstructure:"base_url"`
}

type NotifyConfig struct {
	Provider         string        `mapstructure:"provider"`
	RatePerSecond    float64       `mapstructure:"rate_per_second"`
	Burst            int           `mapstructure:"burst"`
	BreakerThreshold int           `mapstructure:"breaker_threshold"`
	BreakerReset     time.Duration `mapstructure:"breaker_reset"`
	Twilio           TwilioConfig  `mapstructure:"twilio"`
}

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Storage StorageConfig `mapstructure:"storage"`
	Workers WorkersConfig `mapstructure:"workers"`
	Notify  NotifyConfig  `mapstructure:"notify"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.environment", EnvDev)
	v.SetDefault("server.address", ":8080")

	v.SetDefault("logging.level", LogLevelInfo)

	v.SetDefault("storage.data_dir", ".data")
	v.SetDefault("storage.log_dir", ".log")
	v.SetDefault("storage.hash_secret", DefaultHashSecret)

	v.SetDefault("workers.check_interval", "1m")
	v.SetDefault("workers.rotation_interval", "24h")
	v.SetDefault("workers.check_concurrency", 0)

	v.SetDefault("notify.provider", ProviderLog)
	v.SetDefault("notify.rate_per_second", 1.0)
	v.SetDefault("notify.burst", 1)
	v.SetDefault("notify.breaker_threshold", 5)
	v.SetDefault("notify.breaker_reset", "1m")
	v.SetDefault("notify.twilio.account_sid", "")
	v.SetDefault("notify.twilio.auth_token", "")
	v.SetDefault("notify.twilio.from", "")
	v.SetDefault("notify.twilio.base_url", "https://api.twilio.com")
}

// Load reads .env (if present), then config.yaml from ./config or the
// working directory, then environment variables such as
// WORKERS_CHECK_INTERVAL or NOTIFY_TWILIO_AUTH_TOKEN.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to read .env file", slog.String("error", err.Error()))
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Info("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	if cfg.Storage.HashSecret == DefaultHashSecret {
		slog.Warn("using the default hash secret, set STORAGE_HASH_SECRET in production")
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server, validation.By(func(value interface{}) error {
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
		})),
		validation.Field(&c.Logging, validation.By(func(value interface{}) error {
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
		})),
		validation.Field(&c.Storage, validation.By(func(value interface{}) error {
			sc, ok := value.(StorageConfig)
			if !ok {
				return validation.NewError("validation_invalid_type", "must be a StorageConfig")
			}
			return validation.ValidateStruct(&sc,
				validation.Field(&sc.DataDir, validation.Required),
				validation.Field(&sc.LogDir, validation.Required),
				validation.Field(&sc.HashSecret, validation.Required),
			)
		})),
		validation.Field(&c.Workers, validation.By(func(value interface{}) error {
			wc, ok := value.(WorkersConfig)
			if !ok {
				return validation.NewError("validation_invalid_type", "must be a WorkersConfig")
			}
			return validation.ValidateStruct(&wc,
				validation.Field(&wc.CheckInterval, validation.Required, validation.Min(time.Second)),
				validation.Field(&wc.RotationInterval, validation.Required, validation.Min(time.Minute)),
				validation.Field(&wc.CheckConcurrency, validation.Min(0)),
			)
		})),
		validation.Field(&c.Notify, validation.By(func(value interface{}) error {
			nc, ok := value.(NotifyConfig)
			if !ok {
				return validation.NewError("validation_invalid_type", "must be a NotifyConfig")
			}
			return validateNotify(nc)
		})),
	)
}

func validateNotify(nc NotifyConfig) error {
	twilio := nc.Provider == ProviderTwilio
	return validation.ValidateStruct(&nc,
		validation.Field(&nc.Provider,
			validation.Required,
			validation.In(ProviderLog, ProviderTwilio),
		),
		validation.Field(&nc.RatePerSecond, validation.Required, validation.Min(0.001)),
		validation.Field(&nc.Burst, validation.Required, validation.Min(1)),
		validation.Field(&nc.BreakerThreshold, validation.Required, validation.Min(1)),
		validation.Field(&nc.BreakerReset, validation.Required, validation.Min(time.Second)),
		validation.Field(&nc.Twilio, validation.By(func(value interface{}) error {
			tc, ok := value.(TwilioConfig)
			if !ok {
				return validation.NewError("validation_invalid_type", "must be a TwilioConfig")
			}
			return validation.ValidateStruct(&tc,
				validation.Field(&tc.AccountSID, validation.When(twilio, validation.Required)),
				validation.Field(&tc.AuthToken, validation.When(twilio, validation.Required)),
				validation.Field(&tc.From, validation.When(twilio, validation.Required)),
				validation.Field(&tc.BaseURL, validation.When(twilio, validation.Required, validation.By(validateServerURL))),
			)
		})),
	)
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

func validateServerURL(value interface{}) error {
	serverURL, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
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
