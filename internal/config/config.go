package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the configuration for the application.
type Config struct {
	Environment   string `mapstructure:"environment"`
	DevModeBypass bool   `mapstructure:"dev_mode_bypass"`
	Log           struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
	Server struct {
		Address         string        `mapstructure:"address"`
		ReadTimeout     time.Duration `mapstructure:"read_timeout"`
		WriteTimeout    time.Duration `mapstructure:"write_timeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"server"`
	DB struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
	} `mapstructure:"db"`
	MLSidecar struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"ml_sidecar"`
	Sandbox struct {
		URL      string        `mapstructure:"url"`
		APIKey   string        `mapstructure:"api_key"`
		Timeout  time.Duration `mapstructure:"timeout"`
		Template string        `mapstructure:"template"`
	} `mapstructure:"sandbox"`
	Discussions struct {
		Driver     string `mapstructure:"driver"`
		BadgerPath string `mapstructure:"badger_path"`
		TopK       int    `mapstructure:"top_k"`
	} `mapstructure:"discussions"`
	Workflows struct {
		Namespace string `mapstructure:"namespace"`
	} `mapstructure:"workflows"`
	Auth struct {
		OktaDomain string `mapstructure:"okta_domain"`
		ClientID   string `mapstructure:"client_id"`
	} `mapstructure:"auth"`
}

// Discussion store drivers.
const (
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
	DriverNone     = "none"
)

// BuiltinNamespace selects the workflow definitions compiled into the binary.
const BuiltinNamespace = "builtin"

var (
	ErrUnknownDriver   = errors.New("unknown discussions driver")
	ErrMissingSandbox  = errors.New("sandbox url is required")
	ErrInvalidTopK     = errors.New("discussions top_k must be positive")
	ErrMissingIssuer   = errors.New("auth okta_domain is required unless dev_mode_bypass is set in DEV")
	ErrMissingDatabase = errors.New("db host is required for the postgres driver")
)

// LoadConfig loads the configuration from a file and the environment. An
// empty path searches for config.yaml in . and ./config; a missing file is
// not an error so the service can run from environment variables alone.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// An explicitly empty variable clears a file value, e.g. ML_SIDECAR_URL="".
	v.AllowEmptyEnv(true)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	// normalize OKTA issuer url (strip trailing slash if any)
	config.Auth.OktaDomain = normalizeOktaIssuer(config.Auth.OktaDomain)
	config.Discussions.Driver = strings.ToLower(strings.TrimSpace(config.Discussions.Driver))

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "DEV")
	v.SetDefault("dev_mode_bypass", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("db.host", "")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("ml_sidecar.url", "")
	v.SetDefault("sandbox.url", "http://localhost:49999")
	v.SetDefault("sandbox.api_key", "")
	v.SetDefault("sandbox.timeout", 2*time.Minute)
	v.SetDefault("sandbox.template", "")
	v.SetDefault("discussions.driver", DriverBadger)
	v.SetDefault("discussions.badger_path", "./data/discussions")
	v.SetDefault("discussions.top_k", 5)
	v.SetDefault("workflows.namespace", BuiltinNamespace)
	v.SetDefault("auth.okta_domain", "")
	v.SetDefault("auth.client_id", "")
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Sandbox.URL) == "" {
		return ErrMissingSandbox
	}
	switch c.Discussions.Driver {
	case DriverPostgres:
		if c.DB.Host == "" {
			return ErrMissingDatabase
		}
	case DriverBadger, DriverNone:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Discussions.Driver)
	}
	if c.Discussions.TopK <= 0 {
		return ErrInvalidTopK
	}
	if !c.AuthBypassed() && c.Auth.OktaDomain == "" {
		return ErrMissingIssuer
	}
	return nil
}

// AuthBypassed reports whether bearer verification is skipped.
func (c *Config) AuthBypassed() bool {
	return strings.EqualFold(c.Environment, "DEV") && c.DevModeBypass
}

// DatabaseURL renders the pgx connection string.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode,
	)
}

// normalizeOktaIssuer ensures the provided Okta issuer string is in a
// predictable form. It removes any trailing slash and leaves the scheme and
// path intact.
func normalizeOktaIssuer(input string) string {
	return strings.TrimRight(strings.TrimSpace(input), "/")
}
