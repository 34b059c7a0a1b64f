package config

import (
	"errors"
	"log/slog"
	"net"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"

	"github.com/angeloszaimis/edge-filter/internal/filter"
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

const DefaultAllowedHost = filter.DefaultAllowedHost

type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	Environment  string        `mapstructure:"environment"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// StaticRoute is one fixed page. Path is matched after the leading slash
// is removed, so the root page has an empty path.
type StaticRoute struct {
	Path string `mapstructure:"path"`
	Body string `mapstructure:"body"`
}

type FilterConfig struct {
	AllowedHost  string        `mapstructure:"allowed_host"`
	StaticRoutes []StaticRoute `mapstructure:"static_routes"`
}

type CircuitBreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Threshold    int           `mapstructure:"threshold"`
	ResetTimeout time.Duration `mapstructure:"reset_timeout"`
}

type UpstreamConfig struct {
	Timeout        time.Duration        `mapstructure:"timeout"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

type MetricsConfig struct {
	Address    string `mapstructure:"address"`
	BufferSize int    `mapstructure:"buffer_size"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Filter   FilterConfig   `mapstructure:"filter"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// SetDefaults registers every key so environment variables can override
// them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.environment", EnvDev)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "0s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("logging.level", LogLevelInfo)
	v.SetDefault("filter.allowed_host", DefaultAllowedHost)
	v.SetDefault("filter.static_routes", defaultStaticRoutes())
	v.SetDefault("upstream.timeout", "0s")
	v.SetDefault("upstream.circuit_breaker.enabled", false)
	v.SetDefault("upstream.circuit_breaker.threshold", 5)
	v.SetDefault("upstream.circuit_breaker.reset_timeout", "30s")
	v.SetDefault("metrics.address", "")
	v.SetDefault("metrics.buffer_size", 1000)
}

// Load reads configuration into v. An explicit configFile must exist;
// otherwise config.yaml is looked up in ./config and the working directory
// and may be absent.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

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

	return &cfg, nil
}

func defaultStaticRoutes() []map[string]any {
	var routes []map[string]any
	for path, body := range filter.DefaultRoutes() {
		routes = append(routes, map[string]any{"path": path, "body": body})
	}
	return routes
}

// Routes returns the static routes as a lookup map. Later entries win.
func (f FilterConfig) Routes() map[string]string {
	routes := make(map[string]string, len(f.StaticRoutes))
	for _, r := range f.StaticRoutes {
		routes[r.Path] = r.Body
	}
	return routes
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server,
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
					validation.Field(&sc.ReadTimeout, validation.Min(time.Duration(0))),
					validation.Field(&sc.WriteTimeout, validation.Min(time.Duration(0))),
					validation.Field(&sc.IdleTimeout, validation.Min(time.Duration(0))),
				)
			}),
		),
		validation.Field(&c.Logging,
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
		validation.Field(&c.Filter,
			validation.By(func(value interface{}) error {
				fc, ok := value.(FilterConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a FilterConfig")
				}
				return validation.ValidateStruct(&fc,
					validation.Field(&fc.AllowedHost,
						validation.Required,
						validation.By(validateNoWhitespace),
					),
					validation.Field(&fc.StaticRoutes,
						validation.Each(validation.By(validateStaticRoute)),
					),
				)
			}),
		),
		validation.Field(&c.Upstream,
			validation.By(func(value interface{}) error {
				uc, ok := value.(UpstreamConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be an UpstreamConfig")
				}
				cb := uc.CircuitBreaker
				return validation.ValidateStruct(&uc,
					validation.Field(&uc.Timeout, validation.Min(time.Duration(0))),
					validation.Field(&uc.CircuitBreaker,
						validation.When(cb.Enabled, validation.By(func(interface{}) error {
							return validation.ValidateStruct(&cb,
								validation.Field(&cb.Threshold, validation.Required, validation.Min(1)),
								validation.Field(&cb.ResetTimeout, validation.Required, validation.Min(time.Millisecond)),
							)
						})),
					),
				)
			}),
		),
		validation.Field(&c.Metrics,
			validation.By(func(value interface{}) error {
				mc, ok := value.(MetricsConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a MetricsConfig")
				}
				return validation.ValidateStruct(&mc,
					validation.Field(&mc.Address,
						validation.When(mc.Address != "", validation.By(validateHostPort)),
						validation.When(mc.Address != "" && mc.Address == c.Server.Address,
							validation.By(func(interface{}) error {
								return validation.NewError("validation_address_in_use", "must differ from server.address")
							}),
						),
					),
					validation.Field(&mc.BufferSize, validation.Required, validation.Min(1)),
				)
			}),
		),
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

func validateNoWhitespace(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if strings.TrimSpace(s) != s || strings.ContainsAny(s, " \t\r\n") {
		return validation.NewError("validation_whitespace", "must not contain whitespace")
	}

	return nil
}

func validateStaticRoute(value interface{}) error {
	route, ok := value.(StaticRoute)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a StaticRoute")
	}

	if route.Path == "robots.txt" {
		return validation.NewError("validation_reserved_path", "robots.txt is served by the filter")
	}

	return nil
}
