// Package config loads server and engine settings from config.yaml, .env
// files and GROQPILOT_* environment variables.
package config

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const EnvPrefix = "GROQPILOT"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Events    EventsConfig    `mapstructure:"events"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Host        string   `mapstructure:"host" validate:"required"`
	Port        int      `mapstructure:"port" validate:"min=1,max=65535"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type LogConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format     string `mapstructure:"format" validate:"oneof=text json"` // json, text
	Output     string `mapstructure:"output" validate:"oneof=stdout file both"`
	FilePath   string `mapstructure:"file_path" validate:"required_unless=Output stdout"`
	MaxSize    int    `mapstructure:"max_size"`    // MB
	MaxBackups int    `mapstructure:"max_backups"` // number of backup files
	MaxAge     int    `mapstructure:"max_age"`     // days
	Compress   bool   `mapstructure:"compress"`
}

type StorageConfig struct {
	Driver  string `mapstructure:"driver" validate:"oneof=memory sqlite postgres"`
	DSN     string `mapstructure:"dsn" validate:"required_unless=Driver memory"`
	Migrate bool   `mapstructure:"migrate"`
}

type EventsConfig struct {
	BufferSize int  `mapstructure:"buffer_size" validate:"min=1"`
	Stdout     bool `mapstructure:"stdout"` // line protocol for a desktop shell
	Log        bool `mapstructure:"log"`
}

type EngineConfig struct {
	MaxConcurrent     int           `mapstructure:"max_concurrent" validate:"min=0"`
	StepTimeout       time.Duration `mapstructure:"step_timeout" validate:"min=0"`
	GateWorkflowSteps bool          `mapstructure:"gate_workflow_steps"`
}

type SchedulerConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval" validate:"required_if=Enabled true"`
}

type ProvidersConfig struct {
	Latency   time.Duration `mapstructure:"latency" validate:"min=0"`
	FilesRoot string        `mapstructure:"files_root"`
}

type TelemetryConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Path      string `mapstructure:"path" validate:"required_if=Enabled true"`
	Namespace string `mapstructure:"namespace"`
}

type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	Exporter     string  `mapstructure:"exporter" validate:"oneof=otlp stdout"`
	Endpoint     string  `mapstructure:"endpoint"` // OTLP gRPC host:port
	Insecure     bool    `mapstructure:"insecure"`
	SamplingRate float64 `mapstructure:"sampling_rate" validate:"min=0,max=1"`
	ServiceName  string  `mapstructure:"service_name"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "both")
	v.SetDefault("log.file_path", "automation_server.log")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", false)

	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.migrate", true)

	v.SetDefault("events.buffer_size", 256)
	v.SetDefault("events.stdout", false)
	v.SetDefault("events.log", true)

	v.SetDefault("engine.max_concurrent", 0)
	v.SetDefault("engine.step_timeout", time.Duration(0))
	v.SetDefault("engine.gate_workflow_steps", false)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.interval", 30*time.Second)

	v.SetDefault("providers.latency", time.Duration(0))
	v.SetDefault("providers.files_root", "")

	v.SetDefault("telemetry.metrics.enabled", true)
	v.SetDefault("telemetry.metrics.path", "/metrics")
	v.SetDefault("telemetry.metrics.namespace", "groqpilot")
	v.SetDefault("telemetry.tracing.enabled", false)
	v.SetDefault("telemetry.tracing.exporter", "otlp")
	v.SetDefault("telemetry.tracing.endpoint", "localhost:4317")
	v.SetDefault("telemetry.tracing.insecure", true)
	v.SetDefault("telemetry.tracing.sampling_rate", 1.0)
	v.SetDefault("telemetry.tracing.service_name", "groqpilot")
}

// New returns a viper instance with defaults, env binding and config search paths.
// An explicit cfgFile replaces the search.
func New(cfgFile string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.groqpilot")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads .env (when present), the config file and the environment, then
// validates the result. A missing config file is not an error unless it was
// named explicitly.
func Load(cfgFile string) (*Config, *viper.Viper, error) {
	// .env is optional.
	_ = godotenv.Load()

	v := New(cfgFile)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, nil, errors.Wrap(err, "read config")
		}
	}
	cfg, err := FromViper(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}
