package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/proffdata/import-cli/internal/api"
	"github.com/proffdata/import-cli/internal/objstore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig     `yaml:"store" mapstructure:"store"`
	Objects objstore.Config `yaml:"objects" mapstructure:"objects"`
	Import  ImportConfig    `yaml:"import" mapstructure:"import"`
	Server  ServerConfig    `yaml:"server" mapstructure:"server"`
	Log     LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ImportConfig configures the import pipeline.
type ImportConfig struct {
	Prefix        string `yaml:"prefix" mapstructure:"prefix"`
	TempDir       string `yaml:"temp_dir" mapstructure:"temp_dir"`
	ChunkSize     int    `yaml:"chunk_size" mapstructure:"chunk_size"`
	AliasFile     string `yaml:"alias_file" mapstructure:"alias_file"`
	MaxConcurrent int    `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// ServerConfig configures the status API server.
type ServerConfig struct {
	Port           int                   `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string              `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	Tokens         map[string]api.Caller `yaml:"tokens" mapstructure:"tokens"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("IMPORTCLI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "import.db")
	v.SetDefault("objects.driver", "local")
	v.SetDefault("objects.dir", "uploads")
	v.SetDefault("import.prefix", "imports/")
	v.SetDefault("import.chunk_size", 500)
	v.SetDefault("import.max_concurrent", 4)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
