package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Flare       FlareConfig       `yaml:"flare" mapstructure:"flare"`
	Correlation CorrelationConfig `yaml:"correlation" mapstructure:"correlation"`
	Batch       BatchConfig       `yaml:"batch" mapstructure:"batch"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the observation database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// FlareConfig holds the tunable constants of the flare detector. Defaults
// live in the flare package next to the algorithm.
type FlareConfig struct {
	BaselineWindowDays  int     `yaml:"baseline_window_days" mapstructure:"baseline_window_days"`
	FlareMargin         float64 `yaml:"flare_margin" mapstructure:"flare_margin"`
	MinEpisodeDays      int     `yaml:"min_episode_days" mapstructure:"min_episode_days"`
	ProvisionalMinDays  int     `yaml:"provisional_min_days" mapstructure:"provisional_min_days"`
	MatureMinDays       int     `yaml:"mature_min_days" mapstructure:"mature_min_days"`
	ResolvingWindowDays int     `yaml:"resolving_window_days" mapstructure:"resolving_window_days"`
}

// CorrelationConfig holds the tunable constants of the trigger analyzer.
type CorrelationConfig struct {
	ReactionWindowDays      int     `yaml:"reaction_window_days" mapstructure:"reaction_window_days"`
	LocalBaselineRadiusDays int     `yaml:"local_baseline_radius_days" mapstructure:"local_baseline_radius_days"`
	MinExposures            int     `yaml:"min_exposures" mapstructure:"min_exposures"`
	WorseDelta              float64 `yaml:"worse_delta" mapstructure:"worse_delta"`
	BetterDelta             float64 `yaml:"better_delta" mapstructure:"better_delta"`
	DominanceRatio          float64 `yaml:"dominance_ratio" mapstructure:"dominance_ratio"`
	MixedRatio              float64 `yaml:"mixed_ratio" mapstructure:"mixed_ratio"`
	FoodPrefix              string  `yaml:"food_prefix" mapstructure:"food_prefix"`
	ProductPrefix           string  `yaml:"product_prefix" mapstructure:"product_prefix"`
	IncludeGenericTags      bool    `yaml:"include_generic_tags" mapstructure:"include_generic_tags"`
}

// BatchConfig configures batch analysis over exported history files.
type BatchConfig struct {
	MaxConcurrentFiles int `yaml:"max_concurrent_files" mapstructure:"max_concurrent_files"`
}

// ServerConfig configures the read-only analysis API.
type ServerConfig struct {
	Port            int      `yaml:"port" mapstructure:"port"`
	RateLimitPerSec float64  `yaml:"rate_limit_per_sec" mapstructure:"rate_limit_per_sec"`
	RateBurst       int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	AllowedOrigins  []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
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
	v.SetEnvPrefix("FLARELOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "flarelog.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit_per_sec", 10.0)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("batch.max_concurrent_files", 4)
	v.SetDefault("flare.baseline_window_days", 14)
	v.SetDefault("flare.flare_margin", 0.5)
	v.SetDefault("flare.min_episode_days", 3)
	v.SetDefault("flare.provisional_min_days", 7)
	v.SetDefault("flare.mature_min_days", 14)
	v.SetDefault("flare.resolving_window_days", 3)
	v.SetDefault("correlation.reaction_window_days", 3)
	v.SetDefault("correlation.local_baseline_radius_days", 7)
	v.SetDefault("correlation.min_exposures", 3)
	v.SetDefault("correlation.worse_delta", 0.5)
	v.SetDefault("correlation.better_delta", 0.5)
	v.SetDefault("correlation.dominance_ratio", 0.6)
	v.SetDefault("correlation.mixed_ratio", 0.5)
	v.SetDefault("correlation.food_prefix", "food:")
	v.SetDefault("correlation.product_prefix", "product:")
	v.SetDefault("correlation.include_generic_tags", true)

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
