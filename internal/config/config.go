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
	Store        StoreConfig        `yaml:"store" mapstructure:"store"`
	Overpass     OverpassConfig     `yaml:"overpass" mapstructure:"overpass"`
	Demographics DemographicsConfig `yaml:"demographics" mapstructure:"demographics"`
	Geocode      GeocodeConfig      `yaml:"geocode" mapstructure:"geocode"`
	Anthropic    AnthropicConfig    `yaml:"anthropic" mapstructure:"anthropic"`
	Strategy     StrategyConfig     `yaml:"strategy" mapstructure:"strategy"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the cache database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// OverpassConfig holds OSM Overpass API settings.
type OverpassConfig struct {
	Endpoint       string  `yaml:"endpoint" mapstructure:"endpoint"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
}

// DemographicsConfig holds the economic-indicator provider settings.
type DemographicsConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	APIKey      string `yaml:"api_key" mapstructure:"api_key"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Source      string `yaml:"source" mapstructure:"source"`
}

// GeocodeConfig holds forward-geocoding API settings.
type GeocodeConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Token   string `yaml:"token" mapstructure:"token"`
}

// AnthropicConfig holds Anthropic API settings for rationale generation.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ServerConfig configures the scoring HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// CoverageRadii holds white-space coverage radii in kilometers per area class.
type CoverageRadii struct {
	UrbanKM    float64 `yaml:"urban_km" mapstructure:"urban_km"`
	SuburbanKM float64 `yaml:"suburban_km" mapstructure:"suburban_km"`
	RuralKM    float64 `yaml:"rural_km" mapstructure:"rural_km"`
}

// DensityThresholds classifies a candidate's area by the number of stores
// within the sampling radius.
type DensityThresholds struct {
	SampleRadiusKM float64 `yaml:"sample_radius_km" mapstructure:"sample_radius_km"`
	UrbanMin       int     `yaml:"urban_min" mapstructure:"urban_min"`
	SuburbanMin    int     `yaml:"suburban_min" mapstructure:"suburban_min"`
}

// AnchorRadii holds POI query radii in meters per anchor category.
type AnchorRadii struct {
	TransportM int `yaml:"transport_m" mapstructure:"transport_m"`
	EducationM int `yaml:"education_m" mapstructure:"education_m"`
	RetailM    int `yaml:"retail_m" mapstructure:"retail_m"`
	ServiceM   int `yaml:"service_m" mapstructure:"service_m"`
}

// CacheTTLs holds per-domain cache lifetimes in hours.
type CacheTTLs struct {
	DemographicHours int `yaml:"demographic_hours" mapstructure:"demographic_hours"`
	POIHours         int `yaml:"poi_hours" mapstructure:"poi_hours"`
	ClusterHours     int `yaml:"cluster_hours" mapstructure:"cluster_hours"`
	ScoreHours       int `yaml:"score_hours" mapstructure:"score_hours"`
}

// StrategyConfig holds the weights and thresholds driving all four
// expansion strategies and the orchestrator.
type StrategyConfig struct {
	WhiteSpaceWeight float64 `yaml:"white_space_weight" mapstructure:"white_space_weight"`
	EconomicWeight   float64 `yaml:"economic_weight" mapstructure:"economic_weight"`
	AnchorWeight     float64 `yaml:"anchor_weight" mapstructure:"anchor_weight"`
	ClusterWeight    float64 `yaml:"cluster_weight" mapstructure:"cluster_weight"`

	EnabledStrategies []string `yaml:"enabled_strategies" mapstructure:"enabled_strategies"`

	Coverage CoverageRadii     `yaml:"coverage" mapstructure:"coverage"`
	Density  DensityThresholds `yaml:"density" mapstructure:"density"`
	Anchors  AnchorRadii       `yaml:"anchors" mapstructure:"anchors"`

	// EconomicReferenceScore is the raw economic score that normalizes to 100.
	EconomicReferenceScore float64 `yaml:"economic_reference_score" mapstructure:"economic_reference_score"`

	ClusterMinStores           int     `yaml:"cluster_min_stores" mapstructure:"cluster_min_stores"`
	ClusterMaxRadiusKM         float64 `yaml:"cluster_max_radius_km" mapstructure:"cluster_max_radius_km"`
	HighPerformerPercentile    float64 `yaml:"high_performer_percentile" mapstructure:"high_performer_percentile"`
	ClusterReferenceTurnover   float64 `yaml:"cluster_reference_turnover" mapstructure:"cluster_reference_turnover"`
	ClusterReferenceStoreCount int     `yaml:"cluster_reference_store_count" mapstructure:"cluster_reference_store_count"`
	ClusterMaxInfluenceKM      float64 `yaml:"cluster_max_influence_km" mapstructure:"cluster_max_influence_km"`

	TTL CacheTTLs `yaml:"ttl" mapstructure:"ttl"`

	MaxParallelism   int `yaml:"max_parallelism" mapstructure:"max_parallelism"`
	ScoreTimeoutSecs int `yaml:"score_timeout_secs" mapstructure:"score_timeout_secs"`
}

// WeightSum returns the sum of the four strategy weights.
func (c StrategyConfig) WeightSum() float64 {
	return c.WhiteSpaceWeight + c.EconomicWeight + c.AnchorWeight + c.ClusterWeight
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("EXPANSION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "expansion.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("overpass.endpoint", "https://overpass-api.de/api/interpreter")
	v.SetDefault("overpass.timeout_secs", 25)
	v.SetDefault("overpass.requests_per_sec", 2)
	v.SetDefault("demographics.timeout_secs", 15)
	v.SetDefault("demographics.source", "census")
	v.SetDefault("geocode.base_url", "https://api.mapbox.com/geocoding/v5/mapbox.places")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("strategy.white_space_weight", 0.3)
	v.SetDefault("strategy.economic_weight", 0.25)
	v.SetDefault("strategy.anchor_weight", 0.25)
	v.SetDefault("strategy.cluster_weight", 0.2)
	v.SetDefault("strategy.enabled_strategies", []string{"white_space", "economic", "anchor", "cluster"})
	v.SetDefault("strategy.coverage.urban_km", 2.0)
	v.SetDefault("strategy.coverage.suburban_km", 5.0)
	v.SetDefault("strategy.coverage.rural_km", 12.0)
	v.SetDefault("strategy.density.sample_radius_km", 10.0)
	v.SetDefault("strategy.density.urban_min", 8)
	v.SetDefault("strategy.density.suburban_min", 3)
	v.SetDefault("strategy.anchors.transport_m", 1000)
	v.SetDefault("strategy.anchors.education_m", 800)
	v.SetDefault("strategy.anchors.retail_m", 600)
	v.SetDefault("strategy.anchors.service_m", 1200)
	v.SetDefault("strategy.economic_reference_score", 500_000)
	v.SetDefault("strategy.cluster_min_stores", 3)
	v.SetDefault("strategy.cluster_max_radius_km", 15.0)
	v.SetDefault("strategy.high_performer_percentile", 75)
	v.SetDefault("strategy.cluster_reference_turnover", 1_500_000)
	v.SetDefault("strategy.cluster_reference_store_count", 10)
	v.SetDefault("strategy.cluster_max_influence_km", 10.0)
	v.SetDefault("strategy.ttl.demographic_hours", 168)
	v.SetDefault("strategy.ttl.poi_hours", 72)
	v.SetDefault("strategy.ttl.cluster_hours", 96)
	v.SetDefault("strategy.ttl.score_hours", 24)
	v.SetDefault("strategy.max_parallelism", 4)
	v.SetDefault("strategy.score_timeout_secs", 30)

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
