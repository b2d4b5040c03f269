package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Review  ReviewConfig  `mapstructure:"review"`
	Assets  AssetsConfig  `mapstructure:"assets"`
	Archive ArchiveConfig `mapstructure:"archive"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ReviewConfig holds review workflow configuration
type ReviewConfig struct {
	MaxCycles            int                 `mapstructure:"max_cycles"`
	MinQualityScore      int                 `mapstructure:"min_quality_score"`
	AutoApproveThreshold int                 `mapstructure:"auto_approve_threshold"`
	Reviewers            map[string][]string `mapstructure:"reviewers"`
}

// AssetsConfig holds asset integrity checking configuration
type AssetsConfig struct {
	Workers           int           `mapstructure:"workers"`
	ProbeBinary       string        `mapstructure:"probe_binary"`
	ProbeTimeout      time.Duration `mapstructure:"probe_timeout"`
	BaselineFile      string        `mapstructure:"baseline_file"`
	MaxAudioBytes     int64         `mapstructure:"max_audio_bytes"`
	MaxImageBytes     int64         `mapstructure:"max_image_bytes"`
	MaxVideoBytes     int64         `mapstructure:"max_video_bytes"`
	MaxSVGBytes       int64         `mapstructure:"max_svg_bytes"`
	MaxImageDimension int           `mapstructure:"max_image_dimension"`
	MinSampleRate     int           `mapstructure:"min_sample_rate"`
}

// ArchiveConfig holds submission archive storage configuration
type ArchiveConfig struct {
	Path string `mapstructure:"path"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set default values
	setDefaults()

	// Enable reading from environment variables
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read configuration file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")

	// Review workflow defaults
	viper.SetDefault("review.max_cycles", 3)
	viper.SetDefault("review.min_quality_score", 60)
	viper.SetDefault("review.auto_approve_threshold", 85)

	// Asset integrity defaults
	viper.SetDefault("assets.workers", 8)
	viper.SetDefault("assets.probe_binary", "ffprobe")
	viper.SetDefault("assets.probe_timeout", 30*time.Second)
	viper.SetDefault("assets.baseline_file", ".checksums.json")
	viper.SetDefault("assets.max_audio_bytes", 5*1024*1024)
	viper.SetDefault("assets.max_image_bytes", 2*1024*1024)
	viper.SetDefault("assets.max_video_bytes", 50*1024*1024)
	viper.SetDefault("assets.max_svg_bytes", 50*1024)
	viper.SetDefault("assets.max_image_dimension", 4096)
	viper.SetDefault("assets.min_sample_rate", 22050)

	// Archive defaults
	viper.SetDefault("archive.path", "hanguru.db")
}
