package config

import (
	"github.com/sdejongh/dirlink/pkg/compare"
	"github.com/sdejongh/dirlink/pkg/link"
	"github.com/sdejongh/dirlink/pkg/models"
)

// Config represents the application configuration
type Config struct {
	Match       MatchConfig       `yaml:"match"`
	Link        LinkConfig        `yaml:"link"`
	Performance PerformanceConfig `yaml:"performance"`
	Output      OutputConfig      `yaml:"output"`
	Logging     LoggingConfig     `yaml:"logging"`
	Exclude     []string          `yaml:"exclude" validate:"dive,required"`
}

// MatchConfig holds content matching settings
type MatchConfig struct {
	HashAlgorithm models.HashAlgorithm `yaml:"hash_algorithm" validate:"oneof=sha256 sha512"`
	PrefixSize    int                  `yaml:"prefix_size" validate:"min=1,max=1048576"`
	Verify        bool                 `yaml:"verify"` // byte-by-byte check after digest match
}

// LinkConfig holds link replacement settings
type LinkConfig struct {
	Trash      bool   `yaml:"trash"` // move replaced files to the trash instead of deleting
	TempSuffix string `yaml:"temp_suffix" validate:"required,excludesall=/\\"`
}

// PerformanceConfig holds performance-related settings
type PerformanceConfig struct {
	MaxWorkers     int   `yaml:"max_workers" validate:"min=1,max=256"`
	BufferSize     int   `yaml:"buffer_size" validate:"min=1024"`
	BandwidthLimit int64 `yaml:"bandwidth_limit" validate:"min=0"` // bytes/s for hash reads, 0 = unlimited
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	Format   string `yaml:"format" validate:"oneof=human json"`
	Progress bool   `yaml:"progress"` // Show progress bars on a terminal
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	Format string `yaml:"format" validate:"oneof=text json"`
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	File   string `yaml:"file"` // empty = no log file
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Match: MatchConfig{
			HashAlgorithm: models.HashSHA256,
			PrefixSize:    compare.DefaultPrefixSize,
		},
		Link: LinkConfig{
			Trash:      true,
			TempSuffix: link.DefaultTempSuffix,
		},
		Performance: PerformanceConfig{
			MaxWorkers: 5,
			BufferSize: 1024 * 1024,
		},
		Output: OutputConfig{
			Format:   "human",
			Progress: true,
		},
		Logging: LoggingConfig{
			Format: "text",
			Level:  "info",
		},
		Exclude: []string{},
	}
}
