package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yuya-takeyama/strict-dedup/pkg/executor"
)

const (
	DefaultKeeper    = "first"
	DefaultHash      = "sha256"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"

	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogBackups = 3

	// DefaultConfigFile is looked up in the working directory and next to
	// the executable when no explicit path is given.
	DefaultConfigFile = "strict-dedup.yaml"
	ConfigEnvVar      = "STRICT_DEDUP_CONFIG"

	// ConfirmEnvVar must hold ConfirmEnvValue, in addition to the --wet and
	// --yes-really flags, before anything on disk is modified.
	ConfirmEnvVar   = "STRICT_DEDUP_CONFIRM"
	ConfirmEnvValue = "YES"

	// QuarantineDirName is the default move target, created under the scan
	// root with a per-run timestamp subdirectory.
	QuarantineDirName = ".strict-dedup-quarantine"
)

// Config is the optional YAML-backed configuration. Wet mode has no field
// here: destructive mode can only be requested through flags plus the
// confirmation environment variable, never through a file.
type Config struct {
	MoveDir      string    `yaml:"move_dir,omitempty"`
	Keeper       string    `yaml:"keeper,omitempty" validate:"omitempty,keeperstrategy"`
	Hash         string    `yaml:"hash,omitempty" validate:"omitempty,hashalgo"`
	Excludes     []string  `yaml:"excludes,omitempty" validate:"omitempty,dive,required"`
	StrictVerify bool      `yaml:"strict_verify,omitempty"`
	Parallelism  int       `yaml:"parallelism,omitempty" validate:"min=0"`
	Log          LogConfig `yaml:"log,omitempty"`
}

// LogConfig configures the diagnostic logger.
type LogConfig struct {
	Level      string `yaml:"level,omitempty" validate:"omitempty,loglevel"`
	Format     string `yaml:"format,omitempty" validate:"omitempty,logformat"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty" validate:"omitempty,min=1"`
	MaxBackups int    `yaml:"max_backups,omitempty" validate:"omitempty,min=0"`
}

// NewDefault returns the configuration used when no file is present.
func NewDefault() *Config {
	return &Config{
		Keeper: DefaultKeeper,
		Hash:   DefaultHash,
		Log: LogConfig{
			Level:      DefaultLogLevel,
			Format:     DefaultLogFormat,
			MaxSizeMB:  DefaultMaxLogSizeMB,
			MaxBackups: DefaultMaxLogBackups,
		},
	}
}

// Load reads, parses and validates the configuration. A missing file in the
// default locations means defaults; an explicitly named file must exist.
func Load(flagPath string) (*Config, error) {
	cfg := NewDefault()

	path, err := GetConfigPath(flagPath)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// GetConfigPath resolves the configuration file location. Priority:
// the --config flag, the STRICT_DEDUP_CONFIG environment variable,
// strict-dedup.yaml in the working directory, then next to the executable.
// Paths named explicitly must exist; the default locations are optional.
func GetConfigPath(flagPath string) (string, error) {
	if flagPath != "" {
		if _, err := os.Stat(flagPath); err != nil {
			return "", fmt.Errorf("config file %s: %w", flagPath, err)
		}
		return flagPath, nil
	}

	if envPath := os.Getenv(ConfigEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("config file %s (from %s): %w", envPath, ConfigEnvVar, err)
		}
		return envPath, nil
	}

	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile, nil
	}

	if exePath, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exePath), DefaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", nil
}

// DefaultMoveDir returns the quarantine directory for a run over root
// starting at now.
func DefaultMoveDir(root string, now time.Time) string {
	return filepath.Join(root, QuarantineDirName, now.Format("20060102-150405"))
}

// ResolveMode turns the destructive-mode inputs into the executor mode. Wet
// mode requires all three confirmations; partial confirmation is an error,
// not a silent downgrade.
func ResolveMode(wet, yesReally bool) (executor.Mode, error) {
	if !wet {
		if yesReally {
			return executor.ModeDryRun, fmt.Errorf("--yes-really given without --wet; nothing to confirm")
		}
		return executor.ModeDryRun, nil
	}
	if !yesReally {
		return executor.ModeDryRun, fmt.Errorf("wet mode also needs --yes-really")
	}
	if os.Getenv(ConfirmEnvVar) != ConfirmEnvValue {
		return executor.ModeDryRun, fmt.Errorf("wet mode also needs %s=%s in the environment", ConfirmEnvVar, ConfirmEnvValue)
	}
	return executor.ModeWet, nil
}
