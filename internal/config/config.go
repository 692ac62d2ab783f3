package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"activation/internal/common"
	apperrors "activation/pkg/errors"
	"activation/pkg/models"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix namespaces environment overrides, e.g. ACTIVATION_DATABASE_PATH.
	EnvPrefix = "ACTIVATION"
	// FileName is the config file base name searched for without extension.
	FileName = "activation"

	KeyDatabasePath    = "database.path"
	KeyDatabaseTimeout = "database.timeout"
	KeyLogLevel        = "log_level"
	KeyLogJSON         = "log_json"
	KeySummary         = "summary"
)

// flagKeys maps CLI flag names onto config keys.
var flagKeys = map[string]string{
	"db":        KeyDatabasePath,
	"timeout":   KeyDatabaseTimeout,
	"log-level": KeyLogLevel,
	"log-json":  KeyLogJSON,
	"summary":   KeySummary,
}

// GetConfigPath returns the per-user config directory
func GetConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "."+FileName)
}

// New returns a viper instance carrying defaults and environment binding.
// defaultDB is the database path used when nothing overrides it.
func New(defaultDB string) *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyDatabasePath, defaultDB)
	v.SetDefault(KeyDatabaseTimeout, time.Duration(0))
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyLogJSON, false)
	v.SetDefault(KeySummary, false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// BindFlags binds the known flags of fs onto their config keys.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// A missing file is not an error; variables already set win.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return apperrors.Wrap(err, apperrors.ErrCodeConfigInvalid, "Failed to load env file").
			WithContext("path", path)
	}
	return nil
}

// Load reads the optional config file and returns the validated configuration.
// An explicit file must exist; otherwise activation.yaml is searched in the
// working directory and GetConfigPath().
func Load(v *viper.Viper, explicitFile string) (*models.Config, error) {
	if explicitFile != "" {
		if !common.FileExists(explicitFile) {
			return nil, apperrors.New(apperrors.ErrCodeConfigNotFound, "Config file not found").
				WithContext("file", explicitFile)
		}
		v.SetConfigFile(explicitFile)
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(".")
		v.AddConfigPath(GetConfigPath())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicitFile != "" || !errors.As(err, &notFound) {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeConfigInvalid, "Failed to read config file").
				WithContext("file", v.ConfigFileUsed())
		}
	}

	var cfg models.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeConfigInvalid, "Failed to decode configuration")
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	path, err := common.CleanPath(cfg.Database.Path)
	if err != nil {
		return nil, apperrors.ConfigError(err.Error(), KeyDatabasePath)
	}
	cfg.Database.Path = path

	return &cfg, nil
}

// Validate checks a decoded configuration.
func Validate(cfg *models.Config) error {
	if strings.TrimSpace(cfg.Database.Path) == "" {
		return apperrors.ConfigError("Database path must not be empty", KeyDatabasePath)
	}
	if cfg.Database.Timeout < 0 {
		return apperrors.ConfigError("Database timeout must not be negative", KeyDatabaseTimeout)
	}
	return nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg *models.Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Save writes cfg as YAML to path, creating the parent directory.
func Save(cfg *models.Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), common.DirPermissionSecure); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := Marshal(cfg)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, common.FilePermissionSecure); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
