package task

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/tailscale/hujson"
)

// Config holds all configuration options.
type Config struct {
	// From config files (serialized)
	DataDir  string `json:"data_dir"            toml:"data_dir"`
	LogLevel string `json:"log_level,omitempty" toml:"log_level"`

	// Resolved paths (computed, not serialized)
	EffectiveCwd string `json:"-" toml:"-"` // Absolute working directory (from -C flag or os.Getwd)
	DataDirAbs   string `json:"-" toml:"-"` // Absolute path to the data directory

	// Sources tracks which config files were loaded (for diagnostics)
	Sources ConfigSources `json:"-" toml:"-"`
}

// ConfigSources tracks which config files were loaded.
type ConfigSources struct {
	Global  string // Path to global config if loaded, empty otherwise
	Project string // Path to project config if loaded, empty otherwise
	Env     bool   // TT_DATA_DIR was applied
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		DataDir:  ".tasks",
		LogLevel: "warn",
	}
}

// ConfigFileNames are the project config files looked up in the work dir, in order.
var ConfigFileNames = []string{".tt.json", ".tt.toml"}

// EnvDataDir overrides data_dir from the environment.
const EnvDataDir = "TT_DATA_DIR"

// getGlobalConfigPaths returns candidate global config files.
// Uses $XDG_CONFIG_HOME/tt if set, otherwise ~/.config/tt.
func getGlobalConfigPaths(env map[string]string) []string {
	var dir string

	switch {
	case env["XDG_CONFIG_HOME"] != "":
		dir = filepath.Join(env["XDG_CONFIG_HOME"], "tt")
	case env["HOME"] != "":
		dir = filepath.Join(env["HOME"], ".config", "tt")
	default:
		return nil
	}

	return []string{filepath.Join(dir, "config.json"), filepath.Join(dir, "config.toml")}
}

// LoadConfigInput holds the inputs for LoadConfig.
type LoadConfigInput struct {
	WorkDirOverride string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath      string            // -c/--config flag value
	DataDirOverride string            // --data-dir flag value; empty means no override
	Verbose         bool              // -v forces debug logging
	Env             map[string]string // environment variables
}

// LoadConfig loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config ($XDG_CONFIG_HOME/tt/config.{json,toml})
// 3. Project config file (.tt.json or .tt.toml, if exists)
// 4. Explicit config file via ConfigPath (if non-empty)
// 5. TT_DATA_DIR
// 6. CLI overrides.
//
// All paths in the returned Config are resolved to absolute paths.
func LoadConfig(input LoadConfigInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	cfg := DefaultConfig()

	globalCfg, globalPath, err := loadGlobalConfig(input.Env)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Global = globalPath
	cfg = mergeConfig(cfg, globalCfg)

	projectCfg, projectPath, err := loadProjectConfig(workDir, input.ConfigPath)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Project = projectPath
	cfg = mergeConfig(cfg, projectCfg)

	if dir := input.Env[EnvDataDir]; dir != "" {
		cfg.DataDir = dir
		cfg.Sources.Env = true
	}

	if input.DataDirOverride != "" {
		cfg.DataDir = input.DataDirOverride
	}

	if input.Verbose {
		cfg.LogLevel = "debug"
	}

	validateErr := validateConfig(cfg)
	if validateErr != nil {
		return Config{}, validateErr
	}

	cfg.EffectiveCwd = workDir

	if filepath.IsAbs(cfg.DataDir) {
		cfg.DataDirAbs = cfg.DataDir
	} else {
		cfg.DataDirAbs = filepath.Join(workDir, cfg.DataDir)
	}

	return cfg, nil
}

// Level returns the parsed log level.
func (c Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.WarnLevel
	}

	return level
}

// FormatConfig renders cfg as key=value lines.
func FormatConfig(cfg Config) string {
	var b strings.Builder

	b.WriteString("data_dir=" + cfg.DataDirAbs + "\n")
	b.WriteString("log_level=" + cfg.LogLevel)

	return b.String()
}

// loadGlobalConfig loads the first global config file that exists.
func loadGlobalConfig(env map[string]string) (Config, string, error) {
	for _, path := range getGlobalConfigPaths(env) {
		cfg, loaded, err := loadConfigFile(path, false)
		if err != nil {
			return Config{}, "", err
		}

		if loaded {
			return cfg, path, nil
		}
	}

	return Config{}, "", nil
}

// loadProjectConfig loads the project config file or an explicit config file.
func loadProjectConfig(workDir, configPath string) (Config, string, error) {
	if configPath != "" {
		cfgFile := configPath
		if !filepath.IsAbs(cfgFile) {
			cfgFile = filepath.Join(workDir, cfgFile)
		}

		// Check existence first to provide a clear "not found" error
		_, statErr := os.Stat(cfgFile)
		if statErr != nil {
			return Config{}, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
		}

		cfg, _, err := loadConfigFile(cfgFile, true)
		if err != nil {
			return Config{}, "", err
		}

		return cfg, cfgFile, nil
	}

	for _, name := range ConfigFileNames {
		cfgFile := filepath.Join(workDir, name)

		cfg, loaded, err := loadConfigFile(cfgFile, false)
		if err != nil {
			return Config{}, "", err
		}

		if loaded {
			return cfg, cfgFile, nil
		}
	}

	return Config{}, "", nil
}

// loadConfigFile loads a config file. If mustExist is false, missing files return zero config.
// Returns the config, whether the file was loaded, and any error.
func loadConfigFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if mustExist {
			return Config{}, false, fmt.Errorf("%w: %s", ErrConfigFileRead, path)
		}

		return Config{}, false, nil
	}

	var (
		cfg           Config
		explicitEmpty bool
		parseErr      error
	)

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		cfg, explicitEmpty, parseErr = parseTOMLConfig(data)
	} else {
		cfg, explicitEmpty, parseErr = parseJSONConfig(data)
	}

	if parseErr != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, parseErr)
	}

	if explicitEmpty {
		return Config{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, ErrDataDirEmpty)
	}

	return cfg, true, nil
}

// parseJSONConfig parses JSONC. The bool result reports an explicitly empty data_dir.
func parseJSONConfig(data []byte) (Config, bool, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, false, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	unmarshalErr := json.Unmarshal(standardized, &cfg)
	if unmarshalErr != nil {
		return Config{}, false, fmt.Errorf("invalid JSON: %w", unmarshalErr)
	}

	var raw map[string]any

	_ = json.Unmarshal(standardized, &raw)

	val, exists := raw["data_dir"]
	str, isString := val.(string)

	return cfg, exists && isString && str == "", nil
}

func parseTOMLConfig(data []byte) (Config, bool, error) {
	var cfg Config

	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, false, fmt.Errorf("invalid TOML: %w", err)
	}

	return cfg, meta.IsDefined("data_dir") && cfg.DataDir == "", nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.DataDir != "" {
		base.DataDir = overlay.DataDir
	}

	if overlay.LogLevel != "" {
		base.LogLevel = overlay.LogLevel
	}

	return base
}

func validateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrDataDirEmpty
	}

	_, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, cfg.LogLevel)
	}

	return nil
}
