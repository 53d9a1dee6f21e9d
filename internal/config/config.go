package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Bridge   BridgeConfig   `mapstructure:"bridge"`
	Host     HostConfig     `mapstructure:"host"`
	Data     DataConfig     `mapstructure:"data"`
	UI       UIConfig       `mapstructure:"ui"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig selects where zap writes and at which level.
type LogConfig struct {
	Path  string `mapstructure:"path"`
	Level string `mapstructure:"level"`
}

// BridgeConfig controls how the UI reaches the host.
// An empty HostURL runs the host in-process.
type BridgeConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	HostURL string        `mapstructure:"host_url"`
}

// HostConfig holds settings for `vialac serve`.
type HostConfig struct {
	Listen    string  `mapstructure:"listen"`
	RateLimit float64 `mapstructure:"rate_limit"`
	Burst     int     `mapstructure:"burst"`
}

// DataConfig points at the CSV exports used by import and the trend chart.
type DataConfig struct {
	Dir      string `mapstructure:"dir"`
	TrendCSV string `mapstructure:"trend_csv"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	StartSection string `mapstructure:"start_section"`
}

func defaultDataDir() string {
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "vialac")
}

// Path returns the config file location, honouring VIALAC_CONFIG.
func Path() string {
	if p := os.Getenv("VIALAC_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "vialac", "config.toml")
}

func setDefaults(v *viper.Viper) {
	dataDir := defaultDataDir()
	v.SetDefault("database.path", filepath.Join(dataDir, "vialactea_datos.db"))
	v.SetDefault("log.path", filepath.Join(dataDir, "vialac.log"))
	v.SetDefault("log.level", "info")
	v.SetDefault("bridge.timeout", "5s")
	v.SetDefault("bridge.host_url", "")
	v.SetDefault("host.listen", "127.0.0.1:8765")
	v.SetDefault("host.rate_limit", 20.0)
	v.SetDefault("host.burst", 40)
	v.SetDefault("data.dir", ".")
	v.SetDefault("data.trend_csv", "produccion_leche_6_meses.csv")
	v.SetDefault("ui.start_section", "tablero")
}

// Load reads configuration from file and env. Env var overrides use prefix VIALAC_.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")
	if cfgPath := os.Getenv("VIALAC_CONFIG"); cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "vialac"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("VIALAC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.Bridge.Timeout <= 0 {
		return Config{}, fmt.Errorf("bridge.timeout must be positive, got %s", c.Bridge.Timeout)
	}
	return c, nil
}

// Save writes cfg to path, creating the config directory if needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("log.path", cfg.Log.Path)
	v.Set("log.level", cfg.Log.Level)
	v.Set("bridge.timeout", cfg.Bridge.Timeout.String())
	v.Set("bridge.host_url", cfg.Bridge.HostURL)
	v.Set("host.listen", cfg.Host.Listen)
	v.Set("host.rate_limit", cfg.Host.RateLimit)
	v.Set("host.burst", cfg.Host.Burst)
	v.Set("data.dir", cfg.Data.Dir)
	v.Set("data.trend_csv", cfg.Data.TrendCSV)
	v.Set("ui.start_section", cfg.UI.StartSection)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
