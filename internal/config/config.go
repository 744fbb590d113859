package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Conf holds the application configuration, making it accessible globally.
var Conf *Config

var confMu sync.RWMutex

// Config struct is the top-level configuration structure.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Battery  BatteryConfig  `mapstructure:"battery"`
}

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Port          string        `mapstructure:"port"`
	SessionSecret string        `mapstructure:"session_secret"`
	SecureCookies bool          `mapstructure:"secure_cookies"`
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
	ReapInterval  time.Duration `mapstructure:"reap_interval"`
	RateLimit     int           `mapstructure:"rate_limit"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver     string `mapstructure:"driver"`
	Host       string `mapstructure:"host"`
	Port       string `mapstructure:"port"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	DBName     string `mapstructure:"dbname"`
	SQLitePath string `mapstructure:"sqlite_path"`
	LogLevel   string `mapstructure:"log_level"`
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Directory  string `mapstructure:"directory"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
	Console    bool   `mapstructure:"console"`
}

// AdminConfig protects the export and chart endpoints.
type AdminConfig struct {
	Username     string `mapstructure:"username"`
	PasswordHash string `mapstructure:"password_hash"`
}

// BatteryConfig points at the task battery definition. An empty path uses
// the built-in battery.
type BatteryConfig struct {
	Path string `mapstructure:"path"`
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "5050")
	v.SetDefault("server.session_secret", "")
	v.SetDefault("server.secure_cookies", false)
	v.SetDefault("server.idle_timeout", 30*time.Minute)
	v.SetDefault("server.reap_interval", time.Minute)
	v.SetDefault("server.rate_limit", 10) // participant registrations per minute per IP

	// Database defaults
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "user")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.dbname", "cogbattery")
	v.SetDefault("database.sqlite_path", "cogbattery.db")
	v.SetDefault("database.log_level", "warn")

	// Logging defaults
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true) // Compress old logs
	v.SetDefault("logging.console", true)

	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.password_hash", "")

	v.SetDefault("battery.path", "")
}

// Load reads defaults, config/config.yaml under projectRoot and
// COGBATTERY_* environment variables.
func Load(projectRoot string) (*Config, *viper.Viper, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// --- File Configuration ---
	v.AddConfigPath(filepath.Join(projectRoot, "config"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// --- Environment Variable Binding ---
	v.SetEnvPrefix("COGBATTERY") // e.g., COGBATTERY_SERVER_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// It's okay if the file doesn't exist; defaults and env vars will be used.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := conf.validate(); err != nil {
		return nil, nil, err
	}
	return &conf, v, nil
}

// Init loads the configuration into Conf and watches the file for changes.
func Init(projectRoot string, log *zap.Logger) error {
	conf, v, err := Load(projectRoot)
	if err != nil {
		return err
	}
	set(conf)

	// Set up a watch for configuration changes for hot-reloading
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
		var next Config
		if err := v.Unmarshal(&next); err != nil {
			log.Error("Error reloading configuration", zap.Error(err))
			return
		}
		if err := next.validate(); err != nil {
			log.Error("Rejected reloaded configuration", zap.Error(err))
			return
		}
		set(&next)
	})
	v.WatchConfig()

	log.Info("Configuration loaded successfully")
	return nil
}

// Get returns the current configuration.
func Get() *Config {
	confMu.RLock()
	defer confMu.RUnlock()
	return Conf
}

func set(conf *Config) {
	confMu.Lock()
	defer confMu.Unlock()
	Conf = conf
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Server.IdleTimeout <= 0 {
		return fmt.Errorf("server.idle_timeout must be positive")
	}
	if c.Server.ReapInterval <= 0 {
		return fmt.Errorf("server.reap_interval must be positive")
	}
	return nil
}
