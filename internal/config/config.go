// Package config loads service configuration from config.toml and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App        AppConfig
	Log        LogConfig
	Database   DatabaseConfig
	HTTP       HTTPConfig
	Snapshot   SnapshotConfig
	Migrations MigrationsConfig
}

// AppConfig holds application-specific settings.
type AppConfig struct {
	Env  string // development, production
	Port string
}

// IsDevelopment reports whether the service runs in development mode.
func (a AppConfig) IsDevelopment() bool {
	return a.Env == "development"
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string // debug, info, warn, error
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	URL              string
	MaxConns         int32
	MinConns         int32
	StatementTimeout time.Duration
}

// HTTPConfig holds HTTP server timeouts.
type HTTPConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// SnapshotConfig holds the snapshot confirmation secret.
// PasswordHash (bcrypt) takes precedence over Password.
type SnapshotConfig struct {
	Password     string
	PasswordHash string
}

// MigrationsConfig controls schema migration on server start.
type MigrationsConfig struct {
	Auto bool
}

// Load reads configuration.
// Priority (highest to lowest):
// 1. Environment variables (e.g. DATABASE_URL, SNAPSHOT_PASSWORD)
// 2. config.toml in the working directory or /etc/stockledger
// 3. Built-in defaults
func Load() (*Config, error) {
	v, err := readFile()
	if err != nil {
		return nil, err
	}
	return fromViper(v)
}

// LoadDatabase reads only the database section, with the same sources as Load.
// Used by tools that do not serve snapshots (migrate, seed).
func LoadDatabase() (*DatabaseConfig, error) {
	v, err := readFile()
	if err != nil {
		return nil, err
	}
	return databaseFromViper(v)
}

func readFile() (*viper.Viper, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/stockledger")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return v, nil
}

func bindEnv(v *viper.Viper) {
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func databaseFromViper(v *viper.Viper) (*DatabaseConfig, error) {
	bindEnv(v)

	db := readDatabase(v)
	if err := errors.Join(db.validate()...); err != nil {
		return nil, err
	}
	return &db, nil
}

func readDatabase(v *viper.Viper) DatabaseConfig {
	return DatabaseConfig{
		URL:              v.GetString("database.url"),
		MaxConns:         v.GetInt32("database.max_conns"),
		MinConns:         v.GetInt32("database.min_conns"),
		StatementTimeout: v.GetDuration("database.statement_timeout"),
	}
}

func fromViper(v *viper.Viper) (*Config, error) {
	bindEnv(v)

	cfg := &Config{
		App: AppConfig{
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
		},
		Database: readDatabase(v),
		HTTP: HTTPConfig{
			ReadTimeout:  v.GetDuration("http.read_timeout"),
			WriteTimeout: v.GetDuration("http.write_timeout"),
			IdleTimeout:  v.GetDuration("http.idle_timeout"),
		},
		Snapshot: SnapshotConfig{
			Password:     v.GetString("snapshot.password"),
			PasswordHash: v.GetString("snapshot.password_hash"),
		},
		Migrations: MigrationsConfig{
			Auto: v.GetBool("migrations.auto"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.statement_timeout", "30s")

	v.SetDefault("http.read_timeout", "15s")
	v.SetDefault("http.write_timeout", "30s")
	v.SetDefault("http.idle_timeout", "60s")

	v.SetDefault("snapshot.password", "")
	v.SetDefault("snapshot.password_hash", "")

	v.SetDefault("migrations.auto", false)
}

func (d DatabaseConfig) validate() []error {
	var errs []error

	if d.URL == "" {
		errs = append(errs, errors.New("database.url (DATABASE_URL) is required"))
	}
	if d.MaxConns <= 0 {
		errs = append(errs, errors.New("database.max_conns must be positive"))
	}
	if d.MinConns < 0 || d.MinConns > d.MaxConns {
		errs = append(errs, errors.New("database.min_conns must be between 0 and database.max_conns"))
	}
	if d.StatementTimeout < 0 {
		errs = append(errs, errors.New("database.statement_timeout must not be negative"))
	}
	return errs
}

func (c *Config) validate() error {
	errs := c.Database.validate()

	if strings.TrimSpace(c.Snapshot.Password) == "" && strings.TrimSpace(c.Snapshot.PasswordHash) == "" {
		errs = append(errs, errors.New("snapshot.password or snapshot.password_hash is required"))
	}
	if c.App.Port == "" {
		errs = append(errs, errors.New("app.port is required"))
	}

	return errors.Join(errs...)
}
