package config

import (
	"errors"
	"fmt"
	"strings"
	_ "time/tzdata" // timezone validation must not depend on the host zoneinfo

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envPrefix is prepended to every environment variable key, so
// "server.port" is read from SCHEDULE_SERVER_PORT.
const envPrefix = "SCHEDULE"

// legacyEnv lists unprefixed variable names that are also honoured for a key.
// They match what hosting platforms and the SendGrid tooling set by default.
var legacyEnv = map[string][]string{
	"server.port":           {"PORT"},
	"database.url":          {"DATABASE_URL"},
	"auth.jwt_secret":       {"JWT_SECRET"},
	"mail.sendgrid_api_key": {"SENDGRID_API_KEY"},
	"mail.sender_email":     {"SENDGRID_SENDER_EMAIL"},
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// A .env file in the working directory is loaded first if present; it never
// overrides variables that are already set.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Env lists arrive as one comma separated string; trim the pieces.
	cfg.Server.AllowedOrigins = splitList(cfg.Server.AllowedOrigins)

	validate := validator.New()
	validate.RegisterStructValidation(validateReminderWindow, ReminderConfig{})
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validateReminderWindow rejects a window that is empty on both sides,
// which would only match tasks due at the exact instant of a scan.
func validateReminderWindow(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(ReminderConfig)
	if cfg.WindowBefore == 0 && cfg.WindowAfter == 0 {
		sl.ReportError(cfg.WindowAfter, "WindowAfter", "window_after", "nonempty_window", "")
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("mail.sender_name", "Schedule Master")
	v.SetDefault("mail.app_url", "http://localhost:3000")

	v.SetDefault("reminder.enabled", true)
	v.SetDefault("reminder.scan_interval", "15m")
	v.SetDefault("reminder.window_before", "15m")
	v.SetDefault("reminder.window_after", "30m")
	v.SetDefault("reminder.timezone", "UTC")
	v.SetDefault("reminder.run_timeout", "2m")
	v.SetDefault("reminder.max_attempts", 5)

	v.SetDefault("redis.url", "")
}

// bindEnvs registers keys without defaults so Unmarshal sees them, and
// attaches the legacy variable names.
func bindEnvs(v *viper.Viper) error {
	keys := []string{
		"database.url",
		"auth.jwt_secret",
		"mail.sendgrid_api_key",
		"mail.sender_email",
		"server.port",
	}
	for _, key := range keys {
		names := []string{key, envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}
		names = append(names, legacyEnv[key]...)
		if err := v.BindEnv(names...); err != nil {
			return fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}
	return nil
}

func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
