// Package configpkg provides parsing functionality for environment variables.
package configpkg

import (
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
//
// The values are read by viper fron a config file or environement variables.
type Config struct {
	DBDriver            string        `mapstructure:"DB_DRIVER"`
	DBSource            string        `mapstructure:"DB_SOURCE"`
	MigrationURL        string        `mapstructure:"MIGRATION_URL"`
	ServerAddress       string        `mapstructure:"SERVER_ADDRESS"`
	TokenSymmetricKey   string        `mapstructure:"TOKEN_SYMMETRIC_KEY"`
	TokenKind           string        `mapstructure:"TOKEN_KIND"`
	AccessTokenDuration time.Duration `mapstructure:"ACCESS_TOKEN_DURATION"`
	Environement        string        `mapstructure:"GO_ENV"`

	// Empty RedisAddress keeps lockout tracking in memory and disables the interest job lock.
	RedisAddress        string        `mapstructure:"REDIS_ADDRESS"`
	LockoutMaxAttempts  int           `mapstructure:"LOCKOUT_MAX_ATTEMPTS"`
	LockoutDuration     time.Duration `mapstructure:"LOCKOUT_DURATION"`
	LockTimeout         time.Duration `mapstructure:"LOCK_TIMEOUT"`
	StatementTimeout    time.Duration `mapstructure:"STATEMENT_TIMEOUT"`
	InterestJobInterval time.Duration `mapstructure:"INTEREST_JOB_INTERVAL"`
	LedgerTimezone      string        `mapstructure:"LEDGER_TIMEZONE"`
}

// Load read configuration from file or environment variables.
func Load(path string) (Config, error) {
	var c Config

	viper.AddConfigPath(path)
	viper.SetConfigName("app")
	viper.SetConfigType("env")

	viper.SetDefault("TOKEN_KIND", "paseto")
	viper.SetDefault("LOCKOUT_MAX_ATTEMPTS", 5)
	viper.SetDefault("LOCKOUT_DURATION", 15*time.Minute)
	viper.SetDefault("LOCK_TIMEOUT", 5*time.Second)
	viper.SetDefault("STATEMENT_TIMEOUT", 10*time.Second)
	viper.SetDefault("INTEREST_JOB_INTERVAL", time.Hour)
	viper.SetDefault("LEDGER_TIMEZONE", "UTC")

	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err != nil {
		return c, err
	}

	err = viper.Unmarshal(&c)
	if err != nil {
		return c, err
	}

	return c, nil
}

// Location returns the time zone that bounds a ledger day.
func (c Config) Location() (*time.Location, error) {
	if c.LedgerTimezone == "" {
		return time.UTC, nil
	}

	return time.LoadLocation(c.LedgerTimezone)
}
