// Package config loads the service settings from the environment, with an
// optional .env file for local runs.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"

	NotifyLog   = "log"
	NotifyAMQP  = "amqp"
	NotifyKafka = "kafka"
)

type Config struct {
	Port            string `mapstructure:"PORT"`
	DSN             string `mapstructure:"DB_DSN_PRIMARY"`
	StoreDriver     string `mapstructure:"STORE_DRIVER"`
	JWTSecret       string `mapstructure:"JWT_SECRET"`
	LogLevel        string `mapstructure:"LOG_LEVEL"`
	GinMode         string `mapstructure:"GIN_MODE"`
	CORSOrigin      string `mapstructure:"CORS_ORIGIN"`
	TxRetryAttempts int    `mapstructure:"TX_RETRY_ATTEMPTS"`
	MigrateOnStart  bool   `mapstructure:"MIGRATE_ON_START"`
	NotifyDriver    string `mapstructure:"NOTIFY_DRIVER"`
	NotifyBuffer    int    `mapstructure:"NOTIFY_BUFFER"`
	AMQPURL         string `mapstructure:"AMQP_URL"`
	AMQPQueue       string `mapstructure:"AMQP_QUEUE"`
	KafkaBrokers    string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic      string `mapstructure:"KAFKA_TOPIC"`
}

var defaults = map[string]any{
	"PORT":              "8080",
	"DB_DSN_PRIMARY":    "",
	"STORE_DRIVER":      StoreMySQL,
	"JWT_SECRET":        "",
	"LOG_LEVEL":         "info",
	"GIN_MODE":          "",
	"CORS_ORIGIN":       "http://localhost:5173",
	"TX_RETRY_ATTEMPTS": 3,
	"MIGRATE_ON_START":  true,
	"NOTIFY_DRIVER":     NotifyLog,
	"NOTIFY_BUFFER":     256,
	"AMQP_URL":          "",
	"AMQP_QUEUE":        "order_events",
	"KAFKA_BROKERS":     "",
	"KAFKA_TOPIC":       "order-events",
}

// Load reads .env (if present) into the process environment and builds the
// Config from it. Real environment variables win over .env entries.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	// A missing .env is normal outside local development.
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cf Config
	if err := v.Unmarshal(&cf); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cf.StoreDriver = strings.ToLower(strings.TrimSpace(cf.StoreDriver))
	cf.NotifyDriver = strings.ToLower(strings.TrimSpace(cf.NotifyDriver))

	if err := cf.Validate(); err != nil {
		return nil, err
	}
	return &cf, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}

	switch c.StoreDriver {
	case StoreMySQL:
		if c.DSN == "" {
			errs = append(errs, errors.New("DB_DSN_PRIMARY is required when STORE_DRIVER is mysql"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	switch c.NotifyDriver {
	case NotifyLog:
	case NotifyAMQP:
		if c.AMQPURL == "" {
			errs = append(errs, errors.New("AMQP_URL is required when NOTIFY_DRIVER is amqp"))
		}
	case NotifyKafka:
		if c.KafkaBrokers == "" {
			errs = append(errs, errors.New("KAFKA_BROKERS is required when NOTIFY_DRIVER is kafka"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown NOTIFY_DRIVER %q", c.NotifyDriver))
	}

	if c.TxRetryAttempts < 1 {
		errs = append(errs, errors.New("TX_RETRY_ATTEMPTS must be at least 1"))
	}
	if c.NotifyBuffer < 1 {
		errs = append(errs, errors.New("NOTIFY_BUFFER must be at least 1"))
	}
	return errors.Join(errs...)
}
