package db

import "time"

type Config struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DSN         string `yaml:"dsn" mapstructure:"dsn"`
	AutoMigrate bool   `yaml:"automigrate" mapstructure:"automigrate"`

	Pool   PoolConfig   `yaml:"pool" mapstructure:"pool"`
	SQLite SQLiteConfig `yaml:"sqlite" mapstructure:"sqlite"`
}

type PoolConfig struct {
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
}

type SQLiteConfig struct {
	WAL           bool `yaml:"wal" mapstructure:"wal"`
	BusyTimeoutMs int  `yaml:"busy_timeout_ms" mapstructure:"busy_timeout_ms"`
	ForeignKeys   bool `yaml:"foreign_keys" mapstructure:"foreign_keys"`
}

func DefaultConfig() Config {
	return Config{
		Driver:      "sqlite",
		DSN:         "~/.payguard/payguard.db",
		AutoMigrate: true,
		Pool: PoolConfig{
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		SQLite: SQLiteConfig{
			WAL:           true,
			BusyTimeoutMs: 5000,
			ForeignKeys:   true,
		},
	}
}
