package gormstore

// PoolConfig holds database connection pool settings.
type PoolConfig struct {
	MaxOpenConns           int `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns           int `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMinutes int `yaml:"conn_max_lifetime_minutes" mapstructure:"conn_max_lifetime_minutes"`
}

// DatabaseConfig holds relational store connection settings.
type DatabaseConfig struct {
	Type     string     `yaml:"type" mapstructure:"type"`         // Database type (e.g., "postgres", "mysql", "sqlite").
	Host     string     `yaml:"host" mapstructure:"host"`         // Database host address.
	Port     int        `yaml:"port" mapstructure:"port"`         // Database port number.
	Database string     `yaml:"database" mapstructure:"database"` // Database name, or file path for sqlite.
	User     string     `yaml:"user" mapstructure:"user"`         // Database user.
	Password string     `yaml:"password" mapstructure:"password"` // Database password.
	Sslmode  string     `yaml:"sslmode" mapstructure:"sslmode"`   // SSL mode for the connection.
	Pool     PoolConfig `yaml:"pool" mapstructure:"pool"`         // Connection pool settings.
}
