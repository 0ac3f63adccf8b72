// internal/config/database.go
package config

import (
	"fmt"
	"strings"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DSN builds the postgres connection string. Timestamps are read and written
// in UTC so cart expiry compares the same way on every host.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC application_name=storefront-backend",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// InMemory reports whether the repositories live in process memory.
func (d *DatabaseConfig) InMemory() bool {
	return strings.EqualFold(d.Driver, DriverMemory)
}

func (d *DatabaseConfig) validate(environment string) error {
	switch strings.ToLower(d.Driver) {
	case DriverPostgres:
		return nil
	case DriverMemory:
		if environment == "production" {
			return fmt.Errorf("the memory database driver is not allowed in production")
		}
		return nil
	default:
		return fmt.Errorf("unsupported database driver %q", d.Driver)
	}
}
