// Package mysql registers the MySQL dialector with the gormstore registry.
package mysql

import (
	"fmt"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/tigerroll/tidewrite/pkg/ingest/store/gormstore"
)

// init registers the MySQL dialector factory with the gormstore adapter.
func init() {
	gormstore.RegisterDialector("mysql", func(cfg gormstore.DatabaseConfig) (gorm.Dialector, error) {
		return gormmysql.Open(ConnectionString(cfg)), nil
	})
}

// ConnectionString builds a MySQL DSN from the store configuration.
func ConnectionString(cfg gormstore.DatabaseConfig) string {
	dsnCfg := mysqldriver.NewConfig()
	dsnCfg.User = cfg.User
	dsnCfg.Passwd = cfg.Password
	dsnCfg.Net = "tcp"
	dsnCfg.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	dsnCfg.DBName = cfg.Database
	dsnCfg.ParseTime = true
	dsnCfg.Loc = time.UTC
	return dsnCfg.FormatDSN()
}
