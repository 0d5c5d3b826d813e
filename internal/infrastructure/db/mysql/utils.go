package mysqldb

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const errDuplicateEntry = 1062

// OpenDb connects to MySQL and migrates the schema. parseTime is always
// enabled on the DSN.
func OpenDb(dsn string) (*gorm.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql dsn: %w", err)
	}
	cfg.ParseTime = true

	db, err := gorm.Open(gormmysql.Open(cfg.FormatDSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql db: %w", err)
	}

	if err := db.AutoMigrate(&confirmedPayment{}, &claim{}); err != nil {
		return nil, fmt.Errorf("failed to migrate mysql db: %w", err)
	}
	return db, nil
}

func isDuplicateEntry(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == errDuplicateEntry
}
