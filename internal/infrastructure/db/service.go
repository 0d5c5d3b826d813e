package db

import (
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ArkLabsHQ/paylink/internal/core/domain"
	"github.com/ArkLabsHQ/paylink/internal/core/ports"
	badgerdb "github.com/ArkLabsHQ/paylink/internal/infrastructure/db/badger"
	mysqldb "github.com/ArkLabsHQ/paylink/internal/infrastructure/db/mysql"
	sqlitedb "github.com/ArkLabsHQ/paylink/internal/infrastructure/db/sqlite"
	"github.com/dgraph-io/badger/v4"
	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

const (
	sqliteDbFile = "paylink.db"
)

var (
	//go:embed sqlite/migration/*
	migrations   embed.FS
	allowedTypes = strings.Join([]string{"badger", "sqlite", "mysql"}, ",")
)

type ServiceConfig struct {
	DbType   string
	DbConfig []any
}

type service struct {
	paymentRepo domain.PaymentRepository
	claimRepo   domain.ClaimRepository
}

// NewService opens the configured backend. DbConfig holds the base directory
// and an optional badger.Logger for badger, the base directory for sqlite and
// the DSN for mysql.
func NewService(config ServiceConfig) (ports.RepoManager, error) {
	var (
		paymentRepo domain.PaymentRepository
		claimRepo   domain.ClaimRepository
		err         error
	)

	switch config.DbType {
	case "badger":
		if len(config.DbConfig) != 2 {
			return nil, fmt.Errorf("badger db config must have 2 elements, got %d", len(config.DbConfig))
		}
		baseDir, ok := config.DbConfig[0].(string)
		if !ok {
			return nil, fmt.Errorf("invalid base directory")
		}
		var logger badger.Logger
		if config.DbConfig[1] != nil {
			logger, ok = config.DbConfig[1].(badger.Logger)
			if !ok {
				return nil, fmt.Errorf("invalid logger")
			}
		}
		paymentRepo, err = badgerdb.NewPaymentRepository(baseDir, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open payment db: %s", err)
		}
		claimRepo, err = badgerdb.NewClaimRepository(baseDir, logger)
		if err != nil {
			paymentRepo.Close()
			return nil, fmt.Errorf("failed to open claim db: %s", err)
		}

	case "sqlite":
		if len(config.DbConfig) != 1 {
			return nil, fmt.Errorf("sqlite db config must have 1 element, got %d", len(config.DbConfig))
		}
		baseDir, ok := config.DbConfig[0].(string)
		if !ok {
			return nil, fmt.Errorf("invalid base directory")
		}
		dbFile := filepath.Join(baseDir, sqliteDbFile)
		db, err := sqlitedb.OpenDb(dbFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite db: %s", err)
		}

		driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to init driver: %s", err)
		}

		source, err := iofs.New(migrations, "sqlite/migration")
		if err != nil {
			return nil, fmt.Errorf("failed to embed migrations: %s", err)
		}

		m, err := migrate.NewWithInstance("iofs", source, "paylinkdb", driver)
		if err != nil {
			return nil, fmt.Errorf("failed to create migration instance: %s", err)
		}

		_, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			return nil, fmt.Errorf("failed to read migration version: %w", verr)
		}
		if dirty {
			return nil, fmt.Errorf("database is in a dirty migration state; manual intervention required")
		}

		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return nil, fmt.Errorf("failed to run migrations: %s", err)
		}

		paymentRepo, err = sqlitedb.NewPaymentRepository(db)
		if err != nil {
			return nil, fmt.Errorf("failed to open payment db: %s", err)
		}
		claimRepo, err = sqlitedb.NewClaimRepository(db)
		if err != nil {
			return nil, fmt.Errorf("failed to open claim db: %s", err)
		}

	case "mysql":
		if len(config.DbConfig) != 1 {
			return nil, fmt.Errorf("mysql db config must have 1 element, got %d", len(config.DbConfig))
		}
		dsn, ok := config.DbConfig[0].(string)
		if !ok || dsn == "" {
			return nil, fmt.Errorf("invalid mysql dsn")
		}
		db, err := mysqldb.OpenDb(dsn)
		if err != nil {
			return nil, err
		}
		paymentRepo, err = mysqldb.NewPaymentRepository(db)
		if err != nil {
			return nil, fmt.Errorf("failed to open payment db: %s", err)
		}
		claimRepo, err = mysqldb.NewClaimRepository(db)
		if err != nil {
			return nil, fmt.Errorf("failed to open claim db: %s", err)
		}

	default:
		return nil, fmt.Errorf("unsupported db type %s, please select one of %s", config.DbType, allowedTypes)
	}

	return &service{
		paymentRepo: paymentRepo,
		claimRepo:   claimRepo,
	}, nil
}

func (s *service) Payments() domain.PaymentRepository {
	return s.paymentRepo
}

func (s *service) Claims() domain.ClaimRepository {
	return s.claimRepo
}

func (s *service) Close() {
	s.claimRepo.Close()
	s.paymentRepo.Close()
}
