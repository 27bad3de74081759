package repo

import (
	"Mini_Drive/config"
	"Mini_Drive/model"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
	gormMysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var Db *gorm.DB

// AutoMigrate migrates all database models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.UserRole{},
		&model.File{},
		&model.PermissionGrant{},
		&model.AccessRequest{},
		&model.ShareLink{},
		&model.ReconcileTask{},
	)
}

// newGormLogger logs warnings and errors without bound values, so share tokens
// and emails in WHERE clauses stay out of the log. Misses are expected and not logged.
func newGormLogger(w io.Writer) logger.Interface {
	return logger.New(log.New(w, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		ParameterizedQueries:      true,
	})
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         newGormLogger(os.Stdout),
	}
}

// InitDB opens the configured database, migrates it and sets Db.
func InitDB() {
	var (
		db  *gorm.DB
		err error
	)
	switch config.AppConfig.DBDriver {
	case "postgres":
		db, err = gorm.Open(postgres.Open(postgresDSN()), gormConfig())
	case "sqlite":
		db, err = OpenSQLite(config.AppConfig.SQLitePath)
	default:
		db, err = openMySQL()
	}
	if err != nil {
		log.Fatalf("init %s fail: %v", config.AppConfig.DBDriver, err)
	}

	if config.AppConfig.DBDriver != "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			log.Fatal("get sql db fail", err)
		}
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := AutoMigrate(db); err != nil {
		log.Fatalf("migrate %s fail: %v", config.AppConfig.DBDriver, err)
	}
	log.Printf("init %s success", config.AppConfig.DBDriver)
	Db = db
}

// OpenSQLite opens a SQLite database limited to one connection, so an
// in-memory database is shared by every caller.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func postgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		config.AppConfig.DBHost,
		config.AppConfig.DBUser,
		config.AppConfig.DBPass,
		config.AppConfig.DBName,
		config.AppConfig.DBPort,
		config.AppConfig.DBSSLMode,
	)
}

func mysqlDSN(dbName string) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		config.AppConfig.DBUser,
		config.AppConfig.DBPass,
		config.AppConfig.DBHost,
		config.AppConfig.DBPort,
		dbName,
	)
}

// openMySQL connects to MySQL, creating the database on first start.
func openMySQL() (*gorm.DB, error) {
	dsn := mysqlDSN(config.AppConfig.DBName)
	db, err := gorm.Open(gormMysql.Open(dsn), gormConfig())
	if err != nil && isUnknownDatabaseError(err) {
		if createErr := ensureMySQLDatabase(config.AppConfig.DBName); createErr != nil {
			return nil, fmt.Errorf("create mysql database: %w", createErr)
		}
		db, err = gorm.Open(gormMysql.Open(dsn), gormConfig())
	}
	return db, err
}

func isUnknownDatabaseError(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1049
	}
	return strings.Contains(strings.ToLower(err.Error()), "unknown database")
}

func ensureMySQLDatabase(dbName string) error {
	dbName = strings.TrimSpace(dbName)
	if dbName == "" {
		return errors.New("empty database name")
	}

	serverDB, err := sql.Open("mysql", mysqlDSN(""))
	if err != nil {
		return err
	}
	defer serverDB.Close()

	if err = serverDB.Ping(); err != nil {
		return err
	}

	_, err = serverDB.Exec(
		"CREATE DATABASE IF NOT EXISTS " + quoteMySQLIdentifier(dbName) + " CHARACTER SET utf8mb4 COLLATE utf8mb4_general_ci",
	)
	return err
}

func quoteMySQLIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
