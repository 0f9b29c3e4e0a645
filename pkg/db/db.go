package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"liyu1981.xyz/sos-response-service/pkg/common"
	"liyu1981.xyz/sos-response-service/pkg/models"
)

const (
	DBTypeFile     = "file"
	DBTypeMemory   = "memory"
	DBTypePostgres = "postgres"
)

type DB struct {
	Conn *gorm.DB
}

var (
	instance *DB
	once     sync.Once
)

func GetInstance(dialector gorm.Dialector) *DB {
	var logger = common.GetLogger()
	once.Do(func() {
		// TranslateError turns unique violations into gorm.ErrDuplicatedKey for dedup handling
		conn, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}

		logger.Info("Connected to database with dialector:", zap.String("dialector", dialector.Name()))

		instance = &DB{Conn: conn}

		if sd, ok := dialector.(*sqlite.Dialector); ok && strings.Contains(sd.DSN, ":memory:") {
			// one shared in-memory database; a single connection serializes writers
			sqlDB, err := conn.DB()
			if err != nil {
				log.Fatal("Failed to access sql.DB:", err)
			}
			sqlDB.SetMaxOpenConns(1)
		}

		if dialector.Name() == "sqlite" {
			if err := instance.Conn.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
				log.Fatal("Failed to enable sqlite foreign key support", err)
			}

			if err := instance.Conn.Exec("PRAGMA journal_mode = WAL").Error; err != nil {
				log.Fatal("Failed to set sqlite journal mode", err)
			}
		}

		err = instance.Conn.AutoMigrate(
			&models.User{},
			&models.Incident{},
			&models.LocationPoint{},
			&models.TimelineEntry{},
			&models.Responder{},
			&models.NotificationAttempt{},
			&models.NotificationResponse{},
			&models.Geofence{},
			&models.GeofenceContainment{},
			&models.Contact{},
			&models.EscalationCall{},
			&models.CallResponse{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}

		logger.Info("Database migration completed")
	})
	return instance
}

func UseSqliteDialector() gorm.Dialector {
	var dbPath string
	var found bool
	if dbPath, found = os.LookupEnv(common.EnvKeySOSDbPath); !found {
		dbPath = "sos.db"
	}
	return sqlite.Open(dbPath)
}

func UseMemorySqliteDialector() gorm.Dialector {
	return sqlite.Open("file::memory:?cache=shared")
}

func UsePostgresDialector(dsn string) gorm.Dialector {
	return postgres.Open(dsn)
}

// UseDialector picks the dialector named by cfg.DBType.
func UseDialector(cfg *common.Config) (gorm.Dialector, error) {
	switch cfg.DBType {
	case "", DBTypeFile:
		if cfg.DBPath != "" {
			return sqlite.Open(cfg.DBPath), nil
		}
		return UseSqliteDialector(), nil
	case DBTypeMemory:
		return UseMemorySqliteDialector(), nil
	case DBTypePostgres:
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("%s requires %s", DBTypePostgres, common.EnvKeySOSDbDSN)
		}
		return UsePostgresDialector(cfg.DBDSN), nil
	default:
		return nil, fmt.Errorf("unknown database type %q", cfg.DBType)
	}
}
