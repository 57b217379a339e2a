package repo

import (
	"strings"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"

	"PortalAPI/internal/model"
)

// InitDB открывает соединение с БД и накатывает миграции моделей.
// postgres:// DSN подключает Postgres, любое другое значение трактуется
// как путь к файлу SQLite (modernc.org/sqlite, без cgo).
func InitDB(dsn string) (*gorm.DB, error) {
	var dial gorm.Dialector
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dial = postgres.Open(dsn)
	} else {
		if dsn == "" {
			dsn = "portal.db"
		}
		dial = gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}
	}

	db, err := gorm.Open(dial, &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&model.Combination{},
		&model.User{},
		&model.Setting{},
		&model.SidebarEntity{},
	); err != nil {
		return nil, err
	}
	return db, nil
}
