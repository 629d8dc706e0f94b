package database

import (
	"fmt"
	"log"
	"strings"

	"listing-browser/internal/config"
	"listing-browser/internal/store"

	"gorm.io/gorm/logger"
)

// Open connects the configured listing backend and prepares its schema
func Open(cfg *config.Config) (store.Repository, error) {
	switch cfg.Database.Type {
	case "mysql":
		log.Println("Database: Using MySQL with GORM")
		m := cfg.Database.MySQL
		level := logger.Warn
		if strings.EqualFold(cfg.Logging.Level, "debug") {
			level = logger.Info
		}
		gormDB, err := NewGormDB(m.Host, portString(m.Port), m.User, m.Password, m.Database, level)
		if err != nil {
			return nil, fmt.Errorf("connect to MySQL: %w", err)
		}
		if err := gormDB.InitSchema(); err != nil {
			gormDB.Close()
			return nil, fmt.Errorf("initialize schema: %w", err)
		}
		return gormDB, nil

	case "postgres":
		log.Println("Database: Using PostgreSQL")
		p := cfg.Database.Postgres
		db, err := NewPostgresDB(p.Host, portString(p.Port), p.User, p.Password, p.Database)
		if err != nil {
			return nil, fmt.Errorf("connect to PostgreSQL: %w", err)
		}
		return db, nil

	case "sqlite", "":
		log.Printf("Database: Using SQLite at %s", cfg.Database.SQLite.Path)
		db, err := NewSQLiteDB(cfg.Database.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("open SQLite: %w", err)
		}
		return db, nil

	case "memory":
		log.Println("Database: Using in-memory listing store (data is lost on restart)")
		return store.NewMemoryRepository(), nil
	}
	return nil, fmt.Errorf("unknown database type %q", cfg.Database.Type)
}

func portString(port int) string {
	if port > 0 {
		return fmt.Sprintf("%d", port)
	}
	return ""
}
