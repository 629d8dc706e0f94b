package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"listing-browser/internal/models"
	"listing-browser/internal/store"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type GormDB struct {
	db *gorm.DB
}

func NewGormDB(host, port, user, password, dbname string, logLevel logger.LogLevel) (*GormDB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, dbname)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	})
	if err != nil {
		return nil, err
	}

	// Test connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	return &GormDB{db: db}, nil
}

// NewGormDBFromDB creates a GormDB wrapper from an existing gorm.DB instance
func NewGormDBFromDB(db *gorm.DB) *GormDB {
	return &GormDB{db: db}
}

// DB returns the underlying gorm.DB instance
func (gdb *GormDB) DB() *gorm.DB {
	return gdb.db
}

func (gdb *GormDB) Close() error {
	sqlDB, err := gdb.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InitSchema creates the listings table using GORM AutoMigrate
func (gdb *GormDB) InitSchema() error {
	return gdb.db.AutoMigrate(&models.Listing{})
}

// List retrieves all listings, newest first
func (gdb *GormDB) List(ctx context.Context) ([]models.Listing, error) {
	var listings []models.Listing
	err := gdb.db.WithContext(ctx).Order("created_at DESC").Find(&listings).Error
	return listings, err
}

// Get retrieves a listing by ID
func (gdb *GormDB) Get(ctx context.Context, id string) (models.Listing, error) {
	var l models.Listing
	err := gdb.db.WithContext(ctx).Where("id = ?", id).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Listing{}, store.ErrNotFound
	}
	return l, err
}

func (gdb *GormDB) Insert(ctx context.Context, l models.Listing) error {
	return gdb.db.WithContext(ctx).Create(&l).Error
}

// Update writes only the patched columns. MySQL reports changed rows, not
// matched ones, so existence is checked first.
func (gdb *GormDB) Update(ctx context.Context, id string, patch models.ListingPatch) error {
	cols := patch.Columns()
	return gdb.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Listing{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return store.ErrNotFound
		}
		if len(cols) == 0 {
			return nil
		}
		return tx.Model(&models.Listing{}).Where("id = ?", id).Updates(cols).Error
	})
}
