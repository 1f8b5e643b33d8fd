package repository

import (
	"context"
	"errors"
	"time"

	"github.com/example/qrdine/pkg/config"
	"github.com/example/qrdine/pkg/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// StaffRepository is the staff directory in MySQL.
type StaffRepository struct {
	db *gorm.DB
}

func NewStaffRepository(cfg *config.MySQLConfig) (*StaffRepository, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return NewStaffRepositoryWithDB(db)
}

// NewStaffRepositoryWithDB migrates the staff table on an open connection.
func NewStaffRepositoryWithDB(db *gorm.DB) (*StaffRepository, error) {
	if err := db.AutoMigrate(&models.Staff{}); err != nil {
		return nil, err
	}
	return &StaffRepository{db: db}, nil
}

func (r *StaffRepository) FindByID(ctx context.Context, id string) (*models.Staff, error) {
	var staff models.Staff
	err := r.db.WithContext(ctx).First(&staff, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *StaffRepository) List(ctx context.Context) ([]models.Staff, error) {
	var staff []models.Staff
	err := r.db.WithContext(ctx).Order("email").Find(&staff).Error
	return staff, err
}

// Upsert inserts staff or overwrites the row with the same id.
func (r *StaffRepository) Upsert(ctx context.Context, staff *models.Staff) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(staff).Error
}

func (r *StaffRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
