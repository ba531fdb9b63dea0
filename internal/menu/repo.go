package menu

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mesaviva/mesaviva-backend/pkg/db/models"
	pkgerrors "github.com/mesaviva/mesaviva-backend/pkg/errors"
)

// Repository loads menu rotations. Writes happen through the content tooling,
// not this service, so the repository is read-only.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindWeekByID loads a week with its days and items, days ordered by index.
func (r *Repository) FindWeekByID(ctx context.Context, id uuid.UUID) (*models.MenuWeek, error) {
	var week models.MenuWeek
	err := r.db.WithContext(ctx).
		Preload("Days", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_index ASC")
		}).
		Preload("Days.Items").
		First(&week, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu week not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading menu week")
	}
	return &week, nil
}

// FindCurrentWeek loads the latest published week whose start is not in the
// future relative to now.
func (r *Repository) FindCurrentWeek(ctx context.Context, now time.Time) (*models.MenuWeek, error) {
	var week models.MenuWeek
	err := r.db.WithContext(ctx).
		Where("published = ? AND week_of <= ?", true, now).
		Order("week_of DESC").
		Preload("Days", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_index ASC")
		}).
		Preload("Days.Items").
		First(&week).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no published menu week")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading current menu week")
	}
	return &week, nil
}
