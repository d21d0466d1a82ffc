package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/yungbote/snapcal-backend/internal/domain"
	"github.com/yungbote/snapcal-backend/internal/platform/logger"
)

var ErrNotFound = errors.New("record not found")

type EventRecordRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rec *domain.EventRecord) (*domain.EventRecord, error)
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*domain.EventRecord, error)
	List(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*domain.EventRecord, error)
	SoftDeleteByID(ctx context.Context, tx *gorm.DB, id string) error
}

type eventRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEventRecordRepo(db *gorm.DB, baseLog *logger.Logger) EventRecordRepo {
	return &eventRecordRepo{db: db, log: baseLog.With("repo", "EventRecordRepo")}
}

func (r *eventRecordRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *eventRecordRepo) Create(ctx context.Context, tx *gorm.DB, rec *domain.EventRecord) (*domain.EventRecord, error) {
	if rec == nil {
		return nil, errors.New("nil record")
	}
	if err := r.conn(tx).WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *eventRecordRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*domain.EventRecord, error) {
	var rec domain.EventRecord
	err := r.conn(tx).WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns the most recently saved records first.
func (r *eventRecordRepo) List(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*domain.EventRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	var results []*domain.EventRecord
	if err := r.conn(tx).WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *eventRecordRepo) SoftDeleteByID(ctx context.Context, tx *gorm.DB, id string) error {
	res := r.conn(tx).WithContext(ctx).Where("id = ?", id).Delete(&domain.EventRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
