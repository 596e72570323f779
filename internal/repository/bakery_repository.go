package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mariabakes/breads-rest-api/internal/domain"
	"github.com/mariabakes/breads-rest-api/internal/observability"
)

var (
	ErrBakeryNotFound = errors.New("bakery not found")
	ErrDuplicateKey   = errors.New("duplicate key")
)

type BakeryRepository interface {
	FindByID(id uint) (*domain.Bakery, error)
	List() ([]domain.Bakery, error)
	Create(bakery *domain.Bakery) error
	Delete(id uint) error
}

type GormBakeryRepository struct{ db *gorm.DB }

func NewBakeryRepository(db *gorm.DB) BakeryRepository { return &GormBakeryRepository{db: db} }

func (r *GormBakeryRepository) FindByID(id uint) (*domain.Bakery, error) {
	var b domain.Bakery
	err := r.db.Preload("Breads").Preload("Tags").First(&b, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "bakery", "find_by_id", "not_found")
			return nil, ErrBakeryNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "bakery", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "bakery", "find_by_id", "success")
	return &b, nil
}

func (r *GormBakeryRepository) List() ([]domain.Bakery, error) {
	var bakeries []domain.Bakery
	err := r.db.Preload("Breads").Preload("Tags").Order("id").Find(&bakeries).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "bakery", "list", "error")
		return bakeries, err
	}
	observability.RecordRepositoryOperation(context.Background(), "bakery", "list", "success")
	return bakeries, nil
}

func (r *GormBakeryRepository) Create(bakery *domain.Bakery) error {
	err := r.db.Create(bakery).Error
	if err != nil {
		if isUniqueViolation(err) {
			observability.RecordRepositoryOperation(context.Background(), "bakery", "create", "conflict")
			return ErrDuplicateKey
		}
		observability.RecordRepositoryOperation(context.Background(), "bakery", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "bakery", "create", "success")
	return nil
}

func (r *GormBakeryRepository) Delete(id uint) error {
	res := r.db.Delete(&domain.Bakery{}, id)
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "bakery", "delete", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "bakery", "delete", "not_found")
		return ErrBakeryNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "bakery", "delete", "success")
	return nil
}

// isUniqueViolation matches the driver-specific unique constraint errors of
// both the postgres and sqlite backends, next to gorm's own sentinel.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
