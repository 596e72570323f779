package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mariabakes/breads-rest-api/internal/domain"
	"github.com/mariabakes/breads-rest-api/internal/observability"
)

var ErrTagNotFound = errors.New("tag not found")

type TagRepository interface {
	FindByID(id uint) (*domain.Tag, error)
	ListByBakeryID(bakeryID uint) ([]domain.Tag, error)
	Create(tag *domain.Tag) error
	Delete(id uint) error
	CountBreads(tagID uint) (int64, error)
}

type GormTagRepository struct{ db *gorm.DB }

func NewTagRepository(db *gorm.DB) TagRepository { return &GormTagRepository{db: db} }

func (r *GormTagRepository) FindByID(id uint) (*domain.Tag, error) {
	var t domain.Tag
	err := r.db.Preload("Bakery").Preload("Breads").First(&t, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "tag", "find_by_id", "not_found")
			return nil, ErrTagNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "tag", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "tag", "find_by_id", "success")
	return &t, nil
}

func (r *GormTagRepository) ListByBakeryID(bakeryID uint) ([]domain.Tag, error) {
	var tags []domain.Tag
	err := r.db.Where("bakery_id = ?", bakeryID).Order("id").Find(&tags).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "tag", "list_by_bakery", "error")
		return tags, err
	}
	observability.RecordRepositoryOperation(context.Background(), "tag", "list_by_bakery", "success")
	return tags, nil
}

func (r *GormTagRepository) Create(tag *domain.Tag) error {
	err := r.db.Create(tag).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "tag", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "tag", "create", "success")
	return nil
}

func (r *GormTagRepository) Delete(id uint) error {
	res := r.db.Delete(&domain.Tag{}, id)
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "tag", "delete", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "tag", "delete", "not_found")
		return ErrTagNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "tag", "delete", "success")
	return nil
}

func (r *GormTagRepository) CountBreads(tagID uint) (int64, error) {
	count := r.db.Model(&domain.Tag{ID: tagID}).Association("Breads").Count()
	observability.RecordRepositoryOperation(context.Background(), "tag", "count_breads", "success")
	return count, nil
}
