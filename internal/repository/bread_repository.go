package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mariabakes/breads-rest-api/internal/domain"
	"github.com/mariabakes/breads-rest-api/internal/observability"
)

var ErrBreadNotFound = errors.New("bread not found")

type BreadListQuery struct {
	PageRequest
	BakeryID   uint
	GlutenFree *bool
}

type BreadRepository interface {
	FindByID(id uint) (*domain.Bread, error)
	ListPaged(query BreadListQuery) (PageResult[domain.Bread], error)
	Create(bread *domain.Bread) error
	Update(bread *domain.Bread) error
	Delete(id uint) error
	AppendTag(bread *domain.Bread, tag *domain.Tag) error
	RemoveTag(bread *domain.Bread, tag *domain.Tag) error
}

type GormBreadRepository struct{ db *gorm.DB }

func NewBreadRepository(db *gorm.DB) BreadRepository { return &GormBreadRepository{db: db} }

func (r *GormBreadRepository) FindByID(id uint) (*domain.Bread, error) {
	var b domain.Bread
	err := r.db.Preload("Bakery").Preload("Tags").First(&b, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "bread", "find_by_id", "not_found")
			return nil, ErrBreadNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "bread", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "bread", "find_by_id", "success")
	return &b, nil
}

func (r *GormBreadRepository) ListPaged(query BreadListQuery) (PageResult[domain.Bread], error) {
	req := normalizePageRequest(query.PageRequest)
	result := PageResult[domain.Bread]{
		Page:     req.Page,
		PageSize: req.PageSize,
	}

	base := r.db.Model(&domain.Bread{})
	if query.BakeryID != 0 {
		base = base.Where("bakery_id = ?", query.BakeryID)
	}
	if query.GlutenFree != nil {
		base = base.Where("gluten_free = ?", *query.GlutenFree)
	}

	if err := base.Session(&gorm.Session{}).Count(&result.Total).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "bread", "list_paged", "error")
		return PageResult[domain.Bread]{}, err
	}

	offset := (req.Page - 1) * req.PageSize
	err := base.Preload("Bakery").Preload("Tags").
		Order("id").
		Offset(offset).Limit(req.PageSize).
		Find(&result.Items).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "bread", "list_paged", "error")
		return PageResult[domain.Bread]{}, err
	}
	result.TotalPages = calcTotalPages(result.Total, req.PageSize)
	observability.RecordRepositoryOperation(context.Background(), "bread", "list_paged", "success")
	return result, nil
}

func (r *GormBreadRepository) Create(bread *domain.Bread) error {
	err := r.db.Create(bread).Error
	if err != nil {
		if isUniqueViolation(err) {
			observability.RecordRepositoryOperation(context.Background(), "bread", "create", "conflict")
			return ErrDuplicateKey
		}
		observability.RecordRepositoryOperation(context.Background(), "bread", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "bread", "create", "success")
	return nil
}

func (r *GormBreadRepository) Update(bread *domain.Bread) error {
	err := r.db.Save(bread).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "bread", "update", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "bread", "update", "success")
	return nil
}

func (r *GormBreadRepository) Delete(id uint) error {
	res := r.db.Select("Tags").Delete(&domain.Bread{ID: id})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "bread", "delete", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "bread", "delete", "not_found")
		return ErrBreadNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "bread", "delete", "success")
	return nil
}

func (r *GormBreadRepository) AppendTag(bread *domain.Bread, tag *domain.Tag) error {
	if err := r.db.Model(bread).Association("Tags").Append(tag); err != nil {
		observability.RecordRepositoryOperation(context.Background(), "bread", "append_tag", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "bread", "append_tag", "success")
	return nil
}

func (r *GormBreadRepository) RemoveTag(bread *domain.Bread, tag *domain.Tag) error {
	if err := r.db.Model(bread).Association("Tags").Delete(tag); err != nil {
		observability.RecordRepositoryOperation(context.Background(), "bread", "remove_tag", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "bread", "remove_tag", "success")
	return nil
}
