package service

import (
	"errors"

	"github.com/mariabakes/breads-rest-api/internal/domain"
	"github.com/mariabakes/breads-rest-api/internal/repository"
)

var ErrTagNotOnBread = errors.New("tag not linked to bread")

type BreadInput struct {
	Name       string
	Price      float64
	Currency   string
	GlutenFree bool
	Info       string
	BakeryID   uint
}

type BreadService struct {
	breads   repository.BreadRepository
	bakeries repository.BakeryRepository
	tags     repository.TagRepository
}

func NewBreadService(breads repository.BreadRepository, bakeries repository.BakeryRepository, tags repository.TagRepository) *BreadService {
	return &BreadService{breads: breads, bakeries: bakeries, tags: tags}
}

func (s *BreadService) Get(id uint) (*domain.Bread, error) {
	return s.breads.FindByID(id)
}

func (s *BreadService) List(query repository.BreadListQuery) (repository.PageResult[domain.Bread], error) {
	return s.breads.ListPaged(query)
}

func (s *BreadService) Create(in BreadInput) (*domain.Bread, error) {
	// reject unknown bakeries up front instead of surfacing an FK violation
	if _, err := s.bakeries.FindByID(in.BakeryID); err != nil {
		return nil, err
	}
	bread := &domain.Bread{
		Name:       in.Name,
		Price:      in.Price,
		Currency:   in.Currency,
		GlutenFree: in.GlutenFree,
		Info:       in.Info,
		BakeryID:   in.BakeryID,
	}
	if err := s.breads.Create(bread); err != nil {
		return nil, err
	}
	return s.breads.FindByID(bread.ID)
}

func (s *BreadService) Update(id uint, name string, price float64, currency string, glutenFree bool) (*domain.Bread, error) {
	bread, err := s.breads.FindByID(id)
	if err != nil {
		return nil, err
	}
	bread.Name = name
	bread.Price = price
	bread.Currency = currency
	bread.GlutenFree = glutenFree
	if err := s.breads.Update(bread); err != nil {
		return nil, err
	}
	return bread, nil
}

func (s *BreadService) Delete(id uint) (*domain.Bread, error) {
	bread, err := s.breads.FindByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.breads.Delete(id); err != nil {
		return nil, err
	}
	return bread, nil
}

func (s *BreadService) LinkTag(breadID, tagID uint) (*domain.Tag, error) {
	bread, err := s.breads.FindByID(breadID)
	if err != nil {
		return nil, err
	}
	tag, err := s.tags.FindByID(tagID)
	if err != nil {
		return nil, err
	}
	if err := s.breads.AppendTag(bread, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

func (s *BreadService) UnlinkTag(breadID, tagID uint) (*domain.Bread, *domain.Tag, error) {
	bread, err := s.breads.FindByID(breadID)
	if err != nil {
		return nil, nil, err
	}
	tag, err := s.tags.FindByID(tagID)
	if err != nil {
		return nil, nil, err
	}
	linked := false
	for _, t := range bread.Tags {
		if t.ID == tag.ID {
			linked = true
			break
		}
	}
	if !linked {
		return nil, nil, ErrTagNotOnBread
	}
	if err := s.breads.RemoveTag(bread, tag); err != nil {
		return nil, nil, err
	}
	return bread, tag, nil
}
