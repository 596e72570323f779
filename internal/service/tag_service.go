package service

import (
	"errors"

	"github.com/mariabakes/breads-rest-api/internal/domain"
	"github.com/mariabakes/breads-rest-api/internal/repository"
)

// ErrTagInUse guards deletion: a tag still linked to breads stays.
var ErrTagInUse = errors.New("tag is linked to one or more breads")

type TagService struct {
	tags     repository.TagRepository
	bakeries repository.BakeryRepository
}

func NewTagService(tags repository.TagRepository, bakeries repository.BakeryRepository) *TagService {
	return &TagService{tags: tags, bakeries: bakeries}
}

func (s *TagService) Get(id uint) (*domain.Tag, error) {
	return s.tags.FindByID(id)
}

func (s *TagService) ListForBakery(bakeryID uint) ([]domain.Tag, error) {
	if _, err := s.bakeries.FindByID(bakeryID); err != nil {
		return nil, err
	}
	return s.tags.ListByBakeryID(bakeryID)
}

func (s *TagService) Create(bakeryID uint, name string) (*domain.Tag, error) {
	if _, err := s.bakeries.FindByID(bakeryID); err != nil {
		return nil, err
	}
	tag := &domain.Tag{Name: name, BakeryID: bakeryID}
	if err := s.tags.Create(tag); err != nil {
		return nil, err
	}
	return tag, nil
}

func (s *TagService) Delete(id uint) error {
	if _, err := s.tags.FindByID(id); err != nil {
		return err
	}
	count, err := s.tags.CountBreads(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrTagInUse
	}
	return s.tags.Delete(id)
}
