package service

import (
	"github.com/mariabakes/breads-rest-api/internal/domain"
	"github.com/mariabakes/breads-rest-api/internal/repository"
)

type BakeryService struct {
	bakeries repository.BakeryRepository
}

func NewBakeryService(bakeries repository.BakeryRepository) *BakeryService {
	return &BakeryService{bakeries: bakeries}
}

func (s *BakeryService) Get(id uint) (*domain.Bakery, error) {
	return s.bakeries.FindByID(id)
}

func (s *BakeryService) List() ([]domain.Bakery, error) {
	return s.bakeries.List()
}

func (s *BakeryService) Create(name, address string) (*domain.Bakery, error) {
	bakery := &domain.Bakery{Name: name, Address: address}
	if err := s.bakeries.Create(bakery); err != nil {
		return nil, err
	}
	return bakery, nil
}

// Delete removes the bakery and reports its former name and id so the handler
// can echo them back, matching the API's delete responses.
func (s *BakeryService) Delete(id uint) (*domain.Bakery, error) {
	bakery, err := s.bakeries.FindByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.bakeries.Delete(id); err != nil {
		return nil, err
	}
	return bakery, nil
}
