package service

import (
	"github.com/mariabakes/breads-rest-api/internal/domain"
	"github.com/mariabakes/breads-rest-api/internal/repository"
)

// UserService backs the user inspection endpoints kept around for test
// tooling; account creation goes through AuthService.Register.
type UserService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) Get(id uint) (*domain.User, error) {
	return s.users.FindByID(id)
}

func (s *UserService) Delete(id uint) error {
	return s.users.Delete(id)
}
