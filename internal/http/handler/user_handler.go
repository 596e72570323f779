package handler

import (
	"net/http"

	"github.com/mariabakes/breads-rest-api/internal/http/response"
	"github.com/mariabakes/breads-rest-api/internal/observability"
	"github.com/mariabakes/breads-rest-api/internal/service"
)

type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	user, err := h.users.Get(id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, user)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	if err := h.users.Delete(id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	observability.Audit(r, "user.delete", "user_id", id)
	response.JSON(w, r, http.StatusOK, map[string]any{
		"message": "user deleted",
		"id":      id,
	})
}
