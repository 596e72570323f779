package handler

import (
	"net/http"

	"github.com/mariabakes/breads-rest-api/internal/http/response"
	"github.com/mariabakes/breads-rest-api/internal/service"
)

type BakeryHandler struct {
	bakeries *service.BakeryService
}

func NewBakeryHandler(bakeries *service.BakeryService) *BakeryHandler {
	return &BakeryHandler{bakeries: bakeries}
}

type bakeryRequest struct {
	Name    string `json:"name" validate:"required,max=40"`
	Address string `json:"address" validate:"required,max=80"`
}

func (h *BakeryHandler) List(w http.ResponseWriter, r *http.Request) {
	bakeries, err := h.bakeries.List()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, bakeries)
}

func (h *BakeryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req bakeryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	bakery, err := h.bakeries.Create(req.Name, req.Address)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, bakery)
}

func (h *BakeryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	bakery, err := h.bakeries.Get(id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, bakery)
}

func (h *BakeryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	bakery, err := h.bakeries.Delete(id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"message": "bakery deleted",
		"id":      bakery.ID,
		"name":    bakery.Name,
	})
}
