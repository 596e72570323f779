package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/mariabakes/breads-rest-api/internal/http/response"
	"github.com/mariabakes/breads-rest-api/internal/repository"
	"github.com/mariabakes/breads-rest-api/internal/service"
)

type BreadHandler struct {
	breads *service.BreadService
}

func NewBreadHandler(breads *service.BreadService) *BreadHandler {
	return &BreadHandler{breads: breads}
}

type createBreadRequest struct {
	Name       string  `json:"name" validate:"required,max=50"`
	Price      float64 `json:"price" validate:"required,gt=0"`
	Currency   string  `json:"currency" validate:"required,len=3"`
	GlutenFree bool    `json:"gluten_free"`
	Info       string  `json:"info" validate:"max=512"`
	BakeryID   uint    `json:"bakery_id" validate:"required"`
}

type updateBreadRequest struct {
	Name       string  `json:"name" validate:"required,max=50"`
	Price      float64 `json:"price" validate:"required,gt=0"`
	Currency   string  `json:"currency" validate:"required,len=3"`
	GlutenFree bool    `json:"gluten_free"`
}

func (h *BreadHandler) List(w http.ResponseWriter, r *http.Request) {
	query := repository.BreadListQuery{}
	q := r.URL.Query()
	query.Page, _ = strconv.Atoi(q.Get("page"))
	query.PageSize, _ = strconv.Atoi(q.Get("page_size"))
	if raw := q.Get("bakery_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			response.Error(w, r, http.StatusBadRequest, "INVALID_ID", "invalid bakery_id parameter", nil)
			return
		}
		query.BakeryID = uint(id)
	}
	if raw := q.Get("gluten_free"); raw != "" {
		gf, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(w, r, http.StatusBadRequest, "INVALID_QUERY", "invalid gluten_free parameter", nil)
			return
		}
		query.GlutenFree = &gf
	}

	page, err := h.breads.List(query)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, page)
}

func (h *BreadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBreadRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	bread, err := h.breads.Create(service.BreadInput{
		Name:       req.Name,
		Price:      req.Price,
		Currency:   req.Currency,
		GlutenFree: req.GlutenFree,
		Info:       req.Info,
		BakeryID:   req.BakeryID,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, bread)
}

func (h *BreadHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	bread, err := h.breads.Get(id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, bread)
}

func (h *BreadHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var req updateBreadRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	bread, err := h.breads.Update(id, req.Name, req.Price, req.Currency, req.GlutenFree)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, bread)
}

func (h *BreadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	bread, err := h.breads.Delete(id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"message": "bread deleted",
		"id":      bread.ID,
		"name":    bread.Name,
	})
}

func (h *BreadHandler) LinkTag(w http.ResponseWriter, r *http.Request) {
	breadID, ok := urlID(w, r, "bread_id")
	if !ok {
		return
	}
	tagID, ok := urlID(w, r, "tag_id")
	if !ok {
		return
	}
	tag, err := h.breads.LinkTag(breadID, tagID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, map[string]any{
		"message":  "tag linked",
		"bread_id": breadID,
		"tag":      tag,
	})
}

func (h *BreadHandler) UnlinkTag(w http.ResponseWriter, r *http.Request) {
	breadID, ok := urlID(w, r, "bread_id")
	if !ok {
		return
	}
	tagID, ok := urlID(w, r, "tag_id")
	if !ok {
		return
	}
	_, tag, err := h.breads.UnlinkTag(breadID, tagID)
	if err != nil {
		if errors.Is(err, service.ErrTagNotOnBread) {
			response.Error(w, r, http.StatusBadRequest, "TAG_NOT_LINKED", "tag is not linked to this bread", nil)
			return
		}
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"message":  "tag unlinked",
		"bread_id": breadID,
		"tag":      tag,
	})
}
